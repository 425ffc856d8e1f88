// internal/tui/run.go
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"tgbench/internal/appconfig"
	"tgbench/internal/client"
	"tgbench/internal/runner"
	"tgbench/internal/stats"
)

// Outcome is what a finished dashboard session reports back to the CLI.
type Outcome struct {
	Aggregator *stats.Aggregator
	Aborted    bool
	Err        error
}

// translate maps a scheduler event to its dashboard message.
func translate(ev runner.Event) tea.Msg {
	switch ev := ev.(type) {
	case runner.SampleEvent:
		return sampleMsg{sample: ev.Sample}
	case runner.WarmupEvent:
		return warmupMsg{batchSize: ev.BatchSize, done: ev.Done, total: ev.Total}
	case runner.RunSetComplete:
		return runSetCompleteMsg{batchSize: ev.BatchSize}
	case runner.SetAborted:
		return setAbortedMsg{batchSize: ev.BatchSize}
	default:
		return fatalErrMsg{err: fmt.Errorf("unknown scheduler event %T", ev)}
	}
}

// Run starts the scheduler and the dashboard, and blocks until the benchmark
// finishes or the user quits. The tea program is the single consumer of the
// merged event stream; the scheduler goroutine only calls p.Send.
func Run(ctx context.Context, plan appconfig.Plan, gen client.Generator, promptText string) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(plan, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		sched := runner.NewScheduler(plan, gen, promptText, func(ev runner.Event) {
			p.Send(translate(ev))
		})
		sched.Run(ctx)
		p.Send(schedulerDoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("run dashboard: %w", err)
	}

	final := finalModel.(*model)
	return Outcome{
		Aggregator: final.agg,
		Aborted:    final.state == bannerAborted,
		Err:        final.err,
	}, nil
}
