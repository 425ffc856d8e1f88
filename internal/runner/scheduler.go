package runner

import (
	"context"
	"sync"
	"sync/atomic"

	"tgbench/internal/appconfig"
	"tgbench/internal/client"
	"tgbench/internal/logging"
)

// Scheduler walks the benchmark plan group by group: warmup runs first,
// whose outcomes are discarded, then the measured runs, forwarding each
// sample as it completes. Groups run strictly in plan order; a group
// finishes entirely before the next one starts.
type Scheduler struct {
	plan   appconfig.Plan
	gen    client.Generator
	prompt string
	emit   func(Event)
}

// NewScheduler builds a scheduler for the given plan. emit receives every
// event and must be safe to call from multiple goroutines; events for one
// group arrive in completion order, and no two groups ever interleave.
func NewScheduler(plan appconfig.Plan, gen client.Generator, prompt string, emit func(Event)) *Scheduler {
	return &Scheduler{plan: plan, gen: gen, prompt: prompt, emit: emit}
}

// Run executes the plan until it completes or ctx is cancelled. Cancellation
// is cooperative: it is observed between runs and at concurrency-wait
// points, and in-flight calls drain rather than being killed.
func (s *Scheduler) Run(ctx context.Context) {
	for _, batch := range s.plan.BatchSizes {
		if !s.runGroup(ctx, batch) {
			s.emit(SetAborted{BatchSize: batch})
			return
		}
	}
}

// runGroup runs one batch-size group through warmup and measurement. It
// returns false when cancellation stopped the group early.
func (s *Scheduler) runGroup(ctx context.Context, batch int) bool {
	logging.LogEvent("batch %d: warmup phase, %d runs", batch, s.plan.WarmupCount)
	if !s.runPhase(ctx, batch, s.plan.WarmupCount, true) {
		return false
	}

	logging.LogEvent("batch %d: measuring phase, %d runs", batch, s.plan.RunCount)
	if !s.runPhase(ctx, batch, s.plan.RunCount, false) {
		return false
	}

	s.emit(RunSetComplete{BatchSize: batch})
	return true
}

// runPhase issues count runs with at most plan.Concurrency in flight.
// Warmup outcomes surface only as progress events; measured outcomes are
// forwarded as samples the moment each run completes. Samples of runs
// already in flight when cancellation arrives are still delivered, so the
// aggregator's counts match what was actually observed.
func (s *Scheduler) runPhase(ctx context.Context, batch, count int, warmup bool) bool {
	if count <= 0 {
		return !cancelled(ctx)
	}

	sem := make(chan struct{}, s.plan.Concurrency)
	var wg sync.WaitGroup
	var done atomic.Int64
	aborted := false

	for i := 0; i < count && !aborted; i++ {
		if cancelled(ctx) {
			aborted = true
			break
		}
		select {
		case <-ctx.Done():
			aborted = true
		case sem <- struct{}{}:
		}
		if aborted {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			// In-flight calls outlive cancellation so their outcome is
			// still recorded.
			sample := runOnce(context.WithoutCancel(ctx), s.gen, batch, s.prompt, s.plan.DecodeLength)
			if warmup {
				s.emit(WarmupEvent{BatchSize: batch, Done: int(done.Add(1)), Total: count})
				return
			}
			if sample.Failed() {
				logging.LogEvent("batch %d: run failed: %s", batch, sample.Err)
			}
			s.emit(SampleEvent{Sample: sample})
		}()
	}

	wg.Wait()
	return !aborted && !cancelled(ctx)
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
