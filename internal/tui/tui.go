// internal/tui/tui.go
// Package tui renders the live benchmark dashboard. A single Bubble Tea
// program owns all UI-visible state: scheduler events, keyboard input, and
// redraw ticks are applied one at a time, in arrival order, so no lock
// guards the dashboard state.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"tgbench/internal/appconfig"
	"tgbench/internal/runner"
	"tgbench/internal/stats"
)

// banner represents the dashboard's overall state.
type banner int

const (
	// bannerInitializing is the state before the first event arrives.
	bannerInitializing banner = iota
	// bannerRunning is the state while the scheduler is issuing runs.
	bannerRunning
	// bannerDone is reached when the last group completes its run set.
	bannerDone
	// bannerAborted is reached after user-requested cancellation stops a group.
	bannerAborted
	// bannerError is reached on an unrecoverable failure.
	bannerError
)

// terminal reports whether b absorbs further benchmark events.
func (b banner) terminal() bool {
	return b == bannerDone || b == bannerAborted || b == bannerError
}

// sampleMsg carries one measured run's outcome into the dashboard.
type sampleMsg struct{ sample runner.Sample }

// warmupMsg reports warmup progress for a batch-size group.
type warmupMsg struct {
	batchSize int
	done      int
	total     int
}

// runSetCompleteMsg is sent when a batch-size group finishes its run set.
type runSetCompleteMsg struct{ batchSize int }

// setAbortedMsg is sent when cancellation stopped a group early.
type setAbortedMsg struct{ batchSize int }

// schedulerDoneMsg is sent once the scheduler goroutine has fully stopped.
type schedulerDoneMsg struct{}

// fatalErrMsg carries an unrecoverable error into the dashboard.
type fatalErrMsg struct{ err error }

// tickMsg drives periodic redraws so long-running single requests still
// show elapsed-time feedback.
type tickMsg time.Time

// model is the Bubble Tea model holding all dashboard state.
type model struct {
	plan   appconfig.Plan
	cancel context.CancelFunc

	state banner
	err   error

	agg    *stats.Aggregator
	tabs   []int
	active int

	warmupDone  map[int]int
	warmupTotal map[int]int
	measured    map[int]int
	completed   map[int]bool

	abortRequested bool
	startTime      time.Time

	spinner  spinner.Model
	progress progress.Model
	summary  table.Model

	width, height int
}

// newModel creates and initializes the dashboard model.
func newModel(plan appconfig.Plan, cancel context.CancelFunc) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	prog := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))

	columns := []table.Column{
		{Title: "Batch", Width: 6},
		{Title: "Runs", Width: 6},
		{Title: "Errors", Width: 7},
		{Title: "Mean", Width: 10},
		{Title: "P50", Width: 10},
		{Title: "P90", Width: 10},
		{Title: "P99", Width: 10},
		{Title: "Tok/s", Width: 9},
	}
	tbl := table.New(table.WithColumns(columns), table.WithHeight(6))
	tblStyles := table.DefaultStyles()
	tblStyles.Header = tblStyles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	tblStyles.Selected = lipgloss.NewStyle()
	tbl.SetStyles(tblStyles)

	return &model{
		plan:        plan,
		cancel:      cancel,
		state:       bannerInitializing,
		agg:         stats.NewAggregator(),
		warmupDone:  make(map[int]int),
		warmupTotal: make(map[int]int),
		measured:    make(map[int]int),
		completed:   make(map[int]bool),
		startTime:   time.Now(),
		spinner:     s,
		progress:    prog,
		summary:     tbl,
	}
}

// tickCmd creates a command that sends a tickMsg at a regular interval.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the spinner animation and the redraw tick.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// ensureTab registers a batch-size tab the first time the group produces a
// warmup signal or sample. Tabs never appear for groups with no activity.
func (m *model) ensureTab(batchSize int) {
	for _, b := range m.tabs {
		if b == batchSize {
			return
		}
	}
	m.tabs = append(m.tabs, batchSize)
}

// activeBatch returns the batch size of the selected tab, or 0 when no group
// has reported activity yet.
func (m *model) activeBatch() int {
	if len(m.tabs) == 0 {
		return 0
	}
	return m.tabs[m.active]
}

// Update is the central update function applying one event at a time.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state.terminal() {
				return m, tea.Quit
			}
			// Cooperative cancellation: stop issuing runs, let in-flight
			// calls drain, exit once the scheduler confirms.
			m.abortRequested = true
			m.cancel()
			return m, nil
		case "tab", "right", "l":
			if len(m.tabs) > 0 {
				m.active = (m.active + 1) % len(m.tabs)
			}
			return m, nil
		case "shift+tab", "left", "h":
			if len(m.tabs) > 0 {
				m.active = (m.active - 1 + len(m.tabs)) % len(m.tabs)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if w := msg.Width - 8; w > 10 && w < 80 {
			m.progress.Width = w
		}
		return m, nil

	case warmupMsg:
		if m.state.terminal() {
			return m, nil
		}
		m.state = bannerRunning
		m.ensureTab(msg.batchSize)
		// Concurrent warmup runs can report out of order; keep the
		// high-water mark so the warmup phase never reappears.
		if msg.done > m.warmupDone[msg.batchSize] {
			m.warmupDone[msg.batchSize] = msg.done
		}
		m.warmupTotal[msg.batchSize] = msg.total
		return m, nil

	case sampleMsg:
		if m.state.terminal() {
			return m, nil
		}
		m.state = bannerRunning
		m.ensureTab(msg.sample.BatchSize)
		m.measured[msg.sample.BatchSize]++
		m.agg.Apply(msg.sample)
		m.refreshSummary()
		return m, nil

	case runSetCompleteMsg:
		if m.state.terminal() {
			return m, nil
		}
		m.completed[msg.batchSize] = true
		if len(m.completed) == len(m.plan.BatchSizes) {
			m.state = bannerDone
		}
		return m, nil

	case setAbortedMsg:
		if m.state.terminal() {
			return m, nil
		}
		m.state = bannerAborted
		return m, nil

	case fatalErrMsg:
		if m.state.terminal() {
			return m, nil
		}
		m.err = msg.err
		m.state = bannerError
		return m, nil

	case schedulerDoneMsg:
		if m.abortRequested {
			if !m.state.terminal() {
				m.state = bannerAborted
			}
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		if m.state.terminal() {
			return m, nil
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// refreshSummary rebuilds the summary table rows from the aggregator.
func (m *model) refreshSummary() {
	groups := m.agg.Groups()
	rows := make([]table.Row, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, summaryRow(g))
	}
	m.summary.SetRows(rows)
	if h := len(rows) + 2; h != m.summary.Height() {
		m.summary.SetHeight(h)
	}
}
