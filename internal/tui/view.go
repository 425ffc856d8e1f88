// internal/tui/view.go
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"tgbench/internal/stats"
	"tgbench/internal/util"
)

const (
	// chartSamples is how many of the most recent latencies the chart shows.
	chartSamples = 10
	// chartBarWidth is the maximum bar length in cells.
	chartBarWidth = 40
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	runningStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	doneStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	abortedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("208")).Padding(0, 1)
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("9")).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("244"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the dashboard from the current model state.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var builder strings.Builder

	builder.WriteString(m.headerView())
	builder.WriteString("\n\n")

	if len(m.tabs) == 0 {
		builder.WriteString(fmt.Sprintf("  %s Waiting for the first run... %.1fs\n", m.spinner.View(), time.Since(m.startTime).Seconds()))
		builder.WriteString("\n" + helpStyle.Render("  q: quit"))
		return builder.String()
	}

	builder.WriteString(m.tabsView())
	builder.WriteString("\n\n")
	builder.WriteString(m.groupView(m.activeBatch()))
	builder.WriteString("\n")
	builder.WriteString(sectionStyle.Render("  Summary"))
	builder.WriteString("\n")
	builder.WriteString(m.summary.View())
	builder.WriteString("\n\n")
	builder.WriteString(helpStyle.Render("  tab/←/→: switch batch size   q: quit"))

	return builder.String()
}

// headerView renders the title and the state banner.
func (m *model) headerView() string {
	title := titleStyle.Render("tgbench")

	var badge string
	switch m.state {
	case bannerDone:
		badge = doneStyle.Render("DONE")
	case bannerAborted:
		badge = abortedStyle.Render("ABORTED")
	case bannerError:
		badge = errorStyle.Render("ERROR: " + util.TruncateRunes(fmt.Sprintf("%v", m.err), 60))
	default:
		elapsed := fmt.Sprintf("%.1fs", time.Since(m.startTime).Seconds())
		badge = runningStyle.Render("RUNNING " + elapsed)
		if m.abortRequested {
			badge = abortedStyle.Render("STOPPING " + elapsed)
		}
	}

	info := dimStyle.Render(fmt.Sprintf(" seq=%d decode=%d runs=%d warmups=%d",
		m.plan.SequenceLength, m.plan.DecodeLength, m.plan.RunCount, m.plan.WarmupCount))

	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", badge, info)
}

// tabsView renders one tab per batch-size group with activity.
func (m *model) tabsView() string {
	labels := make([]string, 0, len(m.tabs))
	for i, b := range m.tabs {
		label := fmt.Sprintf("batch %d", b)
		if m.completed[b] {
			label += " ✓"
		}
		if i == m.active {
			labels = append(labels, activeTabStyle.Render(label))
		} else {
			labels = append(labels, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, labels...)
}

// groupView renders the active group's phase, progress, and latency chart.
func (m *model) groupView(batch int) string {
	var builder strings.Builder

	if total := m.warmupTotal[batch]; total > 0 && m.warmupDone[batch] < total {
		builder.WriteString(fmt.Sprintf("  %s %s %d/%d\n\n", m.spinner.View(), sectionStyle.Render("Warmup"), m.warmupDone[batch], total))
		return builder.String()
	}

	measured := m.measured[batch]
	pct := float64(measured) / float64(m.plan.RunCount)
	if pct > 1 {
		pct = 1
	}
	label := fmt.Sprintf("%d/%d runs", measured, m.plan.RunCount)
	if !m.completed[batch] && !m.state.terminal() && batch == m.currentGroup() {
		label = m.spinner.View() + " " + label
	}
	builder.WriteString(fmt.Sprintf("  %s  %s\n\n", m.progress.ViewAs(pct), label))

	if g, ok := m.agg.Group(batch); ok {
		builder.WriteString(latencyChart(g))
	}

	return builder.String()
}

// currentGroup returns the batch size the scheduler is working on: the first
// tab whose group has not completed.
func (m *model) currentGroup() int {
	for _, b := range m.tabs {
		if !m.completed[b] {
			return b
		}
	}
	return 0
}

// latencyChart renders the most recent latencies of a group as horizontal
// bars scaled against the group's maximum.
func latencyChart(g *stats.GroupStats) string {
	latencies := g.Latencies()
	if len(latencies) == 0 {
		return ""
	}
	if len(latencies) > chartSamples {
		latencies = latencies[len(latencies)-chartSamples:]
	}

	var builder strings.Builder
	builder.WriteString(sectionStyle.Render("  Latency"))
	builder.WriteString("\n")
	for _, d := range latencies {
		width := 1
		if g.Max > 0 {
			width = int(float64(chartBarWidth) * float64(d) / float64(g.Max))
		}
		if width < 1 {
			width = 1
		}
		builder.WriteString("  ")
		builder.WriteString(barStyle.Render(strings.Repeat("█", width)))
		builder.WriteString(dimStyle.Render(fmt.Sprintf(" %s", formatDuration(d))))
		builder.WriteString("\n")
	}
	return builder.String()
}

// summaryRow formats one aggregator group as a summary table row.
func summaryRow(g *stats.GroupStats) table.Row {
	tput := "n/a"
	if v, ok := g.Throughput(); ok {
		tput = fmt.Sprintf("%.1f", v)
	}
	return table.Row{
		fmt.Sprintf("%d", g.BatchSize),
		fmt.Sprintf("%d", g.Count),
		fmt.Sprintf("%d", g.Errors),
		formatDuration(g.Mean),
		formatDuration(g.P50),
		formatDuration(g.P90),
		formatDuration(g.P99),
		tput,
	}
}

// formatDuration renders a latency with millisecond precision.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
