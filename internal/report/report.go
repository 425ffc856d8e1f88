// Package report prints the final benchmark summary after the dashboard
// closes and optionally exports the per-group statistics as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"tgbench/internal/appconfig"
	"tgbench/internal/stats"
)

var (
	successMark = color.New(color.FgGreen).SprintFunc()
	failureMark = color.New(color.FgRed).SprintFunc()
	heading     = color.New(color.Bold).SprintFunc()
)

// PrintSummary writes a plain-text summary of every batch-size group to w.
func PrintSummary(w io.Writer, plan appconfig.Plan, groups []*stats.GroupStats) {
	fmt.Fprintf(w, "\n%s\n", heading("Benchmark summary"))
	fmt.Fprintf(w, "sequence length: %d tokens, decode length: %d tokens, %d runs per batch size\n\n",
		plan.SequenceLength, plan.DecodeLength, plan.RunCount)

	if len(groups) == 0 {
		fmt.Fprintln(w, "no measured runs")
		return
	}

	for _, g := range groups {
		mark := successMark("ok")
		if g.Errors > 0 {
			mark = failureMark(fmt.Sprintf("%d failed", g.Errors))
		}
		fmt.Fprintf(w, "batch %-4d %d runs (%s)\n", g.BatchSize, g.Count, mark)
		if g.Successes() == 0 {
			fmt.Fprintf(w, "  no successful runs\n")
			continue
		}
		fmt.Fprintf(w, "  latency  mean=%s min=%s max=%s\n", fmtDur(g.Mean), fmtDur(g.Min), fmtDur(g.Max))
		fmt.Fprintf(w, "  pctl     p50=%s p90=%s p99=%s\n", fmtDur(g.P50), fmtDur(g.P90), fmtDur(g.P99))
		if tput, ok := g.Throughput(); ok {
			fmt.Fprintf(w, "  tokens   %d total, %.1f tokens/s\n", g.TotalTokens, tput)
		}
	}
}

// export is the JSON document written by WriteJSON.
type export struct {
	Plan    exportPlan    `json:"plan"`
	Created time.Time     `json:"created"`
	Groups  []exportGroup `json:"groups"`
}

type exportPlan struct {
	BatchSizes     []int `json:"batchSizes"`
	SequenceLength int   `json:"sequenceLength"`
	DecodeLength   int   `json:"decodeLength"`
	WarmupCount    int   `json:"warmupCount"`
	RunCount       int   `json:"runCount"`
	Concurrency    int   `json:"concurrency"`
}

type exportGroup struct {
	BatchSize   int      `json:"batchSize"`
	Count       int      `json:"count"`
	Errors      int      `json:"errors"`
	MeanMs      float64  `json:"meanMs"`
	MinMs       float64  `json:"minMs"`
	MaxMs       float64  `json:"maxMs"`
	P50Ms       float64  `json:"p50Ms"`
	P90Ms       float64  `json:"p90Ms"`
	P99Ms       float64  `json:"p99Ms"`
	TotalTokens int      `json:"totalTokens"`
	Throughput  *float64 `json:"tokensPerSecond,omitempty"`
}

// WriteJSON exports the final statistics to path as indented JSON.
func WriteJSON(path string, plan appconfig.Plan, groups []*stats.GroupStats) error {
	doc := export{
		Plan: exportPlan{
			BatchSizes:     plan.BatchSizes,
			SequenceLength: plan.SequenceLength,
			DecodeLength:   plan.DecodeLength,
			WarmupCount:    plan.WarmupCount,
			RunCount:       plan.RunCount,
			Concurrency:    plan.Concurrency,
		},
		Created: time.Now().UTC(),
	}
	for _, g := range groups {
		eg := exportGroup{
			BatchSize:   g.BatchSize,
			Count:       g.Count,
			Errors:      g.Errors,
			MeanMs:      ms(g.Mean),
			MinMs:       ms(g.Min),
			MaxMs:       ms(g.Max),
			P50Ms:       ms(g.P50),
			P90Ms:       ms(g.P90),
			P99Ms:       ms(g.P99),
			TotalTokens: g.TotalTokens,
		}
		if tput, ok := g.Throughput(); ok {
			eg.Throughput = &tput
		}
		doc.Groups = append(doc.Groups, eg)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating export directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating export file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("error writing export file: %w", err)
	}
	return nil
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func fmtDur(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
