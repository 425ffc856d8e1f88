// Package stats folds the scheduler's sample stream into running per-group
// summaries the dashboard renders live.
package stats

import (
	"math"
	"sort"
	"time"

	"tgbench/internal/runner"
)

// GroupStats is the running aggregate for one batch-size group. It is owned
// exclusively by the Aggregator and mutated only by folding in samples.
type GroupStats struct {
	BatchSize int `json:"batchSize"`

	// Count is the number of samples observed so far, successes and
	// failures together. Errors counts the failed subset.
	Count  int `json:"count"`
	Errors int `json:"errors"`

	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P99  time.Duration `json:"p99"`

	TotalTokens int `json:"totalTokens"`

	totalDuration time.Duration
	latencies     []time.Duration
}

// Successes returns the number of successful samples in the group.
func (g *GroupStats) Successes() int {
	return g.Count - g.Errors
}

// Throughput reports aggregate tokens per second over successful samples.
// The second return is false when the group has no successes; callers must
// not substitute zero.
func (g *GroupStats) Throughput() (float64, bool) {
	if g.totalDuration <= 0 || g.Successes() == 0 {
		return 0, false
	}
	return float64(g.TotalTokens) / g.totalDuration.Seconds(), true
}

// Latencies returns the retained successful latencies in arrival order.
func (g *GroupStats) Latencies() []time.Duration {
	return g.latencies
}

// Aggregator consumes the sample stream and maintains one GroupStats per
// batch size, created lazily on the first sample for the group. It is not
// safe for concurrent use; a single consumer applies samples in order.
type Aggregator struct {
	groups map[int]*GroupStats
	order  []int
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{groups: make(map[int]*GroupStats)}
}

// Apply folds one sample into its batch-size group and returns the updated
// group. Failed samples bump the error count only; latency and throughput
// statistics cover successful samples exclusively.
func (a *Aggregator) Apply(s runner.Sample) *GroupStats {
	g, ok := a.groups[s.BatchSize]
	if !ok {
		g = &GroupStats{BatchSize: s.BatchSize}
		a.groups[s.BatchSize] = g
		a.order = append(a.order, s.BatchSize)
	}

	g.Count++
	if s.Failed() {
		g.Errors++
		return g
	}

	g.TotalTokens += s.Tokens
	g.totalDuration += s.Duration
	g.latencies = append(g.latencies, s.Duration)

	if g.Successes() == 1 || s.Duration < g.Min {
		g.Min = s.Duration
	}
	if s.Duration > g.Max {
		g.Max = s.Duration
	}
	g.Mean = g.totalDuration / time.Duration(g.Successes())

	sorted := make([]time.Duration, len(g.latencies))
	copy(sorted, g.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	g.P50 = nearestRank(sorted, 0.50)
	g.P90 = nearestRank(sorted, 0.90)
	g.P99 = nearestRank(sorted, 0.99)

	return g
}

// Group returns the stats for a batch size, if any sample has arrived for it.
func (a *Aggregator) Group(batchSize int) (*GroupStats, bool) {
	g, ok := a.groups[batchSize]
	return g, ok
}

// Groups returns all group stats, ordered by first sample arrival.
func (a *Aggregator) Groups() []*GroupStats {
	out := make([]*GroupStats, 0, len(a.order))
	for _, b := range a.order {
		out = append(out, a.groups[b])
	}
	return out
}

// nearestRank returns the p-th percentile of sorted using the nearest-rank
// method: the value at index ceil(p*n)-1. Exact over the finite sample, by
// contrast with interpolating estimators.
func nearestRank(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
