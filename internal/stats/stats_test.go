package stats

import (
	"math"
	"testing"
	"time"

	"tgbench/internal/runner"
)

func TestDeterministicExample(t *testing.T) {
	agg := NewAggregator()

	for _, latency := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond} {
		agg.Apply(runner.Sample{BatchSize: 1, Duration: latency, Tokens: 5})
	}

	g, ok := agg.Group(1)
	if !ok {
		t.Fatal("group 1 missing")
	}
	if g.Count != 3 || g.Errors != 0 {
		t.Fatalf("count=%d errors=%d", g.Count, g.Errors)
	}
	if g.Mean != 200*time.Millisecond {
		t.Fatalf("mean: %v", g.Mean)
	}
	if g.P50 != 200*time.Millisecond {
		t.Fatalf("p50: %v", g.P50)
	}
	if g.P90 != 300*time.Millisecond {
		t.Fatalf("p90: %v", g.P90)
	}
	if g.Min != 100*time.Millisecond || g.Max != 300*time.Millisecond {
		t.Fatalf("min=%v max=%v", g.Min, g.Max)
	}

	tput, ok := g.Throughput()
	if !ok {
		t.Fatal("throughput should be present")
	}
	if math.Abs(tput-25.0) > 1e-9 {
		t.Fatalf("throughput: %f, want 25", tput)
	}
}

func TestFailedSamplesExcludedFromLatencyStats(t *testing.T) {
	agg := NewAggregator()

	agg.Apply(runner.Sample{BatchSize: 4, Duration: 100 * time.Millisecond, Tokens: 5})
	agg.Apply(runner.Sample{BatchSize: 4, Duration: 100 * time.Millisecond, Tokens: 5})
	agg.Apply(runner.Sample{BatchSize: 4, Duration: 5 * time.Second, Err: "connection reset"})

	g, _ := agg.Group(4)
	if g.Count != 3 {
		t.Fatalf("count: %d, want 3 total attempts", g.Count)
	}
	if g.Errors != 1 {
		t.Fatalf("errors: %d", g.Errors)
	}
	if g.Successes() != 2 {
		t.Fatalf("successes: %d", g.Successes())
	}
	if g.Max != 100*time.Millisecond {
		t.Fatalf("failed sample leaked into latency stats: max=%v", g.Max)
	}
	tput, ok := g.Throughput()
	if !ok {
		t.Fatal("throughput should be present with 2 successes")
	}
	if math.Abs(tput-50.0) > 1e-9 {
		t.Fatalf("throughput: %f, want 50", tput)
	}
}

func TestThroughputAbsentWithoutSuccesses(t *testing.T) {
	agg := NewAggregator()
	g := agg.Apply(runner.Sample{BatchSize: 2, Duration: time.Second, Err: "timeout"})

	if _, ok := g.Throughput(); ok {
		t.Fatal("throughput must be absent, not zero, without successes")
	}
	if g.Count != 1 || g.Errors != 1 {
		t.Fatalf("count=%d errors=%d", g.Count, g.Errors)
	}
}

func TestPercentileMonotonicity(t *testing.T) {
	agg := NewAggregator()

	latencies := []time.Duration{
		340 * time.Millisecond, 120 * time.Millisecond, 910 * time.Millisecond,
		455 * time.Millisecond, 230 * time.Millisecond, 767 * time.Millisecond,
		88 * time.Millisecond,
	}
	for i, d := range latencies {
		g := agg.Apply(runner.Sample{BatchSize: 8, Duration: d, Tokens: 10})
		if g.P50 > g.P90 || g.P90 > g.P99 {
			t.Fatalf("after %d samples: p50=%v p90=%v p99=%v", i+1, g.P50, g.P90, g.P99)
		}
	}
}

func TestNearestRank(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	cases := []struct {
		p    float64
		want time.Duration
	}{
		{0.50, 5},
		{0.90, 9},
		{0.99, 10},
		{1.00, 10},
	}
	for _, c := range cases {
		if got := nearestRank(sorted, c.p); got != c.want {
			t.Fatalf("nearestRank(p=%.2f) = %v, want %v", c.p, got, c.want)
		}
	}
	if got := nearestRank(nil, 0.5); got != 0 {
		t.Fatalf("empty input: %v", got)
	}
}

func TestGroupsOrderedByFirstArrival(t *testing.T) {
	agg := NewAggregator()
	agg.Apply(runner.Sample{BatchSize: 8, Duration: time.Millisecond, Tokens: 1})
	agg.Apply(runner.Sample{BatchSize: 1, Duration: time.Millisecond, Tokens: 1})
	agg.Apply(runner.Sample{BatchSize: 8, Duration: time.Millisecond, Tokens: 1})

	groups := agg.Groups()
	if len(groups) != 2 {
		t.Fatalf("groups: %d", len(groups))
	}
	if groups[0].BatchSize != 8 || groups[1].BatchSize != 1 {
		t.Fatalf("order: [%d %d]", groups[0].BatchSize, groups[1].BatchSize)
	}
}
