package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tgbench/internal/appconfig"
	"tgbench/internal/runner"
	"tgbench/internal/stats"
)

func buildGroups(t *testing.T) []*stats.GroupStats {
	t.Helper()
	agg := stats.NewAggregator()
	agg.Apply(runner.Sample{BatchSize: 1, Duration: 100 * time.Millisecond, Tokens: 5})
	agg.Apply(runner.Sample{BatchSize: 1, Duration: 200 * time.Millisecond, Tokens: 5})
	agg.Apply(runner.Sample{BatchSize: 8, Duration: time.Second, Err: "timeout"})
	return agg.Groups()
}

func testPlan() appconfig.Plan {
	return appconfig.Plan{
		BatchSizes:     []int{1, 8},
		SequenceLength: 10,
		DecodeLength:   5,
		WarmupCount:    1,
		RunCount:       2,
		Concurrency:    1,
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, testPlan(), buildGroups(t))

	out := buf.String()
	for _, want := range []string{"batch 1", "batch 8", "p50=", "tokens/s", "no successful runs"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, testPlan(), nil)
	if !strings.Contains(buf.String(), "no measured runs") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	if err := WriteJSON(path, testPlan(), buildGroups(t)); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var doc struct {
		Plan struct {
			RunCount int `json:"runCount"`
		} `json:"plan"`
		Groups []struct {
			BatchSize  int      `json:"batchSize"`
			Errors     int      `json:"errors"`
			Throughput *float64 `json:"tokensPerSecond"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid json export: %v", err)
	}
	if doc.Plan.RunCount != 2 {
		t.Fatalf("plan run count: %d", doc.Plan.RunCount)
	}
	if len(doc.Groups) != 2 {
		t.Fatalf("groups: %d", len(doc.Groups))
	}
	if doc.Groups[0].Throughput == nil {
		t.Fatal("expected throughput for group with successes")
	}
	if doc.Groups[1].Throughput != nil {
		t.Fatal("throughput must be absent for group without successes")
	}
	if doc.Groups[1].Errors != 1 {
		t.Fatalf("errors: %d", doc.Groups[1].Errors)
	}
}
