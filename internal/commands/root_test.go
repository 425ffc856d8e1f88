package commands

import (
	"testing"

	"github.com/spf13/viper"
)

func TestRootFlagsRegistered(t *testing.T) {
	for _, name := range []string{
		"endpoint", "batch-sizes", "sequence-length", "decode-length",
		"runs", "warmups", "concurrency", "timeout", "export", "logFile", "debug",
	} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Fatalf("flag %q not registered", name)
		}
	}
}

func TestBuildConfigFromViper(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("endpoint", "http://localhost:8080")
	viper.Set("batchSizes", []int{1, 4, 16})
	viper.Set("sequenceLength", 32)
	viper.Set("decodeLength", 16)
	viper.Set("runs", 7)
	viper.Set("warmups", 2)
	viper.Set("concurrency", 3)

	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.Endpoint != "http://localhost:8080" {
		t.Fatalf("endpoint: %s", cfg.Endpoint)
	}
	if len(cfg.BatchSizes) != 3 || cfg.BatchSizes[2] != 16 {
		t.Fatalf("batch sizes: %v", cfg.BatchSizes)
	}
	if cfg.Runs != 7 || cfg.Warmups != 2 || cfg.Concurrency != 3 {
		t.Fatalf("counts: %+v", cfg)
	}

	plan, err := cfg.ResolvePlan()
	if err != nil {
		t.Fatalf("ResolvePlan: %v", err)
	}
	if plan.SequenceLength != 32 || plan.DecodeLength != 16 {
		t.Fatalf("plan: %+v", plan)
	}
}

func TestRunBenchmarkRequiresConfig(t *testing.T) {
	if err := runBenchmark(nil); err == nil {
		t.Fatal("expected error when configuration is not loaded")
	}
}
