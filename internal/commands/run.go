// internal/commands/run.go
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/k0kubun/pp"
	"tgbench/internal/appconfig"
	"tgbench/internal/client"
	"tgbench/internal/logging"
	"tgbench/internal/prompt"
	"tgbench/internal/report"
	"tgbench/internal/tokenizer"
	"tgbench/internal/tui"
)

// setupTimeout bounds the health check, tokenizer load, and prompt build.
// Failures here abort before any UI is shown.
const setupTimeout = 30 * time.Second

// runBenchmark resolves the plan, verifies the collaborators, and hands off
// to the dashboard event loop.
func runBenchmark(cfg *appconfig.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is not loaded")
	}

	plan, err := cfg.ResolvePlan()
	if err != nil {
		return err
	}
	if cfg.Debug {
		_, _ = pp.Println(plan)
	}

	ctx := context.Background()
	setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	gen := client.New(cfg)
	if err := gen.Health(setupCtx); err != nil {
		return err
	}

	tok, err := tokenizer.New(cfg)
	if err != nil {
		return err
	}

	promptText, err := prompt.Build(setupCtx, tok, plan.SequenceLength)
	if err != nil {
		return err
	}
	logging.LogEvent("benchmark plan: batches=%v seq=%d decode=%d runs=%d warmups=%d concurrency=%d",
		plan.BatchSizes, plan.SequenceLength, plan.DecodeLength, plan.RunCount, plan.WarmupCount, plan.Concurrency)

	// The dashboard owns the terminal from here on.
	logging.FileOnly()
	outcome, err := tui.Run(ctx, plan, gen, promptText)
	if err != nil {
		return err
	}
	if outcome.Err != nil {
		return outcome.Err
	}

	report.PrintSummary(os.Stdout, plan, outcome.Aggregator.Groups())
	if outcome.Aborted {
		fmt.Fprintln(os.Stdout, "benchmark aborted before completion")
	}

	if cfg.Export != "" {
		if err := report.WriteJSON(cfg.Export, plan, outcome.Aggregator.Groups()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "statistics written to %s\n", cfg.Export)
	}

	return nil
}
