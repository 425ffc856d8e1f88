// Package runner issues generation calls against the inference server and
// sequences them per the benchmark plan, emitting an ordered event stream.
package runner

import (
	"context"
	"time"

	"tgbench/internal/client"
)

// runOnce performs a single generation call for batchSize sequences sharing
// the same prompt and times the call boundary only. Failures are recorded in
// the sample, never propagated: one failed call must not abort the benchmark.
func runOnce(ctx context.Context, gen client.Generator, batchSize int, prompt string, decodeLength int) Sample {
	start := time.Now()
	res, err := gen.Generate(ctx, client.GenerateRequest{
		Prompt:       prompt,
		BatchSize:    batchSize,
		DecodeLength: decodeLength,
	})
	elapsed := time.Since(start)

	if err != nil {
		return Sample{BatchSize: batchSize, Duration: elapsed, Err: err.Error()}
	}
	return Sample{BatchSize: batchSize, Duration: elapsed, Tokens: res.Tokens}
}
