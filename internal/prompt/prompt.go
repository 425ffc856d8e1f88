// Package prompt builds synthetic inputs of an exact token length from a
// fixed seed corpus, using the external tokenizer to count tokens.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tgbench/internal/tokenizer"
)

// ErrPromptTooLong indicates the requested token count exceeds the
// tokenizer's maximum context. This is a setup-time failure; the benchmark
// cannot start with this configuration.
var ErrPromptTooLong = errors.New("requested prompt length exceeds tokenizer maximum context")

// seedCorpus is repeated and truncated as needed to reach the requested
// token count. The content is irrelevant to the benchmark; only its length
// in tokens matters.
const seedCorpus = "The quick brown fox jumps over the lazy dog while the patient tortoise " +
	"keeps a steady pace along the winding forest path toward the distant river. "

// maxTrimPasses bounds the decode-reencode adjustment loop for tokenizers
// where truncating ids shifts merge boundaries.
const maxTrimPasses = 8

// Build returns a text string that tok encodes to exactly tokenCount tokens.
// The result is deterministic for a given tokenizer and token count.
func Build(ctx context.Context, tok tokenizer.Tokenizer, tokenCount int) (string, error) {
	if tokenCount <= 0 {
		return "", fmt.Errorf("token count must be positive, got %d", tokenCount)
	}
	if limit := tok.MaxLength(); limit > 0 && tokenCount > limit {
		return "", fmt.Errorf("%w: want %d tokens, tokenizer maximum is %d", ErrPromptTooLong, tokenCount, limit)
	}

	var builder strings.Builder
	builder.WriteString(seedCorpus)

	var ids []int
	for {
		encoded, err := tok.Encode(ctx, builder.String())
		if err != nil {
			return "", fmt.Errorf("encode seed corpus: %w", err)
		}
		if len(encoded) >= tokenCount {
			ids = encoded
			break
		}
		builder.WriteString(seedCorpus)
	}

	// Truncating the id sequence can shift merge boundaries once decoded, so
	// re-encode and trim again until the count settles. When a pass
	// under-shoots, corpus ids are appended and the trim repeats.
	padIDs, err := tok.Encode(ctx, seedCorpus)
	if err != nil {
		return "", fmt.Errorf("encode seed corpus: %w", err)
	}
	if len(padIDs) == 0 {
		return "", errors.New("tokenizer produced no tokens for the seed corpus")
	}

	text := ""
	for pass := 0; pass < maxTrimPasses; pass++ {
		for len(ids) < tokenCount {
			ids = append(ids, padIDs...)
		}
		decoded, err := tok.Decode(ctx, ids[:tokenCount])
		if err != nil {
			return "", fmt.Errorf("decode trimmed prompt: %w", err)
		}
		reencoded, err := tok.Encode(ctx, decoded)
		if err != nil {
			return "", fmt.Errorf("re-encode trimmed prompt: %w", err)
		}
		if len(reencoded) == tokenCount {
			text = decoded
			break
		}
		ids = reencoded
	}
	if text == "" {
		return "", fmt.Errorf("could not build a prompt of exactly %d tokens", tokenCount)
	}
	return text, nil
}
