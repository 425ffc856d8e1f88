// Package client provides the inference-server collaborator used by the
// benchmark. The wire protocol is a minimal text-generation HTTP API: a
// health probe plus a blocking generate call for a batch of sequences.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tgbench/internal/appconfig"
	"tgbench/internal/logging"
)

// ErrClientUnavailable indicates the inference server could not be reached
// during setup. No runs are attempted when this is returned.
var ErrClientUnavailable = errors.New("inference server unavailable")

// GenerateRequest describes one generation call: batchSize independent
// sequences sharing the same prompt, each decoding decodeLength tokens.
type GenerateRequest struct {
	Prompt       string
	BatchSize    int
	DecodeLength int
}

// GenerateResult reports the outcome of a successful generation call.
type GenerateResult struct {
	// Tokens is the number of tokens produced, summed across the batch.
	Tokens int
}

// Generator is the narrow capability interface the benchmark core depends
// on. A single concrete adapter implements it per process run.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	Health(ctx context.Context) error
}

// HTTP implements Generator against a text-generation HTTP endpoint.
type HTTP struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// New constructs an HTTP client configured with the application's request
// timeout.
func New(cfg *appconfig.Config) *HTTP {
	timeout := cfg.RequestTimeout()
	return &HTTP{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
		timeout: timeout,
	}
}

// generatePayload is the request body for the /generate route.
type generatePayload struct {
	Inputs     string             `json:"inputs"`
	BatchSize  int                `json:"batch_size"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens int  `json:"max_new_tokens"`
	DoSample     bool `json:"do_sample"`
}

// generateResponse is one generated sequence in the /generate response body.
type generateResponse struct {
	GeneratedText   string `json:"generated_text"`
	GeneratedTokens int    `json:"generated_tokens"`
}

// Health probes the server's /health route. A failure here is fatal to
// setup and maps to ErrClientUnavailable.
func (h *HTTP) Health(ctx context.Context) error {
	endpoint := h.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClientUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: /health returned %s", ErrClientUnavailable, resp.Status)
	}
	return nil
}

// Generate issues a single blocking generation call and reports the tokens
// produced across the batch. Transport errors and non-200 responses are
// returned to the caller; retries are not attempted at this layer.
func (h *HTTP) Generate(ctx context.Context, genReq GenerateRequest) (GenerateResult, error) {
	payload := generatePayload{
		Inputs:    genReq.Prompt,
		BatchSize: genReq.BatchSize,
		Parameters: generateParameters{
			MaxNewTokens: genReq.DecodeLength,
			DoSample:     false,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("marshal generate payload: %w", err)
	}

	endpoint := h.baseURL + "/generate"
	logging.LogRequest("BENCH->SERVER", h.baseURL, "/generate", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return GenerateResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return GenerateResult{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerateResult{}, err
	}
	logging.LogRequest("SERVER->BENCH", h.baseURL, "/generate", respBody)

	if resp.StatusCode != http.StatusOK {
		return GenerateResult{}, fmt.Errorf("generate returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var sequences []generateResponse
	if err := json.Unmarshal(respBody, &sequences); err != nil {
		return GenerateResult{}, fmt.Errorf("decode generate response: %w", err)
	}

	var tokens int
	for _, seq := range sequences {
		tokens += seq.GeneratedTokens
	}
	return GenerateResult{Tokens: tokens}, nil
}
