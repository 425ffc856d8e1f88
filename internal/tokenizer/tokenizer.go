// Package tokenizer provides the tokenizer collaborator used to build
// synthetic prompts of an exact token length. The benchmark only needs
// encode, decode, and the tokenizer's maximum context length.
package tokenizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tgbench/internal/appconfig"
	"tgbench/internal/logging"
)

// Tokenizer is the narrow interface the prompt builder depends on.
type Tokenizer interface {
	Encode(ctx context.Context, text string) ([]int, error)
	Decode(ctx context.Context, ids []int) (string, error)
	MaxLength() int
}

// HTTP implements Tokenizer against the inference server's tokenize routes,
// so prompt lengths are counted with the exact vocabulary the model serves.
type HTTP struct {
	client    *http.Client
	baseURL   string
	maxLength int
}

// New constructs an HTTP tokenizer adapter for the configured endpoint.
func New(cfg *appconfig.Config) (*HTTP, error) {
	h := &HTTP{
		client: &http.Client{
			Timeout:   cfg.RequestTimeout(),
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := h.fetchInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer info: %w", err)
	}
	h.maxLength = info.MaxInputLength
	return h, nil
}

// serverInfo is the subset of the /info response the tokenizer needs.
type serverInfo struct {
	MaxInputLength int `json:"max_input_length"`
}

func (h *HTTP) fetchInfo(ctx context.Context) (serverInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/info", nil)
	if err != nil {
		return serverInfo{}, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return serverInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serverInfo{}, fmt.Errorf("/info returned %s", resp.Status)
	}

	var info serverInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return serverInfo{}, err
	}
	return info, nil
}

type tokenizeRequest struct {
	Inputs string `json:"inputs"`
}

type tokenizeResponse struct {
	IDs []int `json:"ids"`
}

type detokenizeRequest struct {
	IDs []int `json:"ids"`
}

type detokenizeResponse struct {
	Text string `json:"text"`
}

// Encode converts text to token ids using the server's tokenizer.
func (h *HTTP) Encode(ctx context.Context, text string) ([]int, error) {
	var out tokenizeResponse
	if err := h.post(ctx, "/tokenize", tokenizeRequest{Inputs: text}, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// Decode converts token ids back to text using the server's tokenizer.
func (h *HTTP) Decode(ctx context.Context, ids []int) (string, error) {
	var out detokenizeResponse
	if err := h.post(ctx, "/detokenize", detokenizeRequest{IDs: ids}, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// MaxLength returns the tokenizer's maximum input length in tokens.
func (h *HTTP) MaxLength() int {
	return h.maxLength
}

func (h *HTTP) post(ctx context.Context, route string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", route, err)
	}
	logging.LogRequest("BENCH->SERVER", h.baseURL, route, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s: %s", route, resp.Status, strings.TrimSpace(string(respBody)))
	}
	return json.Unmarshal(respBody, out)
}
