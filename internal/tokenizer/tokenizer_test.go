package tokenizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tgbench/internal/appconfig"
)

// fakeServer tokenizes on whitespace, assigning each distinct word a stable id.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()

	vocab := map[string]int{}
	words := []string{}
	idFor := func(w string) int {
		if id, ok := vocab[w]; ok {
			return id
		}
		id := len(words)
		vocab[w] = id
		words = append(words, w)
		return id
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"max_input_length": 1024})
	})
	mux.HandleFunc("/tokenize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Inputs string `json:"inputs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var ids []int
		for _, word := range strings.Fields(req.Inputs) {
			ids = append(ids, idFor(word))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ids": ids})
	})
	mux.HandleFunc("/detokenize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []int `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		parts := make([]string, 0, len(req.IDs))
		for _, id := range req.IDs {
			if id < 0 || id >= len(words) {
				http.Error(w, "unknown id", http.StatusBadRequest)
				return
			}
			parts = append(parts, words[id])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": strings.Join(parts, " ")})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	server := fakeServer(t)
	tok, err := New(&appconfig.Config{Endpoint: server.URL, TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tok.MaxLength() != 1024 {
		t.Fatalf("max length: %d", tok.MaxLength())
	}

	ids, err := tok.Encode(context.Background(), "the quick brown fox")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("ids: %v", ids)
	}

	text, err := tok.Decode(context.Background(), ids[:2])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "the quick" {
		t.Fatalf("decoded text: %q", text)
	}
}

func TestNewFailsWithoutInfoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	if _, err := New(&appconfig.Config{Endpoint: server.URL, TimeoutSeconds: 5}); err == nil {
		t.Fatal("expected error when /info is missing")
	}
}
