package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "tgbench.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
	})

	LogEvent("hello %s", "world")
	LogRequest("out", "http://localhost:3000", "/generate", map[string]any{"inputs": "x"})
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, "route=/generate") {
		t.Fatalf("expected LogRequest content, got: %s", content)
	}
}

func TestBuildRequestMessageDefaults(t *testing.T) {
	msg := buildRequestMessage(" out ", " ", " /tokenize ", map[string]any{"ok": true})
	if !strings.Contains(msg, "[OUT]") {
		t.Fatalf("expected uppercased direction, got: %s", msg)
	}
	if !strings.Contains(msg, "endpoint=unknown") {
		t.Fatalf("expected default endpoint, got: %s", msg)
	}
	if !strings.Contains(msg, "route=/tokenize") {
		t.Fatalf("expected route, got: %s", msg)
	}
	if !strings.Contains(msg, "payload={\"ok\":true}") {
		t.Fatalf("expected payload json, got: %s", msg)
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}

func TestFormatPayloadClampsLongLines(t *testing.T) {
	long := strings.Repeat("a", maxPayloadWidth+50)
	payload := long + "\nshort"

	got := formatPayload(payload)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "…") || len([]rune(lines[0])) != maxPayloadWidth+1 {
		t.Fatalf("first line not clamped: %d runes", len([]rune(lines[0])))
	}
	if lines[1] != "short" {
		t.Fatalf("short line altered: %q", lines[1])
	}
}

func TestFileOnlyWithoutFileDiscards(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	FileOnly()
	LogEvent("discarded")
}
