// Package logging wires the stdlib logger to an optional file sink so the
// benchmark can keep a trace of every request without disturbing the TUI.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tgbench/internal/util"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init routes log output to stderr and, when logPath is non-empty, appends a
// copy to the given file, creating parent directories as needed.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	writers = append(writers, os.Stderr)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// FileOnly routes log output exclusively to the log file, or discards it when
// no file is configured. The TUI owns the terminal while it runs, so anything
// written to stderr would corrupt the alternate screen.
func FileOnly() {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(logFile)
}

// Close detaches and closes the log file, restoring stderr output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		log.SetOutput(os.Stderr)
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// LogEvent writes a formatted message to the configured log sinks.
func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// LogRequest records one request or response exchanged with the inference
// server, tagged with its direction and route.
func LogRequest(direction, endpoint, route string, payload any) {
	msg := buildRequestMessage(direction, endpoint, route, payload)
	log.Println(msg)
}

func buildRequestMessage(direction, endpoint, route string, payload any) string {
	dir := strings.TrimSpace(direction)
	if dir != "" {
		dir = strings.ToUpper(dir)
	}
	endpointValue := strings.TrimSpace(endpoint)
	if endpointValue == "" {
		endpointValue = "unknown"
	}
	parts := []string{fmt.Sprintf("[%s]", dir)}
	parts = append(parts, fmt.Sprintf("endpoint=%s", endpointValue))
	if route = strings.TrimSpace(route); route != "" {
		parts = append(parts, fmt.Sprintf("route=%s", route))
	}
	parts = append(parts, fmt.Sprintf("payload=%s", formatPayload(payload)))
	return strings.Join(parts, " ")
}

// maxPayloadWidth clamps each logged payload line; generated text in
// responses can run long.
const maxPayloadWidth = 400

func formatPayload(payload any) string {
	return util.TruncateToWidth(rawPayload(payload), maxPayloadWidth)
}

func rawPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
