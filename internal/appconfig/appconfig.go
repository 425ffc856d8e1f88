// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting benchmark configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

const (
	// defaultRunCount is the number of measured runs per batch size when the
	// config omits the value.
	defaultRunCount = 10
	// defaultWarmupCount is the number of discarded warmup runs per batch size.
	defaultWarmupCount = 1
	// defaultSequenceLength is the synthetic prompt length in tokens.
	defaultSequenceLength = 10
	// defaultDecodeLength is the number of output tokens requested per sequence.
	defaultDecodeLength = 8
	// defaultRequestTimeout bounds a single generate call at the HTTP layer.
	defaultRequestTimeout = 600 * time.Second
)

// Config represents the top-level benchmark configuration as resolved from
// flags and an optional config file.
type Config struct {
	Endpoint       string `json:"endpoint" mapstructure:"endpoint"`
	BatchSizes     []int  `json:"batchSizes" mapstructure:"batchSizes"`
	SequenceLength int    `json:"sequenceLength" mapstructure:"sequenceLength"`
	DecodeLength   int    `json:"decodeLength" mapstructure:"decodeLength"`
	Runs           int    `json:"runs" mapstructure:"runs"`
	Warmups        int    `json:"warmups" mapstructure:"warmups"`
	Concurrency    int    `json:"concurrency" mapstructure:"concurrency"`
	Export         string `json:"export,omitempty" mapstructure:"export"`
	LogFile        string `json:"logFile,omitempty" mapstructure:"logFile"`
	Debug          bool   `json:"debug" mapstructure:"debug"`
	TimeoutSeconds int    `json:"timeout,omitempty" mapstructure:"timeout"`
	ConfigPath     string `json:"-" mapstructure:"-"`
}

// Plan is the immutable benchmark plan derived from a Config. It is created
// once at startup and never mutated afterwards.
type Plan struct {
	BatchSizes     []int
	SequenceLength int
	DecodeLength   int
	WarmupCount    int
	RunCount       int
	Concurrency    int
}

// TotalRuns returns the number of measured runs across all batch-size groups.
func (p Plan) TotalRuns() int {
	return len(p.BatchSizes) * p.RunCount
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back
// to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a
// default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "tgbench.log"
}

// ResolvePlan validates the configuration and produces the immutable Plan the
// scheduler runs against. Batch sizes keep their configured order with
// duplicates removed.
func (c Config) ResolvePlan() (Plan, error) {
	if strings.TrimSpace(c.Endpoint) == "" {
		return Plan{}, errors.New("config must specify a server endpoint")
	}
	if len(c.BatchSizes) == 0 {
		return Plan{}, errors.New("config must specify at least one batch size")
	}

	seen := make(map[int]struct{}, len(c.BatchSizes))
	batchSizes := make([]int, 0, len(c.BatchSizes))
	for _, b := range c.BatchSizes {
		if b <= 0 {
			return Plan{}, fmt.Errorf("batch size must be positive, got %d", b)
		}
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		batchSizes = append(batchSizes, b)
	}

	plan := Plan{
		BatchSizes:     batchSizes,
		SequenceLength: c.SequenceLength,
		DecodeLength:   c.DecodeLength,
		WarmupCount:    c.Warmups,
		RunCount:       c.Runs,
		Concurrency:    c.Concurrency,
	}
	if plan.SequenceLength <= 0 {
		plan.SequenceLength = defaultSequenceLength
	}
	if plan.DecodeLength <= 0 {
		plan.DecodeLength = defaultDecodeLength
	}
	if plan.RunCount <= 0 {
		plan.RunCount = defaultRunCount
	}
	if plan.WarmupCount < 0 {
		plan.WarmupCount = defaultWarmupCount
	}
	if plan.Concurrency <= 0 {
		plan.Concurrency = 1
	}
	if plan.Concurrency > plan.RunCount {
		plan.Concurrency = plan.RunCount
	}

	return plan, nil
}

// configSchema describes the accepted shape of a JSON config file.
var configSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"endpoint":       map[string]any{"type": "string"},
		"batchSizes":     map[string]any{"type": "array", "items": map[string]any{"type": "integer", "minimum": 1}},
		"sequenceLength": map[string]any{"type": "integer", "minimum": 1},
		"decodeLength":   map[string]any{"type": "integer", "minimum": 1},
		"runs":           map[string]any{"type": "integer", "minimum": 1},
		"warmups":        map[string]any{"type": "integer", "minimum": 0},
		"concurrency":    map[string]any{"type": "integer", "minimum": 1},
		"export":         map[string]any{"type": "string"},
		"logFile":        map[string]any{"type": "string"},
		"debug":          map[string]any{"type": "boolean"},
		"timeout":        map[string]any{"type": "integer", "minimum": 1},
	},
	"additionalProperties": false,
}

// ValidateConfigFile checks a JSON config file against the expected schema
// before viper unmarshals it, so typos fail loudly instead of silently
// falling back to defaults. Non-JSON config formats are left to viper.
func ValidateConfigFile(path string) error {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read config file %q: %w", path, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("config file %q is not valid JSON", path)
	}

	schemaLoader := gojsonschema.NewGoLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate config file %q: %w", path, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("config file %q failed validation: %s", path, strings.Join(details, "; "))
	}
	return nil
}
