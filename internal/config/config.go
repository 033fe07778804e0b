// Package config holds runtime settings for the automata binary.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// ErrInvalid is wrapped by every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// Environment variables read by FromEnv.
const (
	EnvLogLevel   = "AUTOMATA_LOG_LEVEL"
	EnvLogFormat  = "AUTOMATA_LOG_FORMAT"
	EnvWorkers    = "AUTOMATA_WORKERS"
	EnvFoldCase   = "AUTOMATA_FOLD_CASE"
	EnvHeuristics = "AUTOMATA_HEURISTICS"
	EnvAddr       = "AUTOMATA_ADDR"
	EnvRules      = "AUTOMATA_RULES"
)

// Config configures detection, evaluation and the server.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format"`

	// Workers bounds evaluation parallelism; 0 means one per CPU.
	Workers int `json:"workers"`

	// FoldCase lower-cases filenames before matching.
	FoldCase bool `json:"fold_case"`

	// Heuristics enables the post-automaton heuristic stage.
	Heuristics bool `json:"heuristics"`

	// Addr is the listen address of the live server.
	Addr string `json:"addr"`

	// Rules is a rule file path; empty means the built-in catalog.
	Rules string `json:"rules"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:   "info",
		LogFormat:  "text",
		FoldCase:   true,
		Heuristics: true,
		Addr:       ":8080",
	}
}

// FromEnv applies environment overrides on top of DefaultConfig. getenv is
// usually os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	c := DefaultConfig()
	var errs []error
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.LogFormat = strings.ToLower(v)
	}
	if v := getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalid, EnvWorkers, v))
		}
		c.Workers = n
	}
	if v := getenv(EnvFoldCase); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalid, EnvFoldCase, v))
		}
		c.FoldCase = b
	}
	if v := getenv(EnvHeuristics); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalid, EnvHeuristics, v))
		}
		c.Heuristics = b
	}
	if v := getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := getenv(EnvRules); v != "" {
		c.Rules = v
	}
	if len(errs) > 0 {
		return c, errors.Join(errs...)
	}
	return c, c.Validate()
}

// Validate checks field ranges.
func (c Config) Validate() error {
	var errs []error
	if _, ok := levels[c.LogLevel]; !ok {
		errs = append(errs, fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%w: log format %q", ErrInvalid, c.LogFormat))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers))
	}
	if c.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: empty listen address", ErrInvalid))
	}
	return errors.Join(errs...)
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Level returns the slog level; unknown names mean info.
func (c Config) Level() slog.Level {
	if l, ok := levels[c.LogLevel]; ok {
		return l
	}
	return slog.LevelInfo
}

// Logger builds a logger writing to w in the configured format.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
