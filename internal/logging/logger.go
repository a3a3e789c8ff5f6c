// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level to emit: trace, debug, info, warn,
	// error, fatal, panic. Default: info.
	Level string `koanf:"level"`

	// Format selects the output encoding: json or console.
	// Default: json.
	Format string `koanf:"format"`

	// Caller includes caller file:line in each event.
	Caller bool `koanf:"caller"`

	// Output is the destination writer. Default: os.Stderr.
	Output io.Writer `koanf:"-"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stderr,
	}
}

var (
	mu  sync.RWMutex
	log zerolog.Logger
)

//nolint:gochecknoinits // logging must work before Init runs
func init() {
	log = build(DefaultConfig(), zerolog.InfoLevel)
}

// Init configures the global logger. Call once at startup; later calls
// reconfigure it atomically.
func Init(cfg Config) error {
	level, err := zerologLevel(cfg.Level)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	log = build(cfg, level)
	return nil
}

func build(cfg Config, level zerolog.Level) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lc := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Caller {
		lc = lc.Caller()
	}
	return lc.Logger()
}

func zerologLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With returns a zerolog context for building a derived logger.
func With() zerolog.Context {
	return Logger().With()
}

// Trace starts a trace-level event.
func Trace() *zerolog.Event { l := Logger(); return l.Trace() }

// Debug starts a debug-level event.
func Debug() *zerolog.Event { l := Logger(); return l.Debug() }

// Info starts an info-level event.
func Info() *zerolog.Event { l := Logger(); return l.Info() }

// Warn starts a warn-level event.
func Warn() *zerolog.Event { l := Logger(); return l.Warn() }

// Error starts an error-level event.
func Error() *zerolog.Event { l := Logger(); return l.Error() }

// Fatal starts a fatal-level event. The process exits after Msg.
func Fatal() *zerolog.Event { l := Logger(); return l.Fatal() }
