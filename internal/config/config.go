// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package config

import (
	"fmt"
	"time"

	"github.com/retrospect-labs/retrospect/internal/pattern"
)

// Config is the root configuration for the Retrospect server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	NATS      NATSConfig      `koanf:"nats"`
	Narrative NarrativeConfig `koanf:"narrative"`
	Detection pattern.Config  `koanf:"detection"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed origins for browser clients.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs and RateLimitWindow bound requests per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// DefaultPageSize and MaxPageSize bound list endpoints.
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty means in-memory.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// CacheConfig holds the in-memory result cache and the persistent
// narrative cache settings.
type CacheConfig struct {
	// TTL bounds how long computed run results stay cached.
	TTL time.Duration `koanf:"ttl"`

	// BadgerDir is the directory for the persistent narrative cache.
	// Empty disables persistence and narratives are regenerated per run.
	BadgerDir string `koanf:"badger_dir"`
}

// NATSConfig holds event transport settings. With EmbeddedServer set
// the process runs its own JetStream-enabled NATS server; otherwise it
// connects to URL. Disabled entirely, events flow over an in-process
// Watermill channel.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
}

// NarrativeConfig holds LLM narrative generation settings. Without an
// API key the generator falls back to deterministic templates.
type NarrativeConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`

	Timeout time.Duration `koanf:"timeout"`

	// RateLimitRPS caps upstream request rate. Zero disables limiting.
	RateLimitRPS float64 `koanf:"rate_limit_rps"`

	// BreakerThreshold is the consecutive-failure count that opens the
	// circuit breaker.
	BreakerThreshold uint32 `koanf:"breaker_threshold"`

	// BreakerCooldown is how long the breaker stays open before
	// probing again.
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.DefaultPageSize < 1 || c.Server.DefaultPageSize > c.Server.MaxPageSize {
		return fmt.Errorf("server.default_page_size %d must be in [1, %d]",
			c.Server.DefaultPageSize, c.Server.MaxPageSize)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %v", c.Cache.TTL)
	}
	if c.NATS.Enabled && !c.NATS.EmbeddedServer && c.NATS.URL == "" {
		return fmt.Errorf("nats.url required when nats is enabled without the embedded server")
	}
	if c.Narrative.Enabled && c.Narrative.Timeout <= 0 {
		return fmt.Errorf("narrative.timeout must be positive, got %v", c.Narrative.Timeout)
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	return nil
}
