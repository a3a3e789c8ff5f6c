// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/retrospect-labs/retrospect/internal/pattern"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/retrospect/config.yaml",
	"/etc/retrospect/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns a Config with all default values. Defaults load
// first, then the config file, then environment variables.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            4326, // EPSG:4326, the coordinate system the photos live in
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Database: DatabaseConfig{
			Path:      "/data/retrospect.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Cache: CacheConfig{
			TTL:       15 * time.Minute,
			BadgerDir: "/data/narrative-cache",
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,
			MaxStore:       10 << 30,
		},
		Narrative: NarrativeConfig{
			Enabled:          false,
			BaseURL:          "",
			Model:            "gpt-4o-mini",
			Timeout:          30 * time.Second,
			RateLimitRPS:     1,
			BreakerThreshold: 5,
			BreakerCooldown:  time.Minute,
		},
		Detection: pattern.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FoundConfigFile reports which config file Load used, or "" when only
// defaults and environment applied.
func FoundConfigFile() string {
	return findConfigFile()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are the paths parsed from comma-separated env
// strings into slices.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to config paths.
// Unmapped variables are dropped so arbitrary environment noise cannot
// reach the config tree.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - DETECTION_EPS_KM -> detection.eps_km
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":             "server.host",
		"http_port":             "server.port",
		"http_timeout":          "server.timeout",
		"cors_origins":          "server.cors_origins",
		"rate_limit_requests":   "server.rate_limit_reqs",
		"rate_limit_window":     "server.rate_limit_window",
		"api_default_page_size": "server.default_page_size",
		"api_max_page_size":     "server.max_page_size",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Cache
		"cache_ttl":        "cache.ttl",
		"cache_badger_dir": "cache.badger_dir",

		// NATS
		"nats_enabled":    "nats.enabled",
		"nats_url":        "nats.url",
		"nats_embedded":   "nats.embedded_server",
		"nats_store_dir":  "nats.store_dir",
		"nats_max_memory": "nats.max_memory",
		"nats_max_store":  "nats.max_store",

		// Narrative
		"narrative_enabled":           "narrative.enabled",
		"narrative_base_url":          "narrative.base_url",
		"openai_api_key":              "narrative.api_key",
		"narrative_model":             "narrative.model",
		"narrative_timeout":           "narrative.timeout",
		"narrative_rate_limit_rps":    "narrative.rate_limit_rps",
		"narrative_breaker_threshold": "narrative.breaker_threshold",
		"narrative_breaker_cooldown":  "narrative.breaker_cooldown",

		// Detection
		"detection_eps_km":             "detection.eps_km",
		"detection_min_samples":        "detection.min_samples",
		"detection_max_gap":            "detection.max_gap",
		"detection_min_photos_per_arc": "detection.min_photos_per_arc",
		"detection_year_bucket_size":   "detection.year_bucket_size",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile invokes callback whenever the config file changes.
// The caller handles reload and locking.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
