// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package config loads and validates server configuration.
//
// Configuration is layered with Koanf v2: built-in defaults first, an
// optional YAML config file second, environment variables last.
// Environment variables map through an explicit allowlist so unrelated
// process environment never leaks into the config tree.
package config
