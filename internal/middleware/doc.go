// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package middleware provides plain net/http middleware shared by the
// API layer: Prometheus request instrumentation and structured request
// logging. Router-specific middleware (CORS, rate limiting, request
// ids) lives in internal/api.
package middleware
