// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package api provides the HTTP surface: photo ingestion, story run
// triggering and inspection, chapter and arc retrieval, health probes
// and the WebSocket upgrade endpoint. Routing uses chi with go-chi
// CORS and rate-limit middleware; responses share one JSON envelope.
package api
