// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Command server runs the Retrospect API: it loads configuration,
// opens the DuckDB store and the narrative cache, starts the event
// bus (in-process or NATS JetStream, optionally embedded), and serves
// the HTTP and WebSocket endpoints under a suture supervisor tree.
package main
