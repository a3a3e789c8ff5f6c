// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package websocket pushes story run progress to connected browser
// clients.
//
// A Hub fans events out to all clients; the Bridge feeds it from the
// event bus so run progress reaches the UI regardless of which
// transport the bus runs on.
package websocket
