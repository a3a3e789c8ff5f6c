// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package supervisor runs the long-lived components under a suture v4
// supervisor tree, with restart backoff and sutureslog event logging.
//
// The tree has two layers: messaging (event bridge, WebSocket hub) and
// api (the HTTP server). A crash in the messaging layer restarts only
// that layer; the API keeps serving.
package supervisor
