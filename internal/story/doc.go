// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package story orchestrates detection runs.
//
// A run loads the user's photo snapshot, executes the pattern
// pipeline, persists the resulting chapters and arcs, attaches
// narrative text, and publishes lifecycle events along the way. Runs
// are single-flight per user: triggering while a run is active returns
// the active run's id instead of starting another.
package story
