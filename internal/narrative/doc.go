// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package narrative turns story arcs into short prose descriptions.
//
// With an API key configured the text comes from an OpenAI-compatible
// chat model, guarded by a rate limiter and a circuit breaker. Without
// one, or whenever the upstream call fails, a deterministic template
// produces the text instead, so a run always yields a narrative.
//
// Arc ids are content-derived, which makes them usable as persistent
// cache keys: the same arc never pays for generation twice, across
// runs and restarts.
package narrative
