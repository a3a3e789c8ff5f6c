// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package store persists photos, story runs, story arcs, and chapters
// in DuckDB.
//
// DuckDB keeps the whole library queryable with analytical SQL while
// staying embedded in the server process. Tag lists and photo id sets
// are stored as JSON text columns so the schema stays portable across
// DuckDB versions without extension loads.
package store
