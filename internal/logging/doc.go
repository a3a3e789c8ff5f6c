// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package logging provides the process-global structured logger for
// Retrospect, built on zerolog.
//
// Output is JSON by default with an optional console format for
// development. Context helpers propagate correlation and request ids
// through the request path so every event in a story run can be tied
// back to the trigger that started it.
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("user_id", id).Msg("story run started") // emitted
//	logging.Info().Str("user_id", id)                          // never emitted
package logging
