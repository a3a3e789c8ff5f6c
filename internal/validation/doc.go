// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package validation wraps go-playground/validator v10 behind a
// thread-safe singleton and translates field errors into the API's
// VALIDATION_ERROR response shape.
package validation
