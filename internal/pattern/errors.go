// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package pattern

import "errors"

// Sentinel errors returned by the pattern pipeline. Callers should test
// with errors.Is; all returned errors wrap one of these.
var (
	// ErrInvalidInput indicates structurally invalid input: a latitude
	// outside [-90, 90], a longitude outside [-180, 180], or a duplicate
	// photo id within one call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a non-positive threshold (eps_km,
	// max_gap, min_samples, min_photos_per_arc) or a malformed age
	// bracket table.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInsufficientData is reserved for callers that want to
	// distinguish "nothing qualified" from success. The pipeline itself
	// never returns it: too few geotagged or timestamped photos yield
	// empty result sets, not errors.
	ErrInsufficientData = errors.New("insufficient data")
)
