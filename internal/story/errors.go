// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package story

import "errors"

var (
	// ErrRunInProgress indicates the user already has an active run.
	ErrRunInProgress = errors.New("story: run already in progress")

	// ErrNoPhotos indicates the user has no photos to analyze.
	ErrNoPhotos = errors.New("story: no photos to analyze")
)
