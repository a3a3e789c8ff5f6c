// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package api

import (
	"net/http"
	"time"

	"github.com/retrospect-labs/retrospect/internal/logging"
	"github.com/retrospect-labs/retrospect/internal/pattern"
	"github.com/retrospect-labs/retrospect/internal/validation"
)

// UpdateUser stores or updates a user profile. The birth date drives
// age-based chapter assembly; without one, story runs fall back to
// calendar-year chapters.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		rw.ValidationError(err)
		return
	}

	var birthDate *time.Time
	if req.BirthDate != "" {
		parsed, err := time.Parse(birthDateLayout, req.BirthDate)
		if err != nil {
			rw.BadRequest("birth_date must be formatted as YYYY-MM-DD")
			return
		}
		birthDate = &parsed
	}

	if err := h.store.UpsertUser(r.Context(), userID, birthDate); err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"user_id":    userID,
		"birth_date": req.BirthDate,
	})
}

// IngestPhotos upserts a batch of photo records for the user. Existing
// ids are replaced, so re-ingesting after tag model updates is safe.
func (h *Handler) IngestPhotos(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req IngestPhotosRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		rw.ValidationError(err)
		return
	}

	photos, err := req.toPhotos()
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if err := h.store.UpsertPhotos(r.Context(), userID, photos); err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("user_id", userID).
		Int("photos", len(photos)).
		Msg("photo batch ingested")

	rw.Success(map[string]interface{}{
		"user_id":  userID,
		"ingested": len(photos),
	})
}

// ListPhotos returns one page of the user's photos, newest first.
// Page size is bounded by the configured maximum.
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	limit, offset := h.pageParams(r)
	photos, err := h.store.ListPhotosPage(r.Context(), userID, limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if photos == nil {
		photos = []pattern.Photo{}
	}

	rw.Success(map[string]interface{}{
		"user_id":   userID,
		"photos":    photos,
		"page_size": limit,
		"offset":    offset,
	})
}

// PhotoCount reports how many photos the user has stored.
func (h *Handler) PhotoCount(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	count, err := h.store.CountPhotos(r.Context(), userID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"user_id": userID,
		"count":   count,
	})
}
