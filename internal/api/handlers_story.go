// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/retrospect-labs/retrospect/internal/store"
	"github.com/retrospect-labs/retrospect/internal/story"
	"github.com/retrospect-labs/retrospect/internal/validation"
)

// TriggerStory starts an asynchronous story run for the user. The body
// is optional; when present it may carry visual-similarity groups to
// feed the fusion stage. Answers 202 with the run id, or 409 with the
// active run's id when one is already in flight.
func (h *Handler) TriggerStory(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req TriggerStoryRequest
	if r.ContentLength != 0 {
		body := http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			rw.BadRequest("invalid JSON body: " + err.Error())
			return
		}
		if err := validation.Struct(&req); err != nil {
			rw.ValidationError(err)
			return
		}
	}

	runID, err := h.stories.Trigger(r.Context(), userID, req.toVisualGroups())
	switch {
	case errors.Is(err, story.ErrRunInProgress):
		rw.Conflict("a story run is already in progress", map[string]string{"run_id": runID})
		return
	case errors.Is(err, story.ErrNoPhotos):
		rw.BadRequest("user has no photos to analyze")
		return
	case err != nil:
		rw.DatabaseError(err)
		return
	}

	rw.Accepted(map[string]string{
		"run_id": runID,
		"status": store.RunStatusRunning,
	})
}

// GetRun reports the state of one story run.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	runID := chi.URLParam(r, "id")

	run, err := h.store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		rw.NotFound("run not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(run)
}

// ActiveRun reports whether the user has a run in flight.
func (h *Handler) ActiveRun(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	runID, active := h.stories.Active(userID)
	data := map[string]interface{}{"active": active}
	if active {
		data["run_id"] = runID
	}
	rw.Success(data)
}

// LatestStory returns the chapters of the user's most recent completed
// run, with narratives attached where generation succeeded.
func (h *Handler) LatestStory(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	run, err := h.store.LatestCompletedRun(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		rw.NotFound("no completed story run for this user")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	chapters, err := h.chaptersFor(r, run)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"run":      run,
		"chapters": chapters,
	})
}

// RunChapters returns the chapters persisted for one run.
func (h *Handler) RunChapters(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	runID := chi.URLParam(r, "id")

	run, err := h.store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		rw.NotFound("run not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	chapters, err := h.chaptersFor(r, run)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"run_id":   run.ID,
		"chapters": chapters,
	})
}

// RunArcs returns a run's story arcs with their stored narratives,
// optionally filtered to one chapter via ?chapter_id=.
func (h *Handler) RunArcs(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	runID := chi.URLParam(r, "id")

	run, err := h.store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		rw.NotFound("run not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	arcs, err := h.store.ListArcs(r.Context(), run.ID, run.UserID, r.URL.Query().Get("chapter_id"))
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"run_id": run.ID,
		"arcs":   arcs,
	})
}
