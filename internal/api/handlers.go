// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/retrospect-labs/retrospect/internal/cache"
	"github.com/retrospect-labs/retrospect/internal/config"
	"github.com/retrospect-labs/retrospect/internal/pattern"
	"github.com/retrospect-labs/retrospect/internal/store"
	"github.com/retrospect-labs/retrospect/internal/story"
	"github.com/retrospect-labs/retrospect/internal/websocket"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// maxRequestBody bounds request bodies; ingestion batches of 5000
// photos with full tag sets stay well under this.
const maxRequestBody = 16 << 20

// Handler owns the HTTP endpoints and their dependencies.
type Handler struct {
	store     *store.Store
	stories   *story.Service
	hub       *websocket.Hub
	cache     cache.Cacher
	cfg       *config.ServerConfig
	startTime time.Time
}

// NewHandler creates the endpoint handler. hub may be nil when the
// WebSocket endpoint is not served; resultCache may be nil to disable
// chapter caching.
func NewHandler(st *store.Store, stories *story.Service, hub *websocket.Hub, resultCache cache.Cacher, cfg *config.ServerConfig) *Handler {
	return &Handler{
		store:     st,
		stories:   stories,
		hub:       hub,
		cache:     resultCache,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// decodeBody decodes a JSON request body into dst with a size cap.
// Returns false after writing the error response itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := respond(w, r)
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			rw.BadRequest("request body is required")
			return false
		}
		rw.BadRequest("invalid JSON body: " + err.Error())
		return false
	}
	return true
}

// userIDParam extracts and bounds the {id} path parameter.
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > 128 {
		respond(w, r).BadRequest("user id must be 1-128 characters")
		return "", false
	}
	return id, true
}

// pageParams reads the page and page_size query parameters, applying
// the configured default and cap.
func (h *Handler) pageParams(r *http.Request) (limit, offset int) {
	limit = h.cfg.DefaultPageSize
	if limit < 1 {
		limit = 20
	}
	maxSize := h.cfg.MaxPageSize
	if maxSize < limit {
		maxSize = limit
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxSize {
		limit = maxSize
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}
	return limit, (page - 1) * limit
}

// chaptersFor loads a run's chapters, serving from the result cache
// when possible. Completed runs are immutable, so entries keyed by run
// id never go stale.
func (h *Handler) chaptersFor(r *http.Request, run *store.Run) ([]pattern.Chapter, error) {
	var key string
	if h.cache != nil {
		key = cache.GenerateKey("chapters", map[string]string{"run": run.ID, "user": run.UserID})
		if v, ok := h.cache.Get(key); ok {
			if chapters, ok := v.([]pattern.Chapter); ok {
				return chapters, nil
			}
		}
	}
	chapters, err := h.store.ListChapters(r.Context(), run.ID, run.UserID)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		h.cache.Set(key, chapters)
	}
	return chapters, nil
}
