// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package api

import (
	"net/http"
	"time"
)

// Health reports overall service health: database connectivity,
// version and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil
	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	rw.Success(map[string]interface{}{
		"status":             status,
		"version":            Version,
		"database_connected": dbConnected,
		"uptime_seconds":     time.Since(h.startTime).Seconds(),
	})
}

// HealthLive is the liveness probe: 200 whenever the process runs,
// regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respond(w, r).Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the readiness probe: 200 only when the store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	if h.store == nil || h.store.Ping(r.Context()) != nil {
		rw.ServiceUnavailable("database not reachable")
		return
	}
	rw.Success(map[string]interface{}{"ready": true})
}
