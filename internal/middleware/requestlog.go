// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package middleware

import (
	"net/http"
	"time"

	"github.com/retrospect-labs/retrospect/internal/logging"
)

// RequestLogging emits one structured log line per request with
// method, path, status, duration and the ids the logging context
// carries. Health probes are logged at debug to keep monitoring noise
// out of info-level output.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		log := logging.Ctx(r.Context())
		event := log.Info()
		if isHealthPath(r.URL.Path) {
			event = log.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("http request")
	})
}

func isHealthPath(path string) bool {
	switch path {
	case "/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready", "/metrics":
		return true
	}
	return false
}
