// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/retrospect-labs/retrospect/internal/logging"
)

// ChiMiddleware builds the router-level middleware from server
// configuration: CORS and per-IP rate limiting.
type ChiMiddleware struct {
	corsOrigins     []string
	rateLimitReqs   int
	rateLimitWindow time.Duration
	cors            func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory. An empty origin
// list denies cross-origin browser access; rateLimitReqs <= 0 disables
// rate limiting.
func NewChiMiddleware(corsOrigins []string, rateLimitReqs int, rateLimitWindow time.Duration) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
	return &ChiMiddleware{
		corsOrigins:     corsOrigins,
		rateLimitReqs:   rateLimitReqs,
		rateLimitWindow: rateLimitWindow,
		cors:            corsHandler,
	}
}

// CORS returns the go-chi/cors handler. Applied globally so OPTIONS
// preflight requests are answered before routing.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default per-IP limiter for data endpoints.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.rateLimitReqs <= 0 {
		return passthrough
	}
	return httprate.Limit(
		m.rateLimitReqs,
		m.rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RateLimitHealth returns a permissive limiter for health endpoints so
// monitoring can poll frequently without eating the API budget.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	if m.rateLimitReqs <= 0 {
		return passthrough
	}
	return httprate.LimitByIP(1000, time.Minute)
}

// RateLimitIngest returns a tighter limiter for photo ingestion, which
// writes large batches into the store.
func (m *ChiMiddleware) RateLimitIngest() func(http.Handler) http.Handler {
	if m.rateLimitReqs <= 0 {
		return passthrough
	}
	return httprate.LimitByIP(30, time.Minute)
}

func passthrough(next http.Handler) http.Handler {
	return next
}

// RequestIDWithLogging wraps chi's RequestID middleware and seeds the
// logging context with request and correlation ids, so every log line
// under the request carries both.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateRequestID()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithNewCorrelationID(ctx)
			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SecurityHeaders adds the standard hardening headers to API
// responses. Content-Security-Policy is omitted; the API never serves
// HTML.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
