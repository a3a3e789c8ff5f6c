// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retrospect-labs/retrospect/internal/config"
	"github.com/retrospect-labs/retrospect/internal/middleware"
)

// Router wires handlers and middleware into the chi route tree.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
}

// NewRouter creates the router from server configuration.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *Router {
	return &Router{
		handler: handler,
		mw:      NewChiMiddleware(cfg.CORSOrigins, cfg.RateLimitReqs, cfg.RateLimitWindow),
	}
}

// Setup builds the full route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS())
	r.Use(middleware.RequestLogging)

	// Health probes get a permissive rate limit so monitoring can poll
	// without touching the API budget.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.mw.RateLimitHealth())
		r.Use(SecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Data endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.mw.RateLimit())
		r.Use(SecurityHeaders())
		r.Use(middleware.Metrics)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Put("/", router.handler.UpdateUser)
			r.With(router.mw.RateLimitIngest()).Post("/photos", router.handler.IngestPhotos)
			r.Get("/photos", router.handler.ListPhotos)
			r.Get("/photos/count", router.handler.PhotoCount)

			r.Post("/story", router.handler.TriggerStory)
			r.Get("/story", router.handler.LatestStory)
			r.Get("/story/active", router.handler.ActiveRun)
		})

		r.Route("/runs/{id}", func(r chi.Router) {
			r.Get("/", router.handler.GetRun)
			r.Get("/chapters", router.handler.RunChapters)
			r.Get("/arcs", router.handler.RunArcs)
		})

		r.Get("/ws", router.handler.WebSocket)
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
