// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package metrics exposes Prometheus instrumentation for the HTTP API,
// the detection pipeline, narrative generation, and the event bus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Detection pipeline metrics.
	DetectionRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "detection_run_duration_seconds",
			Help:    "Duration of full detection runs in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	DetectionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_runs_total",
			Help: "Total number of detection runs",
		},
		[]string{"status"},
	)

	DetectionPhotosProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detection_photos_processed_total",
			Help: "Total number of photos fed through the detection pipeline",
		},
	)

	DetectionArcsProduced = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detection_arcs_per_run",
			Help:    "Story arcs produced per detection run",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	DetectionChaptersProduced = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detection_chapters_per_run",
			Help:    "Chapters produced per detection run",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		},
	)

	// Database metrics.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Narrative generation metrics.
	NarrativeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_requests_total",
			Help: "Total narrative generation attempts",
		},
		[]string{"outcome"}, // "generated", "cached", "fallback", "error"
	)

	NarrativeRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "narrative_request_duration_seconds",
			Help:    "Duration of narrative generation calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	NarrativeBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "narrative_breaker_open",
			Help: "1 when the narrative circuit breaker is open",
		},
	)

	// Cache metrics.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache"},
	)

	// Event bus metrics.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total events published to the bus",
		},
		[]string{"topic"},
	)

	// WebSocket metrics.
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of WebSocket clients",
		},
	)
)

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveDetectionRun records one completed detection run.
func ObserveDetectionRun(status string, photos, arcs, chapters int, duration time.Duration) {
	DetectionRunDuration.WithLabelValues(status).Observe(duration.Seconds())
	DetectionRunsTotal.WithLabelValues(status).Inc()
	DetectionPhotosProcessed.Add(float64(photos))
	DetectionArcsProduced.Observe(float64(arcs))
	DetectionChaptersProduced.Observe(float64(chapters))
}

// ObserveDBQuery records one database query.
func ObserveDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
