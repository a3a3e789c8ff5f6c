// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package pattern implements detection of story patterns in photo
// collections: density-based geographic clustering, temporal burst
// detection, tag signal aggregation, pattern fusion into story arcs,
// and chapter assembly.
//
// The package is pure, synchronous computation. It performs no I/O,
// holds no shared mutable state, and never mutates its inputs, so a
// single call can run from any concurrency model (request handler,
// worker pool, background job) without locking. All outputs are freshly
// constructed.
//
// # Pipeline
//
// A full run over one photo collection proceeds in five stages:
//
//  1. ClusterLocations partitions geotagged photos into spatial
//     clusters (DBSCAN over Haversine distance).
//  2. DetectBursts partitions timestamped photos into contiguous
//     temporal bursts separated by gaps over a threshold.
//  3. Summarize rolls category and emotion tags of any photo group up
//     into dominant-tag statistics.
//  4. BuildStoryArcs fuses clusters, bursts, and externally supplied
//     visual groups into scored, deduplicated story arcs.
//  5. AssembleChapters groups arcs into chronologically ordered
//     chapters by age bracket or calendar year, resolving photo
//     conflicts between arcs within the same chapter.
//
// # Determinism
//
// For fixed inputs and configuration every stage produces identical
// output across runs. All orderings and tie-breaks are explicit:
// iteration never depends on map order, sorts are stable with id tie
// breaks, and arc identifiers are content-derived (UUIDv5 over member
// ids), not random.
package pattern
