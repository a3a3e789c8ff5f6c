// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

// Package events carries story run lifecycle events over Watermill.
//
// The default transport is an in-process Go channel pub/sub, which is
// all a single-node deployment needs. With NATS enabled the bus runs
// over JetStream instead, optionally against an embedded NATS server,
// so multiple instances can share run progress.
package events
