// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "debug", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = Init(DefaultConfig()) })

	Info().Str("component", "test").Msg("hello")

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("output is not JSON: %v\noutput: %s", err, buf.String())
	}
	if event["message"] != "hello" {
		t.Errorf("message = %v, want hello", event["message"])
	}
	if event["component"] != "test" {
		t.Errorf("component = %v, want test", event["component"])
	}
	if event["level"] != "info" {
		t.Errorf("level = %v, want info", event["level"])
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "warn", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = Init(DefaultConfig()) })

	Info().Msg("suppressed")
	Warn().Msg("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("info event emitted at warn level: %s", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("warn event missing: %s", out)
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init(Config{Level: "loud"}); err == nil {
		t.Fatal("Init() expected error for invalid level")
	}
}

func TestCtx_CorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "info", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = Init(DefaultConfig()) })

	ctx := ContextWithCorrelationID(context.Background(), "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")
	Ctx(ctx).Info().Msg("with context")

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if event["correlation_id"] != "abc12345" {
		t.Errorf("correlation_id = %v, want abc12345", event["correlation_id"])
	}
	if event["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", event["request_id"])
	}
}

func TestCtx_NoFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "info", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = Init(DefaultConfig()) })

	Ctx(context.Background()).Info().Msg("bare")

	if strings.Contains(buf.String(), "correlation_id") {
		t.Errorf("unexpected correlation_id in output: %s", buf.String())
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	a := GenerateCorrelationID()
	b := GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("len = %d, want 8", len(a))
	}
	if a == b {
		t.Errorf("ids not unique: %s == %s", a, b)
	}
}
