// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/retrospect-labs/retrospect/internal/cache"
	"github.com/retrospect-labs/retrospect/internal/config"
	"github.com/retrospect-labs/retrospect/internal/pattern"
)

type mockChatClient struct {
	calls int
	text  string
	err   error
}

func (m *mockChatClient) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.text}},
		},
	}, nil
}

func testArc() *pattern.StoryArc {
	start := time.Date(2021, 7, 1, 10, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)
	return &pattern.StoryArc{
		ID:       "arc-1",
		Title:    "Beach Vacation",
		Kind:     "trip",
		PhotoIDs: []string{"p1", "p2", "p3", "p4"},
		Summary: pattern.Summary{
			DominantCategory: "beach",
			DominantEmotion:  "happy",
			PhotoCount:       4,
		},
		Start: &start,
		End:   &end,
	}
}

func TestFallback_Deterministic(t *testing.T) {
	arc := testArc()
	a := Fallback(arc)
	b := Fallback(arc)
	if a != b {
		t.Errorf("fallback not deterministic:\n%s\n%s", a, b)
	}
	for _, want := range []string{"Beach Vacation", "4 photos", "July 2021", "beach", "happy"} {
		if !strings.Contains(a, want) {
			t.Errorf("fallback missing %q: %s", want, a)
		}
	}
}

func TestFallback_NoTimestamps(t *testing.T) {
	arc := &pattern.StoryArc{ID: "a", Title: "Moments", PhotoIDs: []string{"p1"}}
	got := Fallback(arc)
	if !strings.Contains(got, "a collection of 1 photo") {
		t.Errorf("fallback = %s, want singular collection phrasing", got)
	}
}

func TestPrompt_IncludesSignals(t *testing.T) {
	got := Prompt(testArc())
	for _, want := range []string{"Beach Vacation", "trip", "4 photos", "beach", "happy"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestForArc_NoClientFallsBack(t *testing.T) {
	g := New(config.NarrativeConfig{Enabled: false}, nil)
	got := g.ForArc(context.Background(), testArc())
	if got != Fallback(testArc()) {
		t.Errorf("ForArc() = %s, want fallback text", got)
	}
}

func TestForArc_GeneratesAndCaches(t *testing.T) {
	store, err := cache.OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	g := New(config.NarrativeConfig{Enabled: true, Model: "test"}, store)
	mock := &mockChatClient{text: "A sunlit week at the shore."}
	g.client = mock

	got := g.ForArc(context.Background(), testArc())
	if got != "A sunlit week at the shore." {
		t.Errorf("ForArc() = %q, want generated text", got)
	}
	if mock.calls != 1 {
		t.Errorf("client calls = %d, want 1", mock.calls)
	}

	// Second call must come from the persistent cache.
	got = g.ForArc(context.Background(), testArc())
	if got != "A sunlit week at the shore." {
		t.Errorf("cached ForArc() = %q, want same text", got)
	}
	if mock.calls != 1 {
		t.Errorf("client calls after cache hit = %d, want 1", mock.calls)
	}
}

func TestForArc_ErrorFallsBack(t *testing.T) {
	g := New(config.NarrativeConfig{Enabled: true, Model: "test"}, nil)
	g.client = &mockChatClient{err: errors.New("upstream down")}

	got := g.ForArc(context.Background(), testArc())
	if got != Fallback(testArc()) {
		t.Errorf("ForArc() = %q, want fallback on error", got)
	}
}

func TestForArc_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	g := New(config.NarrativeConfig{
		Enabled:          true,
		Model:            "test",
		BreakerThreshold: 3,
		BreakerCooldown:  time.Minute,
	}, nil)
	mock := &mockChatClient{err: errors.New("upstream down")}
	g.client = mock

	arc := testArc()
	for i := 0; i < 6; i++ {
		g.ForArc(context.Background(), arc)
	}
	// After 3 consecutive failures the breaker short-circuits and the
	// client stops being called.
	if mock.calls != 3 {
		t.Errorf("client calls = %d, want 3 before breaker opens", mock.calls)
	}
}
