// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package story

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/retrospect-labs/retrospect/internal/config"
	"github.com/retrospect-labs/retrospect/internal/events"
	"github.com/retrospect-labs/retrospect/internal/pattern"
	"github.com/retrospect-labs/retrospect/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.New(&config.DatabaseConfig{Path: "", MaxMemory: "512MB", Threads: 1})
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	bus := events.NewInProcess()
	t.Cleanup(func() { _ = bus.Close() })

	return New(st, nil, bus, pattern.DefaultConfig()), st
}

// seedTripPhotos stores a tightly clustered, tightly timed photo group
// that the pipeline turns into one arc, plus some noise.
func seedTripPhotos(t *testing.T, st *store.Store, userID string) {
	t.Helper()
	base := time.Date(2021, 7, 1, 12, 0, 0, 0, time.UTC)
	var photos []pattern.Photo
	for i := 0; i < 8; i++ {
		at := base.AddDate(0, 0, i)
		photos = append(photos, pattern.Photo{
			ID:         fmt.Sprintf("p%02d", i),
			CapturedAt: &at,
			Location: &pattern.Coordinate{
				Latitude:  40.0 + float64(i)*0.0002,
				Longitude: -74.0,
			},
			CategoryTags: []pattern.Tag{{Name: "beach", Confidence: 0.9}},
			EmotionTags:  []pattern.Tag{{Name: "happy", Confidence: 0.8}},
		})
	}
	photos = append(photos, pattern.Photo{ID: "far", Location: &pattern.Coordinate{Latitude: 52.5, Longitude: 13.4}})
	if err := st.UpsertPhotos(context.Background(), userID, photos); err != nil {
		t.Fatalf("UpsertPhotos() error = %v", err)
	}
}

func waitForRun(t *testing.T, st *store.Store, runID, wantStatus string) *store.Run {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		run, err := st.GetRun(context.Background(), runID)
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if run.Status == wantStatus {
			return run
		}
		if run.Status == store.RunStatusFailed && wantStatus != store.RunStatusFailed {
			t.Fatalf("run failed: %s", run.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("run stuck in status %s, want %s", run.Status, wantStatus)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestTrigger_RunsToCompletion(t *testing.T) {
	svc, st := newTestService(t)
	seedTripPhotos(t, st, "u1")

	runID, err := svc.Trigger(context.Background(), "u1", nil)
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	run := waitForRun(t, st, runID, store.RunStatusCompleted)
	if run.PhotoCount != 9 {
		t.Errorf("run.PhotoCount = %d, want 9", run.PhotoCount)
	}

	latest, chapters, err := svc.LatestChapters(context.Background(), "u1")
	if err != nil {
		t.Fatalf("LatestChapters() error = %v", err)
	}
	if latest.ID != runID {
		t.Errorf("latest run = %s, want %s", latest.ID, runID)
	}
	if len(chapters) != 1 {
		t.Fatalf("chapters = %d, want 1", len(chapters))
	}
	if len(chapters[0].StoryArcs) != 1 {
		t.Fatalf("arcs = %d, want 1", len(chapters[0].StoryArcs))
	}
	arc := chapters[0].StoryArcs[0]
	if len(arc.PhotoIDs) != 8 {
		t.Errorf("arc photos = %d, want 8", len(arc.PhotoIDs))
	}
	if arc.Summary.DominantCategory != "beach" {
		t.Errorf("dominant category = %q, want beach", arc.Summary.DominantCategory)
	}

	// The run finished, so the single-flight slot is free again.
	deadline := time.Now().Add(time.Second)
	for {
		if _, active := svc.Active("u1"); !active {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run slot never released")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTrigger_NoPhotos(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Trigger(context.Background(), "empty", nil); !errors.Is(err, ErrNoPhotos) {
		t.Errorf("Trigger() error = %v, want ErrNoPhotos", err)
	}
	if _, active := svc.Active("empty"); active {
		t.Error("failed trigger left the run slot held")
	}
}

func TestTrigger_SingleFlight(t *testing.T) {
	svc, st := newTestService(t)
	seedTripPhotos(t, st, "u1")

	svc.mu.Lock()
	svc.active["u1"] = "run-held"
	svc.mu.Unlock()

	runID, err := svc.Trigger(context.Background(), "u1", nil)
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("Trigger() error = %v, want ErrRunInProgress", err)
	}
	if runID != "run-held" {
		t.Errorf("Trigger() returned %s, want the active run id", runID)
	}
}

func TestTrigger_PublishesLifecycleEvents(t *testing.T) {
	st, err := store.New(&config.DatabaseConfig{Path: "", MaxMemory: "512MB", Threads: 1})
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	bus := events.NewInProcess()
	t.Cleanup(func() { _ = bus.Close() })
	svc := New(st, nil, bus, pattern.DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	seedTripPhotos(t, st, "u1")
	if _, err := svc.Trigger(ctx, "u1", nil); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	var seen []events.Type
	for {
		select {
		case msg := <-msgs:
			msg.Ack()
			e, err := events.Deserialize(msg.Payload)
			if err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			seen = append(seen, e.Type)
			if e.Type == events.RunCompleted {
				if seen[0] != events.RunStarted {
					t.Errorf("first event = %s, want run.started", seen[0])
				}
				if e.ChapterCount != 1 || e.ArcCount != 1 {
					t.Errorf("completion counts = %d chapters / %d arcs, want 1/1", e.ChapterCount, e.ArcCount)
				}
				return
			}
		case <-ctx.Done():
			t.Fatalf("never saw run.completed; events so far: %v", seen)
		}
	}
}
