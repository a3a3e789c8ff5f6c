// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/retrospect-labs/retrospect/internal/config"
	"github.com/retrospect-labs/retrospect/internal/pattern"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&config.DatabaseConfig{Path: "", MaxMemory: "512MB", Threads: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPhotos_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	captured := time.Date(2021, 7, 4, 15, 0, 0, 0, time.UTC)
	photos := []pattern.Photo{
		{
			ID:         "p2",
			CapturedAt: &captured,
			Location:   &pattern.Coordinate{Latitude: 40.7128, Longitude: -74.006},
			CategoryTags: []pattern.Tag{
				{Name: "beach", Confidence: 0.9},
			},
			EmotionTags: []pattern.Tag{
				{Name: "happy", Confidence: 0.8},
			},
		},
		{ID: "p1"}, // no timestamp, no location, no tags
	}
	if err := s.UpsertPhotos(ctx, "user-1", photos); err != nil {
		t.Fatalf("UpsertPhotos() error = %v", err)
	}

	got, err := s.ListPhotos(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListPhotos() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListPhotos() returned %d photos, want 2", len(got))
	}
	// Ordered by id.
	if got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("photo order = [%s, %s], want [p1, p2]", got[0].ID, got[1].ID)
	}
	if got[0].CapturedAt != nil || got[0].Location != nil {
		t.Errorf("p1 should have no timestamp or location: %+v", got[0])
	}
	p2 := got[1]
	if p2.CapturedAt == nil || !p2.CapturedAt.Equal(captured) {
		t.Errorf("p2.CapturedAt = %v, want %v", p2.CapturedAt, captured)
	}
	if p2.Location == nil || p2.Location.Latitude != 40.7128 {
		t.Errorf("p2.Location = %+v, want lat 40.7128", p2.Location)
	}
	if len(p2.CategoryTags) != 1 || p2.CategoryTags[0].Name != "beach" {
		t.Errorf("p2.CategoryTags = %v, want beach", p2.CategoryTags)
	}

	n, err := s.CountPhotos(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountPhotos() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountPhotos() = %d, want 2", n)
	}
}

func TestPhotos_UpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertPhotos(ctx, "u", []pattern.Photo{{ID: "p1"}}); err != nil {
		t.Fatalf("UpsertPhotos() error = %v", err)
	}
	updated := []pattern.Photo{{
		ID:           "p1",
		CategoryTags: []pattern.Tag{{Name: "food", Confidence: 0.7}},
	}}
	if err := s.UpsertPhotos(ctx, "u", updated); err != nil {
		t.Fatalf("UpsertPhotos() second call error = %v", err)
	}

	got, err := s.ListPhotos(ctx, "u")
	if err != nil {
		t.Fatalf("ListPhotos() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListPhotos() returned %d photos, want 1 after replace", len(got))
	}
	if len(got[0].CategoryTags) != 1 || got[0].CategoryTags[0].Name != "food" {
		t.Errorf("CategoryTags = %v, want food", got[0].CategoryTags)
	}
}

func TestListPhotosPage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2021, 7, 1, 12, 0, 0, 0, time.UTC)
	photos := make([]pattern.Photo, 0, 6)
	for i := 0; i < 5; i++ {
		at := base.AddDate(0, 0, i)
		photos = append(photos, pattern.Photo{ID: fmt.Sprintf("p%d", i), CapturedAt: &at})
	}
	photos = append(photos, pattern.Photo{ID: "undated"})
	if err := s.UpsertPhotos(ctx, "u", photos); err != nil {
		t.Fatalf("UpsertPhotos() error = %v", err)
	}

	// Newest first, undated photos last.
	got, err := s.ListPhotosPage(ctx, "u", 3, 0)
	if err != nil {
		t.Fatalf("ListPhotosPage() error = %v", err)
	}
	if len(got) != 3 || got[0].ID != "p4" || got[2].ID != "p2" {
		t.Fatalf("first page = %v, want [p4 p3 p2]", ids(got))
	}

	got, err = s.ListPhotosPage(ctx, "u", 3, 3)
	if err != nil {
		t.Fatalf("ListPhotosPage() offset error = %v", err)
	}
	if len(got) != 3 || got[2].ID != "undated" {
		t.Fatalf("second page = %v, want [p1 p0 undated]", ids(got))
	}

	got, err = s.ListPhotosPage(ctx, "u", 3, 6)
	if err != nil {
		t.Fatalf("ListPhotosPage() past-end error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("past-end page = %v, want empty", ids(got))
	}
}

func ids(photos []pattern.Photo) []string {
	out := make([]string, len(photos))
	for i := range photos {
		out[i] = photos[i].ID
	}
	return out
}

func TestUserBirthDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.UserBirthDate(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserBirthDate(ghost) error = %v, want ErrNotFound", err)
	}

	if err := s.UpsertUser(ctx, "u1", nil); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	bd, err := s.UserBirthDate(ctx, "u1")
	if err != nil {
		t.Fatalf("UserBirthDate() error = %v", err)
	}
	if bd != nil {
		t.Errorf("birth date = %v, want nil", bd)
	}

	birth := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	if err := s.UpsertUser(ctx, "u1", &birth); err != nil {
		t.Fatalf("UpsertUser() update error = %v", err)
	}
	bd, err = s.UserBirthDate(ctx, "u1")
	if err != nil {
		t.Fatalf("UserBirthDate() error = %v", err)
	}
	if bd == nil || bd.Year() != 1990 || bd.Month() != time.June {
		t.Errorf("birth date = %v, want 1990-06-15", bd)
	}
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "u1", 42); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Status != RunStatusRunning || run.PhotoCount != 42 {
		t.Errorf("run = %+v, want running with 42 photos", run)
	}
	if run.FinishedAt != nil {
		t.Errorf("FinishedAt = %v, want nil while running", run.FinishedAt)
	}

	if err := s.FinishRun(ctx, "run-1", RunStatusCompleted, ""); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}
	run, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Status != RunStatusCompleted || run.FinishedAt == nil {
		t.Errorf("run = %+v, want completed with finish time", run)
	}

	latest, err := s.LatestCompletedRun(ctx, "u1")
	if err != nil {
		t.Fatalf("LatestCompletedRun() error = %v", err)
	}
	if latest.ID != "run-1" {
		t.Errorf("LatestCompletedRun() = %s, want run-1", latest.ID)
	}

	if err := s.FinishRun(ctx, "missing", RunStatusFailed, "boom"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FinishRun(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLatestCompletedRun_PicksNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b"} {
		if err := s.CreateRun(ctx, id, "u1", 1); err != nil {
			t.Fatalf("CreateRun(%s) error = %v", id, err)
		}
		if err := s.FinishRun(ctx, id, RunStatusCompleted, ""); err != nil {
			t.Fatalf("FinishRun(%s) error = %v", id, err)
		}
	}
	// A failed run after the completed ones must not win.
	if err := s.CreateRun(ctx, "run-c", "u1", 1); err != nil {
		t.Fatalf("CreateRun(run-c) error = %v", err)
	}
	if err := s.FinishRun(ctx, "run-c", RunStatusFailed, "boom"); err != nil {
		t.Fatalf("FinishRun(run-c) error = %v", err)
	}

	latest, err := s.LatestCompletedRun(ctx, "u1")
	if err != nil {
		t.Fatalf("LatestCompletedRun() error = %v", err)
	}
	if latest.ID != "run-b" {
		t.Errorf("LatestCompletedRun() = %s, want run-b", latest.ID)
	}
}

func TestSaveChapters_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2020, 7, 1, 10, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	ageStart, ageEnd := 28, 30
	chapters := []pattern.Chapter{
		{
			ID:        "ch-1",
			Title:     "Young Adult",
			Subtitle:  "Ages 28-30 (2018-2020)",
			Kind:      pattern.ChapterAgeBased,
			AgeStart:  &ageStart,
			AgeEnd:    &ageEnd,
			YearStart: 2018,
			YearEnd:   2020,
			StoryArcs: []pattern.StoryArc{
				{
					ID:          "arc-1",
					Title:       "Beach Vacation",
					Description: "A trip with 4 photos",
					Type:        pattern.PatternType("temporal+spatial"),
					Kind:        "trip",
					PhotoIDs:    []string{"p1", "p2", "p3", "p4"},
					Summary: pattern.Summary{
						DominantCategory: "beach",
						DominantEmotion:  "happy",
						PhotoCount:       4,
					},
					Confidence: 0.8,
					Start:      &start,
					End:        &end,
				},
			},
			PhotoIDs:        []string{"p1", "p2", "p3", "p4"},
			PhotoCount:      4,
			DominantEmotion: "happy",
			Sequence:        0,
		},
	}

	if err := s.CreateRun(ctx, "run-1", "u1", 4); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := s.SaveChapters(ctx, "run-1", "u1", chapters); err != nil {
		t.Fatalf("SaveChapters() error = %v", err)
	}

	got, err := s.ListChapters(ctx, "run-1", "u1")
	if err != nil {
		t.Fatalf("ListChapters() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListChapters() returned %d chapters, want 1", len(got))
	}
	ch := got[0]
	if ch.Title != "Young Adult" || ch.Kind != pattern.ChapterAgeBased {
		t.Errorf("chapter = %+v, want Young Adult age_based", ch)
	}
	if ch.AgeStart == nil || *ch.AgeStart != 28 || ch.AgeEnd == nil || *ch.AgeEnd != 30 {
		t.Errorf("age range = %v-%v, want 28-30", ch.AgeStart, ch.AgeEnd)
	}
	if len(ch.StoryArcs) != 1 {
		t.Fatalf("chapter has %d arcs, want 1", len(ch.StoryArcs))
	}
	arc := ch.StoryArcs[0]
	if arc.ID != "arc-1" || arc.Kind != "trip" || len(arc.PhotoIDs) != 4 {
		t.Errorf("arc = %+v, want arc-1 trip with 4 photos", arc)
	}
	if arc.Summary.DominantCategory != "beach" {
		t.Errorf("arc summary = %+v, want beach dominant", arc.Summary)
	}
	if arc.Start == nil || !arc.Start.Equal(start) {
		t.Errorf("arc.Start = %v, want %v", arc.Start, start)
	}
}

func TestUpdateArcNarrative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chapters := []pattern.Chapter{{
		ID:        "ch-1",
		Title:     "Life in 2020",
		Kind:      pattern.ChapterYearBased,
		YearStart: 2020,
		YearEnd:   2020,
		StoryArcs: []pattern.StoryArc{{
			ID:       "arc-1",
			Title:    "July Moments",
			Type:     pattern.PatternTemporal,
			Kind:     "moment",
			PhotoIDs: []string{"p1"},
		}},
	}}
	if err := s.SaveChapters(ctx, "run-1", "u1", chapters); err != nil {
		t.Fatalf("SaveChapters() error = %v", err)
	}

	if err := s.UpdateArcNarrative(ctx, "run-1", "arc-1", "A warm week by the shore."); err != nil {
		t.Fatalf("UpdateArcNarrative() error = %v", err)
	}
	arcs, err := s.ListArcs(ctx, "run-1", "u1", "ch-1")
	if err != nil {
		t.Fatalf("ListArcs() error = %v", err)
	}
	if len(arcs) != 1 || arcs[0].Narrative != "A warm week by the shore." {
		t.Errorf("arcs = %+v, want narrative set", arcs)
	}

	if err := s.UpdateArcNarrative(ctx, "run-1", "ghost", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateArcNarrative(ghost) error = %v, want ErrNotFound", err)
	}
}
