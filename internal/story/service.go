// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package story

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retrospect-labs/retrospect/internal/events"
	"github.com/retrospect-labs/retrospect/internal/logging"
	"github.com/retrospect-labs/retrospect/internal/metrics"
	"github.com/retrospect-labs/retrospect/internal/narrative"
	"github.com/retrospect-labs/retrospect/internal/pattern"
	"github.com/retrospect-labs/retrospect/internal/store"
)

// Service runs the detection pipeline for users.
type Service struct {
	store *store.Store
	gen   *narrative.Generator
	bus   *events.Bus
	cfg   pattern.Config

	mu     sync.Mutex
	active map[string]string // user id -> active run id
}

// New creates a Service. gen may be nil to skip narrative text.
func New(st *store.Store, gen *narrative.Generator, bus *events.Bus, cfg pattern.Config) *Service {
	return &Service{
		store:  st,
		gen:    gen,
		bus:    bus,
		cfg:    cfg,
		active: make(map[string]string),
	}
}

// Trigger starts an asynchronous run for the user and returns its id.
// With a run already active it returns that run's id and
// ErrRunInProgress.
func (s *Service) Trigger(ctx context.Context, userID string, visualGroups []pattern.VisualGroup) (string, error) {
	s.mu.Lock()
	if runID, ok := s.active[userID]; ok {
		s.mu.Unlock()
		return runID, ErrRunInProgress
	}
	runID := uuid.New().String()
	s.active[userID] = runID
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.active, userID)
		s.mu.Unlock()
	}

	photos, err := s.store.ListPhotos(ctx, userID)
	if err != nil {
		release()
		return "", fmt.Errorf("failed to load photo snapshot: %w", err)
	}
	if len(photos) == 0 {
		release()
		return "", ErrNoPhotos
	}

	if err := s.store.CreateRun(ctx, runID, userID, len(photos)); err != nil {
		release()
		return "", err
	}

	s.publish(ctx, &events.Event{
		Type: events.RunStarted, UserID: userID, RunID: runID, PhotoCount: len(photos),
	})

	// The run outlives the triggering request; detach from its context
	// but keep the correlation id for log continuity.
	runCtx := logging.ContextWithCorrelationID(context.Background(),
		logging.CorrelationIDFromContext(ctx))
	go func() {
		defer release()
		s.execute(runCtx, runID, userID, photos, visualGroups)
	}()

	return runID, nil
}

// Active returns the user's active run id, if any.
func (s *Service) Active(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runID, ok := s.active[userID]
	return runID, ok
}

// LatestChapters returns the chapters of the user's most recent
// completed run.
func (s *Service) LatestChapters(ctx context.Context, userID string) (*store.Run, []pattern.Chapter, error) {
	run, err := s.store.LatestCompletedRun(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	chapters, err := s.store.ListChapters(ctx, run.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	return run, chapters, nil
}

func (s *Service) execute(ctx context.Context, runID, userID string, photos []pattern.Photo, visualGroups []pattern.VisualGroup) {
	log := logging.Ctx(ctx).With().Str("run_id", runID).Str("user_id", userID).Logger()
	started := time.Now()

	fail := func(stage string, err error) {
		log.Error().Err(err).Str("stage", stage).Msg("story run failed")
		if ferr := s.store.FinishRun(ctx, runID, store.RunStatusFailed, err.Error()); ferr != nil {
			log.Error().Err(ferr).Msg("failed to mark run failed")
		}
		s.publish(ctx, &events.Event{
			Type: events.RunFailed, UserID: userID, RunID: runID, Stage: stage, Error: err.Error(),
		})
		metrics.ObserveDetectionRun("failed", len(photos), 0, 0, time.Since(started))
	}

	birthDate, err := s.store.UserBirthDate(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		fail("load_user", err)
		return
	}

	s.progress(ctx, userID, runID, "detection")
	result, err := pattern.Run(photos, visualGroups, birthDate, s.cfg)
	if err != nil {
		fail("detection", err)
		return
	}

	s.progress(ctx, userID, runID, "persist")
	if err := s.store.SaveChapters(ctx, runID, userID, result.Chapters); err != nil {
		fail("persist", err)
		return
	}

	if s.gen != nil {
		s.progress(ctx, userID, runID, "narrative")
		for ci := range result.Chapters {
			for ai := range result.Chapters[ci].StoryArcs {
				arc := &result.Chapters[ci].StoryArcs[ai]
				text := s.gen.ForArc(ctx, arc)
				if err := s.store.UpdateArcNarrative(ctx, runID, arc.ID, text); err != nil {
					log.Warn().Err(err).Str("arc_id", arc.ID).Msg("failed to store narrative")
				}
			}
		}
	}

	if err := s.store.FinishRun(ctx, runID, store.RunStatusCompleted, ""); err != nil {
		fail("finish", err)
		return
	}

	arcCount := 0
	for i := range result.Chapters {
		arcCount += len(result.Chapters[i].StoryArcs)
	}
	s.publish(ctx, &events.Event{
		Type:         events.RunCompleted,
		UserID:       userID,
		RunID:        runID,
		PhotoCount:   len(photos),
		ArcCount:     arcCount,
		ChapterCount: len(result.Chapters),
	})
	metrics.ObserveDetectionRun("completed", len(photos), arcCount, len(result.Chapters), time.Since(started))
	log.Info().
		Int("photos", len(photos)).
		Int("arcs", arcCount).
		Int("chapters", len(result.Chapters)).
		Dur("duration", time.Since(started)).
		Msg("story run completed")
}

func (s *Service) progress(ctx context.Context, userID, runID, stage string) {
	s.publish(ctx, &events.Event{
		Type: events.RunProgress, UserID: userID, RunID: runID, Stage: stage,
	})
}

func (s *Service) publish(ctx context.Context, e *events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		logging.Warn().Err(err).Str("event_type", string(e.Type)).Msg("failed to publish run event")
	}
}
