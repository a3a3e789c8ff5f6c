// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/retrospect-labs/retrospect/internal/pattern"
)

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run records one detection pipeline execution for a user.
type Run struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Status     string     `json:"status"`
	PhotoCount int        `json:"photo_count"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CreateRun inserts a run in the running state.
func (s *Store) CreateRun(ctx context.Context, runID, userID string, photoCount int) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO story_runs (id, user_id, status, photo_count, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		runID, userID, RunStatusRunning, photoCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", runID, err)
	}
	return nil
}

// FinishRun marks a run completed or failed.
func (s *Store) FinishRun(ctx context.Context, runID, status, errMsg string) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE story_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun returns a run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, user_id, status, photo_count, COALESCE(error, ''), started_at, finished_at
		FROM story_runs WHERE id = ?`, runID)
	return scanRun(row)
}

// LatestCompletedRun returns the most recent completed run for a user.
func (s *Store) LatestCompletedRun(ctx context.Context, userID string) (*Run, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, user_id, status, photo_count, COALESCE(error, ''), started_at, finished_at
		FROM story_runs
		WHERE user_id = ? AND status = ?
		ORDER BY started_at DESC, id DESC LIMIT 1`, userID, RunStatusCompleted)
	return scanRun(row)
}

func scanRun(row *sql.Row) (*Run, error) {
	var (
		r        Run
		finished sql.NullTime
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Status, &r.PhotoCount, &r.Error, &r.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

// SaveChapters persists the chapters and their story arcs produced by a
// run, atomically.
func (s *Store) SaveChapters(ctx context.Context, runID, userID string, chapters []pattern.Chapter) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range chapters {
		ch := &chapters[i]
		photoIDs, err := json.Marshal(idsOrEmpty(ch.PhotoIDs))
		if err != nil {
			return fmt.Errorf("failed to encode chapter photo ids: %w", err)
		}
		var ageStart, ageEnd any
		if ch.AgeStart != nil {
			ageStart = *ch.AgeStart
		}
		if ch.AgeEnd != nil {
			ageEnd = *ch.AgeEnd
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chapters
				(id, run_id, user_id, title, subtitle, kind, age_start, age_end,
				 year_start, year_end, sequence, photo_count, dominant_emotion, photo_ids)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ch.ID, runID, userID, ch.Title, ch.Subtitle, string(ch.Kind), ageStart, ageEnd,
			ch.YearStart, ch.YearEnd, ch.Sequence, ch.PhotoCount, ch.DominantEmotion,
			string(photoIDs)); err != nil {
			return fmt.Errorf("failed to insert chapter %s: %w", ch.ID, err)
		}

		for j := range ch.StoryArcs {
			arc := &ch.StoryArcs[j]
			arcPhotoIDs, err := json.Marshal(idsOrEmpty(arc.PhotoIDs))
			if err != nil {
				return fmt.Errorf("failed to encode arc photo ids: %w", err)
			}
			summary, err := json.Marshal(arc.Summary)
			if err != nil {
				return fmt.Errorf("failed to encode arc summary: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO story_arcs
					(id, run_id, user_id, chapter_id, title, description, type, kind,
					 confidence, start_at, end_at, photo_ids, summary)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				arc.ID, runID, userID, ch.ID, arc.Title, arc.Description,
				string(arc.Type), arc.Kind, arc.Confidence,
				nullableTime(arc.Start), nullableTime(arc.End),
				string(arcPhotoIDs), string(summary)); err != nil {
				return fmt.Errorf("failed to insert arc %s: %w", arc.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run results: %w", err)
	}
	return nil
}

// StoredArc is a story arc row joined with its chapter assignment.
type StoredArc struct {
	pattern.StoryArc
	ChapterID string `json:"chapter_id"`
	Narrative string `json:"narrative,omitempty"`
}

// ListChapters returns the chapters of a run in sequence order, each
// with its story arcs populated.
func (s *Store) ListChapters(ctx context.Context, runID, userID string) ([]pattern.Chapter, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, title, subtitle, kind, age_start, age_end,
		       year_start, year_end, sequence, photo_count, dominant_emotion, photo_ids
		FROM chapters WHERE run_id = ? AND user_id = ?
		ORDER BY sequence`, runID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chapters []pattern.Chapter
	for rows.Next() {
		var (
			ch               pattern.Chapter
			kind             string
			ageStart, ageEnd sql.NullInt64
			photoIDs         string
		)
		if err := rows.Scan(&ch.ID, &ch.Title, &ch.Subtitle, &kind, &ageStart, &ageEnd,
			&ch.YearStart, &ch.YearEnd, &ch.Sequence, &ch.PhotoCount,
			&ch.DominantEmotion, &photoIDs); err != nil {
			return nil, fmt.Errorf("failed to scan chapter row: %w", err)
		}
		ch.Kind = pattern.ChapterKind(kind)
		if ageStart.Valid {
			v := int(ageStart.Int64)
			ch.AgeStart = &v
		}
		if ageEnd.Valid {
			v := int(ageEnd.Int64)
			ch.AgeEnd = &v
		}
		if err := json.Unmarshal([]byte(photoIDs), &ch.PhotoIDs); err != nil {
			return nil, fmt.Errorf("failed to decode chapter photo ids: %w", err)
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chapter row iteration failed: %w", err)
	}

	for i := range chapters {
		arcs, err := s.ListArcs(ctx, runID, userID, chapters[i].ID)
		if err != nil {
			return nil, err
		}
		for _, a := range arcs {
			chapters[i].StoryArcs = append(chapters[i].StoryArcs, a.StoryArc)
		}
	}
	return chapters, nil
}

// ListArcs returns the story arcs of a run ordered by start time then
// id. An empty chapterID returns arcs from every chapter.
func (s *Store) ListArcs(ctx context.Context, runID, userID, chapterID string) ([]StoredArc, error) {
	query := `
		SELECT id, chapter_id, title, description, narrative, type, kind,
		       confidence, start_at, end_at, photo_ids, summary
		FROM story_arcs WHERE run_id = ? AND user_id = ?`
	args := []any{runID, userID}
	if chapterID != "" {
		query += ` AND chapter_id = ?`
		args = append(args, chapterID)
	}
	query += ` ORDER BY start_at, id`
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list arcs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var arcs []StoredArc
	for rows.Next() {
		var (
			a              StoredArc
			arcType        string
			start, end     sql.NullTime
			photoIDs, summ string
		)
		if err := rows.Scan(&a.ID, &a.ChapterID, &a.Title, &a.Description, &a.Narrative,
			&arcType, &a.Kind, &a.Confidence, &start, &end, &photoIDs, &summ); err != nil {
			return nil, fmt.Errorf("failed to scan arc row: %w", err)
		}
		a.Type = pattern.PatternType(arcType)
		if start.Valid {
			t := start.Time
			a.Start = &t
		}
		if end.Valid {
			t := end.Time
			a.End = &t
		}
		if err := json.Unmarshal([]byte(photoIDs), &a.PhotoIDs); err != nil {
			return nil, fmt.Errorf("failed to decode arc photo ids: %w", err)
		}
		if err := json.Unmarshal([]byte(summ), &a.Summary); err != nil {
			return nil, fmt.Errorf("failed to decode arc summary: %w", err)
		}
		arcs = append(arcs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("arc row iteration failed: %w", err)
	}
	return arcs, nil
}

// UpdateArcNarrative stores generated narrative text on an arc.
func (s *Store) UpdateArcNarrative(ctx context.Context, runID, arcID, narrative string) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE story_arcs SET narrative = ? WHERE run_id = ? AND id = ?`,
		narrative, runID, arcID)
	if err != nil {
		return fmt.Errorf("failed to update narrative for arc %s: %w", arcID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("arc %s: %w", arcID, ErrNotFound)
	}
	return nil
}

func idsOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
