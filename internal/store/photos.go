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

// UpsertUser creates or updates a user row. birthDate may be nil for
// users without a known birth date; their chapters fall back to
// calendar years.
func (s *Store) UpsertUser(ctx context.Context, userID string, birthDate *time.Time) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO users (id, birth_date) VALUES (?, ?)`,
		userID, nullableTime(birthDate))
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", userID, err)
	}
	return nil
}

// UserBirthDate returns the user's birth date, nil when unknown.
// Returns ErrNotFound for users that do not exist.
func (s *Store) UserBirthDate(ctx context.Context, userID string) (*time.Time, error) {
	var bd sql.NullTime
	err := s.conn.QueryRowContext(ctx,
		`SELECT birth_date FROM users WHERE id = ?`, userID).Scan(&bd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %s: %w", userID, err)
	}
	if !bd.Valid {
		return nil, nil
	}
	t := bd.Time
	return &t, nil
}

// UpsertPhotos inserts or replaces a batch of photos for a user inside
// a single transaction.
func (s *Store) UpsertPhotos(ctx context.Context, userID string, photos []pattern.Photo) error {
	if len(photos) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO photos
			(id, user_id, captured_at, latitude, longitude, category_tags, emotion_tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare photo insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range photos {
		p := &photos[i]
		categories, err := json.Marshal(tagsOrEmpty(p.CategoryTags))
		if err != nil {
			return fmt.Errorf("failed to encode category tags for %s: %w", p.ID, err)
		}
		emotions, err := json.Marshal(tagsOrEmpty(p.EmotionTags))
		if err != nil {
			return fmt.Errorf("failed to encode emotion tags for %s: %w", p.ID, err)
		}

		var lat, lon any
		if p.Location != nil {
			lat, lon = p.Location.Latitude, p.Location.Longitude
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, userID, nullableTime(p.CapturedAt), lat, lon,
			string(categories), string(emotions)); err != nil {
			return fmt.Errorf("failed to upsert photo %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit photo batch: %w", err)
	}
	return nil
}

// ListPhotos returns every photo for a user ordered by id. The id
// ordering keeps downstream detection deterministic regardless of
// insertion order.
func (s *Store) ListPhotos(ctx context.Context, userID string) ([]pattern.Photo, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, captured_at, latitude, longitude, category_tags, emotion_tags
		FROM photos WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos for %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()
	return scanPhotoRows(rows)
}

// ListPhotosPage returns one page of a user's photos ordered by
// capture time then id, newest first. Photos without a capture time
// sort last.
func (s *Store) ListPhotosPage(ctx context.Context, userID string, limit, offset int) ([]pattern.Photo, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, captured_at, latitude, longitude, category_tags, emotion_tags
		FROM photos WHERE user_id = ?
		ORDER BY captured_at DESC NULLS LAST, id
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list photo page for %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()
	return scanPhotoRows(rows)
}

func scanPhotoRows(rows *sql.Rows) ([]pattern.Photo, error) {
	var photos []pattern.Photo
	for rows.Next() {
		var (
			p          pattern.Photo
			capturedAt sql.NullTime
			lat, lon   sql.NullFloat64
			categories string
			emotions   string
		)
		if err := rows.Scan(&p.ID, &capturedAt, &lat, &lon, &categories, &emotions); err != nil {
			return nil, fmt.Errorf("failed to scan photo row: %w", err)
		}
		if capturedAt.Valid {
			t := capturedAt.Time
			p.CapturedAt = &t
		}
		if lat.Valid && lon.Valid {
			p.Location = &pattern.Coordinate{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		if err := json.Unmarshal([]byte(categories), &p.CategoryTags); err != nil {
			return nil, fmt.Errorf("failed to decode category tags for %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(emotions), &p.EmotionTags); err != nil {
			return nil, fmt.Errorf("failed to decode emotion tags for %s: %w", p.ID, err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("photo row iteration failed: %w", err)
	}
	return photos, nil
}

// CountPhotos returns the number of photos stored for a user.
func (s *Store) CountPhotos(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM photos WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos for %s: %w", userID, err)
	}
	return n, nil
}

func tagsOrEmpty(tags []pattern.Tag) []pattern.Tag {
	if tags == nil {
		return []pattern.Tag{}
	}
	return tags
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
