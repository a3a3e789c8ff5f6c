// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/retrospect-labs/retrospect/internal/config"
	"github.com/retrospect-labs/retrospect/internal/logging"
)

// Store wraps the DuckDB connection and provides data access methods.
type Store struct {
	conn *sql.DB
}

// New opens the database, configures the connection pool, and creates
// the schema. An empty path opens an in-memory database.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	dsn := ":memory:"
	if cfg.Path != "" {
		// 0750 per gosec G301
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		dsn = cfg.Path
	}

	// Auto-install/auto-load stay off so startup cannot hang on
	// network fetches in restricted environments.
	connStr := fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		dsn, threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// DuckDB is embedded: a single writer connection avoids write-write
	// conflicts while reads multiplex fine.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn}
	if err := s.migrate(context.Background()); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", dsn).Int("threads", threads).Msg("database ready")
	return s, nil
}

// Conn returns the underlying SQL connection for packages that need
// direct access.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("failed to close database connection")
	}
}

func (s *Store) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         VARCHAR PRIMARY KEY,
			birth_date DATE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS photos (
			id            VARCHAR PRIMARY KEY,
			user_id       VARCHAR NOT NULL,
			captured_at   TIMESTAMP,
			latitude      DOUBLE,
			longitude     DOUBLE,
			category_tags VARCHAR NOT NULL DEFAULT '[]',
			emotion_tags  VARCHAR NOT NULL DEFAULT '[]',
			created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_photos_user ON photos (user_id)`,
		`CREATE TABLE IF NOT EXISTS story_runs (
			id          VARCHAR PRIMARY KEY,
			user_id     VARCHAR NOT NULL,
			status      VARCHAR NOT NULL,
			photo_count INTEGER NOT NULL DEFAULT 0,
			error       VARCHAR,
			started_at  TIMESTAMP NOT NULL,
			finished_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_user ON story_runs (user_id, started_at)`,
		`CREATE TABLE IF NOT EXISTS chapters (
			id               VARCHAR NOT NULL,
			run_id           VARCHAR NOT NULL,
			user_id          VARCHAR NOT NULL,
			title            VARCHAR NOT NULL,
			subtitle         VARCHAR NOT NULL,
			kind             VARCHAR NOT NULL,
			age_start        INTEGER,
			age_end          INTEGER,
			year_start       INTEGER NOT NULL,
			year_end         INTEGER NOT NULL,
			sequence         INTEGER NOT NULL,
			photo_count      INTEGER NOT NULL,
			dominant_emotion VARCHAR NOT NULL DEFAULT '',
			photo_ids        VARCHAR NOT NULL DEFAULT '[]',
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chapters_user ON chapters (user_id, run_id)`,
		`CREATE TABLE IF NOT EXISTS story_arcs (
			id          VARCHAR NOT NULL,
			run_id      VARCHAR NOT NULL,
			user_id     VARCHAR NOT NULL,
			chapter_id  VARCHAR NOT NULL,
			title       VARCHAR NOT NULL,
			description VARCHAR NOT NULL DEFAULT '',
			narrative   VARCHAR NOT NULL DEFAULT '',
			type        VARCHAR NOT NULL,
			kind        VARCHAR NOT NULL,
			confidence  DOUBLE NOT NULL,
			start_at    TIMESTAMP,
			end_at      TIMESTAMP,
			photo_ids   VARCHAR NOT NULL DEFAULT '[]',
			summary     VARCHAR NOT NULL DEFAULT '{}',
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_arcs_chapter ON story_arcs (user_id, run_id, chapter_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
