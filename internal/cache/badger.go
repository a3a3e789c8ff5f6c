// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package cache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/retrospect-labs/retrospect/internal/logging"
	"github.com/retrospect-labs/retrospect/internal/metrics"
)

// ErrNotFound indicates the key is absent from the persistent store.
var ErrNotFound = errors.New("cache: not found")

// BadgerStore is a persistent key-value store for generated
// narratives. Keys are content-derived so regenerating the same arc
// reuses the stored text across restarts and runs.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerStore at dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{}).
		WithCompactL0OnClose(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// Get returns the stored bytes for key, or ErrNotFound.
func (s *BadgerStore) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.CacheMisses.WithLabelValues("narrative").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}
	metrics.CacheHits.WithLabelValues("narrative").Inc()
	return out, nil
}

// Set stores bytes under key.
func (s *BadgerStore) Set(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}
