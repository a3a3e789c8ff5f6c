// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// TopicStoryEvents is the single topic all run lifecycle events flow
// over.
const TopicStoryEvents = "story.events"

// Type enumerates run lifecycle events.
type Type string

const (
	RunStarted   Type = "run.started"
	RunProgress  Type = "run.progress"
	RunCompleted Type = "run.completed"
	RunFailed    Type = "run.failed"
)

// Event is one story run lifecycle notification.
type Event struct {
	ID     string `json:"id"`
	Type   Type   `json:"type"`
	UserID string `json:"user_id"`
	RunID  string `json:"run_id"`

	// Stage names the pipeline step for progress events, e.g.
	// "clustering", "fusion", "chapters", "narrative".
	Stage string `json:"stage,omitempty"`

	PhotoCount   int `json:"photo_count,omitempty"`
	ArcCount     int `json:"arc_count,omitempty"`
	ChapterCount int `json:"chapter_count,omitempty"`

	Error string `json:"error,omitempty"`

	At time.Time `json:"at"`
}

// Serialize encodes an event for the wire.
func Serialize(e *Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event %s: %w", e.ID, err)
	}
	return data, nil
}

// Deserialize decodes an event from the wire.
func Deserialize(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to deserialize event: %w", err)
	}
	return &e, nil
}
