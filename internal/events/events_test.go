// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package events

import (
	"context"
	"testing"
	"time"
)

func TestSerialize_RoundTrip(t *testing.T) {
	e := &Event{
		ID:           "evt-1",
		Type:         RunCompleted,
		UserID:       "u1",
		RunID:        "run-1",
		PhotoCount:   120,
		ArcCount:     6,
		ChapterCount: 3,
		At:           time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	data, err := Serialize(e)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if got.Type != RunCompleted || got.RunID != "run-1" || got.ArcCount != 6 {
		t.Errorf("round trip = %+v, want original event", got)
	}
}

func TestDeserialize_Invalid(t *testing.T) {
	if _, err := Deserialize([]byte("{not json")); err == nil {
		t.Fatal("Deserialize() expected error for invalid payload")
	}
}

func TestInProcessBus_PublishSubscribe(t *testing.T) {
	bus := NewInProcess()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := &Event{Type: RunStarted, UserID: "u1", RunID: "run-1", PhotoCount: 10}
	if err := bus.Publish(ctx, want); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		got, err := Deserialize(msg.Payload)
		if err != nil {
			t.Fatalf("Deserialize() error = %v", err)
		}
		if got.Type != RunStarted || got.UserID != "u1" {
			t.Errorf("received = %+v, want run.started for u1", got)
		}
		if got.ID == "" || got.At.IsZero() {
			t.Errorf("Publish() did not stamp id/time: %+v", got)
		}
		if msg.Metadata.Get("type") != string(RunStarted) {
			t.Errorf("metadata type = %q, want %q", msg.Metadata.Get("type"), RunStarted)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestInProcessBus_MultipleEventsInOrder(t *testing.T) {
	bus := NewInProcess()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	stages := []string{"clustering", "fusion", "chapters"}
	for _, stage := range stages {
		e := &Event{Type: RunProgress, UserID: "u1", RunID: "r1", Stage: stage}
		if err := bus.Publish(ctx, e); err != nil {
			t.Fatalf("Publish(%s) error = %v", stage, err)
		}
	}

	for _, want := range stages {
		select {
		case msg := <-msgs:
			msg.Ack()
			got, err := Deserialize(msg.Payload)
			if err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			if got.Stage != want {
				t.Errorf("stage = %q, want %q", got.Stage, want)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for stage %s", want)
		}
	}
}
