// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package websocket

import (
	"context"

	"github.com/retrospect-labs/retrospect/internal/events"
	"github.com/retrospect-labs/retrospect/internal/logging"
)

// Bridge consumes the event bus and fans run events out over the hub.
type Bridge struct {
	bus *events.Bus
	hub *Hub
}

// NewBridge wires a bus subscription to a hub.
func NewBridge(bus *events.Bus, hub *Hub) *Bridge {
	return &Bridge{bus: bus, hub: hub}
}

// Run consumes bus messages until the context is canceled. Malformed
// payloads are acked and dropped; the stream must keep flowing.
func (b *Bridge) Run(ctx context.Context) error {
	msgs, err := b.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			e, err := events.Deserialize(msg.Payload)
			if err != nil {
				logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping malformed run event")
				msg.Ack()
				continue
			}
			b.hub.BroadcastRunEvent(e)
			msg.Ack()
		}
	}
}
