// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/retrospect-labs/retrospect/internal/metrics"
)

// Bus publishes and subscribes to story run events over a Watermill
// transport.
type Bus struct {
	pub    message.Publisher
	sub    message.Subscriber
	logger watermill.LoggerAdapter
}

// NewInProcess creates a bus over an in-process Go channel pub/sub.
func NewInProcess() *Bus {
	logger := NewWatermillLogger()
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
	return &Bus{pub: pubsub, sub: pubsub, logger: logger}
}

// NewNATS creates a bus over NATS JetStream at the given URL.
func NewNATS(url string) (*Bus, error) {
	logger := NewWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	js := wmnats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: true,
		TrackMsgId:    true,
		PublishOptions: []natsgo.PubOpt{
			natsgo.RetryAttempts(3),
			natsgo.RetryWait(100 * time.Millisecond),
		},
	}

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmnats.NATSMarshaler{},
		JetStream:   js,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	sub, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Unmarshaler: &wmnats.NATSMarshaler{},
		JetStream:   js,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	return &Bus{pub: pub, sub: sub, logger: logger}, nil
}

// Publish serializes and publishes an event. The event id doubles as
// the message UUID for broker-side deduplication.
func (b *Bus) Publish(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = watermill.NewUUID()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	data, err := Serialize(e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(e.ID, data)
	msg.Metadata.Set("type", string(e.Type))
	msg.Metadata.Set("user_id", e.UserID)
	msg.SetContext(ctx)

	if err := b.pub.Publish(TopicStoryEvents, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.Type, err)
	}
	metrics.EventsPublished.WithLabelValues(TopicStoryEvents).Inc()
	return nil
}

// Subscribe returns the stream of story events. Messages must be Acked
// or Nacked by the consumer.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	ch, err := b.sub.Subscribe(ctx, TopicStoryEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicStoryEvents, err)
	}
	return ch, nil
}

// Close shuts the transport down. With the in-process transport
// publisher and subscriber share one pub/sub, which tolerates a double
// close.
func (b *Bus) Close() error {
	pubErr := b.pub.Close()
	subErr := b.sub.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}
