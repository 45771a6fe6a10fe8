// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package events is the host-facing notification bus: it turns the
// engine's CacheUpdated outcomes into an in-process Watermill topic so
// any number of listeners can subscribe without the engine knowing
// they exist.
//
// Grounded on the teacher's internal/eventprocessor publisher/
// subscriber pair, scaled down from its NATS/JetStream transport to
// Watermill's in-process gochannel — the host and the engine always
// live in the same process, so there is no wire to cross.
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/lumendash/statscache/internal/engine"
	"github.com/lumendash/statscache/internal/logging"
)

const topic = "cache.updated"

// Bus implements engine.EventSink over a Watermill gochannel pub/sub.
type Bus struct {
	pubsub *gochannel.GoChannel
}

var _ engine.EventSink = (*Bus)(nil)

// New creates a Bus. Each subscriber's output channel buffers up to
// 256 messages; a slow subscriber only delays its own delivery, never the
// engine's dispatch loop, since Publish is fire-and-forget from the
// engine's perspective (§7: LRU/notification failures never block a
// handler).
func New() *Bus {
	logger := watermill.NewStdLogger(false, false)
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(256),
			Persistent:          false,
		}, logger),
	}
}

// Publish marshals evt and sends it on the shared topic.
func (b *Bus) Publish(_ context.Context, evt engine.CacheUpdatedEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal CacheUpdatedEvent: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return b.pubsub.Publish(topic, msg)
}

// Subscribe returns a channel of decoded CacheUpdatedEvents. The
// returned channel closes when ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context) (<-chan engine.CacheUpdatedEvent, error) {
	raw, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe: %w", err)
	}

	out := make(chan engine.CacheUpdatedEvent, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-raw:
				if !ok {
					return
				}
				var evt engine.CacheUpdatedEvent
				if err := json.Unmarshal(m.Payload, &evt); err != nil {
					logging.Warn().Err(err).Msg("events: dropping undecodable CacheUpdatedEvent")
					m.Ack()
					continue
				}
				m.Ack()
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the underlying pub/sub resources.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
