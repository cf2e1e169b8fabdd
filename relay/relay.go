// Package relay forwards committed node events to an external pub/sub
// channel so other processes can follow marketplace activity.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"nftmarket/core/events"
	"nftmarket/core/types"
)

const defaultPrefix = "nftmarket"

// Publisher delivers one payload to a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Relay subscribes to the event bus and publishes every committed event as
// JSON on "<prefix>.<module>", where module is the event type prefix.
// Events emitted before Start are not relayed.
type Relay struct {
	bus    *events.Bus
	pub    Publisher
	prefix string
	logger *slog.Logger
}

func New(bus *events.Bus, pub Publisher, prefix string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Relay{bus: bus, pub: pub, prefix: prefix, logger: logger}
}

// Start subscribes synchronously and forwards events until ctx is cancelled.
// The returned channel is closed once forwarding stops.
func (r *Relay) Start(ctx context.Context) <-chan struct{} {
	updates, cancel, _ := r.bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-updates:
				if !ok {
					return
				}
				r.forward(ctx, evt)
			}
		}
	}()
	return done
}

func (r *Relay) forward(ctx context.Context, evt events.Event) {
	payload, ok := events.Payload(evt)
	if !ok {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Warn("relay: encode event", slog.String("type", payload.Type), slog.Any("error", err))
		return
	}
	channel := r.Channel(payload.Type)
	if err := r.pub.Publish(ctx, channel, data); err != nil {
		r.logger.Warn("relay: publish failed",
			slog.String("channel", channel),
			slog.String("type", payload.Type),
			slog.Any("error", err))
	}
}

// Channel returns the channel an event type is published on.
func (r *Relay) Channel(eventType string) string {
	module := (&types.Event{Type: eventType}).Module()
	if module == "" {
		module = "unknown"
	}
	return r.prefix + "." + module
}
