package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// Channel is the redis pub/sub channel appointment events travel on.
const Channel = "clinic.appointments"

// Publisher is what the appointment services publish through. Publishing is
// fire-and-forget from the core's point of view; a failed publish is logged
// by the caller, never turned into a booking failure.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher discards events; used when redis is not configured and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RedisBus publishes and subscribes appointment events over redis pub/sub.
type RedisBus struct {
	rdb    *redis.Client
	logger *logging.Logger
}

// NewRedisBus creates a bus on the given client.
func NewRedisBus(rdb *redis.Client, logger *logging.Logger) *RedisBus {
	if rdb == nil {
		panic("notify: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisBus{rdb: rdb, logger: logger}
}

// Publish sends one event to every subscriber.
func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: publish event: %w", err)
	}
	return nil
}

// Subscribe delivers events until ctx is cancelled. Malformed payloads are
// logged and skipped. The returned channel closes on cancellation.
func (b *RedisBus) Subscribe(ctx context.Context) <-chan Event {
	sub := b.rdb.Subscribe(ctx, Channel)
	out := make(chan Event)

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn("notify: dropping malformed event", "error", err)
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
