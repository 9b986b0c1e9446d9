package redis

import (
	"context"
	"fmt"
)

// EventBus implements domain.EventBus over Redis Pub/Sub. Events are
// ephemeral: a consumer not subscribed at publish time misses them, which is
// acceptable for observability traffic.
type EventBus struct {
	c *Client
}

// NewEventBus creates an EventBus backed by the given Client.
func NewEventBus(c *Client) *EventBus {
	return &EventBus{c: c}
}

// Publish sends payload to the given Pub/Sub channel.
func (b *EventBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}
