package domain

import "context"

// EventBus publishes structured engine events to an external consumer
// (a Redis channel in the default wiring). Implementations must be safe for
// use from a single supervisor goroutine; the core never subscribes.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
