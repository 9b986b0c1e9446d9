package gateway

import (
	"context"
	"time"

	"github.com/quantarb/arbot/internal/domain"
)

// RetryConfig controls the shared retry-with-backoff behaviour applied to
// every gateway call issued by the fetcher.
type RetryConfig struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt; it doubles on each
	// subsequent attempt.
	BaseDelay time.Duration
}

// DefaultRetryConfig matches the engine's contract: 3 attempts, exponential
// backoff starting at one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Second}
}

// Sleeper injects the backoff delay. The default implementation waits on a
// timer; tests substitute a recording fake.
type Sleeper func(ctx context.Context, d time.Duration) error

// WallClockSleep waits for d or until the context is cancelled.
func WallClockSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs op up to cfg.MaxAttempts times, sleeping cfg.BaseDelay,
// 2*BaseDelay, ... between attempts. Only failures classified as transient by
// domain.IsTransient are retried; permanent errors and context cancellation
// abort immediately. The last error is returned once attempts are exhausted.
func Retry[T any](ctx context.Context, cfg RetryConfig, sleep Sleeper, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if sleep == nil {
		sleep = WallClockSleep
	}

	delay := cfg.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !domain.IsTransient(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay *= 2
	}
	return zero, lastErr
}
