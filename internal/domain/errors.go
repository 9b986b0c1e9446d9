package domain

import "errors"

var (
	// Transient gateway failures: retried with backoff.
	ErrTimeout     = errors.New("request timed out")
	ErrRateLimited = errors.New("rate limited")
	ErrNetwork     = errors.New("network error")

	// Permanent gateway failures: never retried.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidOrder = errors.New("invalid order parameters")

	// ErrNoData marks a cell for which every fetch attempt failed.
	ErrNoData = errors.New("no market data")

	// ErrUnknownExchange is returned by the registry for ids outside the
	// configured set.
	ErrUnknownExchange = errors.New("unknown exchange id")
)

// IsTransient reports whether err belongs to the retryable failure class
// (network, timeout, rate limit). Anything else aborts the call immediately.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrNetwork)
}
