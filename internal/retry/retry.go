// Package retry provides exponential backoff for calls that fail with
// a recognizable, transient error.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Default policy values, matching the Last.fm rate-limit backoff (1s, 2s, 4s).
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second
)

// Policy describes when and how often a failed call is retried.
type Policy struct {
	MaxRetries   int              // Retries after the first attempt
	InitialDelay time.Duration    // Delay before the first retry, doubled for each later one
	Retryable    func(error) bool // Reports whether err should be retried
}

// Delay returns the wait before the given retry attempt (1-based):
// InitialDelay * 2^(attempt-1).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.InitialDelay << (attempt - 1)
}

// Do calls op until it succeeds, returns a non-retryable error, or the
// retries are exhausted. The last error is returned unchanged after
// exhaustion so callers can still match it with errors.Is.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("waiting to retry: %w", ctx.Err())
			case <-time.After(p.Delay(attempt)):
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if p.Retryable == nil || !p.Retryable(err) {
			return zero, err
		}

		if attempt >= p.MaxRetries {
			return zero, err
		}
	}
}
