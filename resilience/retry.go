package resilience

import (
	"context"
	"time"
)

// RetryableFunc is one attempt of an operation. It reports the operation
// result and whether a failure is worth retrying.
type RetryableFunc func(ctx context.Context) (retryable bool, err error)

// Retry runs fn until it succeeds, fails non-retryably, the backoff
// budget runs out, or the context is canceled. The last attempt's error
// is returned.
func Retry(ctx context.Context, backoff Backoff, fn RetryableFunc) error {
	for {
		retryable, err := fn(ctx)
		if err == nil || !retryable {
			return err
		}

		interval := backoff.Next()
		if interval == 0 {
			return err
		}

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
