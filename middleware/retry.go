package middleware

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/xraph/sluice"
)

// Backoff computes the delay before retry attempt n (1-indexed). Attempt
// 1 is the first retry after the initial failure. Backoff functions must
// be safe for concurrent use; the ones below are stateless.
type Backoff func(attempt int) time.Duration

// ConstantBackoff returns the same delay regardless of attempt number.
func ConstantBackoff(interval time.Duration) Backoff {
	return func(_ int) time.Duration { return interval }
}

// ExponentialBackoff doubles the delay each attempt:
// initial * 2^(attempt-1), capped at maxDelay. A zero maxDelay means no
// cap.
func ExponentialBackoff(initial, maxDelay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
		if maxDelay > 0 && d > maxDelay {
			return maxDelay
		}
		return d
	}
}

// FullJitterBackoff picks a random delay in
// [0, min(initial * 2^(attempt-1), maxDelay)]. Jitter spreads retries out
// when many items fail at the same time.
func FullJitterBackoff(initial, maxDelay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		base := float64(initial) * math.Pow(2, float64(attempt-1))
		if maxDelay > 0 && base > float64(maxDelay) {
			base = float64(maxDelay)
		}
		return time.Duration(rand.Float64() * base) //nolint:gosec // jitter intentionally uses non-crypto rand
	}
}

// Retry reruns a failing handler up to maxRetries extra times, waiting
// per backoff between tries. The wait honors the item context: if it ends
// first, the last handler error is returned without further tries. A nil
// backoff retries immediately.
//
// Note that a retried handler holds its pool worker for the whole wait,
// so keep delays short or put Timeout around the chain.
func Retry[T any](maxRetries int, backoff Backoff) Middleware[T] {
	return func(ctx context.Context, item T, next sluice.Handler[T]) error {
		err := next(ctx, item)
		for attempt := 1; err != nil && attempt <= maxRetries; attempt++ {
			if backoff != nil && !sleep(ctx, backoff(attempt)) {
				return err
			}
			err = next(ctx, item)
		}
		return err
	}
}

// sleep waits for d or until ctx is done, reporting whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
