package middleware

import (
	"context"
	"time"

	"github.com/xraph/sluice"
)

// Timeout returns middleware that enforces a per-item handling deadline.
// A non-positive d disables the deadline. When the deadline is exceeded
// the context is cancelled and the handler should return
// context.DeadlineExceeded.
func Timeout[T any](d time.Duration) Middleware[T] {
	return func(ctx context.Context, item T, next sluice.Handler[T]) error {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx, item)
	}
}
