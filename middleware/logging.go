package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/sluice"
)

// Logging returns middleware that logs item outcomes for the named queue.
// Successful items log at debug level, failures at error level.
func Logging[T any](logger *slog.Logger, queue string) Middleware[T] {
	return func(ctx context.Context, item T, next sluice.Handler[T]) error {
		start := time.Now()
		err := next(ctx, item)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("item failed",
				slog.String("queue", queue),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("item handled",
				slog.String("queue", queue),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
