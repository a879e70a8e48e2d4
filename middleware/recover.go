package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/sluice"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace.
func Recover[T any](logger *slog.Logger) Middleware[T] {
	return func(ctx context.Context, item T, next sluice.Handler[T]) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("item handler panicked",
					slog.Any("item", item),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic while handling item: %v", r)
			}
		}()
		return next(ctx, item)
	}
}
