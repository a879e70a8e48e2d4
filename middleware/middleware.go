package middleware

import (
	"context"

	"github.com/xraph/sluice"
)

// Middleware wraps a sluice.Handler with cross-cutting logic.
// It receives the current context, the item being handled, and the next
// handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware[T any] func(ctx context.Context, item T, next sluice.Handler[T]) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → handler
func Chain[T any](mws ...Middleware[T]) Middleware[T] {
	return func(ctx context.Context, item T, next sluice.Handler[T]) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context, item T) error {
				return mw(ctx, item, prev)
			}
		}
		return h(ctx, item)
	}
}

// Apply wraps handler in the given middleware and returns a handler ready
// for sluice.New. The first middleware is the outermost wrapper.
func Apply[T any](handler sluice.Handler[T], mws ...Middleware[T]) sluice.Handler[T] {
	chain := Chain(mws...)
	return func(ctx context.Context, item T) error {
		return chain(ctx, item, handler)
	}
}
