// Package middleware provides composable middleware for item handlers.
//
// A [Middleware] is a function that wraps a [sluice.Handler]. Middleware
// are composed into a chain using [Chain] and attached to a handler with
// [Apply]. They are applied right-to-left: the first middleware in the
// slice is the outermost wrapper.
//
//	// logging → recover → handler
//	h := middleware.Apply(handler,
//	    middleware.Logging[string](logger, "emails"),
//	    middleware.Recover[string](logger),
//	)
//
// # Built-in Middleware
//
//   - [Logging] — logs item outcome and duration at each execution
//   - [Recover] — catches panics and converts them to errors
//   - [Retry] — reruns failing handlers with a [Backoff] delay
//   - [Timeout] — cancels the item context after a configured duration
//   - [Tracing] — wraps handling in an OpenTelemetry span
//   - [Metrics] — records per-item duration and outcome counters
//
// # Writing Custom Middleware
//
//	func Dedupe[T comparable]() middleware.Middleware[T] {
//	    seen := make(map[T]struct{})
//	    return func(ctx context.Context, item T, next sluice.Handler[T]) error {
//	        if _, ok := seen[item]; ok {
//	            return nil
//	        }
//	        seen[item] = struct{}{}
//	        return next(ctx, item)
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting (e.g., dropping items under load).
package middleware
