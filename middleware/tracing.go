package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/sluice"
)

// tracerName is the instrumentation scope name for sluice tracing.
const tracerName = "github.com/xraph/sluice"

// Tracing returns middleware that wraps item handling in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// The span is named "sluice.item.handle" and carries the sluice.queue
// attribute. On error, the span status is set to codes.Error with the
// error message.
func Tracing[T any](queue string) Middleware[T] {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer[T](queue, tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer[T any](queue string, tracer trace.Tracer) Middleware[T] {
	return func(ctx context.Context, item T, next sluice.Handler[T]) error {
		ctx, span := tracer.Start(ctx, "sluice.item.handle",
			trace.WithAttributes(
				attribute.String("sluice.queue", queue),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx, item)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
