package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/sluice"
)

// meterName is the instrumentation scope name for sluice metrics.
const meterName = "github.com/xraph/sluice"

// Metrics returns middleware that records per-item handling metrics for
// the named queue using the global OTel MeterProvider. If no MeterProvider
// is configured, noop instruments are used and this middleware becomes a
// pass-through.
//
// Instruments:
//   - sluice.item.duration (Float64Histogram): handling time in seconds,
//     with attributes: queue, status ("ok" or "error")
//   - sluice.item.handled (Int64Counter): total items handled,
//     with attributes: queue, status ("ok" or "error")
func Metrics[T any](queue string) Middleware[T] {
	meter := otel.Meter(meterName)
	return MetricsWithMeter[T](queue, meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter[T any](queue string, meter metric.Meter) Middleware[T] {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"sluice.item.duration",
		metric.WithDescription("Duration of item handling in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	handled, hErr := meter.Int64Counter(
		"sluice.item.handled",
		metric.WithDescription("Total number of items handled"),
		metric.WithUnit("{item}"),
	)
	_ = hErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, item T, next sluice.Handler[T]) error {
		start := time.Now()
		err := next(ctx, item)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("queue", queue),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		handled.Add(ctx, 1, attrs)

		return err
	}
}
