package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/sluice"
)

// meterName is the instrumentation scope name for sluice metrics.
const meterName = "github.com/xraph/sluice/observe"

// Compile-time interface checks.
var (
	_ sluice.Observer = (*Metrics)(nil)
	_ sluice.Sink     = (*Metrics)(nil)
)

// Metrics records drainer activity as OpenTelemetry metrics. It
// implements both sluice.Observer and sluice.Sink: plug one instance into
// WithObserver and WithSink, combining it with a LogSink through
// sluice.MultiSink when failures should also be logged.
//
// Instruments:
//   - sluice.activations.started (Int64Counter): activations started,
//     with attribute: drainer_id
//   - sluice.activations.finished (Int64Counter): activations finished,
//     with attributes: drainer_id, outcome
//   - sluice.activation.items (Int64Histogram): items handled per
//     activation, with attributes: drainer_id, outcome
//   - sluice.handler.failures (Int64Counter): handler errors and panics,
//     with attribute: drainer_id
//   - sluice.submit.failures (Int64Counter): pool refusals on yield
//     resubmit, with attribute: drainer_id
type Metrics struct {
	started         metric.Int64Counter
	finished        metric.Int64Counter
	items           metric.Int64Histogram
	handlerFailures metric.Int64Counter
	submitFailures  metric.Int64Counter
}

// New creates Metrics on the global OTel MeterProvider. If no
// MeterProvider is configured, noop instruments are used and the hooks
// become pass-throughs.
func New() *Metrics {
	return NewWithMeter(otel.Meter(meterName))
}

// NewWithMeter creates Metrics using the provided meter. This variant
// allows injecting a specific MeterProvider for testing.
func NewWithMeter(meter metric.Meter) *Metrics {
	// Instruments are created once here. On error the OTel API returns
	// noop instruments, so Metrics degrades gracefully.
	started, _ := meter.Int64Counter(
		"sluice.activations.started",
		metric.WithDescription("Number of drain activations started"),
		metric.WithUnit("{activation}"),
	)
	finished, _ := meter.Int64Counter(
		"sluice.activations.finished",
		metric.WithDescription("Number of drain activations finished, by outcome"),
		metric.WithUnit("{activation}"),
	)
	items, _ := meter.Int64Histogram(
		"sluice.activation.items",
		metric.WithDescription("Items handled per drain activation"),
		metric.WithUnit("{item}"),
	)
	handlerFailures, _ := meter.Int64Counter(
		"sluice.handler.failures",
		metric.WithDescription("Handler errors and recovered panics"),
		metric.WithUnit("{failure}"),
	)
	submitFailures, _ := meter.Int64Counter(
		"sluice.submit.failures",
		metric.WithDescription("Pool refusals while resubmitting after a yield"),
		metric.WithUnit("{failure}"),
	)

	return &Metrics{
		started:         started,
		finished:        finished,
		items:           items,
		handlerFailures: handlerFailures,
		submitFailures:  submitFailures,
	}
}

// ActivationStarted implements sluice.Observer.
func (m *Metrics) ActivationStarted(drainerID string) {
	m.started.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("drainer_id", drainerID),
	))
}

// ActivationFinished implements sluice.Observer.
func (m *Metrics) ActivationFinished(drainerID string, outcome sluice.Outcome, processed int) {
	attrs := metric.WithAttributes(
		attribute.String("drainer_id", drainerID),
		attribute.String("outcome", string(outcome)),
	)
	m.finished.Add(context.Background(), 1, attrs)
	m.items.Record(context.Background(), int64(processed), attrs)
}

// HandlerFailed implements sluice.Sink.
func (m *Metrics) HandlerFailed(ctx context.Context, drainerID string, _ any, _ error) {
	m.handlerFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("drainer_id", drainerID),
	))
}

// SubmitFailed implements sluice.Sink.
func (m *Metrics) SubmitFailed(ctx context.Context, drainerID string, _ error) {
	m.submitFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("drainer_id", drainerID),
	))
}
