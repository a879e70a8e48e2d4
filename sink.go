package sluice

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Sink receives failures the Drainer has no caller to surface to.
// Implementations must be safe for concurrent use; they are invoked from
// drain activations, outside the drainer lock.
type Sink interface {
	// HandlerFailed reports a handler error or recovered panic for item.
	// The drain continues with the next item afterwards.
	HandlerFailed(ctx context.Context, drainerID string, item any, err error)

	// SubmitFailed reports a pool refusal while resubmitting after a
	// yield. The drainer is inactive afterwards until the next Trigger.
	SubmitFailed(ctx context.Context, drainerID string, err error)
}

// Compile-time interface checks.
var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*CountingSink)(nil)
	_ Sink = (*NopSink)(nil)
	_ Sink = (multiSink)(nil)
)

// LogSink logs failures through slog. With WithRateLimit, bursts of
// failing items collapse into a bounded log volume and a suppressed count
// is emitted when logging resumes.
type LogSink struct {
	logger     *slog.Logger
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

// LogSinkOption configures a LogSink.
type LogSinkOption func(*LogSink)

// WithRateLimit caps failure logging at perSecond events with the given
// burst. Suppressed events are counted and reported on the next allowed
// log line.
func WithRateLimit(perSecond float64, burst int) LogSinkOption {
	return func(s *LogSink) {
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewLogSink creates a LogSink. A nil logger falls back to slog.Default.
func NewLogSink(logger *slog.Logger, opts ...LogSinkOption) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &LogSink{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandlerFailed implements Sink.
func (s *LogSink) HandlerFailed(_ context.Context, drainerID string, item any, err error) {
	if !s.allow() {
		return
	}
	s.reportSuppressed()
	s.logger.Error("item handler failed",
		slog.String("drainer_id", drainerID),
		slog.Any("item", item),
		slog.String("error", err.Error()),
	)
}

// SubmitFailed implements Sink.
func (s *LogSink) SubmitFailed(_ context.Context, drainerID string, err error) {
	if !s.allow() {
		return
	}
	s.reportSuppressed()
	s.logger.Error("drain resubmit rejected by pool",
		slog.String("drainer_id", drainerID),
		slog.String("error", err.Error()),
	)
}

func (s *LogSink) allow() bool {
	if s.limiter == nil || s.limiter.Allow() {
		return true
	}
	s.suppressed.Add(1)
	return false
}

func (s *LogSink) reportSuppressed() {
	if n := s.suppressed.Swap(0); n > 0 {
		s.logger.Warn("failure logs suppressed by rate limit", slog.Int64("count", n))
	}
}

// CountingSink counts failures. Useful in tests and as a cheap health
// signal next to a real sink via MultiSink.
type CountingSink struct {
	handlerFailed atomic.Int64
	submitFailed  atomic.Int64
}

// HandlerFailed implements Sink.
func (s *CountingSink) HandlerFailed(_ context.Context, _ string, _ any, _ error) {
	s.handlerFailed.Add(1)
}

// SubmitFailed implements Sink.
func (s *CountingSink) SubmitFailed(_ context.Context, _ string, _ error) {
	s.submitFailed.Add(1)
}

// HandlerFailures returns the number of reported handler failures.
func (s *CountingSink) HandlerFailures() int64 { return s.handlerFailed.Load() }

// SubmitFailures returns the number of reported submit failures.
func (s *CountingSink) SubmitFailures() int64 { return s.submitFailed.Load() }

// NopSink discards all failures.
type NopSink struct{}

func (NopSink) HandlerFailed(_ context.Context, _ string, _ any, _ error) {}
func (NopSink) SubmitFailed(_ context.Context, _ string, _ error)         {}

// MultiSink fans each failure out to every sink in order.
func MultiSink(sinks ...Sink) Sink { return multiSink(sinks) }

type multiSink []Sink

func (m multiSink) HandlerFailed(ctx context.Context, drainerID string, item any, err error) {
	for _, s := range m {
		s.HandlerFailed(ctx, drainerID, item, err)
	}
}

func (m multiSink) SubmitFailed(ctx context.Context, drainerID string, err error) {
	for _, s := range m {
		s.SubmitFailed(ctx, drainerID, err)
	}
}
