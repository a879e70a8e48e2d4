package sluice

import "log/slog"

// Option configures a Drainer.
type Option func(*config)

// config holds the tunables shared by every Drainer regardless of item
// type, so options stay non-generic. Unset fields are normalized in New:
// a nil logger becomes slog.Default, a nil sink becomes a LogSink on the
// drainer's logger, a nil observer becomes NopObserver.
type config struct {
	id                string
	batchBudget       int
	interruptOnCancel bool
	logger            *slog.Logger
	sink              Sink
	observer          Observer
}

// WithID sets the drainer's identifier, used in logs and failure reports.
// Defaults to a generated TypeID.
func WithID(id string) Option {
	return func(c *config) { c.id = id }
}

// WithBatchBudget caps how many items one activation handles before it
// yields its worker and resubmits itself. Zero or negative means no cap:
// an activation runs until the queue is empty.
func WithBatchBudget(n int) Option {
	return func(c *config) { c.batchBudget = n }
}

// WithInterruptOnCancel makes Cancel also cancel the context of a running
// activation, unblocking a handler that honors it. Without this option a
// running activation finishes its current item and then stops.
func WithInterruptOnCancel() Option {
	return func(c *config) { c.interruptOnCancel = true }
}

// WithLogger sets the structured logger for the drainer.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithSink sets the failure sink. Defaults to a LogSink on the drainer's
// logger.
func WithSink(s Sink) Option {
	return func(c *config) { c.sink = s }
}

// WithObserver sets the activation lifecycle observer.
func WithObserver(o Observer) Option {
	return func(c *config) { c.observer = o }
}
