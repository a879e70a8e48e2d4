package sluice

import "sync/atomic"

// Outcome describes how a drain activation ended.
type Outcome string

const (
	// OutcomeDrained means the activation observed the queue empty and
	// deactivated the drainer.
	OutcomeDrained Outcome = "drained"

	// OutcomeYielded means the batch budget was exhausted and the worker
	// was released. A successor activation continues the backlog unless
	// the drainer is cancelled first or the pool refuses the resubmit.
	OutcomeYielded Outcome = "yielded"

	// OutcomeCancelled means the activation stopped early: Cancel was
	// called, a newer activation superseded it, or the pool cancelled its
	// context.
	OutcomeCancelled Outcome = "cancelled"
)

// Observer receives activation lifecycle callbacks. Implementations must
// be safe for concurrent use. Within one Drainer the yield chain is
// ordered: an activation's finished callback returns before its successor
// is submitted. Only a Trigger racing a finishing activation can overlap
// callbacks.
type Observer interface {
	ActivationStarted(drainerID string)
	ActivationFinished(drainerID string, outcome Outcome, processed int)
}

// Compile-time interface checks.
var (
	_ Observer = (*CountingObserver)(nil)
	_ Observer = (*NopObserver)(nil)
	_ Observer = (multiObserver)(nil)
)

// CountingObserver counts activations by outcome and items processed.
type CountingObserver struct {
	started   atomic.Int64
	drained   atomic.Int64
	yielded   atomic.Int64
	cancelled atomic.Int64
	items     atomic.Int64
}

// ActivationStarted implements Observer.
func (o *CountingObserver) ActivationStarted(_ string) {
	o.started.Add(1)
}

// ActivationFinished implements Observer.
func (o *CountingObserver) ActivationFinished(_ string, outcome Outcome, processed int) {
	switch outcome {
	case OutcomeDrained:
		o.drained.Add(1)
	case OutcomeYielded:
		o.yielded.Add(1)
	case OutcomeCancelled:
		o.cancelled.Add(1)
	}
	o.items.Add(int64(processed))
}

// Started returns the number of activations started.
func (o *CountingObserver) Started() int64 { return o.started.Load() }

// Drained returns the number of activations that emptied the queue.
func (o *CountingObserver) Drained() int64 { return o.drained.Load() }

// Yielded returns the number of activations that yielded on budget.
func (o *CountingObserver) Yielded() int64 { return o.yielded.Load() }

// Cancelled returns the number of activations that stopped early.
func (o *CountingObserver) Cancelled() int64 { return o.cancelled.Load() }

// Items returns the total number of items processed.
func (o *CountingObserver) Items() int64 { return o.items.Load() }

// NopObserver ignores all callbacks.
type NopObserver struct{}

func (NopObserver) ActivationStarted(_ string)                    {}
func (NopObserver) ActivationFinished(_ string, _ Outcome, _ int) {}

// MultiObserver fans each callback out to every observer in order.
func MultiObserver(observers ...Observer) Observer { return multiObserver(observers) }

type multiObserver []Observer

func (m multiObserver) ActivationStarted(drainerID string) {
	for _, o := range m {
		o.ActivationStarted(drainerID)
	}
}

func (m multiObserver) ActivationFinished(drainerID string, outcome Outcome, processed int) {
	for _, o := range m {
		o.ActivationFinished(drainerID, outcome, processed)
	}
}
