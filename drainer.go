package sluice

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Handler processes one item. It runs outside the drainer lock; an error
// return is reported to the Sink and the drain continues with the next
// item.
type Handler[T any] func(ctx context.Context, item T) error

// Drainer drains one logical queue through a shared Pool.
//
// A Drainer holds no goroutine while idle. Trigger submits a drain
// activation to the pool; the activation pops and handles items until the
// queue is empty, then deactivates. With a batch budget set, a long
// backlog is chopped into budget-sized batches: the activation yields its
// worker after each batch and resubmits itself, so queues sharing the
// pool interleave.
//
// At most one activation per Drainer executes at any time. An item pushed
// to the source before a Trigger call is handled by some activation, never
// stranded, provided producers enqueue first and Trigger after.
type Drainer[T any] struct {
	id     string
	source Source[T]
	fn     Handler[T]
	pool   Pool

	batchBudget       int
	interruptOnCancel bool

	logger   *slog.Logger
	sink     Sink
	observer Observer

	// mu guards the activation state below as one unit. TryPop runs
	// under it so that the empty check and deactivation are atomic with
	// respect to Trigger.
	mu          sync.Mutex
	keepRunning bool
	active      Handle
	gen         uint64
}

// New creates a Drainer that consumes source with fn on workers borrowed
// from pool.
func New[T any](source Source[T], fn Handler[T], pool Pool, opts ...Option) (*Drainer[T], error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if fn == nil {
		return nil, ErrNilHandler
	}
	if pool == nil {
		return nil, ErrNilPool
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = newDrainerID()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.sink == nil {
		cfg.sink = NewLogSink(cfg.logger)
	}
	if cfg.observer == nil {
		cfg.observer = NopObserver{}
	}

	return &Drainer[T]{
		id:                cfg.id,
		source:            source,
		fn:                fn,
		pool:              pool,
		batchBudget:       cfg.batchBudget,
		interruptOnCancel: cfg.interruptOnCancel,
		logger:            cfg.logger,
		sink:              cfg.sink,
		observer:          cfg.observer,
	}, nil
}

// ID returns the drainer's identifier.
func (d *Drainer[T]) ID() string { return d.id }

// Trigger tells the drainer the queue may have items. If an activation is
// already running the call coalesces into it; otherwise a new activation
// is submitted to the pool. Producers must enqueue before calling Trigger.
//
// The returned error is the pool's refusal, if any; the drainer is left
// inactive and a later Trigger will try again.
func (d *Drainer[T]) Trigger() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil && !d.active.Done() {
		return nil
	}
	if err := d.submitLocked(); err != nil {
		return fmt.Errorf("sluice: drainer %q: submit activation: %w", d.id, err)
	}
	return nil
}

// Cancel stops the drainer. Queued items stay in the source; a later
// Trigger resumes draining them. A running activation stops before its
// next item; with WithInterruptOnCancel its context is cancelled as well.
// Cancel is idempotent.
func (d *Drainer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.keepRunning = false
	d.gen++ // Invalidate any in-flight activation.

	if d.active != nil {
		d.active.Cancel(d.interruptOnCancel)
		d.active = nil
	}
}

// submitLocked submits a fresh drain activation. Caller holds d.mu, which
// also keeps the new activation parked until the state below is written.
func (d *Drainer[T]) submitLocked() error {
	d.gen++
	gen := d.gen

	handle, err := d.pool.Submit(func(ctx context.Context) { d.drain(ctx, gen) })
	if err != nil {
		d.keepRunning = false
		d.active = nil
		return err
	}

	d.keepRunning = true
	d.active = handle
	return nil
}

// drain is one activation. It runs on a pool worker and processes items
// until the queue is observed empty, the batch budget is exhausted, or
// the drainer is cancelled or superseded (gen mismatch).
func (d *Drainer[T]) drain(ctx context.Context, gen uint64) {
	d.observer.ActivationStarted(d.id)

	processed := 0
	for {
		if d.batchBudget > 0 && processed >= d.batchBudget {
			d.yield(ctx, gen, processed)
			return
		}

		d.mu.Lock()
		if gen != d.gen || !d.keepRunning || ctx.Err() != nil {
			d.mu.Unlock()
			d.observer.ActivationFinished(d.id, OutcomeCancelled, processed)
			return
		}

		// Empty check and deactivation are one critical section: a
		// Trigger serialized after this pop sees the drainer inactive
		// and starts a fresh activation, so its item is never stranded.
		item, ok := d.source.TryPop(ctx)
		if !ok {
			d.keepRunning = false
			d.active = nil
			d.mu.Unlock()
			d.observer.ActivationFinished(d.id, OutcomeDrained, processed)
			return
		}
		d.mu.Unlock()

		processed++
		d.handleItem(ctx, item)
	}
}

// yield ends a full batch: the finished callback runs first, then a
// successor activation is submitted, so callbacks from consecutive
// activations of one drainer never overlap. A cancellation observed at
// either check ends the chain instead; a pool refusal on the resubmit is
// reported through the sink and leaves the drainer inactive.
func (d *Drainer[T]) yield(ctx context.Context, gen uint64, processed int) {
	d.mu.Lock()
	if gen != d.gen || !d.keepRunning || ctx.Err() != nil {
		d.mu.Unlock()
		d.observer.ActivationFinished(d.id, OutcomeCancelled, processed)
		return
	}
	d.mu.Unlock()

	d.logger.Debug("yielding drain worker", slog.String("drainer_id", d.id))
	d.observer.ActivationFinished(d.id, OutcomeYielded, processed)

	d.mu.Lock()
	if gen != d.gen || !d.keepRunning {
		// Cancelled between the finished callback and the resubmit;
		// the remaining items wait for the next Trigger.
		d.mu.Unlock()
		return
	}
	err := d.submitLocked()
	d.mu.Unlock()

	if err != nil {
		d.sink.SubmitFailed(ctx, d.id, err)
	}
}

// handleItem runs the handler outside the lock. Errors and panics become
// sink reports; the drain keeps going either way.
func (d *Drainer[T]) handleItem(ctx context.Context, item T) {
	defer func() {
		if r := recover(); r != nil {
			d.sink.HandlerFailed(ctx, d.id, item, &PanicError{Value: r, Stack: debug.Stack()})
		}
	}()

	if err := d.fn(ctx, item); err != nil {
		d.sink.HandlerFailed(ctx, d.id, item, err)
	}
}
