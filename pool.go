package sluice

import (
	"context"
	"sync"
)

// Task is a unit of work submitted to a Pool. The pool supplies the
// context; cancelling it asks the task to stop early.
type Task func(ctx context.Context)

// Handle tracks a submitted task.
type Handle interface {
	// Cancel requests that the task stop. A task that has not started yet
	// is dropped. If interrupt is true, the context of a running task is
	// cancelled as well; otherwise a running task finishes its current
	// step on its own.
	Cancel(interrupt bool)

	// Done reports whether the task has finished, was cancelled before
	// starting, or was never going to run.
	Done() bool
}

// Pool runs submitted tasks on its own goroutines.
//
// Submit must not block and must not run the task on the calling
// goroutine: callers may hold locks that the task itself acquires. A pool
// that cannot accept the task returns an error instead.
type Pool interface {
	Submit(task Task) (Handle, error)
}

// GoPool is the degenerate Pool: every task gets its own goroutine. The
// zero value is ready to use. It keeps the Drainer usable without a real
// pool, at the cost of unbounded concurrency across drainers.
type GoPool struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

var _ Pool = (*GoPool)(nil)

// Submit starts the task on a new goroutine.
func (p *GoPool) Submit(task Task) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil, ErrPoolStopped
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &goHandle{cancel: cancel, done: make(chan struct{})}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(h.done)
		defer cancel()
		task(ctx)
	}()

	return h, nil
}

// Stop rejects further submissions and waits for running tasks to finish
// or for ctx to expire.
func (p *GoPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type goHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *goHandle) Cancel(interrupt bool) {
	// Goroutines start immediately, so there is no not-yet-started task to
	// drop. Interrupt maps to context cancellation.
	if interrupt {
		h.cancel()
	}
}

func (h *goHandle) Done() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
