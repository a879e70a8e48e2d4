// Package workpool provides a bounded sluice.Pool: a fixed set of worker
// goroutines executing submitted drain activations. This is the pool that
// makes many drainers share a capped amount of concurrency; pair it with
// batch budgets so no single queue can hold a worker for its whole
// backlog.
package workpool

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/xraph/sluice"
)

// ErrSaturated is returned by Submit when the task backlog is full.
var ErrSaturated = errors.New("workpool: saturated")

// Pool runs submitted tasks on a fixed set of worker goroutines. Submit
// never blocks: tasks wait in a bounded backlog and are refused with
// ErrSaturated when it is full.
type Pool struct {
	workers int
	logger  *slog.Logger

	tasks  chan *submission
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool

	active   map[*submission]context.CancelFunc
	activeMu sync.Mutex
}

var _ sluice.Pool = (*Pool)(nil)

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(p *Pool) { p.workers = n }
}

// WithBacklog sets how many submitted tasks may wait for a worker.
func WithBacklog(n int) Option {
	return func(p *Pool) { p.tasks = make(chan *submission, n) }
}

// WithLogger sets the structured logger for the pool.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// New creates a Pool. Call Start before submitting.
func New(opts ...Option) *Pool {
	p := &Pool{
		workers: 4,
		logger:  slog.Default(),
		tasks:   make(chan *submission, 64),
		stopCh:  make(chan struct{}),
		active:  make(map[*submission]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the worker goroutines. It returns immediately and is a
// no-op on a pool that is already running.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	p.logger.Info("workpool starting",
		slog.Int("workers", p.workers),
		slog.Int("backlog", cap(p.tasks)),
	)

	for range p.workers {
		p.wg.Add(1)
		go p.worker()
	}

	return nil
}

// Stop rejects further submissions and waits for workers to finish. If
// ctx expires first, the contexts of running tasks are cancelled and Stop
// waits for them to return. Tasks still queued when the workers exit are
// completed without running so their handles report done.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("workpool stopping")
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("workpool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("workpool shutdown timed out, cancelling active tasks")
		p.cancelActive()
		p.wg.Wait()
	}

	// Submissions the workers never reached must still complete their
	// handles, or a drainer waiting on one would coalesce forever.
	for {
		select {
		case s := <-p.tasks:
			close(s.done)
		default:
			return nil
		}
	}
}

// Submit implements sluice.Pool. It returns sluice.ErrPoolStopped when
// the pool is not running and ErrSaturated when the backlog is full.
func (p *Pool) Submit(task sluice.Task) (sluice.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil, sluice.ErrPoolStopped
	}

	s := &submission{task: task, done: make(chan struct{})}
	select {
	case p.tasks <- s:
		return s, nil
	default:
		return nil, ErrSaturated
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case s := <-p.tasks:
			// A task picked up while the pool is stopping is not
			// started; its handle completes like the rest of the
			// backlog.
			select {
			case <-p.stopCh:
				close(s.done)
				return
			default:
			}
			p.runTask(s)
		}
	}
}

func (p *Pool) runTask(s *submission) {
	defer close(s.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !s.start(cancel) {
		return
	}

	p.track(s, cancel)
	defer p.untrack(s)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	s.task(ctx)
}

func (p *Pool) track(s *submission, cancel context.CancelFunc) {
	p.activeMu.Lock()
	p.active[s] = cancel
	p.activeMu.Unlock()
}

func (p *Pool) untrack(s *submission) {
	p.activeMu.Lock()
	delete(p.active, s)
	p.activeMu.Unlock()
}

func (p *Pool) cancelActive() {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for _, cancel := range p.active {
		cancel()
	}
}

// submission is a queued task plus its handle state.
type submission struct {
	task sluice.Task
	done chan struct{}

	mu      sync.Mutex
	skipped bool
	cancel  context.CancelFunc // set once the task starts
}

var _ sluice.Handle = (*submission)(nil)

// start marks the submission as running. It returns false when the
// submission was cancelled before a worker reached it.
func (s *submission) start(cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skipped {
		return false
	}
	s.cancel = cancel
	return true
}

// Cancel implements sluice.Handle. A submission no worker has reached yet
// is dropped. With interrupt, the context of a running task is cancelled
// as well.
func (s *submission) Cancel(interrupt bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped = true
	if interrupt && s.cancel != nil {
		s.cancel()
	}
}

// Done implements sluice.Handle.
func (s *submission) Done() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
