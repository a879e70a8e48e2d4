package sluice

import "context"

// Source is the queue a Drainer consumes from. The container itself lives
// outside sluice; anything with a non-blocking pop can be adapted.
//
// TryPop is called while the Drainer holds its internal lock, so it must
// return promptly and must not call back into the Drainer. It must be safe
// for concurrent use with producers.
type Source[T any] interface {
	// TryPop removes and returns the next item. ok is false when the
	// queue is observed empty.
	TryPop(ctx context.Context) (item T, ok bool)
}

// ChanSource adapts a buffered channel to Source. Producers push with
// TryPush or Push and then call Trigger on the drainer; the channel is the
// FIFO.
type ChanSource[T any] struct {
	ch chan T
}

var _ Source[int] = (*ChanSource[int])(nil)

// NewChanSource creates a ChanSource with the given buffer capacity.
func NewChanSource[T any](capacity int) *ChanSource[T] {
	return &ChanSource[T]{ch: make(chan T, capacity)}
}

// TryPush enqueues the item without blocking. It returns false when the
// buffer is full.
func (s *ChanSource[T]) TryPush(item T) bool {
	select {
	case s.ch <- item:
		return true
	default:
		return false
	}
}

// Push enqueues the item, blocking until there is room or ctx is done.
func (s *ChanSource[T]) Push(ctx context.Context, item T) error {
	select {
	case s.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPop implements Source.
func (s *ChanSource[T]) TryPop(_ context.Context) (T, bool) {
	select {
	case item := <-s.ch:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of buffered items.
func (s *ChanSource[T]) Len() int { return len(s.ch) }

// Cap returns the buffer capacity.
func (s *ChanSource[T]) Cap() int { return cap(s.ch) }
