package sluice

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DeadLetter is one failed item preserved for inspection or replay. The
// error is kept as a string so entries stay serializable.
type DeadLetter[T any] struct {
	Item      T         `json:"item"`
	DrainerID string    `json:"drainer_id"`
	Error     string    `json:"error"`
	FailedAt  time.Time `json:"failed_at"`
}

// DeadLetterQueue is the push side of the queue dead letters are diverted
// to. *ChanSource[DeadLetter[T]] satisfies it.
type DeadLetterQueue[T any] interface {
	TryPush(entry DeadLetter[T]) bool
}

// DeadLetterSink diverts items whose handler failed into a secondary
// queue instead of discarding them. The entry preserves the item, the
// error message, and the failure time.
//
// Replay is just another drainer: attach one to the dead letter queue,
// and its handler decides whether to rerun the item or push it back to
// the original source.
//
// Submit failures carry no item, so they are only logged.
type DeadLetterSink[T any] struct {
	queue  DeadLetterQueue[T]
	logger *slog.Logger

	diverted atomic.Int64
	dropped  atomic.Int64
}

var _ Sink = (*DeadLetterSink[int])(nil)

// NewDeadLetterSink creates a DeadLetterSink writing to queue. A nil
// logger falls back to slog.Default.
func NewDeadLetterSink[T any](queue DeadLetterQueue[T], logger *slog.Logger) *DeadLetterSink[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadLetterSink[T]{queue: queue, logger: logger}
}

// HandlerFailed implements Sink. The item is wrapped in a DeadLetter
// entry and pushed to the dead letter queue; when the queue is full the
// entry is dropped and counted.
func (s *DeadLetterSink[T]) HandlerFailed(_ context.Context, drainerID string, item any, err error) {
	v, ok := item.(T)
	if !ok {
		s.dropped.Add(1)
		s.logger.Error("dead letter item has unexpected type",
			slog.String("drainer_id", drainerID),
			slog.Any("item", item),
		)
		return
	}

	entry := DeadLetter[T]{
		Item:      v,
		DrainerID: drainerID,
		Error:     err.Error(),
		FailedAt:  time.Now().UTC(),
	}
	if !s.queue.TryPush(entry) {
		s.dropped.Add(1)
		s.logger.Error("dead letter queue full, item dropped",
			slog.String("drainer_id", drainerID),
			slog.Any("item", item),
			slog.String("error", err.Error()),
		)
		return
	}

	s.diverted.Add(1)
	s.logger.Debug("item dead lettered",
		slog.String("drainer_id", drainerID),
		slog.String("error", err.Error()),
	)
}

// SubmitFailed implements Sink.
func (s *DeadLetterSink[T]) SubmitFailed(_ context.Context, drainerID string, err error) {
	s.logger.Error("drain resubmit rejected by pool",
		slog.String("drainer_id", drainerID),
		slog.String("error", err.Error()),
	)
}

// Diverted returns the number of entries pushed to the dead letter queue.
func (s *DeadLetterSink[T]) Diverted() int64 { return s.diverted.Load() }

// Dropped returns the number of entries lost because the dead letter
// queue refused them or the item type did not match.
func (s *DeadLetterSink[T]) Dropped() int64 { return s.dropped.Load() }
