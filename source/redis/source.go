// Package redis adapts a Redis list to sluice.Source. Producers RPUSH
// from any process (or call Push here) and then trigger the drainer; the
// adapter LPOPs, so the list drains oldest-first.
//
// Usage:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	src := redis.New(client, "emails")
//	d, err := sluice.New(src, handle, pool)
//
// Pop errors other than an empty list are logged and reported as "no
// item": the item stays queued, the drainer deactivates, and a later
// Trigger retries. Every Redis op is bounded by the adapter's op timeout
// so a dead server cannot wedge the drainer.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/sluice"
)

// Compile-time interface check.
var _ sluice.Source[[]byte] = (*Source)(nil)

// defaultOpTimeout bounds each Redis operation. TryPop runs under the
// drainer lock, so ops must not hang on a dead server.
const defaultOpTimeout = 3 * time.Second

// Option configures the Source.
type Option func(*Source)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// WithOpTimeout sets the per-operation timeout.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Source) { s.opTimeout = d }
}

// Source is a sluice.Source backed by a Redis list. The caller owns the
// Redis client lifecycle.
type Source struct {
	client    goredis.Cmdable
	key       string
	logger    *slog.Logger
	opTimeout time.Duration
}

// New creates a Source draining the list stored at key.
func New(client goredis.Cmdable, key string, opts ...Option) *Source {
	s := &Source{
		client:    client,
		key:       key,
		logger:    slog.Default(),
		opTimeout: defaultOpTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Source) Client() goredis.Cmdable { return s.client }

// Key returns the Redis list key this source drains.
func (s *Source) Key() string { return s.key }

// TryPop implements sluice.Source. An empty list returns ok=false; so
// does any Redis error, after logging, which leaves the item queued for a
// later Trigger.
func (s *Source) TryPop(ctx context.Context) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	payload, err := s.client.LPop(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.logger.Error("redis pop failed",
				slog.String("key", s.key),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}
	return payload, true
}

// Push appends the payload to the tail of the list. Call Trigger on the
// drainer afterwards.
func (s *Source) Push(ctx context.Context, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return s.client.RPush(ctx, s.key, payload).Err()
}

// Len returns the current list length.
func (s *Source) Len(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return s.client.LLen(ctx, s.key).Result()
}
