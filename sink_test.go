package sluice

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestLogSink_LogsHandlerFailure(t *testing.T) {
	capture := &captureHandler{}
	sink := NewLogSink(slog.New(capture))

	sink.HandlerFailed(context.Background(), "d1", "item-1", errors.New("boom"))

	records := capture.byMessage("item handler failed")
	if len(records) != 1 {
		t.Fatalf("got %d records, want %d", len(records), 1)
	}
	if got, _ := attrValue(records[0], "drainer_id"); got.String() != "d1" {
		t.Errorf("drainer_id = %q, want %q", got.String(), "d1")
	}
	if got, _ := attrValue(records[0], "error"); got.String() != "boom" {
		t.Errorf("error = %q, want %q", got.String(), "boom")
	}
}

func TestLogSink_LogsSubmitFailure(t *testing.T) {
	capture := &captureHandler{}
	sink := NewLogSink(slog.New(capture))

	sink.SubmitFailed(context.Background(), "d1", errors.New("pool full"))

	if got := len(capture.byMessage("drain resubmit rejected by pool")); got != 1 {
		t.Fatalf("got %d records, want %d", got, 1)
	}
}

func TestLogSink_RateLimitSuppresses(t *testing.T) {
	capture := &captureHandler{}
	sink := NewLogSink(slog.New(capture), WithRateLimit(5, 1))

	for range 4 {
		sink.HandlerFailed(context.Background(), "d1", nil, errors.New("boom"))
	}

	if got := len(capture.byMessage("item handler failed")); got != 1 {
		t.Errorf("got %d failure records, want %d", got, 1)
	}
	if got := sink.suppressed.Load(); got != 3 {
		t.Errorf("suppressed = %d, want %d", got, 3)
	}

	// Once the limiter refills, the next failure logs and carries the
	// suppressed count.
	time.Sleep(300 * time.Millisecond)
	sink.HandlerFailed(context.Background(), "d1", nil, errors.New("boom"))

	if got := len(capture.byMessage("item handler failed")); got != 2 {
		t.Errorf("got %d failure records after refill, want %d", got, 2)
	}
	warns := capture.byMessage("failure logs suppressed by rate limit")
	if len(warns) != 1 {
		t.Fatalf("got %d suppression records, want %d", len(warns), 1)
	}
	if got, _ := attrValue(warns[0], "count"); got.Int64() != 3 {
		t.Errorf("suppressed count = %d, want %d", got.Int64(), 3)
	}
	if got := sink.suppressed.Load(); got != 0 {
		t.Errorf("suppressed after report = %d, want %d", got, 0)
	}
}

func TestLogSink_NilLoggerDefaults(t *testing.T) {
	sink := NewLogSink(nil)
	if sink.logger == nil {
		t.Error("expected fallback logger")
	}
}

func TestCountingSink(t *testing.T) {
	sink := &CountingSink{}

	sink.HandlerFailed(context.Background(), "d1", 1, errors.New("boom"))
	sink.HandlerFailed(context.Background(), "d1", 2, errors.New("boom"))
	sink.SubmitFailed(context.Background(), "d1", errors.New("pool full"))

	if got := sink.HandlerFailures(); got != 2 {
		t.Errorf("HandlerFailures = %d, want %d", got, 2)
	}
	if got := sink.SubmitFailures(); got != 1 {
		t.Errorf("SubmitFailures = %d, want %d", got, 1)
	}
}

func TestMultiSink_FansOut(t *testing.T) {
	a := &CountingSink{}
	b := &CountingSink{}
	sink := MultiSink(a, NopSink{}, b)

	sink.HandlerFailed(context.Background(), "d1", nil, errors.New("boom"))
	sink.SubmitFailed(context.Background(), "d1", errors.New("pool full"))

	for _, s := range []*CountingSink{a, b} {
		if got := s.HandlerFailures(); got != 1 {
			t.Errorf("HandlerFailures = %d, want %d", got, 1)
		}
		if got := s.SubmitFailures(); got != 1 {
			t.Errorf("SubmitFailures = %d, want %d", got, 1)
		}
	}
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// captureHandler is a slog.Handler that records everything it is given.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *captureHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(_ string) slog.Handler      { return h }

func (h *captureHandler) byMessage(msg string) []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []slog.Record
	for _, r := range h.records {
		if r.Message == msg {
			out = append(out, r)
		}
	}
	return out
}

func attrValue(r slog.Record, key string) (slog.Value, bool) {
	var val slog.Value
	var found bool
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val = a.Value
			found = true
			return false
		}
		return true
	})
	return val, found
}
