package middleware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/sluice/middleware"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	handler := func(_ context.Context, _ string) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}

	mw := middleware.Retry[string](5, middleware.ConstantBackoff(time.Millisecond))
	if err := mw(context.Background(), "item", handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("handler called %d times, want %d", calls, 3)
	}
}

func TestRetry_ExhaustsAndReturnsLastError(t *testing.T) {
	wantErr := errors.New("persistent")
	calls := 0
	handler := func(_ context.Context, _ string) error {
		calls++
		return wantErr
	}

	mw := middleware.Retry[string](2, middleware.ConstantBackoff(time.Millisecond))
	err := mw(context.Background(), "item", handler)
	if !errors.Is(err, wantErr) {
		t.Errorf("got %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Errorf("handler called %d times, want %d (initial + 2 retries)", calls, 3)
	}
}

func TestRetry_ZeroRetriesSingleTry(t *testing.T) {
	wantErr := errors.New("boom")
	calls := 0
	handler := func(_ context.Context, _ string) error {
		calls++
		return wantErr
	}

	mw := middleware.Retry[string](0, nil)
	if err := mw(context.Background(), "item", handler); !errors.Is(err, wantErr) {
		t.Errorf("got %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want %d", calls, 1)
	}
}

func TestRetry_ContextCancelAbortsWait(t *testing.T) {
	wantErr := errors.New("boom")
	handler := func(_ context.Context, _ string) error { return wantErr }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	mw := middleware.Retry[string](3, middleware.ConstantBackoff(10*time.Second))
	err := mw(ctx, "item", handler)
	if !errors.Is(err, wantErr) {
		t.Errorf("got %v, want last handler error %v", err, wantErr)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("retry waited %v after context end", elapsed)
	}
}

func TestConstantBackoff_ReturnsFixedDelay(t *testing.T) {
	b := middleware.ConstantBackoff(5 * time.Second)
	for attempt := 1; attempt <= 10; attempt++ {
		if got := b(attempt); got != 5*time.Second {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, 5*time.Second)
		}
	}
}

func TestExponentialBackoff_DoublesEachAttempt(t *testing.T) {
	b := middleware.ExponentialBackoff(time.Second, time.Hour)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},  // 1 * 2^0
		{2, 2 * time.Second},  // 1 * 2^1
		{3, 4 * time.Second},  // 1 * 2^2
		{4, 8 * time.Second},  // 1 * 2^3
		{5, 16 * time.Second}, // 1 * 2^4
	}
	for _, tt := range tests {
		if got := b(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoff_CapsAtMax(t *testing.T) {
	b := middleware.ExponentialBackoff(time.Second, 10*time.Second)

	if got := b(5); got != 10*time.Second {
		t.Errorf("backoff(5) = %v, want %v (capped)", got, 10*time.Second)
	}
	if got := b(20); got != 10*time.Second {
		t.Errorf("backoff(20) = %v, want %v (capped)", got, 10*time.Second)
	}
}

func TestFullJitterBackoff_WithinBounds(t *testing.T) {
	b := middleware.FullJitterBackoff(time.Second, 10*time.Second)

	for attempt := 1; attempt <= 5; attempt++ {
		for range 100 {
			got := b(attempt)
			if got < 0 {
				t.Errorf("backoff(%d) = %v, should be >= 0", attempt, got)
			}
			if got > 10*time.Second {
				t.Errorf("backoff(%d) = %v, should be <= %v", attempt, got, 10*time.Second)
			}
		}
	}
}

func TestFullJitterBackoff_ProducesVariance(t *testing.T) {
	b := middleware.FullJitterBackoff(time.Second, time.Minute)

	seen := make(map[time.Duration]bool)
	for range 100 {
		seen[b(3)] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected variance in jitter, got only %d distinct values", len(seen))
	}
}
