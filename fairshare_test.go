package sluice_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xraph/sluice"
	"github.com/xraph/sluice/workpool"
)

// With a single worker and batch budgets, two backlogged queues must take
// turns: each activation handles one batch, yields the worker, and goes
// to the back of the pool's queue.
func TestDrainer_FairShareAcrossQueues(t *testing.T) {
	pool := workpool.New(workpool.WithWorkers(1), workpool.WithBacklog(8))
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("start error: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = pool.Stop(ctx)
	})

	// Handlers wait on gate so the worker cannot start drainer a's first
	// batch until drainer b's activation is queued behind it.
	gate := make(chan struct{})
	var mu sync.Mutex
	var order []string
	record := func(_ context.Context, item string) error {
		<-gate
		mu.Lock()
		order = append(order, item)
		mu.Unlock()
		return nil
	}

	obsA := &sluice.CountingObserver{}
	srcA := sluice.NewChanSource[string](16)
	drainerA, err := sluice.New(srcA, record, pool,
		sluice.WithID("a"),
		sluice.WithBatchBudget(2),
		sluice.WithObserver(obsA),
	)
	if err != nil {
		t.Fatalf("new error: %v", err)
	}

	obsB := &sluice.CountingObserver{}
	srcB := sluice.NewChanSource[string](16)
	drainerB, err := sluice.New(srcB, record, pool,
		sluice.WithID("b"),
		sluice.WithBatchBudget(2),
		sluice.WithObserver(obsB),
	)
	if err != nil {
		t.Fatalf("new error: %v", err)
	}

	for i := range 6 {
		srcA.TryPush(fmt.Sprintf("a%d", i))
		srcB.TryPush(fmt.Sprintf("b%d", i))
	}
	if err := drainerA.Trigger(); err != nil {
		t.Fatalf("trigger a error: %v", err)
	}
	if err := drainerB.Trigger(); err != nil {
		t.Fatalf("trigger b error: %v", err)
	}
	close(gate)

	waitUntil(t, func() bool { return obsA.Drained() == 1 && obsB.Drained() == 1 }, "timed out waiting for both queues")

	// One worker, FIFO backlog, budget 2: the queues alternate in pairs.
	want := []string{
		"a0", "a1", "b0", "b1",
		"a2", "a3", "b2", "b3",
		"a4", "a5", "b4", "b5",
	}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(want) {
		t.Fatalf("handled %d items, want %d: %v", len(order), len(want), order)
	}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("order[%d] = %q, want %q (full order: %v)", i, order[i], w, order)
		}
	}

	// Neither queue monopolized the worker.
	if obsA.Yielded() < 2 {
		t.Errorf("queue a yielded %d times, want at least %d", obsA.Yielded(), 2)
	}
	if obsB.Yielded() < 2 {
		t.Errorf("queue b yielded %d times, want at least %d", obsB.Yielded(), 2)
	}
}
