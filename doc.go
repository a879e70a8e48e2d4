// Package sluice lets many independent logical queues share one bounded
// worker pool. Each queue gets a Drainer; a producer enqueues an item into
// the queue and calls Trigger, and the drainer borrows a worker, drains the
// queue up to a configurable batch budget, then either finishes or yields
// the worker and resubmits itself. Idle queues cost no goroutines, and no
// queue's backlog can monopolize a worker.
//
// Sluice is designed as a library, not a service. It owns neither the queue
// nor the pool: adapt yours through the Source and Pool interfaces, or use
// the bundled ChanSource and GoPool. The workpool package provides a
// bounded pool with a fixed worker count and a task backlog.
//
// # Quick Start
//
//	src := sluice.NewChanSource[string](128)
//	d, err := sluice.New(src, handle, &sluice.GoPool{},
//	    sluice.WithBatchBudget(64),
//	)
//	...
//	src.TryPush("item")
//	d.Trigger()
//
// # Guarantees
//
// At most one drain activation per Drainer executes at any time. Items
// pushed before a Trigger call are never stranded. A handler failure
// never stops the drain. Ordering across Drainers sharing a pool is up
// to the pool.
//
// Drainer IDs are TypeIDs: K-sortable (UUIDv7-based), globally unique,
// and URL-safe in the format "drn_suffix".
package sluice
