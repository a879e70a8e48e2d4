package sluice

import (
	"errors"
	"fmt"
)

var (
	// Construction errors.
	ErrNilSource  = errors.New("sluice: nil source")
	ErrNilHandler = errors.New("sluice: nil handler")
	ErrNilPool    = errors.New("sluice: nil pool")

	// Pool errors.
	ErrPoolStopped = errors.New("sluice: pool stopped")
)

// PanicError wraps a panic recovered from an item handler. It is reported
// to the drainer's Sink in place of a handler error; the panic value and
// the goroutine stack at recovery time are preserved.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("sluice: handler panic: %v", e.Value)
}
