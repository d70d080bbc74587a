package limitq

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

var (
	// ErrMaxTime rejects an attempt that did not settle within Options.MaxWait.
	ErrMaxTime = errors.New("limitq: Maximum Time")

	// ErrRejected is recorded when a future is rejected with a nil cause.
	ErrRejected = errors.New("limitq: rejected")

	// ErrQueueFull is returned by helpers that surface a capacity
	// rejection as an error instead of a bool.
	ErrQueueFull = errors.New("limitq: queue is full")
)

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("limitq: panic: %v", e.Value)
}

// Failure describes a payload that exhausted its retry budget.
type Failure[T any] struct {
	Payload  T
	Attempts int
	Errors   []error
}

// Err combines every recorded cause into a single error.
func (f Failure[T]) Err() error {
	return multierr.Combine(f.Errors...)
}

// workItem wraps a payload with its retry bookkeeping.
//
// next is owned by the itemList holding the item; an item is held by
// exactly one of the list, an in-flight invocation or a pending retry.
type workItem[T any] struct {
	payload  T
	attempts int
	errs     []error
	priority int

	next *workItem[T]

	// nextDelay is the item's backoff sequence, created on first use
	// when Options.RetryBackoff is set.
	nextDelay func() time.Duration
}

func newWorkItem[T any](payload T, priority int) *workItem[T] {
	return &workItem[T]{payload: payload, priority: priority}
}
