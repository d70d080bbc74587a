package limitq

import (
	"context"
	"time"
)

// Unlimited disables a numeric limit (workers, retries, queue size) when
// assigned to the corresponding Options field.
const Unlimited = -1

// NoTimeout disables the per-attempt deadline when assigned to Options.MaxWait.
const NoTimeout time.Duration = -1

// CleanupFunc is returned by a ProcessFunc and invoked only when the
// attempt exceeds Options.MaxWait.
type CleanupFunc func()

// ProcessFunc processes one payload.
//
// attempts is the number of previous failed attempts for the payload.
// The function reports the outcome by settling f, either before it
// returns or later from another goroutine. It is called by the
// dispatching goroutine, so long-running work should be moved off it;
// see Blocking for an adapter that does this.
type ProcessFunc[T any] func(payload T, attempts int, f *Future) CleanupFunc

// TerminalFailureFunc receives a payload whose retry budget is exhausted,
// the total number of attempts made and the ordered causes of every attempt.
type TerminalFailureFunc[T any] func(payload T, totalAttempts int, errs []error)

// ProgressFunc receives the queue depth and the active worker count
// after every dispatch pass.
type ProgressFunc func(queueSize, activeWorkers int)

// Options configure a Queue.
//
// Start from DefaultOptions: numeric fields use negative values for
// "unlimited", so the Go zero value is a real (and restrictive) setting.
// Nil function fields are replaced with defaults in FillDefaults.
type Options[T any] struct {
	// MaxWorkers caps concurrent invocations. Negative means unlimited.
	MaxWorkers int

	// MaxRetries caps requeues after failure. Negative means unlimited.
	MaxRetries int

	// MaxWait bounds each attempt. Negative means no deadline.
	MaxWait time.Duration

	// MaxQueueSize caps waiting items. Negative means unlimited.
	MaxQueueSize int

	Process           ProcessFunc[T]
	OnTerminalFailure TerminalFailureFunc[T]
	OnProgress        ProgressFunc

	// OnFailure, if set, fires together with OnTerminalFailure.
	OnFailure func(Failure[T])

	// OnJobError is called for every failed attempt.
	OnJobError func(error)

	// OnInternalError receives faults recovered inside the queue:
	// panics in callbacks, cleanups and visitors.
	OnInternalError func(error)

	// AutoStart makes New start dispatching right away.
	AutoStart bool

	// RetryAtFront requeues failed items at the head instead of the tail.
	RetryAtFront bool

	// RetryBackoff delays requeues of failed items. Nil requeues immediately.
	RetryBackoff *RetryPolicy

	// Metrics receives queue activity. Defaults to NoopMetrics.
	Metrics MetricsPolicy

	// Ctx carries the logger used by the queue.
	Ctx context.Context
}

// DefaultOptions returns options with every limit disabled, an always
// succeeding Process function and no-op callbacks.
func DefaultOptions[T any]() Options[T] {
	o := Options[T]{
		MaxWorkers:   Unlimited,
		MaxRetries:   Unlimited,
		MaxWait:      NoTimeout,
		MaxQueueSize: Unlimited,
		AutoStart:    true,
	}
	o.FillDefaults()
	return o
}

// FillDefaults replaces nil function fields, the metrics sink and the
// context with their defaults. Numeric fields are left untouched.
func (o *Options[T]) FillDefaults() {
	if o.Process == nil {
		o.Process = fulfillImmediately[T]
	}
	if o.OnTerminalFailure == nil {
		o.OnTerminalFailure = func(T, int, []error) {}
	}
	if o.OnProgress == nil {
		o.OnProgress = func(int, int) {}
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
}

func fulfillImmediately[T any](_ T, _ int, f *Future) CleanupFunc {
	f.Fulfill()
	return nil
}

func (o *Options[T]) workersAvailable(active int) bool {
	return o.MaxWorkers < 0 || active < o.MaxWorkers
}

func (o *Options[T]) admits(size int) bool {
	return o.MaxQueueSize < 0 || size < o.MaxQueueSize
}

func (o *Options[T]) retryable(attempts int) bool {
	return o.MaxRetries < 0 || attempts < o.MaxRetries
}
