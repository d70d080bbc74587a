package limitq

import (
	"sync/atomic"
)

// MetricsPolicy defines hooks used by the queue to report admission,
// execution and retry activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {
	// IncQueued counts an accepted insertion.
	IncQueued()

	// IncRejected counts an insertion refused for capacity.
	IncRejected()

	// IncExecuted counts a successful attempt.
	IncExecuted()

	// IncFailed counts a failed attempt, timeouts included.
	IncFailed()

	// IncRetried counts a failed item that will be requeued.
	IncRetried()

	// IncTimedOut counts an attempt rejected by the timeout.
	IncTimedOut()

	// IncTerminal counts an item dropped after exhausting its retries.
	IncTerminal()

	// SetQueued records the current queue depth.
	SetQueued(n int)

	// SetActive records the current number of in-flight invocations.
	SetActive(n int)
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	queued   atomic.Uint64
	rejected atomic.Uint64
	executed atomic.Uint64
	failed   atomic.Uint64
	retried  atomic.Uint64
	timedOut atomic.Uint64
	terminal atomic.Uint64

	_ [56]byte // padding to avoid false sharing

	depth  atomic.Int64
	active atomic.Int64
}

func (m *AtomicMetrics) IncQueued()      { m.queued.Add(1) }
func (m *AtomicMetrics) IncRejected()    { m.rejected.Add(1) }
func (m *AtomicMetrics) IncExecuted()    { m.executed.Add(1) }
func (m *AtomicMetrics) IncFailed()      { m.failed.Add(1) }
func (m *AtomicMetrics) IncRetried()     { m.retried.Add(1) }
func (m *AtomicMetrics) IncTimedOut()    { m.timedOut.Add(1) }
func (m *AtomicMetrics) IncTerminal()    { m.terminal.Add(1) }
func (m *AtomicMetrics) SetQueued(n int) { m.depth.Store(int64(n)) }
func (m *AtomicMetrics) SetActive(n int) { m.active.Store(int64(n)) }

// Queued returns the total number of accepted insertions.
func (m *AtomicMetrics) Queued() uint64 { return m.queued.Load() }

// Rejected returns the total number of capacity rejections.
func (m *AtomicMetrics) Rejected() uint64 { return m.rejected.Load() }

// Executed returns the total number of successful attempts.
func (m *AtomicMetrics) Executed() uint64 { return m.executed.Load() }

// Failed returns the total number of failed attempts.
func (m *AtomicMetrics) Failed() uint64 { return m.failed.Load() }

// Retried returns the total number of requeues after failure.
func (m *AtomicMetrics) Retried() uint64 { return m.retried.Load() }

// TimedOut returns the total number of timed out attempts.
func (m *AtomicMetrics) TimedOut() uint64 { return m.timedOut.Load() }

// Terminal returns the total number of items dropped after their last retry.
func (m *AtomicMetrics) Terminal() uint64 { return m.terminal.Load() }

// Depth returns the last recorded queue depth.
func (m *AtomicMetrics) Depth() int64 { return m.depth.Load() }

// Active returns the last recorded number of in-flight invocations.
func (m *AtomicMetrics) Active() int64 { return m.active.Load() }

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
//
// It is the default when Options.Metrics is nil.
type NoopMetrics struct{}

func (m *NoopMetrics) IncQueued()    {}
func (m *NoopMetrics) IncRejected()  {}
func (m *NoopMetrics) IncExecuted()  {}
func (m *NoopMetrics) IncFailed()    {}
func (m *NoopMetrics) IncRetried()   {}
func (m *NoopMetrics) IncTimedOut()  {}
func (m *NoopMetrics) IncTerminal()  {}
func (m *NoopMetrics) SetQueued(int) {}
func (m *NoopMetrics) SetActive(int) {}
