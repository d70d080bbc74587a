package limitq

import (
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
)

const (
	defaultInitialRetry = 200 * time.Millisecond
	defaultMaxRetry     = 5 * time.Second
)

// RetryPolicy describes how long a failed item waits before it is
// requeued. Zero values are replaced with package defaults.
type RetryPolicy struct {
	// Initial is the first backoff duration.
	Initial time.Duration

	// Max is the cap for backoff duration.
	Max time.Duration
}

// DefaultRetryPolicy returns a pointer to the default backoff policy.
// Useful in tests or when only one bound needs changing.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Initial: defaultInitialRetry,
		Max:     defaultMaxRetry,
	}
}

func (rp *RetryPolicy) fillDefaults() {
	if rp.Initial <= 0 {
		rp.Initial = defaultInitialRetry
	}
	if rp.Max <= 0 {
		rp.Max = defaultMaxRetry
	}
	if rp.Max < rp.Initial {
		rp.Max = rp.Initial
	}
}

// fail records cause on it and either requeues it or reports it as a
// terminal failure. Panics raised by user hooks are reported and absorbed.
func (q *Queue[T]) fail(it *workItem[T], cause error) {
	it.next = nil
	it.errs = append(it.errs, cause)

	if !q.opts.retryable(it.attempts) {
		q.failPermanently(it, cause)
		return
	}

	defer q.recoverInternal("retry policy")

	// counted before the item becomes visible again so a run that looks
	// idle has every attempt accounted for
	q.record(func(m MetricsPolicy) {
		m.IncFailed()
		m.IncRetried()
	})

	q.mu.Lock()
	// the slot is released in the same critical section that requeues
	// the item, so no observer sees it neither queued nor active
	q.active--
	it.attempts++
	attempts := it.attempts
	immediate := q.opts.RetryBackoff == nil
	if immediate {
		q.requeueLocked(it)
	} else {
		q.delayed++
	}
	size, active := q.items.len(), q.active
	q.mu.Unlock()

	q.observe(size, active)
	q.reportJobError(cause)

	logger := lg.FromContext(q.opts.Ctx)
	if immediate {
		logger.Warn("attempt failed; requeued",
			lg.Any("payload", it.payload),
			lg.Int("attempt", attempts),
			lg.Any("error", cause),
		)
		return
	}

	delay := q.nextDelay(it)
	logger.Warn("attempt failed; backing off",
		lg.Any("payload", it.payload),
		lg.Int("attempt", attempts),
		lg.String("sleep", delay.String()),
		lg.Any("error", cause),
	)
	time.AfterFunc(delay, func() {
		q.mu.Lock()
		q.delayed--
		q.requeueLocked(it)
		q.mu.Unlock()
		q.consume()
	})
}

// failPermanently reports an item whose retry budget is exhausted.
//
// The worker slot is held until the callbacks return, so a progress
// report of an empty, idle queue implies every terminal failure has
// already been delivered.
func (q *Queue[T]) failPermanently(it *workItem[T], cause error) {
	defer q.releaseWorker()
	defer q.recoverInternal("retry policy")

	q.record(MetricsPolicy.IncFailed)
	q.reportJobError(cause)
	q.terminal(it)
}

// requeueLocked links a retried item at the front or back of the queue.
// Priority is not consulted. Must be called with q.mu held.
func (q *Queue[T]) requeueLocked(it *workItem[T]) {
	if q.opts.RetryAtFront {
		q.items.pushFront(it)
	} else {
		q.items.pushBack(it)
	}
}

// nextDelay returns the item's next backoff duration, creating its
// backoff sequence on first use.
func (q *Queue[T]) nextDelay(it *workItem[T]) time.Duration {
	if it.nextDelay == nil {
		pol := q.opts.RetryBackoff
		bo := boff.New(pol.Initial, pol.Max, time.Now().UnixNano())
		it.nextDelay = bo.Next
	}
	return it.nextDelay()
}

// terminal reports an item whose retry budget is exhausted. The item is
// dropped afterwards.
func (q *Queue[T]) terminal(it *workItem[T]) {
	total := it.attempts + 1
	q.record(MetricsPolicy.IncTerminal)
	lg.FromContext(q.opts.Ctx).Error("item failed permanently",
		lg.Any("payload", it.payload),
		lg.Int("attempts", total),
		lg.Any("errors", it.errs),
	)

	q.safeCall("terminal failure callback", func() {
		q.opts.OnTerminalFailure(it.payload, total, it.errs)
	})
	if q.opts.OnFailure != nil {
		f := Failure[T]{Payload: it.payload, Attempts: total, Errors: it.errs}
		q.safeCall("failure hook", func() { q.opts.OnFailure(f) })
	}
}
