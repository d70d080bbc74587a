package limitq

import (
	"context"
	"runtime/debug"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
)

// invoke starts one attempt for it.
//
// Options.Process runs on the calling goroutine so attempts start in
// dequeue order; settlement is awaited on a separate goroutine.
func (q *Queue[T]) invoke(it *workItem[T]) {
	f := newFuture()
	cleanup := q.call(it, f)

	var timer *time.Timer
	if q.opts.MaxWait >= 0 && !f.Settled() {
		timer = time.NewTimer(q.opts.MaxWait)
	}
	go q.await(it, f, cleanup, timer)
}

// call runs Options.Process, turning a panic into a rejection.
func (q *Queue[T]) call(it *workItem[T], f *Future) (cleanup CleanupFunc) {
	defer func() {
		if r := recover(); r != nil {
			f.Reject(&PanicError{Value: r, Stack: debug.Stack()})
			cleanup = nil
		}
	}()
	return q.opts.Process(it.payload, it.attempts, f)
}

// await blocks until f settles or the attempt times out, then completes it.
func (q *Queue[T]) await(it *workItem[T], f *Future, cleanup CleanupFunc, timer *time.Timer) {
	if timer == nil {
		<-f.Done()
	} else {
		select {
		case <-f.Done():
			timer.Stop()
		case <-timer.C:
			// the timeout cause is recorded before cleanup runs so a
			// settlement triggered by the cleanup itself cannot replace it
			if f.settle(ErrMaxTime) {
				q.record(MetricsPolicy.IncTimedOut)
				lg.FromContext(q.opts.Ctx).Warn("attempt timed out",
					lg.Any("payload", it.payload),
					lg.Int("attempt", it.attempts+1),
					lg.String("max_wait", q.opts.MaxWait.String()),
				)
				if cleanup != nil {
					q.safeCall("timeout cleanup", cleanup)
				}
			}
		}
	}
	q.complete(it, f.Err())
}

// complete releases the worker slot, applies the retry policy on failure
// and re-enters the scheduler.
func (q *Queue[T]) complete(it *workItem[T], err error) {
	if err != nil {
		q.fail(it, err)
		q.consume()
		return
	}

	q.record(MetricsPolicy.IncExecuted)
	q.releaseWorker()
	q.consume()
}

// releaseWorker frees the worker slot held by a finished attempt.
func (q *Queue[T]) releaseWorker() {
	q.mu.Lock()
	q.active--
	size, active := q.items.len(), q.active
	q.mu.Unlock()

	q.observe(size, active)
}

// Blocking adapts an ordinary blocking function into a ProcessFunc.
//
// fn runs on its own goroutine and its return value settles the future;
// a panic in fn rejects it with a *PanicError. The context passed to fn
// is cancelled when the attempt times out or fn returns.
func Blocking[T any](fn func(ctx context.Context, payload T, attempts int) error) ProcessFunc[T] {
	return func(payload T, attempts int, f *Future) CleanupFunc {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					f.Reject(&PanicError{Value: r, Stack: debug.Stack()})
				}
			}()
			f.Settle(fn(ctx, payload, attempts))
		}()
		return CleanupFunc(cancel)
	}
}
