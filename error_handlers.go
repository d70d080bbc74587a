package limitq

import (
	"fmt"
	"runtime/debug"

	lg "github.com/Andrej220/go-utils/zlog"
)

// reportInternalError reports a fault recovered inside the queue.
//
// Internal errors are failures of user callbacks the queue cannot
// attribute to an attempt: progress reports, terminal failure hooks,
// timeout cleanups and visitors. If no handler is registered, the error
// is only logged.
func (q *Queue[T]) reportInternalError(e error) {
	lg.FromContext(q.opts.Ctx).Error("internal error", lg.Any("error", e))
	if q.opts.OnInternalError != nil {
		defer func() { _ = recover() }()
		q.opts.OnInternalError(e)
	}
}

// reportJobError reports the cause of a failed attempt.
//
// Job errors never stop the queue; the handler is optional.
func (q *Queue[T]) reportJobError(err error) {
	if q.opts.OnJobError != nil {
		q.safeCall("job error handler", func() { q.opts.OnJobError(err) })
	}
}

// safeCall runs fn and turns a panic into an internal error.
func (q *Queue[T]) safeCall(what string, fn func()) {
	defer q.recoverInternal(what)
	fn()
}

// recoverInternal must be deferred directly.
func (q *Queue[T]) recoverInternal(what string) {
	if r := recover(); r != nil {
		q.reportInternalError(fmt.Errorf("%s: %w", what, &PanicError{Value: r, Stack: debug.Stack()}))
	}
}
