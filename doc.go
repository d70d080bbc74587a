// Package limitq provides an in-process work queue with bounded
// concurrency, retries and per-attempt timeouts.
//
// Callers enqueue payloads; at most Options.MaxWorkers invocations of
// Options.Process run at once. Failed payloads are retried until
// Options.MaxRetries is exhausted, after which Options.OnTerminalFailure
// receives the payload together with every recorded cause.
//
// Architecture overview
//
// The queue is composed of four small layers:
//
//  1. Store
//     A singly linked list with head and tail pointers. Items are
//     inserted at the head (Push), at the tail (Append) or by numeric
//     priority (Prioritize), and always dequeued from the head.
//
//  2. Scheduler
//     A dispatch pass pops items while the queue is running and worker
//     slots are free, starts an attempt for each one and then calls
//     Options.OnProgress. Every completed attempt triggers another pass.
//     Only one goroutine dispatches at a time; concurrent triggers are
//     folded into an extra pass.
//
//  3. Invocation
//     Each attempt receives a Future. The attempt ends when the Future
//     is settled or, if Options.MaxWait is set, when the deadline fires
//     first. A timed out attempt is rejected with ErrMaxTime and the
//     CleanupFunc returned by Process, if any, is invoked. Settling a
//     Future more than once has no effect.
//
//  4. Retry policy
//     A failed item records its cause and is requeued at the tail, or at
//     the head with Options.RetryAtFront. Requeues ignore priority. With
//     Options.RetryBackoff the requeue is delayed by an exponential
//     backoff.
//
// Ordering
//
//   - Append is FIFO
//   - Push is LIFO at the head
//   - Prioritize dequeues in non-increasing priority, ties in arrival order
//
// Attempts are started in dequeue order because Process is called by the
// dispatching goroutine. Work that blocks should be moved to another
// goroutine; Blocking wraps an ordinary func(ctx, payload, attempts) error
// that way and cancels its context on timeout.
//
// Error handling
//
// No panic escapes the queue. A panic in Process rejects the attempt
// with a *PanicError. Panics in progress callbacks, terminal failure
// callbacks, cleanups and ForEach visitors are recovered and reported
// via Options.OnInternalError, as are panics in Options.Metrics hooks.
// Every failed attempt is also reported via Options.OnJobError.
//
// Stopping
//
// Stop only prevents new dispatch. In-flight attempts run to completion
// and are still retried or reported. There is no drain primitive;
// callers check Idle, typically when OnProgress reports an empty queue
// with no active workers.
package limitq
