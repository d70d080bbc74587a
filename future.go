package limitq

import "sync"

// Future is a one-shot completion handed to a ProcessFunc.
//
// The first call to Fulfill, Reject or Settle wins; later calls are
// no-ops. A Future is safe for concurrent use.
type Future struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Fulfill settles the future successfully.
func (f *Future) Fulfill() { f.settle(nil) }

// Reject settles the future with cause err. A nil err is recorded as
// ErrRejected so the attempt still counts as a failure.
func (f *Future) Reject(err error) {
	if err == nil {
		err = ErrRejected
	}
	f.settle(err)
}

// Settle fulfills the future when err is nil and rejects it otherwise.
func (f *Future) Settle(err error) { f.settle(err) }

func (f *Future) settle(err error) bool {
	won := false
	f.once.Do(func() {
		f.err = err
		close(f.done)
		won = true
	})
	return won
}

// Done returns a channel closed once the future is settled.
func (f *Future) Done() <-chan struct{} { return f.done }

// Settled reports whether the future has been settled.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the rejection cause, or nil if the future was fulfilled
// or is still pending.
func (f *Future) Err() error {
	if !f.Settled() {
		return nil
	}
	return f.err
}
