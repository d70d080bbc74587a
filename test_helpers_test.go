package limitq_test

import (
	"context"
	"crypto/sha256"
	"runtime"
	"sync"
	"testing"
	"time"

	lq "github.com/azargarov/limitq"
)

type workload struct {
	name string
	fn   func(context.Context, int, int) error
}

var shaData = []byte("some deterministic payloadsome deterministic payloadsome deterministic payloadsome deterministic payload")

var (
	emptyWork = func(context.Context, int, int) error {
		return nil
	}

	cpuWork = func(context.Context, int, int) error {
		x := 0
		for i := range 1000 {
			x += i * i
		}
		_ = x
		return nil
	}

	ioWork = func(context.Context, int, int) error {
		time.Sleep(5 * time.Microsecond)
		return nil
	}

	shaWork = func(context.Context, int, int) error {
		_ = sha256.Sum256(shaData)
		return nil
	}
)

var workloads = []workload{
	{"empty ", emptyWork},
	{"sha256", shaWork},
	{"cpu   ", cpuWork},
	{"io    ", ioWork},
}

const (
	testWorkers = 5
	testRetries = 5
	testWait    = 50 * time.Millisecond
	testSize    = 10
)

// newTestOptions mirrors the limits most tests run with.
func newTestOptions[T any]() lq.Options[T] {
	opts := lq.DefaultOptions[T]()
	opts.MaxWorkers = testWorkers
	opts.MaxRetries = testRetries
	opts.MaxWait = testWait
	opts.MaxQueueSize = testSize
	return opts
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
	}
	t.Fatal("condition not satisfied before timeout")
}

func waitUntilB(b *testing.B, timeout time.Duration, cond func() bool) {
	b.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
	}
	b.Fatal("condition not satisfied before timeout")
}

// idleSignal returns a progress callback that signals every time the
// queue reports no queued and no active items.
func idleSignal() (lq.ProgressFunc, <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return func(size, active int) {
		if size == 0 && active == 0 {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}, ch
}

func waitIdle(t *testing.T, idle <-chan struct{}, timeout time.Duration) {
	t.Helper()

	select {
	case <-idle:
	case <-time.After(timeout):
		t.Fatal("queue did not become idle")
	}
}

// recorder collects values from concurrent callbacks.
type recorder[T any] struct {
	mu   sync.Mutex
	vals []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.vals = append(r.vals, v)
	r.mu.Unlock()
}

func (r *recorder[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.vals...)
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vals)
}
