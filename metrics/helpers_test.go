package metrics_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/azargarov/limitq"
)

// eventually polls cond until it holds or timeout passes.
func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		runtime.Gosched()
	}
	return cond()
}

// runWorkload drives q through one success, one item that fails twice
// and then gives up, and one rejected insertion.
//
// Payloads: "ok" succeeds, "bad" always fails. MaxRetries is 1 and
// MaxQueueSize is 2, so the third insertion while stopped is rejected.
func runWorkload(t *testing.T, m limitq.MetricsPolicy) {
	t.Helper()

	opts := limitq.DefaultOptions[string]()
	opts.AutoStart = false
	opts.MaxRetries = 1
	opts.MaxQueueSize = 2
	opts.Metrics = m
	opts.Process = func(p string, _ int, f *limitq.Future) limitq.CleanupFunc {
		if p == "ok" {
			f.Fulfill()
		} else {
			f.Reject(errors.New("bad payload"))
		}
		return nil
	}

	q := limitq.New(opts)
	q.Append("ok")
	q.Append("bad")
	if q.Append("extra") {
		t.Fatal("third insertion should be rejected")
	}
	q.Start()
}
