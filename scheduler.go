package limitq

// consume runs dispatch passes until no more work can be started.
//
// Only one goroutine dispatches at a time. A call arriving while another
// goroutine is dispatching marks the queue for one more pass and returns,
// so callers never block on each other and re-entrant calls from user
// callbacks cannot deadlock. Progress reports are therefore serialized.
func (q *Queue[T]) consume() {
	q.mu.Lock()
	if q.dispatching {
		q.redispatch = true
		q.mu.Unlock()
		return
	}
	q.dispatching = true
	q.mu.Unlock()

	for {
		q.dispatchPass()

		q.mu.Lock()
		again := q.redispatch || q.stalled()
		q.redispatch = false
		if !again {
			q.dispatching = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()
	}
}

// dispatchPass fills free worker slots from the head of the queue and
// then reports progress.
func (q *Queue[T]) dispatchPass() {
	for {
		q.mu.Lock()
		if !q.running || !q.opts.workersAvailable(q.active) {
			q.mu.Unlock()
			break
		}
		it, ok := q.items.popFront()
		if !ok {
			q.mu.Unlock()
			break
		}
		q.active++
		size, active := q.items.len(), q.active
		q.mu.Unlock()

		q.observe(size, active)
		q.invoke(it)
	}

	size, active := q.snapshot()
	q.safeCall("progress callback", func() { q.opts.OnProgress(size, active) })
}

// stalled reports whether items are waiting although nothing runs and a
// slot is free. Must be called with q.mu held.
func (q *Queue[T]) stalled() bool {
	return q.running &&
		q.active == 0 &&
		q.items.len() > 0 &&
		q.opts.workersAvailable(0)
}

// observe publishes queue depth and active workers to Options.Metrics.
func (q *Queue[T]) observe(size, active int) {
	q.record(func(m MetricsPolicy) {
		m.SetQueued(size)
		m.SetActive(active)
	})
}

// record runs fn against Options.Metrics. A panicking backend is reported
// as an internal error and never interrupts queue bookkeeping.
func (q *Queue[T]) record(fn func(MetricsPolicy)) {
	q.safeCall("metrics", func() { fn(q.opts.Metrics) })
}
