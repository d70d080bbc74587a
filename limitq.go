package limitq

import (
	"sync"

	lg "github.com/Andrej220/go-utils/zlog"
)

// Queue is a bounded-concurrency work queue.
//
// Payloads wait in a linked list until a worker slot is free, then
// Options.Process is invoked for them. Failed payloads are requeued until
// Options.MaxRetries is exhausted. All methods are safe for concurrent use
// and may be called from inside the queue's own callbacks.
type Queue[T any] struct {
	opts Options[T]

	mu          sync.Mutex
	items       itemList[T]
	active      int
	delayed     int
	running     bool
	dispatching bool
	redispatch  bool
}

// New creates a queue from opts. Nil function fields fall back to the
// defaults of DefaultOptions. The queue starts dispatching immediately
// when opts.AutoStart is set.
func New[T any](opts Options[T]) *Queue[T] {
	opts.FillDefaults()
	if opts.RetryBackoff != nil {
		rp := *opts.RetryBackoff
		rp.fillDefaults()
		opts.RetryBackoff = &rp
	}
	return &Queue[T]{
		opts:    opts,
		running: opts.AutoStart,
	}
}

// Push inserts payload at the head of the queue.
//
// It returns false if the queue is at Options.MaxQueueSize.
func (q *Queue[T]) Push(payload T) bool {
	return q.add(newWorkItem(payload, 0), (*itemList[T]).pushFront)
}

// Append inserts payload at the tail of the queue.
//
// It returns false if the queue is at Options.MaxQueueSize.
func (q *Queue[T]) Append(payload T) bool {
	return q.add(newWorkItem(payload, 0), (*itemList[T]).pushBack)
}

// Prioritize inserts payload behind every queued item with a priority
// greater than or equal to priority.
//
// It returns false if the queue is at Options.MaxQueueSize.
func (q *Queue[T]) Prioritize(payload T, priority int) bool {
	return q.add(newWorkItem(payload, priority), (*itemList[T]).insertByPriority)
}

func (q *Queue[T]) add(it *workItem[T], place func(*itemList[T], *workItem[T])) bool {
	q.mu.Lock()
	accepted := q.opts.admits(q.items.len())
	if accepted {
		place(&q.items, it)
	}
	size := q.items.len()
	q.mu.Unlock()

	logger := lg.FromContext(q.opts.Ctx)
	if accepted {
		q.record(func(m MetricsPolicy) {
			m.IncQueued()
			m.SetQueued(size)
		})
		logger.Info("item queued", lg.Any("payload", it.payload), lg.Int("queue_size", size))
	} else {
		q.record(MetricsPolicy.IncRejected)
		logger.Warn("item rejected; queue is full", lg.Any("payload", it.payload), lg.Int("queue_size", size))
	}

	// dispatch even on rejection so idle workers drain the backlog
	q.consume()
	return accepted
}

// Size returns the number of items waiting in the queue.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.len()
}

// ActiveWorkers returns the number of in-flight invocations.
func (q *Queue[T]) ActiveWorkers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Delayed returns the number of failed items waiting out their retry
// backoff. It is always zero when Options.RetryBackoff is nil.
func (q *Queue[T]) Delayed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delayed
}

// Idle reports whether nothing is queued, in flight or waiting out a
// retry backoff. The three counts are read under one lock.
func (q *Queue[T]) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.len() == 0 && q.active == 0 && q.delayed == 0
}

// Start enables dispatching and immediately fills free worker slots.
func (q *Queue[T]) Start() {
	q.mu.Lock()
	q.running = true
	q.mu.Unlock()
	q.consume()
}

// Stop disables dispatching. In-flight invocations are not cancelled and
// still complete, retry and report progress.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	q.running = false
	q.mu.Unlock()
}

// ForEach calls visit for every queued payload from head to tail.
//
// The payloads are snapshotted first, so visit may call back into the
// queue. A panicking visit is reported via Options.OnInternalError and
// does not stop the traversal.
func (q *Queue[T]) ForEach(visit func(T)) {
	q.mu.Lock()
	payloads := q.items.payloads()
	q.mu.Unlock()

	for _, p := range payloads {
		q.safeCall("visitor", func() { visit(p) })
	}
}

func (q *Queue[T]) snapshot() (size, active int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.len(), q.active
}
