package scheduling

import (
	"sync/atomic"
	"time"
)

// worker is one persistent goroutine with a single-slot mailbox.
type worker struct {
	id      int
	fatigue float64
	label   string

	mailbox chan Task
	stop    chan struct{}

	busy      atomic.Bool
	busyNanos atomic.Int64
	idleNanos atomic.Int64
	idleSince atomic.Int64

	// heapIndex is owned by idleQueue and only touched under Scheduler.mu.
	heapIndex int
}

func newWorker(id int, fatigue float64, label string) *worker {
	w := &worker{
		id:        id,
		fatigue:   fatigue,
		label:     label,
		mailbox:   make(chan Task, 1),
		stop:      make(chan struct{}),
		heapIndex: -1,
	}
	w.idleSince.Store(time.Now().UnixNano())
	return w
}

// markBusy closes the current idle stretch and flags the worker busy.
func (w *worker) markBusy(now time.Time) {
	w.idleNanos.Add(now.UnixNano() - w.idleSince.Load())
	w.busy.Store(true)
}

// markIdle records elapsed busy time and opens a new idle stretch.
func (w *worker) markIdle(start, now time.Time) {
	w.busyNanos.Add(int64(now.Sub(start)))
	w.idleSince.Store(now.UnixNano())
	w.busy.Store(false)
}

// stats returns a point-in-time snapshot of the worker's counters.
func (w *worker) stats(now time.Time) WorkerStats {
	idle := w.idleNanos.Load()
	busy := w.busy.Load()
	if !busy {
		idle += now.UnixNano() - w.idleSince.Load()
	}
	return WorkerStats{
		ID:      w.id,
		Busy:    time.Duration(w.busyNanos.Load()),
		Idle:    time.Duration(idle),
		Fatigue: w.fatigue,
		IsBusy:  busy,
	}
}

// idleQueue is a min-heap of idle workers ordered by fatigue, then id.
// It implements container/heap.Interface.
type idleQueue []*worker

func (q idleQueue) Len() int { return len(q) }

func (q idleQueue) Less(i, j int) bool {
	if q[i].fatigue != q[j].fatigue {
		return q[i].fatigue < q[j].fatigue
	}
	return q[i].id < q[j].id
}

func (q idleQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIndex = i
	q[j].heapIndex = j
}

func (q *idleQueue) Push(x any) {
	w := x.(*worker)
	w.heapIndex = len(*q)
	*q = append(*q, w)
}

func (q *idleQueue) Pop() any {
	old := *q
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.heapIndex = -1
	*q = old[:n-1]
	return w
}
