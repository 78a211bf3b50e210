package scheduling

import (
	"container/heap"
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lae/pkg/errors"
	"github.com/ajitpratap0/lae/pkg/metrics"
)

// Task is a unit of work run on a worker. A returned error is collected and
// reported by the next barrier.
type Task func() error

// FatigueFunc assigns the fixed fatigue weight of the worker with the given id.
type FatigueFunc func(id int) float64

// Config configures a Scheduler.
type Config struct {
	// Workers is the number of persistent workers, must be > 0
	Workers int
	// Fatigue assigns each worker's weight; nil uses RandomFatigue
	Fatigue FatigueFunc
}

// RandomFatigue draws a weight uniformly from [0.5, 1.5).
func RandomFatigue(int) float64 {
	return 0.5 + rand.Float64()
}

// Scheduler dispatches tasks to the least fatigued idle worker.
type Scheduler struct {
	logger  *zap.Logger
	workers []*worker

	mu       sync.Mutex
	idleCond *sync.Cond
	quiet    *sync.Cond
	idle     idleQueue
	inFlight int
	failures []error
	closed   bool

	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New starts cfg.Workers workers and returns a scheduler ready for Submit.
func New(cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if cfg.Workers <= 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "worker count must be positive, got %d", cfg.Workers)
	}
	if cfg.Fatigue == nil {
		cfg.Fatigue = RandomFatigue
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		logger:  logger.With(zap.String("component", "scheduler")),
		workers: make([]*worker, cfg.Workers),
		idle:    make(idleQueue, 0, cfg.Workers),
	}
	s.idleCond = sync.NewCond(&s.mu)
	s.quiet = sync.NewCond(&s.mu)

	for i := range s.workers {
		w := newWorker(i, cfg.Fatigue(i), strconv.Itoa(i))
		s.workers[i] = w
		heap.Push(&s.idle, w)

		s.wg.Add(1)
		go s.run(w)
	}

	s.logger.Info("scheduler started", zap.Int("workers", cfg.Workers))
	return s, nil
}

// Workers returns the pool size.
func (s *Scheduler) Workers() int {
	return len(s.workers)
}

// InFlight returns the number of tasks accepted but not yet completed.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Submit hands task to the least fatigued idle worker, blocking while every
// worker is busy. It fails only after Shutdown.
func (s *Scheduler) Submit(task Task) error {
	if task == nil {
		return errors.New(errors.ErrorTypeInvalidOperand, "task must not be nil")
	}

	for {
		s.mu.Lock()
		for len(s.idle) == 0 && !s.closed {
			s.idleCond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return errors.New(errors.ErrorTypeInvalidState, "scheduler is shut down")
		}
		w := heap.Pop(&s.idle).(*worker)

		// The handoff happens under s.mu so Shutdown never observes a
		// popped worker whose task has not reached its mailbox yet.
		s.inFlight++
		metrics.InFlight.Inc()
		select {
		case w.mailbox <- task:
			s.mu.Unlock()
			metrics.TasksSubmitted.Inc()
			return nil
		default:
		}

		// Mailbox already occupied: undo the accounting, requeue, retry.
		s.inFlight--
		metrics.InFlight.Dec()
		s.pushIdle(w)
		if s.inFlight == 0 {
			s.quiet.Broadcast()
		}
		s.mu.Unlock()

		metrics.HandoffRetries.Inc()
		s.logger.Debug("mailbox occupied, retrying handoff", zap.Int("worker", w.id))
		runtime.Gosched()
	}
}

// SubmitAll submits every task and blocks until no task is in flight. It
// returns the combined errors of the tasks that failed, or the submission
// error if the scheduler was shut down part way through.
//
// Barriers are process-wide for the scheduler: concurrent SubmitAll calls on
// the same scheduler wait for each other's tasks and share failures.
func (s *Scheduler) SubmitAll(tasks []Task) error {
	var submitErr error
	for _, task := range tasks {
		if err := s.Submit(task); err != nil {
			submitErr = err
			break
		}
	}

	return multierr.Append(submitErr, s.Wait())
}

// Wait blocks until the in-flight counter reaches zero and returns the
// failures collected since the previous barrier.
func (s *Scheduler) Wait() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.inFlight > 0 {
		s.quiet.Wait()
	}

	failures := s.failures
	s.failures = nil
	return multierr.Combine(failures...)
}

// Shutdown stops every worker after its current task and waits for all of
// them to exit. It is safe to call more than once.
func (s *Scheduler) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.idleCond.Broadcast()
		s.mu.Unlock()

		for _, w := range s.workers {
			close(w.stop)
		}
		s.wg.Wait()

		s.logger.Info("scheduler stopped", zap.Int("workers", len(s.workers)))
	})
}

// run is the worker loop.
func (s *Scheduler) run(w *worker) {
	defer s.wg.Done()

	for {
		select {
		case task := <-w.mailbox:
			s.execute(w, task)
		case <-w.stop:
			// drain a task that raced with shutdown so in-flight reaches zero
			select {
			case task := <-w.mailbox:
				s.execute(w, task)
			default:
			}
			return
		}
	}
}

// execute runs one task and performs all completion bookkeeping.
func (s *Scheduler) execute(w *worker, task Task) {
	start := time.Now()
	w.markBusy(start)

	err := runTask(task)

	end := time.Now()
	w.markIdle(start, end)

	elapsed := end.Sub(start)
	metrics.TaskDuration.Observe(elapsed.Seconds())
	metrics.WorkerBusySeconds.WithLabelValues(w.label).Add(elapsed.Seconds())

	if err != nil {
		metrics.TasksFailed.Inc()
		s.logger.Debug("task failed", zap.Int("worker", w.id), zap.Error(err))
	}

	s.mu.Lock()
	if err != nil {
		s.failures = append(s.failures, err)
	}
	s.pushIdle(w)
	s.inFlight--
	if s.inFlight == 0 {
		s.quiet.Broadcast()
	}
	s.mu.Unlock()
	metrics.InFlight.Dec()
}

// pushIdle returns w to the idle heap. Caller holds s.mu.
func (s *Scheduler) pushIdle(w *worker) {
	if w.heapIndex >= 0 {
		return
	}
	heap.Push(&s.idle, w)
	s.idleCond.Signal()
}

// runTask runs task, converting a panic into an error.
func runTask(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrorTypeInternal, "task panicked: %v", r)
		}
	}()
	return task()
}

// WorkerStats is a point-in-time view of one worker.
type WorkerStats struct {
	ID      int
	Busy    time.Duration
	Idle    time.Duration
	Fatigue float64
	IsBusy  bool
}

// Snapshot returns the current statistics of every worker, ordered by id.
func (s *Scheduler) Snapshot() []WorkerStats {
	now := time.Now()
	out := make([]WorkerStats, len(s.workers))
	for i, w := range s.workers {
		out[i] = w.stats(now)
	}
	return out
}

// WorkerReport renders Snapshot as one human-readable line per worker.
func (s *Scheduler) WorkerReport() string {
	var b strings.Builder
	for _, st := range s.Snapshot() {
		fmt.Fprintf(&b, "Worker %d: Time Used = %d ns, Time Idle = %d ns, Fatigue = %.2f, Busy = %t\n",
			st.ID, st.Busy.Nanoseconds(), st.Idle.Nanoseconds(), st.Fatigue, st.IsBusy)
	}
	return b.String()
}
