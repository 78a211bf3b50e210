// Package metrics provides Prometheus instrumentation for the scheduler and
// the engine.
//
// # Overview
//
// Collectors are registered once with the default registry through promauto
// and shared by every scheduler or engine instance in the process. Labels
// distinguish operators and workers.
//
// # Basic Usage
//
//	metrics.TasksSubmitted.Inc()
//
//	timer := metrics.NewTimer("multiply")
//	runStep()
//	metrics.StepDuration.WithLabelValues("multiply").Observe(timer.Stop().Seconds())
//
// The CLI exposes the default registry over HTTP when --metrics-addr is set.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksSubmitted counts tasks handed to a worker mailbox.
	TasksSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lae",
			Subsystem: "scheduler",
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks accepted by a worker",
		},
	)

	// TasksFailed counts tasks that returned an error or panicked.
	TasksFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lae",
			Subsystem: "scheduler",
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that returned an error or panicked",
		},
	)

	// HandoffRetries counts submissions that found the chosen worker's mailbox
	// occupied and requeued it.
	HandoffRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lae",
			Subsystem: "scheduler",
			Name:      "handoff_retries_total",
			Help:      "Total number of mailbox handoffs retried against another worker",
		},
	)

	// TaskDuration tracks the distribution of task run times in seconds.
	TaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lae",
			Subsystem: "scheduler",
			Name:      "task_duration_seconds",
			Help:      "Duration of individual row tasks in seconds",
			Buckets: []float64{
				1e-6, // 1μs - single short row
				1e-5,
				1e-4,
				1e-3, // 1ms - wide row products
				1e-2,
				1e-1,
				1,
			},
		},
	)

	// InFlight tracks tasks accepted but not yet completed.
	InFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lae",
			Subsystem: "scheduler",
			Name:      "in_flight_tasks",
			Help:      "Number of tasks accepted but not completed",
		},
	)

	// WorkerBusySeconds accumulates busy time per worker.
	WorkerBusySeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lae",
			Subsystem: "scheduler",
			Name:      "worker_busy_seconds_total",
			Help:      "Cumulative time each worker spent running tasks",
		},
		[]string{"worker"},
	)

	// StepsResolved counts resolved computation nodes per operator.
	StepsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lae",
			Subsystem: "engine",
			Name:      "steps_resolved_total",
			Help:      "Total number of operator nodes resolved",
		},
		[]string{"operator", "status"},
	)

	// StepDuration tracks the duration of one resolution step in seconds.
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lae",
			Subsystem: "engine",
			Name:      "step_duration_seconds",
			Help:      "Duration of a resolution step, load through read-back",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operator"},
	)

	// StepTasks tracks how many row tasks a step dispatched.
	StepTasks = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lae",
			Subsystem: "engine",
			Name:      "step_tasks",
			Help:      "Number of row tasks dispatched per step",
			Buckets:   []float64{1, 4, 16, 64, 256, 1024, 4096},
		},
		[]string{"operator"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the name given at creation.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called
// repeatedly; each call measures from creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
