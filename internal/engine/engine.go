// Package engine drives the step-by-step evaluation of a computation graph
// over shared matrices and the fatigue scheduler.
package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lae/pkg/computation"
	"github.com/ajitpratap0/lae/pkg/errors"
	"github.com/ajitpratap0/lae/pkg/memory"
	"github.com/ajitpratap0/lae/pkg/metrics"
	"github.com/ajitpratap0/lae/pkg/observability"
	"github.com/ajitpratap0/lae/pkg/performance"
	"github.com/ajitpratap0/lae/pkg/scheduling"
)

// Config configures an Engine
type Config struct {
	// Threads is the number of scheduler workers
	Threads int
	// Fatigue overrides the worker weights, nil draws them at random
	Fatigue scheduling.FatigueFunc
}

// Engine evaluates computation graphs. It owns a scheduler and the left and
// right operand matrices reused by every step.
//
// Run is not safe for concurrent use: the operand matrices are reloaded
// between steps without locking.
type Engine struct {
	logger    *zap.Logger
	scheduler *scheduling.Scheduler
	left      *memory.SharedMatrix
	right     *memory.SharedMatrix
	latency   *performance.LatencyTracker
}

// New creates an engine with a running scheduler.
func New(config Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s, err := scheduling.New(scheduling.Config{
		Workers: config.Threads,
		Fatigue: config.Fatigue,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		logger:    logger.With(zap.String("component", "engine")),
		scheduler: s,
		left:      memory.NewSharedMatrix(),
		right:     memory.NewSharedMatrix(),
		latency:   performance.NewLatencyTracker(),
	}, nil
}

// Run reduces g until its root is a matrix and returns that matrix. The graph
// is modified in place. ctx is checked between steps; a running step always
// completes.
func (e *Engine) Run(ctx context.Context, g *computation.Graph) (result [][]float64, err error) {
	ctx, span := observability.NewSpan(ctx, "engine.run")
	defer func() { span.Finish(err) }()

	if g.Root() == computation.InvalidNode {
		return nil, errors.New(errors.ErrorTypeInvalidState, "graph has no root")
	}

	steps := 0
	for !g.IsReduced() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "evaluation cancelled")
		}

		done, err := e.step(ctx, g, steps)
		if err != nil {
			e.logger.Debug("step failed", zap.Int("step", steps), zap.Error(err))
			return nil, err
		}
		steps++
		if done {
			break
		}
	}
	span.SetAttribute("steps", steps)

	e.logger.Info("computation reduced", zap.Int("steps", steps))
	return g.Matrix(g.Root())
}

// step resolves one node and reports whether it was the root.
func (e *Engine) step(ctx context.Context, g *computation.Graph, n int) (done bool, err error) {
	g.AssociativeNesting()

	id, err := g.FindResolvable()
	if err != nil {
		return false, err
	}
	kind, err := g.Kind(id)
	if err != nil {
		return false, err
	}

	_, span := observability.NewSpan(ctx, "engine.step")
	span.SetAttribute("step", n)
	span.SetAttribute("operator", kind.String())
	timer := metrics.NewTimer(kind.String())
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.StepsResolved.WithLabelValues(kind.String(), status).Inc()
		elapsed := timer.Stop()
		metrics.StepDuration.WithLabelValues(timer.Name()).Observe(elapsed.Seconds())
		e.latency.Record(elapsed)
		span.Finish(err)
	}()

	if ce := e.logger.Check(zap.DebugLevel, "resolving node"); ce != nil {
		ce.Write(
			zap.Int("step", n),
			zap.Int("node", int(id)),
			zap.String("expression", g.Describe(id)),
		)
	}

	if err := e.load(g, id, kind); err != nil {
		return false, err
	}

	tasks, err := e.tasks(kind)
	if err != nil {
		return false, err
	}
	span.SetAttribute("tasks", len(tasks))
	metrics.StepTasks.WithLabelValues(kind.String()).Observe(float64(len(tasks)))

	if err := e.scheduler.SubmitAll(tasks); err != nil {
		return false, err
	}
	span.AddEvent("barrier", attribute.Int("tasks", len(tasks)))

	result, err := e.left.ReadRowMajor()
	if err != nil {
		return false, err
	}
	return g.Resolve(id, result)
}

// load validates the operands of id and loads them into the shared matrices.
func (e *Engine) load(g *computation.Graph, id computation.NodeID, kind computation.NodeType) error {
	children, err := g.Children(id)
	if err != nil {
		return err
	}

	if len(children) != kind.Arity() {
		errType := errors.ErrorTypeArityMismatch
		if kind.Arity() == 2 {
			errType = errors.ErrorTypeDimensionMismatch
		}
		return errors.Newf(errType, "%s expects %d operand(s), got %d", kind, kind.Arity(), len(children)).
			WithDetail("node", int(id))
	}

	leftData, err := g.Matrix(children[0])
	if err != nil {
		return err
	}
	if err := e.left.LoadRowMajor(leftData); err != nil {
		return err
	}
	if kind.Arity() == 1 {
		return nil
	}

	rightData, err := g.Matrix(children[1])
	if err != nil {
		return err
	}
	if err := e.right.LoadRowMajor(rightData); err != nil {
		return err
	}
	return e.checkShapes(kind)
}

func (e *Engine) checkShapes(kind computation.NodeType) error {
	lr, lc := e.left.Dims()
	rr, rc := e.right.Dims()

	switch kind {
	case computation.NodeAdd:
		if lr != rr || lc != rc {
			return errors.Newf(errors.ErrorTypeDimensionMismatch,
				"cannot add %dx%d and %dx%d matrices", lr, lc, rr, rc)
		}
	case computation.NodeMultiply:
		if lc != rr {
			return errors.Newf(errors.ErrorTypeDimensionMismatch,
				"cannot multiply %dx%d by %dx%d matrix", lr, lc, rr, rc)
		}
	}
	return nil
}

// tasks builds one task per row of the left matrix.
func (e *Engine) tasks(kind computation.NodeType) ([]scheduling.Task, error) {
	rows := e.left.Len()
	tasks := make([]scheduling.Task, 0, rows)

	for i := 0; i < rows; i++ {
		row, err := e.left.Get(i)
		if err != nil {
			return nil, err
		}

		switch kind {
		case computation.NodeAdd:
			other, err := e.right.Get(i)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, func() error { return row.Add(other) })
		case computation.NodeMultiply:
			right := e.right
			tasks = append(tasks, func() error { return row.VecMatMul(right) })
		case computation.NodeNegate:
			tasks = append(tasks, func() error {
				row.Negate()
				return nil
			})
		case computation.NodeTranspose:
			// every row becomes a column; ReadRowMajor sees the transposed shape
			tasks = append(tasks, func() error {
				row.Transpose()
				return nil
			})
		default:
			return nil, errors.Newf(errors.ErrorTypeInvalidState, "unsupported operator %s", kind)
		}
	}
	return tasks, nil
}

// WorkerReport returns one line per scheduler worker.
func (e *Engine) WorkerReport() string {
	return e.scheduler.WorkerReport()
}

// Snapshot returns the current per-worker statistics.
func (e *Engine) Snapshot() []scheduling.WorkerStats {
	return e.scheduler.Snapshot()
}

// StepLatencies returns the p50, p95 and p99 step durations seen so far.
func (e *Engine) StepLatencies() (p50, p95, p99 time.Duration) {
	return e.latency.GetPercentiles()
}

// Steps returns the number of steps attempted over the engine's lifetime.
func (e *Engine) Steps() int64 {
	return e.latency.Count()
}

// Close stops the scheduler. The engine cannot be used afterwards.
func (e *Engine) Close() {
	e.scheduler.Shutdown()
}
