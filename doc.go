// Package lae is a parallel linear algebra engine.
//
// lae reads a tree of matrix operations from a JSON document and reduces it
// one operator at a time. Every step loads its operands into shared matrices
// guarded by per-row read/write locks, splits the work into one task per row
// and hands the tasks to a pool of workers. The pool always gives the next
// task to the least fatigued idle worker, where a worker's fatigue grows with
// the time it has spent busy.
//
// # Layout
//
//   - pkg/memory: SharedVector and SharedMatrix with their row kernels
//   - pkg/scheduling: the fatigue-ordered worker pool and its barrier
//   - pkg/computation: the expression graph with associative nesting
//   - internal/engine: the step loop tying the three together
//   - pkg/parser, pkg/output: input documents and result artifacts
//   - cmd/lae: the command line
//
// # Quick Start
//
//	lae 4 input.json output.json
//
// with input.json
//
//	{"operator": "*", "operands": [[[1, 2], [3, 4]], [[5, 6], [7, 8]]]}
//
// writes {"result": [[19, 22], [43, 50]]} to output.json.
//
// # Observability
//
// Logging uses go.uber.org/zap, metrics are Prometheus collectors served with
// --metrics-addr, and --tracing exports OpenTelemetry spans for every run and
// step.
package lae
