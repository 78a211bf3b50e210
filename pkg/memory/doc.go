// Package memory implements the engine's concurrent matrix storage.
//
// A SharedMatrix is an ordered sequence of SharedVectors that share one
// Orientation. Each SharedVector owns its payload and a sync.RWMutex, so row
// tasks running on different workers can mutate different rows of the same
// matrix at the same time while reads of a whole matrix stay consistent.
//
// # Locking discipline
//
//   - Single-vector operations (Get, Negate, Transpose) take the vector's own
//     lock: shared for reads, exclusive for writes.
//   - Add reads the other operand and writes the receiver. It always takes the
//     read lock on the other operand first, then the write lock on the receiver.
//   - Dot takes read locks on the receiver, then on the other operand.
//   - Whole-matrix reads (ReadRowMajor, and therefore VecMatMul) take read locks
//     on every vector of the matrix together and release them together.
//
// Reloading a SharedMatrix (LoadRowMajor, LoadColumnMajor) is not locked; the
// caller must guarantee that no task is reading or writing the matrix while it
// is reloaded. The engine does this by reloading only between barriers.
package memory
