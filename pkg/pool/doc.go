// Package pool implements type-safe object pooling on top of sync.Pool.
//
// The engine's hot path is the row-by-matrix kernel: every Multiply step
// replaces each left row with a freshly computed product row. RowPool keeps
// those float64 buffers in size buckets so that the buffer a row gives up is
// reused by the next product of a similar width.
//
// Usage:
//
//	row := pool.GetRow(cols) // zeroed, len == cols
//	... fill row ...
//	pool.PutRow(old)         // old must no longer be referenced
//
// Pool[T] is the generic building block and can be used for any other
// reusable object:
//
//	p := pool.New(
//	    func() *bytes.Buffer { return new(bytes.Buffer) },
//	    func(b *bytes.Buffer) { b.Reset() },
//	)
//	buf := p.Get()
//	defer p.Put(buf)
package pool
