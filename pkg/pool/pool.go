package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and an optional reset hook.
// The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		gets      int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The reset function, if any, runs before an object is returned to the pool.
//
// Example:
//
//	p := New(
//	    func() []float64 { return make([]float64, 64) },
//	    func(b []float64) { clear(b) },
//	)
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   new,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return new()
	}
	return p
}

// Get retrieves an object from the pool, creating one if the pool is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	obj := p.pool.Get().(T)
	atomic.AddInt64(&p.stats.gets, 1)
	return obj
}

// Put returns an object to the pool for reuse.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns the number of objects created by the pool, the number
// currently checked out, and the number of Get calls served.
func (p *Pool[T]) Stats() (allocated, inUse, gets int64) {
	return atomic.LoadInt64(&p.stats.allocated),
		atomic.LoadInt64(&p.stats.inUse),
		atomic.LoadInt64(&p.stats.gets)
}

// RowPool manages float64 row buffers with size-based buckets.
// Row kernels that replace a vector payload draw the new buffer from here
// and hand the replaced one back.
type RowPool struct {
	pools []*Pool[[]float64]
	sizes []int
}

// NewRowPool creates a row pool with power-of-4 buckets from 16 to 65536
// elements. Larger rows are allocated directly and never pooled.
func NewRowPool() *RowPool {
	sizes := []int{16, 64, 256, 1024, 4096, 16384, 65536}

	pools := make([]*Pool[[]float64], len(sizes))
	for i, size := range sizes {
		size := size
		pools[i] = New(
			func() []float64 {
				return make([]float64, size)
			},
			nil,
		)
	}

	return &RowPool{
		pools: pools,
		sizes: sizes,
	}
}

// Get returns a zeroed row of exactly n elements. Its capacity may be larger.
func (p *RowPool) Get(n int) []float64 {
	for i, s := range p.sizes {
		if s >= n {
			buf := p.pools[i].Get()[:n]
			clear(buf)
			return buf
		}
	}

	return make([]float64, n)
}

// Put returns a row to the bucket matching its capacity.
// Rows that don't match a bucket are left to the garbage collector.
func (p *RowPool) Put(buf []float64) {
	size := cap(buf)

	for i, s := range p.sizes {
		if s == size {
			p.pools[i].Put(buf[:size])
			return
		}
	}
}

var rows = NewRowPool()

// GetRow returns a zeroed row of n elements from the global row pool.
func GetRow(n int) []float64 {
	return rows.Get(n)
}

// PutRow returns a row to the global row pool. The caller must not keep
// any reference to buf afterwards.
func PutRow(buf []float64) {
	rows.Put(buf)
}
