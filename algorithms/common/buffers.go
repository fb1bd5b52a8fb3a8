package common

import (
	"sync"
)

// BufferPool hands out float64 scratch buffers for back-to-back analyses.
// Every buffer is zeroed on Get, so no samples from a previous file can leak
// into the next one even if the caller only writes part of it.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// Get returns a zeroed buffer of length n.
func (bp *BufferPool) Get(n int) []float64 {
	if v, ok := bp.pool.Get().(*[]float64); ok && cap(*v) >= n {
		full := (*v)[:cap(*v)]
		clear(full)
		return full[:n]
	}
	return make([]float64, n)
}

// Put returns buf to the pool. The caller must not use buf afterwards.
func (bp *BufferPool) Put(buf []float64) {
	if cap(buf) == 0 {
		return
	}
	bp.pool.Put(&buf)
}
