// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package bufslice

import (
	"fmt"
	"sync"
)

// Buffer is a fixed-size byte array. Buffers taken from a Pool must be
// given back with Deallocate exactly once; heap buffers have no pool and
// are left to the garbage collector.
type Buffer struct {
	b        []byte
	pool     *Pool
	released bool
}

// Bytes returns the whole backing array.
func (b *Buffer) Bytes() []byte {
	if b.released {
		panic("bufslice: use-after-free of pooled buffer")
	}
	return b.b
}

// Pooled reports whether the buffer belongs to a Pool.
func (b *Buffer) Pooled() bool { return b.pool != nil }

// Pool is a bounded free list of same-sized buffers. It allocates lazily,
// up to capacity / bufferSize buffers, and never shrinks.
type Pool struct {
	name       string
	bufferSize int
	max        int64
	tracker    *LeakTracker

	mu        sync.Mutex
	free      []*Buffer
	allocated int64
	inUse     int64
}

// PoolStats is a snapshot of a Pool.
type PoolStats struct {
	Name       string
	BufferSize int
	Max        int64
	Allocated  int64
	InUse      int64
}

// NewPool builds a pool of buffers of bufferSize bytes holding at most
// capacity bytes. Sampled allocations are reported to tracker, which may be
// nil.
func NewPool(name string, bufferSize int, capacity int64, tracker *LeakTracker) *Pool {
	if bufferSize <= 0 {
		panic(fmt.Sprintf("bufslice: pool %q needs a positive buffer size, got %d", name, bufferSize))
	}
	return &Pool{
		name:       name,
		bufferSize: bufferSize,
		max:        capacity / int64(bufferSize),
		tracker:    tracker,
	}
}

// Name returns the category name of the pool.
func (p *Pool) Name() string { return p.name }

// BufferSize returns the size of each buffer.
func (p *Pool) BufferSize() int { return p.bufferSize }

// AllocPooled returns a free buffer, allocating one if the pool is under
// capacity. It returns nil once the pool is exhausted; callers fall back to
// AllocHeap.
func (p *Pool) AllocPooled() *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		b.released = false
		p.inUse++
		return b
	}
	if p.allocated >= p.max {
		return nil
	}
	p.allocated++
	p.inUse++
	return &Buffer{b: make([]byte, p.bufferSize), pool: p}
}

// AllocHeap returns an unpooled buffer of the pool's buffer size.
func (p *Pool) AllocHeap() *Buffer {
	return &Buffer{b: make([]byte, p.bufferSize)}
}

// Deallocate clears b and returns it to the free list.
func (p *Pool) Deallocate(b *Buffer) {
	if b.pool != p {
		panic(fmt.Sprintf("bufslice: buffer does not belong to pool %q", p.name))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if b.released {
		panic(fmt.Sprintf("bufslice: buffer returned twice to pool %q", p.name))
	}
	clear(b.b)
	b.released = true
	p.inUse--
	p.free = append(p.free, b)
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Name:       p.name,
		BufferSize: p.bufferSize,
		Max:        p.max,
		Allocated:  p.allocated,
		InUse:      p.inUse,
	}
}
