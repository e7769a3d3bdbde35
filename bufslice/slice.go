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

	"go.uber.org/atomic"
)

var _sliceIDs atomic.Uint64

// Slice is a reference-counted window [pos, limit) over a Buffer.
//
// A new slice holds one reference owned by its creator. Forking adds one
// reference to the forking slice on behalf of the child; the child releases
// it when its own count drops to zero.
type Slice[C any, PC refCounter[C]] struct {
	refs C

	id     uint64
	buf    *Buffer
	pos    int
	limit  int
	parent *Slice[C, PC]
	trace  *trace
}

// InboundSlice is a Slice for the single-goroutine read path.
type InboundSlice = Slice[Plain, *Plain]

// OutboundSlice is a Slice that may be shared by several goroutines.
type OutboundSlice = Slice[Atomic, *Atomic]

// NewInboundSlice returns a root slice over a buffer from p, or over a heap
// buffer when p is exhausted.
func NewInboundSlice(p *Pool) *InboundSlice {
	return newRoot[Plain](p)
}

// NewOutboundSlice returns a root slice over a buffer from p, or over a heap
// buffer when p is exhausted.
func NewOutboundSlice(p *Pool) *OutboundSlice {
	return newRoot[Atomic](p)
}

func newRoot[C any, PC refCounter[C]](p *Pool) *Slice[C, PC] {
	buf := p.AllocPooled()
	if buf == nil {
		buf = p.AllocHeap()
	}
	s := &Slice[C, PC]{
		id:    _sliceIDs.Inc(),
		buf:   buf,
		limit: len(buf.b),
	}
	PC(&s.refs).init(1)
	s.trace = p.tracker.track(p.name, s.id, len(buf.b))
	return s
}

// ID identifies the slice in leak reports.
func (s *Slice[C, PC]) ID() uint64 { return s.id }

// Bytes returns the bytes in the slice's window.
func (s *Slice[C, PC]) Bytes() []byte {
	s.mustBeLive("Bytes")
	return s.buf.b[s.pos:s.limit]
}

// Len returns the length of the slice's window.
func (s *Slice[C, PC]) Len() int { return s.limit - s.pos }

// Refs returns the current reference count.
func (s *Slice[C, PC]) Refs() int64 { return PC(&s.refs).load() }

// Pooled reports whether the slice's buffer will return to a pool.
func (s *Slice[C, PC]) Pooled() bool { return s.buf.Pooled() }

// Parent returns the slice this one was forked from, or nil for a root.
func (s *Slice[C, PC]) Parent() *Slice[C, PC] { return s.parent }

// ForkAndAdvance returns a child over the first n bytes of the window and
// moves the window's start past them.
func (s *Slice[C, PC]) ForkAndAdvance(n int) *Slice[C, PC] {
	s.checkFork("ForkAndAdvance", n)
	child := s.fork(s.pos, s.pos+n)
	s.pos += n
	s.trace.record(eventForkAdvance, child.id, s.id, n, 2)
	return child
}

// ForkBackwards returns a child over the last n bytes of the window and
// moves the window's end before them.
func (s *Slice[C, PC]) ForkBackwards(n int) *Slice[C, PC] {
	s.checkFork("ForkBackwards", n)
	child := s.fork(s.limit-n, s.limit)
	s.limit -= n
	s.trace.record(eventForkBackwards, child.id, s.id, n, 2)
	return child
}

func (s *Slice[C, PC]) fork(pos, limit int) *Slice[C, PC] {
	PC(&s.refs).add(1)
	child := &Slice[C, PC]{
		id:     _sliceIDs.Inc(),
		buf:    s.buf,
		pos:    pos,
		limit:  limit,
		parent: s,
		trace:  s.trace,
	}
	PC(&child.refs).init(1)
	return child
}

// Retain adds a reference to the slice. Each Retain must be matched by a
// MarkFree.
func (s *Slice[C, PC]) Retain() {
	s.mustBeLive("Retain")
	PC(&s.refs).add(1)
	s.trace.record(eventRetain, s.id, 0, s.Len(), 1)
}

// MarkFree drops one reference. When none remain the slice releases its
// parent, or returns its buffer to the pool if it is a root.
func (s *Slice[C, PC]) MarkFree() {
	n := PC(&s.refs).add(-1)
	if n < 0 {
		panic(fmt.Sprintf("bufslice: slice %d freed more often than referenced", s.id))
	}
	s.trace.record(eventFree, s.id, 0, s.Len(), -1)
	if n > 0 {
		return
	}

	if s.parent != nil {
		s.parent.MarkFree()
		return
	}
	if s.buf.Pooled() {
		s.buf.pool.Deallocate(s.buf)
	}
}

func (s *Slice[C, PC]) checkFork(op string, n int) {
	s.mustBeLive(op)
	if n < 0 || n > s.Len() {
		panic(fmt.Sprintf("bufslice: %s(%d) on slice %d with %d bytes left", op, n, s.id, s.Len()))
	}
}

func (s *Slice[C, PC]) mustBeLive(op string) {
	if PC(&s.refs).load() <= 0 {
		panic(fmt.Sprintf("bufslice: %s on freed slice %d", op, s.id))
	}
}
