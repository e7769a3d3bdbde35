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

import "go.uber.org/atomic"

// refCounter is implemented by pointers to the reference count types a
// Slice may embed.
type refCounter[C any] interface {
	*C

	load() int64
	add(delta int64) int64
	init(n int64)
}

// Plain is a reference count for slices used by a single goroutine.
type Plain struct{ n int64 }

func (c *Plain) load() int64 { return c.n }

func (c *Plain) add(delta int64) int64 {
	c.n += delta
	return c.n
}

func (c *Plain) init(n int64) { c.n = n }

// Atomic is a reference count for slices shared between goroutines.
type Atomic struct{ n atomic.Int64 }

func (c *Atomic) load() int64 { return c.n.Load() }

func (c *Atomic) add(delta int64) int64 { return c.n.Add(delta) }

func (c *Atomic) init(n int64) { c.n.Store(n) }
