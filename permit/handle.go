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

package permit

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Handle is one connection's claim on the permits of a Manager.
type Handle struct {
	id     string
	notify func()
	m      *Manager

	queued atomic.Bool

	mu     sync.Mutex
	held   int64
	closed bool
}

// ID returns the identifier the handle was created with.
func (h *Handle) ID() string { return h.id }

// Held returns the number of permits the handle holds.
func (h *Handle) Held() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.held
}

// Reserve asks for one permit. It returns true if the permit was granted
// right away. Otherwise the handle waits in line (at most once, however
// many times Reserve is called) and is notified when a permit is granted.
func (h *Handle) Reserve() bool {
	h.mustBeOpen("Reserve")
	h.m.enqueue(h)
	return h.m.drain(h)
}

// Free returns n permits held by the handle.
func (h *Handle) Free(n int64) {
	if n < 0 {
		panic(fmt.Sprintf("permit: cannot free a negative number of permits %d", n))
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		panic(fmt.Sprintf("permit: Free called on closed handle %q", h.id))
	}
	if n > h.held {
		held := h.held
		h.mu.Unlock()
		panic(fmt.Sprintf("permit: handle %q freed %d permits but holds %d", h.id, n, held))
	}
	h.held -= n
	h.mu.Unlock()

	h.m.release(n)
}

// Close withdraws the handle from the wait queue and frees every permit
// it holds. Closing a handle twice panics.
func (h *Handle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		panic(fmt.Sprintf("permit: handle %q closed twice", h.id))
	}
	h.closed = true
	held := h.held
	h.held = 0
	h.mu.Unlock()

	h.m.withdraw(h)
	if held > 0 {
		h.m.logger.Debug("closed handle returned permits", zap.String("handle", h.id), zap.Int64("permits", held))
		h.m.release(held)
	}
}

// grant gives the handle one permit unless it was closed.
func (h *Handle) grant() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.held++
	return true
}

func (h *Handle) mustBeOpen(op string) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		panic(fmt.Sprintf("permit: %s called on closed handle %q", op, h.id))
	}
}
