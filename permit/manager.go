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

	"github.com/eapache/queue"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type managerOptions struct {
	logger *zap.Logger
}

// Option customizes a Manager.
type Option func(*managerOptions)

// Logger sets the logger used by the Manager.
//
// Defaults to a no-op logger.
func Logger(logger *zap.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// Manager hands out dialog permits to handles.
//
// The available count is only ever changed with atomic operations. The
// wait queue has its own small lock which is never held while calling
// into handles or user code.
type Manager struct {
	logger *zap.Logger

	total     atomic.Int64
	available atomic.Int64

	queueMu sync.Mutex
	queue   *queue.Queue

	adjustMu      sync.Mutex
	pendingAdjust func()
}

// NewManager builds a Manager with total permits.
func NewManager(total int64, opts ...Option) *Manager {
	if total < 0 {
		panic(fmt.Sprintf("permit: negative number of permits %d", total))
	}
	options := managerOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}

	m := &Manager{
		logger: options.logger,
		queue:  queue.New(),
	}
	m.total.Store(total)
	m.available.Store(total)
	return m
}

// CreateHandle returns a new handle for one connection. notify is called,
// without any lock held, each time a permit is granted to the handle after
// it had to wait.
func (m *Manager) CreateHandle(id string, notify func()) *Handle {
	if notify == nil {
		notify = func() {}
	}
	return &Handle{id: id, notify: notify, m: m}
}

// Total returns the configured number of permits.
func (m *Manager) Total() int64 {
	return m.total.Load()
}

// Available returns the number of permits nobody holds. It is negative
// while a reduction of the total is still being absorbed.
func (m *Manager) Available() int64 {
	return m.available.Load()
}

// Waiting returns the number of handles waiting for a permit.
func (m *Manager) Waiting() int {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	return m.queue.Length()
}

// SetNumPermits changes the total number of permits and calls done once the
// change has taken effect.
//
// An increase takes effect immediately: the new permits go to waiting
// handles first. A decrease takes effect once enough permits were freed to
// absorb it; done is called from the Free call that completes it. A new
// call supersedes the pending done of a previous one.
func (m *Manager) SetNumPermits(n int64, done func()) {
	if n < 0 {
		panic(fmt.Sprintf("permit: negative number of permits %d", n))
	}

	m.adjustMu.Lock()
	delta := n - m.total.Swap(n)
	m.pendingAdjust = nil
	m.logger.Debug("adjusting dialog permits", zap.Int64("total", n), zap.Int64("delta", delta))

	if delta < 0 {
		if m.available.Add(delta) < 0 {
			m.pendingAdjust = done
			m.adjustMu.Unlock()
			return
		}
		m.adjustMu.Unlock()
		if done != nil {
			done()
		}
		return
	}

	m.pendingAdjust = done
	m.adjustMu.Unlock()

	m.release(delta)
	if m.available.Load() >= 0 {
		m.completeAdjust()
	}
}

func (m *Manager) completeAdjust() {
	m.adjustMu.Lock()
	done := m.pendingAdjust
	m.pendingAdjust = nil
	m.adjustMu.Unlock()

	if done != nil {
		m.logger.Debug("dialog permit adjustment complete", zap.Int64("total", m.total.Load()))
		done()
	}
}

// enqueue adds h to the wait queue unless it is already there.
func (m *Manager) enqueue(h *Handle) {
	if !h.queued.CompareAndSwap(false, true) {
		return
	}
	m.queueMu.Lock()
	m.queue.Add(h)
	m.queueMu.Unlock()
}

// dequeue removes up to n waiting handles, oldest first.
func (m *Manager) dequeue(n int64) []*Handle {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	var out []*Handle
	for int64(len(out)) < n && m.queue.Length() > 0 {
		h := m.queue.Remove().(*Handle)
		h.queued.Store(false)
		out = append(out, h)
	}
	return out
}

// withdraw removes h from the wait queue if it is there.
func (m *Manager) withdraw(h *Handle) {
	if !h.queued.Load() {
		return
	}

	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	for i, n := 0, m.queue.Length(); i < n; i++ {
		other := m.queue.Remove().(*Handle)
		if other == h {
			h.queued.Store(false)
			continue
		}
		m.queue.Add(other)
	}
}

// grantAll gives one permit to each handle and returns the handles that
// accepted it along with the number of permits nobody took.
func grantAll(handles []*Handle, n int64) (granted []*Handle, unused int64) {
	unused = n
	for _, h := range handles {
		if h.grant() {
			granted = append(granted, h)
			unused--
		}
	}
	return granted, unused
}

// drain hands available permits to waiting handles in FIFO order until
// either runs out. It reports whether self received one; self is not
// notified.
func (m *Manager) drain(self *Handle) bool {
	for {
		avail := m.available.Load()
		if avail <= 0 {
			return false
		}
		n := min(avail, int64(m.Waiting()))
		if n == 0 {
			return false
		}
		if !m.available.CompareAndSwap(avail, avail-n) {
			continue
		}

		granted, unused := grantAll(m.dequeue(n), n)
		if unused > 0 {
			m.release(unused)
		}

		gotSelf := false
		for _, h := range granted {
			if h == self {
				gotSelf = true
				continue
			}
			h.notify()
		}
		if gotSelf {
			return true
		}
		if self != nil && !self.queued.Load() {
			// Someone else dequeued self; they notify it.
			return false
		}
	}
}

// release returns n permits. A pending reduction is absorbed first, then
// waiting handles get one permit each and the rest goes back to the pool.
func (m *Manager) release(n int64) {
	n = m.absorb(n)
	if n == 0 {
		return
	}

	granted, unused := grantAll(m.dequeue(n), n)
	if unused > 0 {
		m.deposit(unused)
	}
	for _, h := range granted {
		h.notify()
	}
	if unused > 0 {
		// A handle may have queued after dequeue saw an empty queue but
		// before the permits reached the counter.
		m.drain(nil)
	}
}

// absorb applies up to n permits to a pending reduction and returns what
// is left.
func (m *Manager) absorb(n int64) int64 {
	for n > 0 {
		avail := m.available.Load()
		if avail >= 0 {
			break
		}
		fill := min(n, -avail)
		if !m.available.CompareAndSwap(avail, avail+fill) {
			continue
		}
		n -= fill
		if avail+fill == 0 {
			m.completeAdjust()
		}
	}
	return n
}

// deposit adds n permits to the counter. A reduction may have started
// since absorb ran; if these permits finish absorbing it, the adjustment
// completes here.
func (m *Manager) deposit(n int64) {
	for {
		avail := m.available.Load()
		if !m.available.CompareAndSwap(avail, avail+n) {
			continue
		}
		if avail < 0 && avail+n >= 0 {
			m.completeAdjust()
		}
		return
	}
}
