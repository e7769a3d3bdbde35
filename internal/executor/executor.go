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

// Package executor runs best-effort background work: connection teardown,
// address resolution and periodic scans. Tasks submitted after Stop are
// rejected rather than queued.
package executor

import (
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Executor runs each submitted task on its own goroutine and waits for all
// of them on Stop. A panicking task does not take the process down; the
// first panic is logged when the executor stops.
type Executor struct {
	logger *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      conc.WaitGroup
	stop    chan struct{}
}

// New returns a running executor.
func New(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Go runs f in the background. It returns false, without running f, if the
// executor has been stopped.
func (e *Executor) Go(f func()) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return false
	}
	e.wg.Go(f)
	return true
}

// Stopping returns a channel that is closed when Stop is called. Long
// running tasks select on it to exit.
func (e *Executor) Stopping() <-chan struct{} {
	return e.stop
}

// Stop rejects further tasks and waits for running ones to return.
// Subsequent calls are no-ops.
func (e *Executor) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stop)
	e.mu.Unlock()

	if r := e.wg.WaitAndRecover(); r != nil {
		e.logger.Error("background task panicked", zap.String("panic", r.String()))
	}
}
