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

package main

import (
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/dialogmux/api/dialog"
	"go.uber.org/dialogmux/dialogerrors"
	"go.uber.org/dialogmux/permit"
)

// simConn is a connection handler whose dialogs hold a permit for a fixed
// time and then complete.
type simConn struct {
	local, remote net.Addr
	owner         dialog.Owner
	handle        *permit.Handle
	dialogTime    time.Duration
	maxActive     int

	completed atomic.Int64
	busy      atomic.Duration

	mu           sync.Mutex
	pending      []dialog.Handler
	active       int
	waiting      bool
	closed       bool
	handleClosed bool
	nextID       uint64
	drained      chan struct{}
}

var _ dialog.ConnectionHandler = (*simConn)(nil)

func newSimConn(m *permit.Manager, id string, local, remote net.Addr, owner dialog.Owner, dialogTime time.Duration, maxActive int) *simConn {
	c := &simConn{
		local:      local,
		remote:     remote,
		owner:      owner,
		dialogTime: dialogTime,
		maxActive:  max(maxActive, 1),
		drained:    make(chan struct{}),
	}
	c.handle = m.CreateHandle(id, c.granted)
	return c
}

func (c *simConn) LocalAddr() net.Addr  { return c.local }
func (c *simConn) RemoteAddr() net.Addr { return c.remote }

func (c *simConn) StartDialog(_ dialog.Type, h dialog.Handler, _ time.Duration) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		h.OnFailure(dialogerrors.ShutdownErrorf("connection to %v is shut down", c.remote))
		return
	}
	c.pending = append(c.pending, h)
	c.mu.Unlock()
	c.pump()
}

// pump reserves permits while dialogs are pending and the connection has
// room for them. At most one reservation is outstanding at a time.
func (c *simConn) pump() {
	for {
		c.mu.Lock()
		if c.closed || c.waiting || len(c.pending) == 0 || c.active >= c.maxActive {
			c.mu.Unlock()
			return
		}
		c.waiting = true
		c.mu.Unlock()

		if !c.handle.Reserve() {
			return
		}
		c.granted()
	}
}

// granted starts the next pending dialog with a permit that was just
// granted to the handle.
func (c *simConn) granted() {
	c.mu.Lock()
	c.waiting = false
	c.active++
	if c.closed || len(c.pending) == 0 {
		c.mu.Unlock()
		c.finish()
		return
	}
	h := c.pending[0]
	c.pending = c.pending[1:]
	c.nextID++
	ctx := dialog.Context{ID: c.nextID, Type: "sim", Local: c.local, Remote: c.remote}
	c.mu.Unlock()

	h.OnStart(ctx)
	go c.run()
}

func (c *simConn) run() {
	start := time.Now()
	time.Sleep(c.dialogTime)
	c.busy.Add(time.Since(start))
	c.completed.Inc()
	c.finish()
}

// finish returns the permit of a dialog. The handle stays open while any
// dialog is active, so the permit is freed before the dialog stops
// counting as active.
func (c *simConn) finish() {
	c.handle.Free(1)

	c.mu.Lock()
	c.active--
	last := c.closeableLocked()
	c.mu.Unlock()

	if last {
		c.closeHandle()
		return
	}
	c.pump()
}

// closeableLocked reports whether the handle can be closed now and, if so,
// claims closing it. A handle with an outstanding reservation is closed
// once the reservation is granted.
func (c *simConn) closeableLocked() bool {
	if !c.closed || c.active > 0 || c.waiting || c.handleClosed {
		return false
	}
	c.handleClosed = true
	return true
}

func (c *simConn) closeHandle() {
	c.handle.Close()
	close(c.drained)
}

// Drained is closed once the connection has returned all of its permits.
func (c *simConn) Drained() <-chan struct{} { return c.drained }

func (c *simConn) Shutdown(detail error, _ bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	c.pending = nil
	closeNow := c.closeableLocked()
	c.mu.Unlock()

	if closeNow {
		c.closeHandle()
	}
	if detail == nil {
		detail = dialogerrors.ShutdownErrorf("connection to %v is shut down", c.remote)
	}
	for _, h := range pending {
		h.OnFailure(detail)
	}
	c.owner.OnHandlerShutdown(c)
}
