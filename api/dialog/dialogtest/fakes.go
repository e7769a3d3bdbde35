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

package dialogtest

import (
	"net"
	"sync"
	"time"

	"go.uber.org/dialogmux/api/dialog"
)

// StartedDialog records a StartDialog call received by a FakeConnectionHandler.
type StartedDialog struct {
	Type    dialog.Type
	Handler dialog.Handler
	Timeout time.Duration
}

// FakeConnectionHandler is a connection handler that records the dialogs
// started on it and notifies its owner exactly once when shut down.
type FakeConnectionHandler struct {
	local, remote net.Addr

	mu       sync.Mutex
	owner    dialog.Owner
	dialogs  []StartedDialog
	shutdown bool
	force    bool
	detail   error
	nextID   uint64
}

var _ dialog.ConnectionHandler = (*FakeConnectionHandler)(nil)

// NewFakeConnectionHandler returns a handler between the given addresses
// that reports its shutdown to owner. owner may be set later with SetOwner.
func NewFakeConnectionHandler(local, remote net.Addr, owner dialog.Owner) *FakeConnectionHandler {
	return &FakeConnectionHandler{local: local, remote: remote, owner: owner}
}

// SetOwner replaces the owner notified on shutdown.
func (h *FakeConnectionHandler) SetOwner(owner dialog.Owner) {
	h.mu.Lock()
	h.owner = owner
	h.mu.Unlock()
}

// StartDialog records the dialog and starts it immediately, or fails it if
// the handler was shut down.
func (h *FakeConnectionHandler) StartDialog(t dialog.Type, dh dialog.Handler, timeout time.Duration) {
	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		dh.OnFailure(errHandlerShutdown)
		return
	}
	h.nextID++
	ctx := dialog.Context{ID: h.nextID, Type: t, Local: h.local, Remote: h.remote}
	h.dialogs = append(h.dialogs, StartedDialog{Type: t, Handler: dh, Timeout: timeout})
	h.mu.Unlock()

	dh.OnStart(ctx)
}

// Shutdown marks the handler closed and notifies the owner on first call.
func (h *FakeConnectionHandler) Shutdown(detail error, force bool) {
	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		return
	}
	h.shutdown = true
	h.detail = detail
	h.force = force
	owner := h.owner
	h.mu.Unlock()

	if owner != nil {
		owner.OnHandlerShutdown(h)
	}
}

// LocalAddr returns the local address.
func (h *FakeConnectionHandler) LocalAddr() net.Addr { return h.local }

// RemoteAddr returns the remote address.
func (h *FakeConnectionHandler) RemoteAddr() net.Addr { return h.remote }

// Dialogs returns the dialogs started so far.
func (h *FakeConnectionHandler) Dialogs() []StartedDialog {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]StartedDialog(nil), h.dialogs...)
}

// IsShutdown reports whether Shutdown was called, and with which force.
func (h *FakeConnectionHandler) IsShutdown() (shutdown bool, force bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdown, h.force
}

// RecordingHandler is a dialog.Handler that records its outcome.
type RecordingHandler struct {
	mu       sync.Mutex
	started  []dialog.Context
	failures []error
	done     chan struct{}
	once     sync.Once
}

var _ dialog.Handler = (*RecordingHandler)(nil)

// NewRecordingHandler returns an empty RecordingHandler.
func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{done: make(chan struct{})}
}

// OnStart records ctx.
func (r *RecordingHandler) OnStart(ctx dialog.Context) {
	r.mu.Lock()
	r.started = append(r.started, ctx)
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

// OnFailure records err.
func (r *RecordingHandler) OnFailure(err error) {
	r.mu.Lock()
	r.failures = append(r.failures, err)
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

// Done is closed once the handler saw its first outcome.
func (r *RecordingHandler) Done() <-chan struct{} {
	return r.done
}

// Started returns the contexts passed to OnStart.
func (r *RecordingHandler) Started() []dialog.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dialog.Context(nil), r.started...)
}

// Failures returns the errors passed to OnFailure.
func (r *RecordingHandler) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.failures...)
}

type handlerShutdownError struct{}

func (handlerShutdownError) Error() string { return "connection handler is shut down" }

var errHandlerShutdown error = handlerShutdownError{}
