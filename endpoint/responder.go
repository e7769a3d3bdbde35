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

package endpoint

import (
	"net"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/dialogmux/api/dialog"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/dialogmux/dialogerrors"
)

// responderKey identifies a responder endpoint within a group.
type responderKey struct {
	remote string
	config dialogconfig.Listener
}

// cacheableAddr reports whether remote identifies a peer stably enough to
// deduplicate endpoints by it.
func cacheableAddr(remote net.Addr) bool {
	switch remote.(type) {
	case *net.TCPAddr, *net.UDPAddr, *net.IPAddr:
		return true
	default:
		return false
	}
}

// ResponderEndpoint is the inbound side of an accepted connection.
type ResponderEndpoint struct {
	listener *Listener
	remote   net.Addr
	key      responderKey
	cached   bool

	// handler is set by the accept path before the endpoint is published.
	handler dialog.ConnectionHandler

	registered bool // guarded by listener.mu
	removed    atomic.Bool
}

var (
	_ dialog.Endpoint = (*ResponderEndpoint)(nil)
	_ dialog.Owner    = (*ResponderEndpoint)(nil)
)

func newResponderEndpoint(l *Listener, remote net.Addr) *ResponderEndpoint {
	r := &ResponderEndpoint{listener: l, remote: remote}
	if remote != nil && cacheableAddr(remote) {
		r.key = responderKey{remote: remote.String(), config: l.config}
		r.cached = true
	}
	return r
}

// Remote returns the address of the peer.
func (r *ResponderEndpoint) Remote() net.Addr { return r.remote }

// Handler returns the connection handler of the endpoint.
func (r *ResponderEndpoint) Handler() dialog.ConnectionHandler { return r.handler }

// StartDialog starts a dialog of type t towards the peer.
func (r *ResponderEndpoint) StartDialog(t dialog.Type, h dialog.Handler, timeout time.Duration) {
	if r.handler == nil || r.removed.Load() {
		h.OnFailure(dialogerrors.NotEstablishedErrorf("no connection from %v", r.remote))
		return
	}
	r.handler.StartDialog(t, h, timeout)
}

// Shutdown removes the endpoint and schedules the shutdown of its
// connection handler.
func (r *ResponderEndpoint) Shutdown(detail error, force bool) {
	if !r.remove() {
		return
	}
	if r.handler != nil {
		r.listener.group.shutdownHandler(r.handler, detail, force)
	}
}

// OnHandlerShutdown is called by the connection handler when it shuts
// down.
func (r *ResponderEndpoint) OnHandlerShutdown(dialog.ConnectionHandler) {
	r.remove()
}

// remove detaches the endpoint from its listener and group. It reports
// whether this call did it.
func (r *ResponderEndpoint) remove() bool {
	if !r.removed.CompareAndSwap(false, true) {
		return false
	}
	r.listener.removeEndpoint(r)
	return true
}

// nullEndpoint is returned for lookups of unknown responders.
type nullEndpoint struct {
	remote net.Addr
}

var _ dialog.Endpoint = nullEndpoint{}

func (n nullEndpoint) StartDialog(_ dialog.Type, h dialog.Handler, _ time.Duration) {
	h.OnFailure(dialogerrors.NotEstablishedErrorf("no connection from %v", n.remote))
}

func (nullEndpoint) Shutdown(error, bool) {}
