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
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/dialogmux/api/dialog"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/dialogmux/dialogerrors"
	"go.uber.org/zap"
)

// AcceptCallback is called with every endpoint accepted by a listener.
type AcceptCallback func(*ResponderEndpoint)

// Listener accepts connections for one listener configuration and throttles
// how many it keeps open.
//
// The active count and the accept registration are updated separately;
// they may briefly disagree and are reconciled on the next accept or
// removal.
type Listener struct {
	group   *Group
	config  dialogconfig.Listener
	logger  *zap.Logger
	channel AcceptChannel

	active    atomic.Int64
	maxActive atomic.Int64

	regMu         sync.Mutex
	acceptEnabled bool

	mu        sync.Mutex
	handlers  map[dialog.Type]dialog.HandlerFactory
	callbacks map[*ListenHandle]AcceptCallback
	accepted  map[*ResponderEndpoint]struct{}
}

var _ Acceptor = (*Listener)(nil)

func newListener(g *Group, cfg dialogconfig.Listener) *Listener {
	l := &Listener{
		group:         g,
		config:        cfg,
		logger:        g.logger.With(zap.String("listener", cfg.Address)),
		acceptEnabled: true,
		handlers:      make(map[dialog.Type]dialog.HandlerFactory),
		callbacks:     make(map[*ListenHandle]AcceptCallback),
		accepted:      make(map[*ResponderEndpoint]struct{}),
	}
	l.maxActive.Store(int64(cfg.Connection.Dialog.AcceptMaxActiveConnections))
	return l
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.channel.Addr() }

// Active returns the number of connections currently accepted.
func (l *Listener) Active() int64 { return l.active.Load() }

// HandlerFactory returns the factory registered for dialog type t.
func (l *Listener) HandlerFactory(t dialog.Type) (dialog.HandlerFactory, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.handlers[t]
	return f, ok
}

// Endpoints returns the endpoints currently accepted.
func (l *Listener) Endpoints() []*ResponderEndpoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*ResponderEndpoint, 0, len(l.accepted))
	for r := range l.accepted {
		out = append(out, r)
	}
	return out
}

// Accept registers a connection from remote.
func (l *Listener) Accept(remote net.Addr, build func(AcceptParams) dialog.ConnectionHandler) {
	g := l.group
	n := l.active.Inc()

	r := newResponderEndpoint(l, remote)
	r.handler = build(AcceptParams{
		Remote:   remote,
		Config:   l.config,
		Owner:    r,
		Handlers: l.HandlerFactory,
		Permits:  g.permits,
		Pools:    g.pools,
		Logger:   l.logger,
	})

	if max := l.maxActive.Load(); max > 0 && n > max {
		g.observer.acceptRejected()
		g.noisy.Info("closing connection over the active limit",
			zap.String("listener", l.config.Address), zap.Stringer("remote", remote), zap.Int64("max", max))
		r.Shutdown(dialogerrors.ShutdownErrorf("listener %q is at its limit of %d connections", l.config.Address, max), true)
		return
	}

	if !l.register(r) {
		return
	}
	l.updateAccept(false)

	for _, cb := range l.acceptCallbacks() {
		cb(r)
	}
}

func (l *Listener) register(r *ResponderEndpoint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	// The handler may have shut down while being built.
	if r.removed.Load() {
		return false
	}
	l.accepted[r] = struct{}{}
	r.registered = true
	if r.cached {
		l.group.responders.Store(r.key, r)
	}
	l.group.observer.accepted()
	return true
}

func (l *Listener) removeEndpoint(r *ResponderEndpoint) {
	l.mu.Lock()
	registered := r.registered
	delete(l.accepted, r)
	if r.cached {
		l.group.responders.Compute(r.key, func(old *ResponderEndpoint, loaded bool) (*ResponderEndpoint, bool) {
			return old, !loaded || old == r
		})
	}
	l.mu.Unlock()

	if registered {
		l.group.observer.inboundClosed()
	}
	l.active.Dec()
	l.updateAccept(true)
}

// updateAccept reconciles accept registration with the active count. If
// accepting had been withdrawn and is allowed again, a connection waiting
// in the backlog is taken first when tryPending is set.
func (l *Listener) updateAccept(tryPending bool) {
	if l.channel == nil {
		return
	}

	if tryPending && l.underLimit() {
		l.regMu.Lock()
		enabled := l.acceptEnabled
		l.regMu.Unlock()
		if !enabled && l.channel.AcceptPending() {
			return
		}
	}

	l.regMu.Lock()
	defer l.regMu.Unlock()
	if want := l.underLimit(); want != l.acceptEnabled {
		l.channel.SetAcceptEnabled(want)
		l.acceptEnabled = want
	}
}

func (l *Listener) underLimit() bool {
	max := l.maxActive.Load()
	return max == 0 || l.active.Load() < max
}

func (l *Listener) setMaxActive(n int) {
	l.maxActive.Store(int64(n))
	l.updateAccept(true)
}

func (l *Listener) acceptCallbacks() []AcceptCallback {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AcceptCallback, 0, len(l.callbacks))
	for _, cb := range l.callbacks {
		out = append(out, cb)
	}
	return out
}

// addType registers f for t. Called with the group lock held.
func (l *Listener) addType(t dialog.Type, f dialog.HandlerFactory) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.handlers[t]; ok {
		return duplicateTypeError{Type: t, Address: l.config.Address}
	}
	l.handlers[t] = f
	return nil
}

// addCallback registers cb for h. Called with the group lock held.
func (l *Listener) addCallback(h *ListenHandle, cb AcceptCallback) {
	l.mu.Lock()
	l.callbacks[h] = cb
	l.mu.Unlock()
}

// unregister drops the registration of h and reports whether the
// listener has none left. Called with the group lock held.
func (l *Listener) unregister(h *ListenHandle) (empty bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h.callback != nil {
		delete(l.callbacks, h)
	} else {
		delete(l.handlers, h.dialogType)
	}
	return len(l.handlers) == 0 && len(l.callbacks) == 0
}

// close stops accepting and shuts down every accepted endpoint.
func (l *Listener) close(force bool) error {
	err := l.channel.Close()
	for _, r := range l.Endpoints() {
		r.Shutdown(dialogerrors.ShutdownErrorf("listener %q is shut down", l.config.Address), force)
	}
	l.logger.Debug("listener closed")
	return err
}

// ListenHandle is one registration on a listener: a dialog type or an
// accept callback. The listener closes when its last handle is shut down.
type ListenHandle struct {
	listener   *Listener
	dialogType dialog.Type
	callback   AcceptCallback
	closed     atomic.Bool
}

// Addr returns the address the listener is bound to.
func (h *ListenHandle) Addr() net.Addr { return h.listener.Addr() }

// Listener returns the listener the handle is registered with.
func (h *ListenHandle) Listener() *Listener { return h.listener }

// SetAcceptMaxActiveConnections changes how many connections the listener
// keeps open at once. Zero means unlimited. Accepting is re-evaluated
// immediately; connections already open are not closed.
func (h *ListenHandle) SetAcceptMaxActiveConnections(n int) {
	h.listener.setMaxActive(n)
}

// Shutdown removes the registration. If it was the last one, the listener
// stops accepting and its endpoints are shut down.
func (h *ListenHandle) Shutdown(force bool) error {
	if !h.closed.CompareAndSwap(false, true) {
		return ErrListenHandleClosed
	}
	return h.listener.group.unregister(h, force)
}
