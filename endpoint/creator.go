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
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/dialogmux/api/dialog"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/dialogmux/dialogerrors"
	"go.uber.org/dialogmux/internal/promise"
	"go.uber.org/zap"
)

// creatorKey identifies a creator endpoint within a group.
type creatorKey struct {
	remote string
	local  string
	config dialogconfig.Connection
}

type readyHandler struct {
	h dialog.ConnectionHandler
}

// CreatorEndpoint is the outbound side of a logical connection to a remote
// address. It connects on first use and forwards dialogs to the resulting
// connection handler.
type CreatorEndpoint struct {
	group  *Group
	name   string
	key    creatorKey
	logger *zap.Logger

	// ready is set while the endpoint is in StateReady so that dialogs can
	// be started without taking mu.
	ready atomic.Pointer[readyHandler]

	mu            sync.Mutex
	state         State
	handler       dialog.ConnectionHandler
	resolution    *promise.Promise[dialog.ConnectionHandler]
	cancelConnect context.CancelFunc
}

var (
	_ dialog.Endpoint = (*CreatorEndpoint)(nil)
	_ dialog.Owner    = (*CreatorEndpoint)(nil)
)

func newCreatorEndpoint(g *Group, name string, key creatorKey) *CreatorEndpoint {
	return &CreatorEndpoint{
		group: g,
		name:  name,
		key:   key,
		logger: g.logger.With(
			zap.String("endpoint", name),
			zap.String("remote", key.remote),
			zap.String("local", key.local),
		),
	}
}

// Remote returns the remote address of the endpoint.
func (e *CreatorEndpoint) Remote() string { return e.key.remote }

// Local returns the local address of the endpoint, if any.
func (e *CreatorEndpoint) Local() string { return e.key.local }

// Config returns the connection configuration of the endpoint.
func (e *CreatorEndpoint) Config() dialogconfig.Connection { return e.key.config }

// State returns the current lifecycle state.
func (e *CreatorEndpoint) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *CreatorEndpoint) String() string {
	return fmt.Sprintf("%s(%s)", e.name, e.key.remote)
}

// StartDialog starts a dialog of type t on the endpoint's connection,
// connecting first if needed. The outcome is reported to h.
func (e *CreatorEndpoint) StartDialog(t dialog.Type, h dialog.Handler, timeout time.Duration) {
	if r := e.ready.Load(); r != nil {
		r.h.StartDialog(t, h, timeout)
		return
	}

	e.mu.Lock()
	switch e.state {
	case StateShutdown:
		e.mu.Unlock()
		h.OnFailure(dialogerrors.ShutdownErrorf("endpoint %v is shut down", e))
		return
	case StateReady:
		handler := e.handler
		e.mu.Unlock()
		handler.StartDialog(t, h, timeout)
		return
	}
	p := e.resolveLocked()
	e.mu.Unlock()

	p.OnComplete(func(handler dialog.ConnectionHandler, err error) {
		if err != nil {
			h.OnFailure(dialogerrors.FromError(err))
			return
		}
		handler.StartDialog(t, h, timeout)
	})
}

// resolveLocked returns the connection attempt of the endpoint, starting
// it if this is the first call.
func (e *CreatorEndpoint) resolveLocked() *promise.Promise[dialog.ConnectionHandler] {
	if e.resolution != nil {
		return e.resolution
	}

	e.setStateLocked(StateResolving)
	p := promise.New[dialog.ConnectionHandler]()
	e.resolution = p

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout := e.key.config.Dialog.ConnectTimeout; timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	e.cancelConnect = cancel

	if !e.group.exec.Go(func() { e.resolve(ctx, p) }) {
		cancel()
		e.cancelConnect = nil
		e.setStateLocked(StateShutdown)
		p.Fail(dialogerrors.ShutdownErrorf("endpoint %v is shut down", e))
		// The group is stopping and will drop its caches itself.
	}
	return p
}

// resolve runs on the executor.
func (e *CreatorEndpoint) resolve(ctx context.Context, p *promise.Promise[dialog.ConnectionHandler]) {
	defer e.clearCancel()

	g := e.group
	g.observer.connectAttempt()
	if g.connector == nil {
		e.failResolution(p, errNoConnector)
		return
	}

	handler, err := g.connector.Connect(ctx, ConnectParams{
		Name:    e.name,
		Remote:  e.key.remote,
		Local:   e.key.local,
		Config:  e.key.config,
		Owner:   e,
		Permits: g.permits,
		Pools:   g.pools,
		Logger:  e.logger,
	})
	if err != nil {
		e.failResolution(p, err)
		return
	}

	e.mu.Lock()
	if e.state == StateShutdown {
		e.mu.Unlock()
		e.logger.Debug("connection established after shutdown, closing it")
		handler.Shutdown(dialogerrors.ShutdownErrorf("endpoint %v is shut down", e), true)
		p.Fail(dialogerrors.ShutdownErrorf("endpoint %v is shut down", e))
		return
	}
	e.handler = handler
	e.setStateLocked(StateReady)
	e.ready.Store(&readyHandler{h: handler})
	e.mu.Unlock()

	e.logger.Debug("connection established")
	p.Complete(handler)
}

func (e *CreatorEndpoint) failResolution(p *promise.Promise[dialog.ConnectionHandler], err error) {
	e.group.observer.connectFailure()

	e.mu.Lock()
	if e.state == StateShutdown {
		e.mu.Unlock()
		p.Fail(dialogerrors.ShutdownErrorf("endpoint %v is shut down", e))
		return
	}
	e.setStateLocked(StateShutdown)
	e.mu.Unlock()

	e.logger.Info("failed to connect", zap.Error(err))
	e.group.evictCreator(e)
	p.Fail(err)
}

func (e *CreatorEndpoint) clearCancel() {
	e.mu.Lock()
	cancel := e.cancelConnect
	e.cancelConnect = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Shutdown closes the endpoint and schedules the shutdown of its
// connection handler. Later dialogs fail with CodeShutdown. Subsequent
// calls are no-ops.
func (e *CreatorEndpoint) Shutdown(detail error, force bool) {
	e.mu.Lock()
	if e.state == StateShutdown {
		e.mu.Unlock()
		return
	}
	handler := e.handler
	cancel := e.cancelConnect
	e.setStateLocked(StateShutdown)
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.group.evictCreator(e)
	if handler != nil {
		e.group.shutdownHandler(handler, detail, force)
	}
}

// OnHandlerShutdown is called by the connection handler when it shuts
// down. The endpoint shuts down with it and leaves the group.
func (e *CreatorEndpoint) OnHandlerShutdown(h dialog.ConnectionHandler) {
	e.mu.Lock()
	if e.state == StateShutdown || (e.handler != nil && e.handler != h) {
		e.mu.Unlock()
		return
	}
	e.setStateLocked(StateShutdown)
	e.mu.Unlock()

	e.logger.Debug("connection handler shut down")
	e.group.evictCreator(e)
}

func (e *CreatorEndpoint) setStateLocked(to State) {
	if !e.state.canTransition(to) {
		panic(fmt.Sprintf("dialogmux: illegal endpoint state transition %v -> %v for %v", e.state, to, e))
	}
	e.state = to
	if to == StateShutdown {
		e.ready.Store(nil)
	}
}
