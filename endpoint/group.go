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
	"net"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"
	"go.uber.org/dialogmux/api/dialog"
	"go.uber.org/dialogmux/bufslice"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/dialogmux/dialogerrors"
	"go.uber.org/dialogmux/internal/executor"
	"go.uber.org/dialogmux/internal/sampledlogger"
	"go.uber.org/dialogmux/permit"
	"go.uber.org/multierr"
	"go.uber.org/net/metrics"
	"go.uber.org/net/metrics/tallypush"
	"go.uber.org/zap"
)

// Group owns the endpoints, listeners, dialog permits and buffer pools of
// one transport instance.
type Group struct {
	name      string
	config    dialogconfig.Config
	logger    *zap.Logger
	connector Connector
	binder    Binder
	observer  *observer
	stopPush  context.CancelFunc
	noisy     *sampledlogger.Logger

	exec    *executor.Executor
	permits *permit.Manager
	pools   *bufslice.Pools
	tracker *bufslice.LeakTracker

	creators   *xsync.MapOf[creatorKey, *CreatorEndpoint]
	responders *xsync.MapOf[responderKey, *ResponderEndpoint]

	shutdown atomic.Bool

	mu        sync.Mutex
	listeners map[dialogconfig.Listener]*Listener
}

// Stats is a snapshot of a Group.
type Stats struct {
	Creators       int
	Responders     int
	Listeners      int
	TotalPermits   int64
	FreePermits    int64
	WaitingHandles int
	Pools          []bufslice.PoolStats
	TrackedBuffers int
}

// NewGroup builds a group from a validated configuration.
func NewGroup(cfg dialogconfig.Config, opts ...Option) (*Group, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := newGroupOptions()
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.logger.Named("dialogmux").With(zap.String("group", options.name))

	root := options.meter
	if root == nil {
		root = metrics.New()
	}
	scope := root.Scope().Tagged(metrics.Tags{
		"component": "dialogmux",
		"group":     options.name,
	})

	stopPush := context.CancelFunc(func() {})
	if options.tally != nil {
		stop, err := root.Push(tallypush.New(options.tally), _tallyPushInterval)
		if err != nil {
			logger.Error("Failed to start pushing metrics to Tally.", zap.Error(err))
		} else {
			stopPush = stop
		}
	}

	tracker := bufslice.NewLeakTracker(cfg.LeakDetection,
		bufslice.TrackerLogger(logger),
		bufslice.TrackerMetrics(scope),
		bufslice.TrackerClock(options.clock),
	)

	g := &Group{
		name:       options.name,
		config:     cfg,
		logger:     logger,
		connector:  options.connector,
		binder:     options.binder,
		observer:   newObserver(scope, logger),
		noisy:      sampledlogger.New(logger, _noisyLogInterval, options.clock),
		stopPush:   stopPush,
		exec:       executor.New(logger),
		permits:    permit.NewManager(cfg.MaxActiveDialogs, permit.Logger(logger)),
		pools:      bufslice.NewPools(cfg.Pools, tracker),
		tracker:    tracker,
		creators:   xsync.NewMapOf[creatorKey, *CreatorEndpoint](),
		responders: xsync.NewMapOf[responderKey, *ResponderEndpoint](),
		listeners:  make(map[dialogconfig.Listener]*Listener),
	}
	if tracker != nil {
		g.exec.Go(func() { tracker.Run(g.exec.Stopping()) })
	}
	return g, nil
}

// Name returns the name of the group.
func (g *Group) Name() string { return g.name }

// Permits returns the dialog permits shared by the group's connections.
func (g *Group) Permits() *permit.Manager { return g.permits }

// Pools returns the group's buffer pools.
func (g *Group) Pools() *bufslice.Pools { return g.pools }

// LeakTracker returns the buffer leak tracker, or nil if leak detection
// is disabled.
func (g *Group) LeakTracker() *bufslice.LeakTracker { return g.tracker }

// GetCreatorEndpoint returns the endpoint for remote, local and cfg,
// creating it if needed. Concurrent calls for the same key return the same
// endpoint.
func (g *Group) GetCreatorEndpoint(name, remote, local string, cfg dialogconfig.Connection) (*CreatorEndpoint, error) {
	if g.shutdown.Load() {
		return nil, ErrGroupShutdown
	}

	key := creatorKey{remote: remote, local: local, config: cfg}
	if e, ok := g.creators.Load(key); ok {
		return e, nil
	}

	e := newCreatorEndpoint(g, name, key)
	actual, loaded := g.creators.LoadOrStore(key, e)
	if loaded {
		// Lost the race; e was never used.
		e.Shutdown(nil, false)
		return actual, nil
	}
	g.observer.creatorCreated()

	if g.shutdown.Load() {
		actual.Shutdown(ErrGroupShutdown, true)
		return nil, ErrGroupShutdown
	}
	return actual, nil
}

// GetResponderEndpoint returns the endpoint of the connection accepted
// from remote by the listener for cfg. If there is none, the returned
// endpoint fails every dialog with CodeNotEstablished.
func (g *Group) GetResponderEndpoint(remote net.Addr, cfg dialogconfig.Listener) dialog.Endpoint {
	if remote != nil && cacheableAddr(remote) {
		if r, ok := g.responders.Load(responderKey{remote: remote.String(), config: cfg}); ok {
			return r
		}
	}
	return nullEndpoint{remote: remote}
}

// Listen registers f to handle dialogs of type t on connections accepted
// by the listener for cfg, binding the listener if needed.
func (g *Group) Listen(cfg dialogconfig.Listener, t dialog.Type, f dialog.HandlerFactory) (*ListenHandle, error) {
	if f == nil {
		return nil, errNilRegistration
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	l, created, err := g.listenerLocked(cfg)
	if err != nil {
		return nil, err
	}
	if err := l.addType(t, f); err != nil {
		if created {
			g.dropListenerLocked(l)
		}
		return nil, err
	}
	return &ListenHandle{listener: l, dialogType: t}, nil
}

// ListenAccept registers cb to be called with every connection accepted by
// the listener for cfg, binding the listener if needed.
func (g *Group) ListenAccept(cfg dialogconfig.Listener, cb AcceptCallback) (*ListenHandle, error) {
	if cb == nil {
		return nil, errNilRegistration
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	l, _, err := g.listenerLocked(cfg)
	if err != nil {
		return nil, err
	}
	h := &ListenHandle{listener: l, callback: cb}
	l.addCallback(h, cb)
	return h, nil
}

func (g *Group) listenerLocked(cfg dialogconfig.Listener) (l *Listener, created bool, err error) {
	if g.shutdown.Load() {
		return nil, false, ErrGroupShutdown
	}
	if l, ok := g.listeners[cfg]; ok {
		return l, false, nil
	}
	if g.binder == nil {
		return nil, false, errNoBinder
	}

	l = newListener(g, cfg)
	ch, err := g.binder.Bind(cfg, l)
	if err != nil {
		return nil, false, err
	}
	l.channel = ch
	g.listeners[cfg] = l
	l.logger.Info("listening", zap.Stringer("addr", ch.Addr()))
	return l, true, nil
}

func (g *Group) dropListenerLocked(l *Listener) {
	delete(g.listeners, l.config)
	if err := l.close(true); err != nil {
		l.logger.Warn("failed to close listener", zap.Error(err))
	}
}

func (g *Group) unregister(h *ListenHandle, force bool) error {
	l := h.listener

	g.mu.Lock()
	empty := l.unregister(h)
	if empty && g.listeners[l.config] == l {
		delete(g.listeners, l.config)
	} else {
		empty = false
	}
	g.mu.Unlock()

	if !empty {
		return nil
	}
	return l.close(force)
}

// evictCreator drops e from the cache unless another endpoint replaced it.
// Compute stores whatever it is handed unless asked to delete, so an
// absent key is deleted too.
func (g *Group) evictCreator(e *CreatorEndpoint) {
	g.creators.Compute(e.key, func(old *CreatorEndpoint, loaded bool) (*CreatorEndpoint, bool) {
		return old, !loaded || old == e
	})
}

// shutdownHandler shuts h down on the executor, or inline once the
// executor has stopped.
func (g *Group) shutdownHandler(h dialog.ConnectionHandler, detail error, force bool) {
	if !g.exec.Go(func() { h.Shutdown(detail, force) }) {
		h.Shutdown(detail, force)
	}
}

// Stats returns a snapshot of the group.
func (g *Group) Stats() Stats {
	g.mu.Lock()
	listeners := len(g.listeners)
	g.mu.Unlock()

	return Stats{
		Creators:       g.creators.Size(),
		Responders:     g.responders.Size(),
		Listeners:      listeners,
		TotalPermits:   g.permits.Total(),
		FreePermits:    g.permits.Available(),
		WaitingHandles: g.permits.Waiting(),
		Pools:          g.pools.Stats(),
		TrackedBuffers: g.tracker.Tracked(),
	}
}

// Shutdown closes every listener and endpoint of the group, waits for
// background work to finish and reports the errors encountered. Later
// calls are no-ops.
func (g *Group) Shutdown() error {
	if !g.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	detail := dialogerrors.ShutdownErrorf("endpoint group %q is shut down", g.name)

	g.mu.Lock()
	listeners := make([]*Listener, 0, len(g.listeners))
	for _, l := range g.listeners {
		listeners = append(listeners, l)
	}
	g.listeners = make(map[dialogconfig.Listener]*Listener)
	g.mu.Unlock()

	var err error
	for _, l := range listeners {
		err = multierr.Append(err, l.close(true))
	}

	g.creators.Range(func(_ creatorKey, e *CreatorEndpoint) bool {
		e.Shutdown(detail, true)
		return true
	})
	g.responders.Range(func(_ responderKey, r *ResponderEndpoint) bool {
		r.Shutdown(detail, true)
		return true
	})

	g.exec.Stop()
	g.stopPush()
	g.logger.Info("endpoint group shut down")
	return err
}
