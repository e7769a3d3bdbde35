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
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dialogmux/api/dialog"
	"go.uber.org/dialogmux/api/dialog/dialogtest"
	"go.uber.org/dialogmux/dialogerrors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func nopFactory(dialog.Context) dialog.Handler { return dialogtest.NewRecordingHandler() }

func TestAcceptLimitClosesBurst(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 1)
	h, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	ch := f.binder.channel(t, cfg.Address)

	first := ch.accept(tcpAddr("10.0.0.1:1000"))
	second := ch.accept(tcpAddr("10.0.0.2:1000"))

	endpoints := h.Listener().Endpoints()
	require.Len(t, endpoints, 1, "the connection over the limit is dropped")
	assert.Same(t, first, endpoints[0].Handler())
	assert.Equal(t, int64(1), h.Listener().Active())
	assert.Equal(t, []bool{false}, ch.registrations(), "accepting stops at the limit")

	assert.Eventually(t, func() bool {
		shutdown, force := second.IsShutdown()
		return shutdown && force
	}, time.Second, time.Millisecond)
	shutdown, _ := first.IsShutdown()
	assert.False(t, shutdown)
	assert.Equal(t, 1, f.group.Stats().Responders)
}

func TestAcceptReenabledOnRemoval(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 1)
	h, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	ch := f.binder.channel(t, cfg.Address)

	conn := ch.accept(tcpAddr("10.0.0.1:1000"))
	conn.Shutdown(nil, false)
	assert.Equal(t, int64(0), h.Listener().Active())
	assert.Equal(t, []bool{false, true}, ch.registrations())
	assert.Empty(t, h.Listener().Endpoints())
}

func TestAcceptTakesPendingOnRemoval(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 1)
	h, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	ch := f.binder.channel(t, cfg.Address)

	conn := ch.accept(tcpAddr("10.0.0.1:1000"))
	ch.mu.Lock()
	ch.pending = 1
	ch.mu.Unlock()

	conn.Shutdown(nil, false)
	endpoints := h.Listener().Endpoints()
	require.Len(t, endpoints, 1, "the pending connection took the free slot")
	assert.NotSame(t, conn, endpoints[0].Handler())
	assert.Equal(t, int64(1), h.Listener().Active())
	assert.Equal(t, []bool{false}, ch.registrations(), "accepting stays withdrawn")
}

func TestSetAcceptMaxActiveConnections(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 0)
	h, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	ch := f.binder.channel(t, cfg.Address)

	ch.accept(tcpAddr("10.0.0.1:1000"))
	ch.accept(tcpAddr("10.0.0.2:1000"))
	assert.Empty(t, ch.registrations())

	h.SetAcceptMaxActiveConnections(2)
	assert.Equal(t, []bool{false}, ch.registrations())

	h.SetAcceptMaxActiveConnections(0)
	assert.Equal(t, []bool{false, true}, ch.registrations())
	assert.Len(t, h.Listener().Endpoints(), 2, "lowering the limit never closes connections")
}

func TestResponderEndpointLookup(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 0)
	_, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	ch := f.binder.channel(t, cfg.Address)

	remote := tcpAddr("10.0.0.1:1000")
	conn := ch.accept(remote)

	ep := f.group.GetResponderEndpoint(tcpAddr("10.0.0.1:1000"), cfg)
	r, ok := ep.(*ResponderEndpoint)
	require.True(t, ok, "accepted endpoint is cached by address")
	assert.Same(t, conn, r.Handler())

	h := dialogtest.NewRecordingHandler()
	ep.StartDialog("push", h, time.Second)
	assert.Len(t, h.Started(), 1)
	assert.Len(t, conn.Dialogs(), 1)

	conn.Shutdown(nil, false)
	missing := dialogtest.NewRecordingHandler()
	f.group.GetResponderEndpoint(remote, cfg).StartDialog("push", missing, time.Second)
	require.Len(t, missing.Failures(), 1)
	assert.True(t, dialogerrors.IsNotEstablished(missing.Failures()[0]))

	late := dialogtest.NewRecordingHandler()
	r.StartDialog("push", late, time.Second)
	assert.True(t, dialogerrors.IsNotEstablished(late.Failures()[0]), "removed endpoints fail dialogs")
}

func TestResponderEndpointNotCachedForLocalSockets(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 0)
	h, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	ch := f.binder.channel(t, cfg.Address)

	remote := &net.UnixAddr{Name: "/tmp/peer.sock", Net: "unix"}
	ch.accept(remote)
	ch.accept(remote)

	assert.Len(t, h.Listener().Endpoints(), 2, "unix peers are not deduplicated")
	assert.Equal(t, 0, f.group.Stats().Responders)
	_, ok := f.group.GetResponderEndpoint(remote, cfg).(nullEndpoint)
	assert.True(t, ok)
}

func TestResponderRemovedOnce(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 0)
	h, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	ch := f.binder.channel(t, cfg.Address)

	ch.accept(tcpAddr("10.0.0.1:1000"))
	ch.accept(tcpAddr("10.0.0.2:1000"))
	r := h.Listener().Endpoints()[0]

	r.OnHandlerShutdown(r.Handler())
	r.OnHandlerShutdown(r.Handler())
	r.Shutdown(nil, true)
	assert.Equal(t, int64(1), h.Listener().Active())
	assert.Len(t, h.Listener().Endpoints(), 1)
}

func TestHandlerShutdownWhileAccepting(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 0)
	h, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)

	h.Listener().Accept(tcpAddr("10.0.0.1:1000"), func(p AcceptParams) dialog.ConnectionHandler {
		conn := dialogtest.NewFakeConnectionHandler(nil, p.Remote, p.Owner)
		conn.Shutdown(nil, false)
		return conn
	})
	assert.Empty(t, h.Listener().Endpoints())
	assert.Equal(t, int64(0), h.Listener().Active())
	assert.Equal(t, 0, f.group.Stats().Responders)
}

func TestAcceptParams(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 0)
	h, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)

	var got AcceptParams
	h.Listener().Accept(tcpAddr("10.0.0.1:1000"), func(p AcceptParams) dialog.ConnectionHandler {
		got = p
		return dialogtest.NewFakeConnectionHandler(nil, p.Remote, p.Owner)
	})

	assert.Equal(t, cfg, got.Config)
	assert.Same(t, f.group.Permits(), got.Permits)
	assert.Same(t, f.group.Pools(), got.Pools)
	_, ok := got.Owner.(*ResponderEndpoint)
	assert.True(t, ok)

	factory, ok := got.Handlers("read")
	require.True(t, ok)
	assert.NotNil(t, factory(dialog.Context{Type: "read"}))
	_, ok = got.Handlers("write")
	assert.False(t, ok)
}

func TestListenRegistrations(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 0)

	read, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	write, err := f.group.Listen(cfg, "write", nopFactory)
	require.NoError(t, err)
	assert.Same(t, read.Listener(), write.Listener())
	assert.Equal(t, 1, f.binder.binds)
	assert.Equal(t, cfg.Address, read.Addr().String())

	_, err = f.group.Listen(cfg, "read", nopFactory)
	assert.EqualError(t, err, `dialogmux: dialog type "read" is already registered on listener "127.0.0.1:9000"`)

	var accepted []*ResponderEndpoint
	cb, err := f.group.ListenAccept(cfg, func(r *ResponderEndpoint) { accepted = append(accepted, r) })
	require.NoError(t, err)

	ch := f.binder.channel(t, cfg.Address)
	conn := ch.accept(tcpAddr("10.0.0.1:1000"))
	require.Len(t, accepted, 1)
	assert.Same(t, conn, accepted[0].Handler())

	require.NoError(t, read.Shutdown(false))
	require.NoError(t, cb.Shutdown(false))
	assert.False(t, ch.isClosed(), "write is still registered")
	assert.Equal(t, 1, f.group.Stats().Listeners)

	require.NoError(t, write.Shutdown(true))
	assert.True(t, ch.isClosed())
	assert.Equal(t, 0, f.group.Stats().Listeners)
	assert.Eventually(t, func() bool {
		shutdown, force := conn.IsShutdown()
		return shutdown && force
	}, time.Second, time.Millisecond)

	assert.Equal(t, ErrListenHandleClosed, write.Shutdown(true))

	again, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	assert.NotSame(t, read.Listener(), again.Listener(), "a closed listener is rebound")
	assert.Equal(t, 2, f.binder.binds)
}

func TestListenErrors(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 0)

	_, err := f.group.Listen(cfg, "read", nil)
	assert.Error(t, err)
	_, err = f.group.ListenAccept(cfg, nil)
	assert.Error(t, err)

	f.binder.err = errors.New("address in use")
	_, err = f.group.Listen(cfg, "read", nopFactory)
	assert.EqualError(t, err, "address in use")
	assert.Equal(t, 0, f.group.Stats().Listeners)

	g, err := NewGroup(f.group.config)
	require.NoError(t, err)
	defer g.Shutdown()
	_, err = g.Listen(cfg, "read", nopFactory)
	assert.Error(t, err, "no binder")
}

func TestRejectedConnectionNotCached(t *testing.T) {
	f := newTestGroup(t)
	cfg := listenerConfig("127.0.0.1:9000", 1)
	_, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	ch := f.binder.channel(t, cfg.Address)

	ch.accept(tcpAddr("10.0.0.1:1000"))
	rejected := tcpAddr("10.0.0.2:1000")
	ch.accept(rejected)

	_, ok := f.group.responders.Load(responderKey{remote: rejected.String(), config: cfg})
	assert.False(t, ok, "rejected connections leave no cache entry")
	assert.Equal(t, 1, f.group.responders.Size())

	ep := f.group.GetResponderEndpoint(rejected, cfg)
	_, ok = ep.(nullEndpoint)
	require.True(t, ok)
	h := dialogtest.NewRecordingHandler()
	ep.StartDialog("push", h, time.Second)
	require.Len(t, h.Failures(), 1)
	assert.True(t, dialogerrors.IsNotEstablished(h.Failures()[0]))

	require.NoError(t, f.group.Shutdown())
	assert.Equal(t, 0, f.group.responders.Size())
}

func TestRejectionLogIsSampled(t *testing.T) {
	core, logs := zapobserver.New(zapcore.InfoLevel)
	f := newTestGroup(t, WithLogger(zap.New(core)))
	cfg := listenerConfig("127.0.0.1:9000", 1)
	_, err := f.group.Listen(cfg, "read", nopFactory)
	require.NoError(t, err)
	ch := f.binder.channel(t, cfg.Address)

	for i := 1; i <= 4; i++ {
		ch.accept(tcpAddr(fmt.Sprintf("10.0.0.%d:1000", i)))
	}
	rejections := logs.FilterMessage("closing connection over the active limit").All()
	require.Len(t, rejections, 1, "repeated rejections are rate limited")
	assert.Equal(t, "127.0.0.1:9000", rejections[0].ContextMap()["listener"])
}
