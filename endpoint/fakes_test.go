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
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/dialogmux/api/dialog"
	"go.uber.org/dialogmux/api/dialog/dialogtest"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/zap/zaptest"
)

// fakeConnector connects to nothing and returns fake handlers.
type fakeConnector struct {
	calls atomic.Int32

	// gate, if set, blocks Connect until closed.
	gate chan struct{}
	// ignoreCtx makes a gated Connect wait for the gate even if its context
	// ends first.
	ignoreCtx bool
	err       error

	mu       sync.Mutex
	params   []ConnectParams
	handlers []*dialogtest.FakeConnectionHandler
}

func (c *fakeConnector) Connect(ctx context.Context, p ConnectParams) (dialog.ConnectionHandler, error) {
	c.calls.Inc()
	c.mu.Lock()
	c.params = append(c.params, p)
	c.mu.Unlock()

	if c.gate != nil {
		if c.ignoreCtx {
			<-c.gate
		} else {
			select {
			case <-c.gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if c.err != nil {
		return nil, c.err
	}

	h := dialogtest.NewFakeConnectionHandler(tcpAddr("127.0.0.1:1"), tcpAddr(p.Remote), p.Owner)
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
	return h, nil
}

func (c *fakeConnector) lastHandler(t *testing.T) *dialogtest.FakeConnectionHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.handlers, "no handler was created")
	return c.handlers[len(c.handlers)-1]
}

func (c *fakeConnector) lastParams(t *testing.T) ConnectParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.params, "Connect was not called")
	return c.params[len(c.params)-1]
}

// fakeChannel is an AcceptChannel whose backlog is a counter.
type fakeChannel struct {
	addr     net.Addr
	acceptor Acceptor
	closeErr error

	mu       sync.Mutex
	enabled  []bool
	pending  int
	accepted []*dialogtest.FakeConnectionHandler
	closed   bool
	next     int
}

func (c *fakeChannel) Addr() net.Addr { return c.addr }

func (c *fakeChannel) SetAcceptEnabled(enabled bool) {
	c.mu.Lock()
	c.enabled = append(c.enabled, enabled)
	c.mu.Unlock()
}

func (c *fakeChannel) AcceptPending() bool {
	c.mu.Lock()
	if c.pending == 0 {
		c.mu.Unlock()
		return false
	}
	c.pending--
	c.mu.Unlock()

	c.accept(c.nextAddr())
	return true
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.closeErr
}

func (c *fakeChannel) nextAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return tcpAddr(fmt.Sprintf("10.0.0.%d:4000", c.next))
}

// accept delivers a connection from remote and returns its handler.
func (c *fakeChannel) accept(remote net.Addr) *dialogtest.FakeConnectionHandler {
	var handler *dialogtest.FakeConnectionHandler
	c.acceptor.Accept(remote, func(p AcceptParams) dialog.ConnectionHandler {
		handler = dialogtest.NewFakeConnectionHandler(c.addr, remote, p.Owner)
		return handler
	})
	c.mu.Lock()
	c.accepted = append(c.accepted, handler)
	c.mu.Unlock()
	return handler
}

func (c *fakeChannel) registrations() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.enabled...)
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeBinder binds fakeChannels.
type fakeBinder struct {
	err      error
	closeErr error

	mu       sync.Mutex
	channels map[string]*fakeChannel
	binds    int
}

func (b *fakeBinder) Bind(cfg dialogconfig.Listener, a Acceptor) (AcceptChannel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.binds++
	if b.err != nil {
		return nil, b.err
	}
	if b.channels == nil {
		b.channels = make(map[string]*fakeChannel)
	}
	ch := &fakeChannel{addr: tcpAddr(cfg.Address), acceptor: a, closeErr: b.closeErr}
	b.channels[cfg.Address] = ch
	return ch, nil
}

func (b *fakeBinder) channel(t *testing.T, addr string) *fakeChannel {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.channels[addr]
	require.True(t, ok, "nothing bound to %q", addr)
	return ch
}

func tcpAddr(s string) *net.TCPAddr {
	addr, err := net.ResolveTCPAddr("tcp", s)
	if err != nil {
		panic(err)
	}
	return addr
}

type groupFixture struct {
	group     *Group
	connector *fakeConnector
	binder    *fakeBinder
}

func newTestGroup(t *testing.T, opts ...Option) groupFixture {
	f := groupFixture{connector: &fakeConnector{}, binder: &fakeBinder{}}
	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithConnector(f.connector),
		WithBinder(f.binder),
	}, opts...)

	g, err := NewGroup(dialogconfig.Default(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { g.Shutdown() })
	f.group = g
	return f
}

func listenerConfig(addr string, maxActive int) dialogconfig.Listener {
	cfg := dialogconfig.Listener{Address: addr, Connection: dialogconfig.DefaultConnection()}
	cfg.Connection.Dialog.AcceptMaxActiveConnections = maxActive
	return cfg
}
