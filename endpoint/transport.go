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

	"go.uber.org/dialogmux/api/dialog"
	"go.uber.org/dialogmux/bufslice"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/dialogmux/permit"
	"go.uber.org/zap"
)

// ConnectParams describe an outbound connection to establish.
type ConnectParams struct {
	// Name is a label for the connection used in logs.
	Name   string
	Remote string
	// Local is the address to bind locally. Empty means any.
	Local  string
	Config dialogconfig.Connection

	// Owner must be notified once when the returned handler shuts down.
	Owner dialog.Owner

	// Permits gate how many dialogs may be active across the group.
	Permits *permit.Manager
	Pools   *bufslice.Pools
	Logger  *zap.Logger
}

// Connector establishes outbound connections. Connect must honor the
// deadline of ctx.
type Connector interface {
	Connect(ctx context.Context, p ConnectParams) (dialog.ConnectionHandler, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, p ConnectParams) (dialog.ConnectionHandler, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, p ConnectParams) (dialog.ConnectionHandler, error) {
	return f(ctx, p)
}

// AcceptParams describe an accepted inbound connection.
type AcceptParams struct {
	Remote net.Addr
	Config dialogconfig.Listener

	// Owner must be notified once when the handler shuts down.
	Owner dialog.Owner

	// Handlers looks up the factory registered for a dialog type.
	Handlers func(dialog.Type) (dialog.HandlerFactory, bool)

	Permits *permit.Manager
	Pools   *bufslice.Pools
	Logger  *zap.Logger
}

// Acceptor receives the connections accepted by an AcceptChannel.
type Acceptor interface {
	// Accept registers a connection from remote. build is called exactly
	// once to create its handler.
	Accept(remote net.Addr, build func(AcceptParams) dialog.ConnectionHandler)
}

// AcceptChannel is a bound listening socket.
type AcceptChannel interface {
	Addr() net.Addr

	// SetAcceptEnabled registers or withdraws interest in new connections.
	SetAcceptEnabled(enabled bool)

	// AcceptPending accepts one connection waiting in the backlog, if any,
	// and reports whether it did.
	AcceptPending() bool

	Close() error
}

// Binder opens listening channels that deliver connections to an
// Acceptor. Connections may only be delivered once Bind has returned.
type Binder interface {
	Bind(cfg dialogconfig.Listener, a Acceptor) (AcceptChannel, error)
}

// BinderFunc adapts a function to Binder.
type BinderFunc func(cfg dialogconfig.Listener, a Acceptor) (AcceptChannel, error)

// Bind calls f.
func (f BinderFunc) Bind(cfg dialogconfig.Listener, a Acceptor) (AcceptChannel, error) {
	return f(cfg, a)
}
