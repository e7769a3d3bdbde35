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

package dialog

import (
	"net"
	"time"

	"go.uber.org/dialogmux/dialogconfig"
)

// Type names a kind of dialog. Listeners route inbound dialogs to the
// HandlerFactory registered for their type.
type Type string

// Context describes an active dialog.
type Context struct {
	// ID identifies the dialog on its connection.
	ID uint64

	Type   Type
	Local  net.Addr
	Remote net.Addr

	// Deadline is when the dialog times out. Zero means no deadline.
	Deadline time.Time

	// Config holds the dialog settings negotiated for the connection.
	Config dialogconfig.Dialog
}

// Handler receives the outcome of starting a dialog.
type Handler interface {
	// OnStart is called once the dialog has been admitted on a connection.
	OnStart(ctx Context)

	// OnFailure is called, at most once and instead of OnStart, when the
	// dialog cannot start. err is a *dialogerrors.Status.
	OnFailure(err error)
}

// HandlerFactory builds the handler for an inbound dialog.
type HandlerFactory func(ctx Context) Handler

// ConnectionHandler is one established connection. Implemented by the
// transport.
type ConnectionHandler interface {
	// StartDialog starts a dialog on the connection, admitting it against
	// the group's permits. Failures are reported to h.
	StartDialog(t Type, h Handler, timeout time.Duration)

	// Shutdown closes the connection. detail explains why; force skips
	// draining active dialogs. Once the connection is closed the handler
	// notifies its Owner exactly once.
	Shutdown(detail error, force bool)

	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// Owner is notified when a connection handler shuts down, whatever the
// trigger. Notifications are idempotent.
type Owner interface {
	OnHandlerShutdown(h ConnectionHandler)
}

// Endpoint is a destination dialogs can be started against.
type Endpoint interface {
	// StartDialog starts a dialog of the given type. It never blocks on I/O
	// and never panics on failure; failures reach h.OnFailure.
	StartDialog(t Type, h Handler, timeout time.Duration)

	// Shutdown shuts the endpoint down. It is idempotent.
	Shutdown(detail error, force bool)
}
