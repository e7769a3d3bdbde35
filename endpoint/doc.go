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

// Package endpoint caches the connection endpoints of a transport so that
// many dialogs share one physical connection.
//
// A Group hands out a CreatorEndpoint per (remote address, local address,
// connection configuration). The endpoint connects lazily through the
// group's Connector the first time a dialog is started on it, and every
// dialog started while the connection is being established waits on that
// same attempt:
//
//	group, err := endpoint.NewGroup(cfg, endpoint.WithConnector(connector))
//	...
//	ep, err := group.GetCreatorEndpoint("storage", "10.0.0.1:7000", "", cfg.Connection)
//	ep.StartDialog("read", handler, time.Second)
//
// Inbound connections arrive through listeners registered with Listen or
// ListenAccept. Each accepted connection becomes a ResponderEndpoint that
// can be looked up by remote address with GetResponderEndpoint.
//
// Failures to start a dialog never surface to the caller of StartDialog;
// they are delivered to the dialog's Handler.OnFailure as a
// *dialogerrors.Status.
package endpoint
