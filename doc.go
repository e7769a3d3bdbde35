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

// Package dialogmux multiplexes dialogs over shared connections.
//
// A dialog is a bidirectional exchange of messages between two processes.
// Many dialogs share one connection per peer; the connection is created on
// the first dialog and reused afterwards.
//
// The library is split into the following packages:
//
//	endpoint      endpoint groups, creator and responder endpoints, listeners
//	permit        admission control of active dialogs across connections
//	bufslice      pooled reference-counted buffers and leak detection
//	dialogconfig  configuration and dialog setting negotiation
//	dialogerrors  status codes reported to dialog handlers
//	api/dialog    interfaces implemented by connection and dialog handlers
//
// Start with an endpoint.Group:
//
//	group, err := endpoint.NewGroup(cfg, endpoint.WithConnector(connector))
//	if err != nil {
//		return err
//	}
//	defer group.Shutdown()
//
//	ep, err := group.GetCreatorEndpoint("users", "10.0.0.1:7000", "", cfg.Connection)
//	if err != nil {
//		return err
//	}
//	ep.StartDialog("lookup", handler, time.Second)
package dialogmux
