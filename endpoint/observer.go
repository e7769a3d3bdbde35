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
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

type observer struct {
	creatorsCreated  *metrics.Counter
	connectAttempts  *metrics.Counter
	connectFailures  *metrics.Counter
	accepts          *metrics.Counter
	acceptRejections *metrics.Counter
	activeInbound    *metrics.Gauge
}

func newObserver(scope *metrics.Scope, logger *zap.Logger) *observer {
	counter := func(name, help string) *metrics.Counter {
		c, err := scope.Counter(metrics.Spec{Name: name, Help: help})
		if err != nil {
			logger.Error("Failed to create counter", zap.String("name", name), zap.Error(err))
		}
		return c
	}

	active, err := scope.Gauge(metrics.Spec{
		Name: "active_inbound_connections",
		Help: "Number of accepted connections currently open.",
	})
	if err != nil {
		logger.Error("Failed to create active connections gauge", zap.Error(err))
	}

	return &observer{
		creatorsCreated:  counter("creator_endpoints", "Total number of creator endpoints created."),
		connectAttempts:  counter("connect_attempts", "Total number of outbound connection attempts."),
		connectFailures:  counter("connect_failures", "Total number of failed outbound connection attempts."),
		accepts:          counter("accepts", "Total number of inbound connections accepted."),
		acceptRejections: counter("accept_rejections", "Total number of inbound connections closed over the active limit."),
		activeInbound:    active,
	}
}

func inc(c *metrics.Counter) {
	if c != nil {
		c.Inc()
	}
}

func (o *observer) creatorCreated() { inc(o.creatorsCreated) }
func (o *observer) connectAttempt() { inc(o.connectAttempts) }
func (o *observer) connectFailure() { inc(o.connectFailures) }
func (o *observer) acceptRejected() { inc(o.acceptRejections) }

func (o *observer) accepted() {
	inc(o.accepts)
	if o.activeInbound != nil {
		o.activeInbound.Inc()
	}
}

func (o *observer) inboundClosed() {
	if o.activeInbound != nil {
		o.activeInbound.Dec()
	}
}
