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
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/dialogmux/internal/clock"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

const (
	_tallyPushInterval = 500 * time.Millisecond
	_noisyLogInterval  = 10 * time.Second
)

type groupOptions struct {
	name      string
	logger    *zap.Logger
	meter     *metrics.Root
	tally     tally.Scope
	clock     clock.Clock
	connector Connector
	binder    Binder
}

func newGroupOptions() groupOptions {
	return groupOptions{
		name:   "default",
		logger: zap.NewNop(),
		clock:  clock.NewReal(),
	}
}

// Option customizes a Group.
type Option func(*groupOptions)

// WithName names the group in logs and metric tags.
//
// Defaults to "default".
func WithName(name string) Option {
	return func(o *groupOptions) {
		o.name = name
	}
}

// WithLogger sets the logger for the group and everything it owns.
//
// Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *groupOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics root the group registers its metrics with.
// By default metrics are collected in a private root.
func WithMetrics(root *metrics.Root) Option {
	return func(o *groupOptions) {
		o.meter = root
	}
}

// WithTally pushes the group's metrics to a Tally scope until the group is
// shut down.
func WithTally(scope tally.Scope) Option {
	return func(o *groupOptions) {
		o.tally = scope
	}
}

// WithClock sets the clock used by the leak tracker.
func WithClock(clk clock.Clock) Option {
	return func(o *groupOptions) {
		o.clock = clk
	}
}

// WithConnector sets how creator endpoints establish connections.
func WithConnector(c Connector) Option {
	return func(o *groupOptions) {
		o.connector = c
	}
}

// WithBinder sets how listeners bind their channels.
func WithBinder(b Binder) Option {
	return func(o *groupOptions) {
		o.binder = b
	}
}
