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

// Package endpointfx provides an endpoint.Group to fx applications and shuts
// it down when the application stops.
package endpointfx

import (
	"bytes"
	"context"

	"github.com/uber-go/tally"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/dialogmux/endpoint"
	"go.uber.org/fx"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

const _name = "endpointfx"

// Module provides a dialogmux configuration and endpoint group.
var Module = fx.Options(
	fx.Provide(NewConfig),
	fx.Provide(NewGroup),
)

// ConfigParams defines the dependencies of NewConfig.
type ConfigParams struct {
	fx.In

	// YAML is the raw configuration document. The defaults are used if it
	// is absent.
	YAML []byte `name:"dialogmux_yaml" optional:"true"`
}

// ConfigResult defines the values produced by NewConfig.
type ConfigResult struct {
	fx.Out

	Config dialogconfig.Config
}

// NewConfig loads the group configuration.
func NewConfig(p ConfigParams) (ConfigResult, error) {
	if len(p.YAML) == 0 {
		return ConfigResult{Config: dialogconfig.Default()}, nil
	}
	cfg, err := dialogconfig.LoadYAML(bytes.NewReader(p.YAML))
	if err != nil {
		return ConfigResult{}, err
	}
	return ConfigResult{Config: cfg}, nil
}

// GroupParams defines the dependencies of NewGroup.
type GroupParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    dialogconfig.Config
	Name      string             `name:"dialogmux_group" optional:"true"`
	Logger    *zap.Logger        `optional:"true"`
	Metrics   *metrics.Root      `optional:"true"`
	Tally     tally.Scope        `optional:"true"`
	Connector endpoint.Connector `optional:"true"`
	Binder    endpoint.Binder    `optional:"true"`
}

// GroupResult defines the values produced by NewGroup.
type GroupResult struct {
	fx.Out

	Group *endpoint.Group
}

// NewGroup builds the endpoint group and registers its shutdown with the
// lifecycle.
func NewGroup(p GroupParams) (GroupResult, error) {
	var opts []endpoint.Option
	if p.Name != "" {
		opts = append(opts, endpoint.WithName(p.Name))
	}
	if p.Logger != nil {
		opts = append(opts, endpoint.WithLogger(p.Logger.With(zap.String("module", _name))))
	}
	if p.Metrics != nil {
		opts = append(opts, endpoint.WithMetrics(p.Metrics))
	}
	if p.Tally != nil {
		opts = append(opts, endpoint.WithTally(p.Tally))
	}
	if p.Connector != nil {
		opts = append(opts, endpoint.WithConnector(p.Connector))
	}
	if p.Binder != nil {
		opts = append(opts, endpoint.WithBinder(p.Binder))
	}

	g, err := endpoint.NewGroup(p.Config, opts...)
	if err != nil {
		return GroupResult{}, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return g.Shutdown()
		},
	})
	return GroupResult{Group: g}, nil
}
