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

// Package dialogconfig defines the configuration recognized by dialogmux.
//
// Configuration is usually loaded from YAML:
//
//	maxActiveDialogs: 1024
//	connection:
//	  keepAlive: true
//	  noDelay: true
//	  dialog:
//	    connectTimeout: 5s
//	    heartbeatInterval: 1s
//	    maxConcurrentDialogsLocal: 64
//	pools:
//	  inboundBufferSize: 65536
//	  inboundCapacity: 67108864
//	leakDetection:
//	  sampleRate: 0.01
//	  grace: 1m
//
// All structs are comparable so that they can key endpoint caches.
package dialogconfig

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Dialog configures dialog multiplexing on a connection. Fields suffixed
// Local constrain what this process does; fields suffixed Remote are what
// this process allows its peer to do. Zero means unset.
type Dialog struct {
	MaxConcurrentDialogsLocal   int   `config:"maxConcurrentDialogsLocal"`
	MaxConcurrentDialogsRemote  int   `config:"maxConcurrentDialogsRemote"`
	MaxFrameLengthLocal         int   `config:"maxFrameLengthLocal"`
	MaxFrameLengthRemote        int   `config:"maxFrameLengthRemote"`
	MaxTotalMessageLengthLocal  int64 `config:"maxTotalMessageLengthLocal"`
	MaxTotalMessageLengthRemote int64 `config:"maxTotalMessageLengthRemote"`

	ConnectTimeout    time.Duration `config:"connectTimeout"`
	HeartbeatInterval time.Duration `config:"heartbeatInterval"`
	HeartbeatTimeout  time.Duration `config:"heartbeatTimeout"`
	IdleTimeout       time.Duration `config:"idleTimeout"`

	FlushBatchSize  int `config:"flushBatchSize"`
	FlushBatchCount int `config:"flushBatchCount"`

	// AcceptMaxActiveConnections bounds the connections a listener keeps
	// accepted at once. Zero means unlimited.
	AcceptMaxActiveConnections int           `config:"acceptMaxActiveConnections"`
	BacklogClearInterval       time.Duration `config:"backlogClearInterval"`
}

// Connection holds socket options and the dialog settings of a connection.
type Connection struct {
	KeepAlive         bool          `config:"keepAlive"`
	Linger            time.Duration `config:"linger"`
	ReceiveBufferSize int           `config:"receiveBufferSize"`
	SendBufferSize    int           `config:"sendBufferSize"`
	NoDelay           bool          `config:"noDelay"`

	Dialog Dialog `config:"dialog"`
}

// Listener configures a listening channel and the connections it accepts.
type Listener struct {
	Address    string     `config:"address"`
	Backlog    int        `config:"backlog"`
	Connection Connection `config:"connection"`
}

// Pools sizes the process-wide buffer pools. Capacities are in bytes; the
// number of buffers a pool may hold is capacity / buffer size.
type Pools struct {
	InboundBufferSize         int   `config:"inboundBufferSize"`
	InboundCapacity           int64 `config:"inboundCapacity"`
	OutboundMessageBufferSize int   `config:"outboundMessageBufferSize"`
	OutboundMessageCapacity   int64 `config:"outboundMessageCapacity"`
	OutboundChannelBufferSize int   `config:"outboundChannelBufferSize"`
	OutboundChannelCapacity   int64 `config:"outboundChannelCapacity"`
}

// LeakDetection configures the sampling buffer leak tracker. A zero
// SampleRate disables tracking.
type LeakDetection struct {
	SampleRate   float64       `config:"sampleRate"`
	Grace        time.Duration `config:"grace"`
	ScanInterval time.Duration `config:"scanInterval"`
	MaxTracked   int           `config:"maxTracked"`
	MaxEvents    int           `config:"maxEvents"`
}

// Config is the top-level configuration of an endpoint group.
type Config struct {
	// MaxActiveDialogs is the number of dialogs that may be active at once
	// across every connection of the group.
	MaxActiveDialogs int64 `config:"maxActiveDialogs"`

	Connection    Connection    `config:"connection"`
	Pools         Pools         `config:"pools"`
	LeakDetection LeakDetection `config:"leakDetection"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		MaxActiveDialogs: 1024,
		Connection:       DefaultConnection(),
		Pools: Pools{
			InboundBufferSize:         64 << 10,
			InboundCapacity:           64 << 20,
			OutboundMessageBufferSize: 16 << 10,
			OutboundMessageCapacity:   32 << 20,
			OutboundChannelBufferSize: 64 << 10,
			OutboundChannelCapacity:   32 << 20,
		},
		LeakDetection: LeakDetection{
			SampleRate:   0,
			Grace:        time.Minute,
			ScanInterval: 10 * time.Second,
			MaxTracked:   1024,
			MaxEvents:    64,
		},
	}
}

// DefaultConnection returns the default connection options.
func DefaultConnection() Connection {
	return Connection{
		KeepAlive: true,
		NoDelay:   true,
		Dialog: Dialog{
			MaxConcurrentDialogsLocal:   256,
			MaxConcurrentDialogsRemote:  256,
			MaxFrameLengthLocal:         1 << 20,
			MaxFrameLengthRemote:        1 << 20,
			MaxTotalMessageLengthLocal:  64 << 20,
			MaxTotalMessageLengthRemote: 64 << 20,
			ConnectTimeout:              5 * time.Second,
			HeartbeatInterval:           time.Second,
			HeartbeatTimeout:            10 * time.Second,
			IdleTimeout:                 5 * time.Minute,
			FlushBatchSize:              64 << 10,
			FlushBatchCount:             16,
			BacklogClearInterval:        100 * time.Millisecond,
		},
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var err error
	if c.MaxActiveDialogs < 0 {
		err = multierr.Append(err, fmt.Errorf("maxActiveDialogs must not be negative, got %d", c.MaxActiveDialogs))
	}
	err = multierr.Append(err, c.Connection.Validate())
	err = multierr.Append(err, c.Pools.Validate())
	err = multierr.Append(err, c.LeakDetection.Validate())
	return err
}

// Validate reports every invalid field.
func (c Connection) Validate() error {
	var err error
	err = multierr.Append(err, nonNegative("linger", int64(c.Linger)))
	err = multierr.Append(err, nonNegative("receiveBufferSize", int64(c.ReceiveBufferSize)))
	err = multierr.Append(err, nonNegative("sendBufferSize", int64(c.SendBufferSize)))
	return multierr.Append(err, c.Dialog.Validate())
}

// Validate reports every invalid field.
func (d Dialog) Validate() error {
	return multierr.Combine(
		nonNegative("dialog.maxConcurrentDialogsLocal", int64(d.MaxConcurrentDialogsLocal)),
		nonNegative("dialog.maxConcurrentDialogsRemote", int64(d.MaxConcurrentDialogsRemote)),
		nonNegative("dialog.maxFrameLengthLocal", int64(d.MaxFrameLengthLocal)),
		nonNegative("dialog.maxFrameLengthRemote", int64(d.MaxFrameLengthRemote)),
		nonNegative("dialog.maxTotalMessageLengthLocal", d.MaxTotalMessageLengthLocal),
		nonNegative("dialog.maxTotalMessageLengthRemote", d.MaxTotalMessageLengthRemote),
		nonNegative("dialog.connectTimeout", int64(d.ConnectTimeout)),
		nonNegative("dialog.heartbeatInterval", int64(d.HeartbeatInterval)),
		nonNegative("dialog.heartbeatTimeout", int64(d.HeartbeatTimeout)),
		nonNegative("dialog.idleTimeout", int64(d.IdleTimeout)),
		nonNegative("dialog.flushBatchSize", int64(d.FlushBatchSize)),
		nonNegative("dialog.flushBatchCount", int64(d.FlushBatchCount)),
		nonNegative("dialog.acceptMaxActiveConnections", int64(d.AcceptMaxActiveConnections)),
		nonNegative("dialog.backlogClearInterval", int64(d.BacklogClearInterval)),
	)
}

// Validate reports every invalid field.
func (p Pools) Validate() error {
	var err error
	for _, pool := range []struct {
		name     string
		size     int
		capacity int64
	}{
		{"inbound", p.InboundBufferSize, p.InboundCapacity},
		{"outboundMessage", p.OutboundMessageBufferSize, p.OutboundMessageCapacity},
		{"outboundChannel", p.OutboundChannelBufferSize, p.OutboundChannelCapacity},
	} {
		if pool.size <= 0 {
			err = multierr.Append(err, fmt.Errorf("pools.%sBufferSize must be positive, got %d", pool.name, pool.size))
		}
		err = multierr.Append(err, nonNegative("pools."+pool.name+"Capacity", pool.capacity))
	}
	return err
}

// Validate reports every invalid field.
func (l LeakDetection) Validate() error {
	var err error
	if l.SampleRate < 0 || l.SampleRate > 1 {
		err = multierr.Append(err, fmt.Errorf("leakDetection.sampleRate must be within [0, 1], got %v", l.SampleRate))
	}
	if l.SampleRate == 0 {
		return err
	}
	if l.ScanInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("leakDetection.scanInterval must be positive, got %v", l.ScanInterval))
	}
	return multierr.Combine(
		err,
		nonNegative("leakDetection.grace", int64(l.Grace)),
		nonNegative("leakDetection.maxTracked", int64(l.MaxTracked)),
		nonNegative("leakDetection.maxEvents", int64(l.MaxEvents)),
	)
}

func nonNegative(name string, v int64) error {
	if v < 0 {
		return fmt.Errorf("%s must not be negative, got %d", name, v)
	}
	return nil
}
