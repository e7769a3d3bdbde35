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

package bufslice

import "go.uber.org/dialogmux/dialogconfig"

// Pool category names.
const (
	Inbound         = "inbound"
	OutboundMessage = "outbound-message"
	OutboundChannel = "outbound-channel"
)

// Pools are the buffer pools shared by every connection of a group.
type Pools struct {
	// Inbound buffers receive bytes read from connections.
	Inbound *Pool
	// OutboundMessage buffers hold serialized messages.
	OutboundMessage *Pool
	// OutboundChannel buffers batch frames before they are flushed.
	OutboundChannel *Pool

	Tracker *LeakTracker
}

// NewPools sizes the pools from cfg. tracker may be nil.
func NewPools(cfg dialogconfig.Pools, tracker *LeakTracker) *Pools {
	return &Pools{
		Inbound:         NewPool(Inbound, cfg.InboundBufferSize, cfg.InboundCapacity, tracker),
		OutboundMessage: NewPool(OutboundMessage, cfg.OutboundMessageBufferSize, cfg.OutboundMessageCapacity, tracker),
		OutboundChannel: NewPool(OutboundChannel, cfg.OutboundChannelBufferSize, cfg.OutboundChannelCapacity, tracker),
		Tracker:         tracker,
	}
}

// Stats returns a snapshot of each pool.
func (p *Pools) Stats() []PoolStats {
	return []PoolStats{p.Inbound.Stats(), p.OutboundMessage.Stats(), p.OutboundChannel.Stats()}
}
