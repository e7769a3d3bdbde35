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

import (
	"io"
	"net"
)

// MessageInput is a message received as one or more inbound slices. It
// owns its slices until Release.
type MessageInput struct {
	slices   []*InboundSlice
	off      int
	released bool
}

var _ io.Reader = (*MessageInput)(nil)

// Append adds s to the end of the message and takes over its reference.
func (m *MessageInput) Append(s *InboundSlice) {
	if m.released {
		panic("bufslice: Append on released MessageInput")
	}
	m.slices = append(m.slices, s)
}

// Len returns the number of unread bytes.
func (m *MessageInput) Len() int {
	n := -m.off
	for _, s := range m.slices {
		n += s.Len()
	}
	return n
}

// Read reads from the message without copying it out of its buffers more
// than once.
func (m *MessageInput) Read(p []byte) (int, error) {
	var n int
	for len(p) > 0 && len(m.slices) > 0 {
		head := m.slices[0]
		c := copy(p, head.Bytes()[m.off:])
		n += c
		p = p[c:]
		m.off += c
		if m.off == head.Len() {
			head.MarkFree()
			m.slices[0] = nil
			m.slices = m.slices[1:]
			m.off = 0
		}
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Release frees every slice still held. It is safe to call more than once.
func (m *MessageInput) Release() {
	if m.released {
		return
	}
	m.released = true
	for _, s := range m.slices {
		s.MarkFree()
	}
	m.slices = nil
}

// MessageOutput assembles an outgoing message in pooled buffers. Headers
// may be prepended into a reserved headroom once the body is known.
type MessageOutput struct {
	pool    *Pool
	head    *OutboundSlice
	cur     *OutboundSlice
	filled  int
	headers []*OutboundSlice
	body    []*OutboundSlice
	n       int

	released bool
}

var (
	_ io.Writer   = (*MessageOutput)(nil)
	_ io.WriterTo = (*MessageOutput)(nil)
)

// NewMessageOutput starts a message in buffers from p, keeping headroom
// bytes in front of the body for Prepend.
func NewMessageOutput(p *Pool, headroom int) *MessageOutput {
	m := &MessageOutput{pool: p, cur: NewOutboundSlice(p)}
	if headroom > 0 {
		m.head = m.cur.ForkAndAdvance(headroom)
	}
	return m
}

// Write appends b to the body.
func (m *MessageOutput) Write(b []byte) (int, error) {
	m.mustBeLive()
	written := len(b)
	for len(b) > 0 {
		if m.filled == m.cur.Len() {
			m.seal()
			m.cur.MarkFree()
			m.cur = NewOutboundSlice(m.pool)
		}
		c := copy(m.cur.Bytes()[m.filled:], b)
		m.filled += c
		b = b[c:]
	}
	m.n += written
	return written, nil
}

// Prepend reserves n bytes in front of everything written or prepended so
// far and returns them for the caller to fill.
func (m *MessageOutput) Prepend(n int) []byte {
	m.mustBeLive()
	if m.head == nil {
		panic("bufslice: Prepend on MessageOutput without headroom")
	}
	hdr := m.head.ForkBackwards(n)
	m.headers = append([]*OutboundSlice{hdr}, m.headers...)
	m.n += n
	return hdr.Bytes()
}

// Len returns the size of the message including prepended headers.
func (m *MessageOutput) Len() int { return m.n }

// Buffers returns the message as a vector suitable for a single vectored
// write. The returned bytes stay valid until Release.
func (m *MessageOutput) Buffers() net.Buffers {
	m.mustBeLive()
	m.seal()
	bufs := make(net.Buffers, 0, len(m.headers)+len(m.body))
	for _, s := range m.headers {
		bufs = append(bufs, s.Bytes())
	}
	for _, s := range m.body {
		bufs = append(bufs, s.Bytes())
	}
	return bufs
}

// WriteTo writes the whole message to w.
func (m *MessageOutput) WriteTo(w io.Writer) (int64, error) {
	bufs := m.Buffers()
	return bufs.WriteTo(w)
}

// Release returns every buffer of the message. It is safe to call more
// than once.
func (m *MessageOutput) Release() {
	if m.released {
		return
	}
	m.released = true
	for _, s := range m.headers {
		s.MarkFree()
	}
	for _, s := range m.body {
		s.MarkFree()
	}
	if m.head != nil {
		m.head.MarkFree()
	}
	m.cur.MarkFree()
	m.headers, m.body = nil, nil
}

// seal moves the filled part of the current buffer into the body.
func (m *MessageOutput) seal() {
	if m.filled == 0 {
		return
	}
	m.body = append(m.body, m.cur.ForkAndAdvance(m.filled))
	m.filled = 0
}

func (m *MessageOutput) mustBeLive() {
	if m.released {
		panic("bufslice: use of released MessageOutput")
	}
}
