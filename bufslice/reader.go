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
	"errors"
	"io"
)

// FrameReader reads a byte stream into pooled inbound buffers and cuts it
// into messages without copying. A message may span several buffers.
type FrameReader struct {
	r    io.Reader
	pool *Pool

	cur   *InboundSlice
	avail int
	err   error
}

// NewFrameReader reads from r into buffers from p.
func NewFrameReader(r io.Reader, p *Pool) *FrameReader {
	return &FrameReader{r: r, pool: p}
}

// Next returns the next n bytes of the stream. It returns io.EOF if the
// stream ended cleanly before the message and io.ErrUnexpectedEOF if it
// ended inside it.
func (fr *FrameReader) Next(n int) (*MessageInput, error) {
	if n < 0 {
		return nil, errors.New("bufslice: negative frame length")
	}

	msg := &MessageInput{}
	for want := n; want > 0; {
		if fr.avail == 0 {
			if err := fr.fill(); err != nil {
				msg.Release()
				if err == io.EOF && want < n {
					err = io.ErrUnexpectedEOF
				}
				return nil, err
			}
		}
		take := min(want, fr.avail)
		msg.Append(fr.cur.ForkAndAdvance(take))
		fr.avail -= take
		want -= take
	}
	return msg, nil
}

// fill reads at least one byte into the current buffer.
func (fr *FrameReader) fill() error {
	if fr.cur == nil || fr.cur.Len() == 0 {
		if fr.cur != nil {
			fr.cur.MarkFree()
		}
		fr.cur = NewInboundSlice(fr.pool)
	}
	for fr.avail == 0 {
		if fr.err != nil {
			return fr.err
		}
		k, err := fr.r.Read(fr.cur.Bytes())
		fr.avail = k
		fr.err = err
	}
	return nil
}

// Close releases the buffer held for reading ahead. Messages already
// returned stay valid.
func (fr *FrameReader) Close() {
	if fr.cur != nil {
		fr.cur.MarkFree()
		fr.cur = nil
	}
	fr.avail = 0
}
