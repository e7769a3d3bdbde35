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

// Package bufslice provides pooled buffers and reference-counted views over
// them used to assemble and take apart protocol frames without copying.
//
// A root slice covers a whole Buffer taken from a Pool. Forking carves a
// child view off the front (ForkAndAdvance) or the back (ForkBackwards) of
// the parent's remaining window. The child holds a reference on its parent,
// so the buffer goes back to its pool once every slice of the tree has been
// marked free:
//
//	root := bufslice.NewInboundSlice(pool)
//	header := root.ForkAndAdvance(16)
//	body := root.ForkAndAdvance(84)
//	root.MarkFree()
//	...
//	header.MarkFree()
//	body.MarkFree() // buffer returns to pool
//
// InboundSlice uses a plain reference count and must stay on one
// goroutine. OutboundSlice counts atomically and may be shared.
package bufslice
