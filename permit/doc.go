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

// Package permit implements admission control for dialogs.
//
// A Manager owns a fixed number of permits shared by every connection of an
// endpoint group. Each connection obtains a Handle and reserves one permit
// per dialog it wants to activate:
//
//	h := m.CreateHandle("conn-1", func() { startNextDialog() })
//	if h.Reserve() {
//		startNextDialog()
//	}
//	...
//	h.Free(1)
//
// When no permit is available the handle waits in a single FIFO queue and
// its notify function is called once a permit has been granted to it. A
// handle never overtakes one that started waiting before it.
//
// Misuse (freeing more than held, closing twice, using a closed handle) is a
// programming error and panics.
package permit
