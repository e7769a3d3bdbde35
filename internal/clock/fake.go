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

package clock

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// FakeClock is a clock that only moves forward when told to.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
}

type waiter struct {
	at time.Time
	c  chan time.Time
}

var _ Clock = (*FakeClock)(nil)

// NewFake returns a fake clock set to the Unix epoch.
func NewFake() *FakeClock {
	return &FakeClock{now: time.Unix(0, 0)}
}

// Now returns the current time on the fake clock.
func (fc *FakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

// After produces a channel that will emit the time once the fake clock has
// been moved at least d forward.
func (fc *FakeClock) After(d time.Duration) <-chan time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	c := make(chan time.Time, 1)
	at := fc.now.Add(d)
	if d <= 0 {
		c <- fc.now
		return c
	}
	fc.waiters = append(fc.waiters, waiter{at: at, c: c})
	return c
}

// Waiters returns the number of pending After channels.
func (fc *FakeClock) Waiters() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.waiters)
}

// Add moves the fake clock forward by d, firing every After channel whose
// deadline has passed in deadline order.
func (fc *FakeClock) Add(d time.Duration) {
	fc.mu.Lock()
	fc.now = fc.now.Add(d)
	now := fc.now

	sort.SliceStable(fc.waiters, func(i, j int) bool {
		return fc.waiters[i].at.Before(fc.waiters[j].at)
	})
	var fired []waiter
	for len(fc.waiters) > 0 && !fc.waiters[0].at.After(now) {
		fired = append(fired, fc.waiters[0])
		fc.waiters = fc.waiters[1:]
	}
	fc.mu.Unlock()

	for _, w := range fired {
		w.c <- w.at
	}
	runtime.Gosched()
}
