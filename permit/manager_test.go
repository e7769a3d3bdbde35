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

package permit

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recorder collects notifications in the order they arrive.
type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) notifier(id string) func() {
	return func() {
		r.mu.Lock()
		r.ids = append(r.ids, id)
		r.mu.Unlock()
	}
}

func (r *recorder) notified() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestReserveFreeFIFO(t *testing.T) {
	var rec recorder
	m := NewManager(2, Logger(zaptest.NewLogger(t)))
	h1 := m.CreateHandle("h1", rec.notifier("h1"))
	h2 := m.CreateHandle("h2", rec.notifier("h2"))
	h3 := m.CreateHandle("h3", rec.notifier("h3"))

	assert.True(t, h1.Reserve())
	assert.True(t, h2.Reserve())
	assert.False(t, h3.Reserve(), "no permit left for h3")
	assert.Equal(t, 1, m.Waiting())

	assert.False(t, h2.Reserve(), "h2 must wait behind h3")
	assert.Equal(t, 2, m.Waiting())

	h1.Free(1)
	assert.Equal(t, []string{"h3"}, rec.notified(), "h3 waited first")
	assert.Equal(t, int64(1), h3.Held())
	assert.Equal(t, int64(1), h2.Held())
	assert.Equal(t, 1, m.Waiting())

	h3.Free(1)
	assert.Equal(t, []string{"h3", "h2"}, rec.notified())
	assert.Equal(t, int64(2), h2.Held())
	assert.Equal(t, 0, m.Waiting())
	assert.Equal(t, int64(0), m.Available())

	h2.Free(2)
	assert.Equal(t, int64(2), m.Available())
}

func TestReserveNoBarging(t *testing.T) {
	var rec recorder
	m := NewManager(1)
	holder := m.CreateHandle("holder", nil)
	require.True(t, holder.Reserve())

	var handles []*Handle
	for i := 0; i < 5; i++ {
		id := fmt.Sprint(i)
		h := m.CreateHandle(id, rec.notifier(id))
		require.False(t, h.Reserve())
		handles = append(handles, h)
	}

	holder.Free(1)
	late := m.CreateHandle("late", rec.notifier("late"))
	assert.False(t, late.Reserve(), "a newcomer may not take a permit ahead of waiters")

	for i, h := range handles {
		h.Free(1)
		if i < len(handles)-1 {
			assert.Equal(t, int64(1), handles[i+1].Held())
		}
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "late"}, rec.notified())
	late.Free(1)
	assert.Equal(t, int64(1), m.Available())
}

func TestReserveQueuesOnce(t *testing.T) {
	m := NewManager(0)
	h := m.CreateHandle("h", nil)
	for i := 0; i < 3; i++ {
		assert.False(t, h.Reserve())
	}
	assert.Equal(t, 1, m.Waiting())

	m.SetNumPermits(3, nil)
	assert.Equal(t, int64(1), h.Held(), "a queued handle gets one permit per wait")
	assert.Equal(t, int64(2), m.Available())
}

func TestCloseWithdrawsAndReleases(t *testing.T) {
	var rec recorder
	m := NewManager(1)
	a := m.CreateHandle("a", rec.notifier("a"))
	b := m.CreateHandle("b", rec.notifier("b"))
	c := m.CreateHandle("c", rec.notifier("c"))

	require.True(t, a.Reserve())
	require.False(t, b.Reserve())
	require.False(t, c.Reserve())

	b.Close()
	assert.Equal(t, 1, m.Waiting())

	a.Close()
	assert.Equal(t, []string{"c"}, rec.notified())
	assert.Equal(t, int64(1), c.Held())
	assert.Equal(t, int64(0), m.Available())

	c.Close()
	assert.Equal(t, int64(1), m.Available())
}

func TestSetNumPermitsIncrease(t *testing.T) {
	var rec recorder
	m := NewManager(1)
	a := m.CreateHandle("a", rec.notifier("a"))
	b := m.CreateHandle("b", rec.notifier("b"))
	require.True(t, a.Reserve())
	require.False(t, b.Reserve())

	called := 0
	m.SetNumPermits(3, func() { called++ })
	assert.Equal(t, 1, called)
	assert.Equal(t, int64(3), m.Total())
	assert.Equal(t, []string{"b"}, rec.notified())
	assert.Equal(t, int64(1), m.Available())
}

func TestSetNumPermitsDecrease(t *testing.T) {
	m := NewManager(3)
	h := m.CreateHandle("h", nil)
	for i := 0; i < 3; i++ {
		require.True(t, h.Reserve())
	}

	called := 0
	m.SetNumPermits(1, func() { called++ })
	assert.Equal(t, int64(1), m.Total())
	assert.Equal(t, int64(-2), m.Available())
	assert.Equal(t, 0, called)

	waiter := m.CreateHandle("waiter", nil)
	assert.False(t, waiter.Reserve())

	h.Free(1)
	assert.Equal(t, 0, called, "deficit not absorbed yet")
	assert.Equal(t, int64(0), waiter.Held())

	h.Free(1)
	assert.Equal(t, 1, called)
	assert.Equal(t, int64(0), m.Available())
	assert.Equal(t, int64(0), waiter.Held())

	h.Free(1)
	assert.Equal(t, 1, called)
	assert.Equal(t, int64(1), waiter.Held())
	assert.Equal(t, int64(0), m.Available())
}

func TestSetNumPermitsDecreaseWithinAvailable(t *testing.T) {
	m := NewManager(5)
	called := 0
	m.SetNumPermits(2, func() { called++ })
	assert.Equal(t, 1, called)
	assert.Equal(t, int64(2), m.Available())
}

func TestSetNumPermitsSupersedes(t *testing.T) {
	m := NewManager(2)
	h := m.CreateHandle("h", nil)
	require.True(t, h.Reserve())
	require.True(t, h.Reserve())

	var first, second int
	m.SetNumPermits(0, func() { first++ })
	m.SetNumPermits(1, func() { second++ })
	assert.Equal(t, int64(-1), m.Available())

	h.Free(1)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, int64(0), m.Available())
}

func TestMisusePanics(t *testing.T) {
	tests := []struct {
		desc string
		give func(m *Manager)
	}{
		{
			desc: "free more than held",
			give: func(m *Manager) {
				h := m.CreateHandle("h", nil)
				h.Reserve()
				h.Free(2)
			},
		},
		{
			desc: "free negative",
			give: func(m *Manager) { m.CreateHandle("h", nil).Free(-1) },
		},
		{
			desc: "double close",
			give: func(m *Manager) {
				h := m.CreateHandle("h", nil)
				h.Close()
				h.Close()
			},
		},
		{
			desc: "reserve after close",
			give: func(m *Manager) {
				h := m.CreateHandle("h", nil)
				h.Close()
				h.Reserve()
			},
		},
		{
			desc: "free after close",
			give: func(m *Manager) {
				h := m.CreateHandle("h", nil)
				h.Close()
				h.Free(0)
			},
		},
		{
			desc: "negative total",
			give: func(m *Manager) { m.SetNumPermits(-1, nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Panics(t, func() { tt.give(NewManager(1)) })
		})
	}
}

func TestPermitsAreConserved(t *testing.T) {
	const (
		total   = 4
		workers = 16
		rounds  = 200
	)
	m := NewManager(total)

	var wg sync.WaitGroup
	handles := make([]*Handle, workers)
	for i := range handles {
		granted := make(chan struct{}, 1)
		h := m.CreateHandle(fmt.Sprint(i), func() { granted <- struct{}{} })
		handles[i] = h

		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for j := 0; j < rounds; j++ {
				if !h.Reserve() {
					<-granted
				}
				if r.Intn(4) == 0 {
					m.SetNumPermits(int64(1+r.Intn(total)), nil)
				}
				h.Free(1)
			}
		}(int64(i))
	}
	wg.Wait()

	// Settle any reduction still being absorbed.
	m.SetNumPermits(total, nil)

	var held int64
	for _, h := range handles {
		held += h.Held()
	}
	assert.Equal(t, int64(0), held)
	assert.Equal(t, 0, m.Waiting())
	assert.Equal(t, m.Total(), m.Available()+held)
}

func TestDepositCompletesReduction(t *testing.T) {
	m := NewManager(100)

	// A reduction by 90 landed after 50 freed permits found no deficit.
	called := 0
	m.total.Store(10)
	m.available.Store(-40)
	m.pendingAdjust = func() { called++ }

	m.deposit(50)
	assert.Equal(t, 1, called)
	assert.Equal(t, int64(10), m.Available())

	m.deposit(5)
	assert.Equal(t, 1, called, "no reduction pending")
}

func TestSetNumPermitsCallbackUnderFrees(t *testing.T) {
	const (
		total   = 8
		workers = 8
		rounds  = 300
	)
	m := NewManager(total)

	var (
		wg      sync.WaitGroup
		stop    = make(chan struct{})
		adjusts sync.WaitGroup
	)
	handles := make([]*Handle, workers)
	for i := range handles {
		granted := make(chan struct{}, 1)
		h := m.CreateHandle(fmt.Sprint(i), func() { granted <- struct{}{} })
		handles[i] = h

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if !h.Reserve() {
					select {
					case <-granted:
					case <-stop:
						// The permit may still arrive; Close returns it.
						return
					}
				}
				h.Free(1)
			}
		}()
	}

	r := rand.New(rand.NewSource(1))
	for i := 0; i < rounds; i++ {
		done := make(chan struct{})
		adjusts.Add(1)
		m.SetNumPermits(int64(1+r.Intn(total)), func() {
			close(done)
			adjusts.Done()
		})
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("adjustment %d never completed", i)
		}
	}
	close(stop)
	wg.Wait()
	adjusts.Wait()

	for _, h := range handles {
		h.Close()
	}
	m.SetNumPermits(total, nil)
	assert.Equal(t, m.Total(), m.Available())
}
