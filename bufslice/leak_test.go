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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/dialogmux/internal/clock"
	"go.uber.org/goleak"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func leakConfig() dialogconfig.LeakDetection {
	return dialogconfig.LeakDetection{
		SampleRate:   1,
		Grace:        time.Minute,
		ScanInterval: 10 * time.Second,
		MaxTracked:   16,
		MaxEvents:    16,
	}
}

func TestLeakTrackerDisabled(t *testing.T) {
	tracker := NewLeakTracker(dialogconfig.LeakDetection{})
	require.Nil(t, tracker)

	p := NewPool("test", 8, 8, tracker)
	s := NewInboundSlice(p)
	s.ForkAndAdvance(4).MarkFree()
	s.MarkFree()

	assert.Nil(t, tracker.Scan())
	assert.Nil(t, tracker.Reports())
	assert.Nil(t, tracker.Errors())
	assert.Equal(t, 0, tracker.Tracked())
	tracker.Run(make(chan struct{}))
}

func TestLeakTrackerSampling(t *testing.T) {
	cfg := leakConfig()
	cfg.SampleRate = 0.5
	tracker := NewLeakTracker(cfg)

	in := NewPool("in", 8, 64, tracker)
	out := NewPool("out", 8, 64, tracker)
	for i := 0; i < 4; i++ {
		NewInboundSlice(in)
	}
	NewOutboundSlice(out)
	assert.Equal(t, 3, tracker.Tracked(), "every second allocation of each category")
}

func TestLeakTrackerScan(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	root := metrics.New()
	clk := clock.NewFake()
	tracker := NewLeakTracker(leakConfig(),
		TrackerLogger(zap.New(core)),
		TrackerMetrics(root.Scope()),
		TrackerClock(clk),
	)

	p := NewPool("inbound", 32, 64, tracker)
	leaked := NewInboundSlice(p)
	child := leaked.ForkAndAdvance(8)
	leaked.MarkFree()

	freed := NewInboundSlice(p)
	freed.MarkFree()
	assert.Equal(t, 1, tracker.Tracked(), "fully freed trees stop being tracked")

	clk.Add(30 * time.Second)
	assert.Empty(t, tracker.Scan(), "within grace period")

	clk.Add(time.Minute)
	reports := tracker.Scan()
	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, "inbound", r.Category)
	assert.Equal(t, leaked.ID(), r.Root)
	assert.Equal(t, int64(2), r.Open)
	require.Len(t, r.Events, 3)
	assert.Equal(t, eventAlloc, r.Events[0].Kind)
	assert.Equal(t, eventForkAdvance, r.Events[1].Kind)
	assert.Equal(t, child.ID(), r.Events[1].Slice)
	assert.Equal(t, eventFree, r.Events[2].Kind)
	assert.Contains(t, r.Events[1].Caller, "leak_test.go")
	assert.Contains(t, r.String(), "fork-advance")

	assert.Equal(t, 0, tracker.Tracked(), "reported trees are discarded")
	assert.Equal(t, reports, tracker.Reports())
	assert.Empty(t, tracker.Scan())

	require.Equal(t, 1, logs.FilterMessage("suspected buffer leak").Len())
	var found bool
	for _, c := range root.Snapshot().Counters {
		if c.Name == "buffer_leaks" {
			found = true
			assert.Equal(t, int64(1), c.Value)
		}
	}
	assert.True(t, found, "leak counter registered")

	child.MarkFree()
	assert.Equal(t, int64(0), p.Stats().InUse, "tracking never changes slice semantics")
}

func TestLeakTrackerLimits(t *testing.T) {
	cfg := leakConfig()
	cfg.MaxTracked = 1
	cfg.MaxEvents = 2
	clk := clock.NewFake()
	core, logs := observer.New(zap.ErrorLevel)
	tracker := NewLeakTracker(cfg, TrackerClock(clk), TrackerLogger(zap.New(core)))

	p := NewPool("test", 32, 64, tracker)
	a := NewInboundSlice(p)
	b := NewInboundSlice(p)
	a.ForkAndAdvance(1)
	a.ForkAndAdvance(1)
	a.ForkAndAdvance(1)

	errs := tracker.Errors()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "leak tracker is full")
	assert.Contains(t, errs[1].Error(), "exceeded 2 recorded events")
	assert.Equal(t, 1, logs.FilterMessage("leak tracker error").Len(), "tracker errors are rate limited")

	clk.Add(2 * time.Minute)
	reports := tracker.Scan()
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Truncated)
	assert.Len(t, reports[0].Events, 2)
	assert.Equal(t, int64(7), reports[0].Open)
	b.MarkFree()
}

func TestLeakTrackerRun(t *testing.T) {
	cfg := leakConfig()
	cfg.Grace = time.Second
	clk := clock.NewFake()
	tracker := NewLeakTracker(cfg, TrackerClock(clk))

	NewOutboundSlice(NewPool("test", 8, 8, tracker))

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		tracker.Run(stop)
	}()

	require.Eventually(t, func() bool { return clk.Waiters() == 1 }, time.Second, time.Millisecond)
	clk.Add(cfg.ScanInterval)
	assert.Eventually(t, func() bool { return len(tracker.Reports()) == 1 }, time.Second, time.Millisecond)

	close(stop)
	<-done
}
