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
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/dialogmux/internal/clock"
	"go.uber.org/dialogmux/internal/sampledlogger"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

const (
	_maxReports = 32
	_maxErrors  = 64
)

// EventKind is the kind of a recorded slice event.
type EventKind int

const (
	eventAlloc EventKind = iota + 1
	eventForkAdvance
	eventForkBackwards
	eventRetain
	eventFree
)

func (k EventKind) String() string {
	switch k {
	case eventAlloc:
		return "alloc"
	case eventForkAdvance:
		return "fork-advance"
	case eventForkBackwards:
		return "fork-backwards"
	case eventRetain:
		return "retain"
	case eventFree:
		return "free"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// LeakEvent is one operation on a tracked slice tree.
type LeakEvent struct {
	Kind   EventKind
	Slice  uint64
	Parent uint64
	Len    int
	At     time.Time
	Caller string
}

// LeakReport describes a sampled buffer that was not fully freed within
// the grace period.
type LeakReport struct {
	Category  string
	Root      uint64
	Allocated time.Time
	// Open is the number of references still outstanding in the tree.
	Open      int64
	Events    []LeakEvent
	Truncated bool
}

// String renders the report with forks indented under their parents.
func (r LeakReport) String() string {
	depth := map[uint64]int{r.Root: 0}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s buffer %d allocated at %s has %d open references",
		r.Category, r.Root, r.Allocated.Format(time.RFC3339Nano), r.Open)
	for _, ev := range r.Events {
		d := depth[ev.Slice]
		if ev.Kind == eventForkAdvance || ev.Kind == eventForkBackwards {
			d = depth[ev.Parent] + 1
			depth[ev.Slice] = d
		}
		fmt.Fprintf(&sb, "\n%s%s slice=%d len=%d at %s", strings.Repeat("  ", d+1), ev.Kind, ev.Slice, ev.Len, ev.Caller)
	}
	if r.Truncated {
		sb.WriteString("\n  ...")
	}
	return sb.String()
}

type trackerOptions struct {
	logger *zap.Logger
	scope  *metrics.Scope
	clock  clock.Clock
}

// TrackerOption customizes a LeakTracker.
type TrackerOption func(*trackerOptions)

// TrackerLogger sets the logger leaks are reported to.
func TrackerLogger(logger *zap.Logger) TrackerOption {
	return func(o *trackerOptions) {
		o.logger = logger
	}
}

// TrackerMetrics sets the scope the leak counter is registered with.
func TrackerMetrics(scope *metrics.Scope) TrackerOption {
	return func(o *trackerOptions) {
		o.scope = scope
	}
}

// TrackerClock sets the clock used for ages and scan intervals.
func TrackerClock(clk clock.Clock) TrackerOption {
	return func(o *trackerOptions) {
		o.clock = clk
	}
}

// LeakTracker samples root slice allocations and reports those that are
// still referenced after a grace period.
//
// A nil *LeakTracker is valid and tracks nothing.
type LeakTracker struct {
	logger *zap.Logger
	noisy  *sampledlogger.Logger
	clock  clock.Clock
	leaks  *metrics.Counter

	every      uint64
	grace      time.Duration
	interval   time.Duration
	maxTracked int
	maxEvents  int

	allocs *xsync.MapOf[string, *atomic.Uint64]

	mu      sync.Mutex
	traces  map[uint64]*trace
	reports []LeakReport
	errs    []error
}

// NewLeakTracker builds a tracker from cfg. It returns nil when the sample
// rate is zero.
func NewLeakTracker(cfg dialogconfig.LeakDetection, opts ...TrackerOption) *LeakTracker {
	if cfg.SampleRate <= 0 {
		return nil
	}

	options := trackerOptions{
		logger: zap.NewNop(),
		clock:  clock.NewReal(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.scope == nil {
		options.scope = metrics.New().Scope()
	}

	leaks, err := options.scope.Counter(metrics.Spec{
		Name: "buffer_leaks",
		Help: "Total number of sampled buffers reported as leaked.",
	})
	if err != nil {
		options.logger.Error("Failed to create buffer leak counter", zap.Error(err))
	}

	return &LeakTracker{
		logger:     options.logger,
		noisy:      sampledlogger.New(options.logger, time.Minute, options.clock),
		clock:      options.clock,
		leaks:      leaks,
		every:      uint64(math.Ceil(1 / min(cfg.SampleRate, 1))),
		grace:      cfg.Grace,
		interval:   cfg.ScanInterval,
		maxTracked: cfg.MaxTracked,
		maxEvents:  cfg.MaxEvents,
		allocs:     xsync.NewMapOf[string, *atomic.Uint64](),
		traces:     make(map[uint64]*trace),
	}
}

// track decides whether the root allocation rootID is sampled and returns
// its trace if so.
func (t *LeakTracker) track(category string, rootID uint64, size int) *trace {
	if t == nil {
		return nil
	}

	count, _ := t.allocs.LoadOrCompute(category, func() *atomic.Uint64 {
		return atomic.NewUint64(0)
	})
	if (count.Inc()-1)%t.every != 0 {
		return nil
	}

	tr := &trace{
		tracker:   t,
		category:  category,
		root:      rootID,
		allocated: t.clock.Now(),
		open:      1,
	}

	t.mu.Lock()
	if t.maxTracked > 0 && len(t.traces) >= t.maxTracked {
		t.mu.Unlock()
		t.recordError(fmt.Errorf("leak tracker is full with %d traces, %s buffer %d not tracked", t.maxTracked, category, rootID))
		return nil
	}
	t.traces[rootID] = tr
	t.mu.Unlock()

	tr.record(eventAlloc, rootID, 0, size, 0)
	return tr
}

func (t *LeakTracker) untrack(tr *trace) {
	t.mu.Lock()
	delete(t.traces, tr.root)
	t.mu.Unlock()
}

func (t *LeakTracker) recordError(err error) {
	t.mu.Lock()
	if len(t.errs) < _maxErrors {
		t.errs = append(t.errs, err)
	}
	t.mu.Unlock()
	t.noisy.Error("leak tracker error", zap.Error(err))
}

// Tracked returns the number of sampled trees not yet fully freed.
func (t *LeakTracker) Tracked() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.traces)
}

// Errors returns the internal errors recorded so far.
func (t *LeakTracker) Errors() []error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]error(nil), t.errs...)
}

// Reports returns the most recent leak reports, oldest first.
func (t *LeakTracker) Reports() []LeakReport {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]LeakReport(nil), t.reports...)
}

// Scan reports every tracked tree older than the grace period that still
// has open references, and stops tracking it.
func (t *LeakTracker) Scan() []LeakReport {
	if t == nil {
		return nil
	}

	now := t.clock.Now()
	var suspects []*trace
	t.mu.Lock()
	for id, tr := range t.traces {
		if now.Sub(tr.allocated) > t.grace {
			suspects = append(suspects, tr)
			delete(t.traces, id)
		}
	}
	t.mu.Unlock()

	var reports []LeakReport
	for _, tr := range suspects {
		r, ok := tr.report()
		if !ok {
			continue
		}
		reports = append(reports, r)
		t.logger.Warn("suspected buffer leak",
			zap.String("category", r.Category),
			zap.Uint64("root", r.Root),
			zap.Int64("open", r.Open),
			zap.Duration("age", now.Sub(r.Allocated)),
			zap.String("events", r.String()),
		)
		if t.leaks != nil {
			t.leaks.Inc()
		}
	}

	if len(reports) > 0 {
		t.mu.Lock()
		t.reports = append(t.reports, reports...)
		if extra := len(t.reports) - _maxReports; extra > 0 {
			t.reports = append([]LeakReport(nil), t.reports[extra:]...)
		}
		t.mu.Unlock()
	}
	return reports
}

// Run scans every scan interval until stop is closed.
func (t *LeakTracker) Run(stop <-chan struct{}) {
	if t == nil {
		return
	}
	for {
		select {
		case <-stop:
			return
		case <-t.clock.After(t.interval):
			t.Scan()
		}
	}
}

// trace is the event history of one sampled slice tree.
type trace struct {
	tracker   *LeakTracker
	category  string
	root      uint64
	allocated time.Time

	mu        sync.Mutex
	open      int64
	events    []LeakEvent
	truncated bool
	done      bool
}

func (tr *trace) record(kind EventKind, slice, parent uint64, n int, delta int64) {
	if tr == nil {
		return
	}

	tr.mu.Lock()
	if tr.done {
		tr.mu.Unlock()
		return
	}
	tr.open += delta
	overflow := false
	if tr.tracker.maxEvents > 0 && len(tr.events) >= tr.tracker.maxEvents {
		overflow = !tr.truncated
		tr.truncated = true
	} else {
		tr.events = append(tr.events, LeakEvent{
			Kind:   kind,
			Slice:  slice,
			Parent: parent,
			Len:    n,
			At:     tr.tracker.clock.Now(),
			Caller: caller(),
		})
	}
	finished := tr.open == 0
	tr.done = finished
	tr.mu.Unlock()

	if overflow {
		tr.tracker.recordError(fmt.Errorf("%s buffer %d exceeded %d recorded events", tr.category, tr.root, tr.tracker.maxEvents))
	}
	if finished {
		tr.tracker.untrack(tr)
	}
}

func (tr *trace) report() (LeakReport, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.done || tr.open <= 0 {
		return LeakReport{}, false
	}
	tr.done = true
	return LeakReport{
		Category:  tr.category,
		Root:      tr.root,
		Allocated: tr.allocated,
		Open:      tr.open,
		Events:    append([]LeakEvent(nil), tr.events...),
		Truncated: tr.truncated,
	}, true
}

// caller returns the first frame outside this package.
func caller() string {
	var pcs [8]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.Contains(f.Function, "dialogmux/bufslice.") || strings.HasSuffix(f.File, "_test.go") {
			return fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		if !more {
			return fmt.Sprintf("%s:%d", f.File, f.Line)
		}
	}
}
