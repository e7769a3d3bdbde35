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

package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/dialogmux/api/dialog"
	"go.uber.org/dialogmux/api/dialog/dialogtest"
	"go.uber.org/dialogmux/dialogconfig"
	"go.uber.org/dialogmux/endpoint"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	defaultDuration = 2 * time.Second
	_drainTimeout   = 5 * time.Second
)

var defaultClasses = []string{"short:4:1ms", "long:4:4ms", "wide:8:1ms"}

type options struct {
	permits  int64
	duration time.Duration
	classes  []string
	verbose  bool
}

type class struct {
	name        string
	concurrency int
	dialogTime  time.Duration
}

func parseClasses(specs []string) ([]class, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one class is required")
	}
	classes := make([]class, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid class %q: want name:concurrency:dialog-time", spec)
		}
		if _, ok := seen[parts[0]]; ok {
			return nil, fmt.Errorf("duplicate class %q", parts[0])
		}
		seen[parts[0]] = struct{}{}

		concurrency, err := strconv.Atoi(parts[1])
		if err != nil || concurrency <= 0 {
			return nil, fmt.Errorf("invalid concurrency in class %q", spec)
		}
		dialogTime, err := time.ParseDuration(parts[2])
		if err != nil || dialogTime <= 0 {
			return nil, fmt.Errorf("invalid dialog time in class %q", spec)
		}
		classes = append(classes, class{name: parts[0], concurrency: concurrency, dialogTime: dialogTime})
	}
	return classes, nil
}

// row is the outcome for one class.
type row struct {
	class
	dialogs     int64
	busy        time.Duration
	share       float64
	demandShare float64
}

type report struct {
	rows []row
}

func (r report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "name\tconcurrency\tdialog\tdialogs\tpermit-share\tdemand-share")
	for _, row := range r.rows {
		fmt.Fprintf(tw, "%s\t%d\t%v\t%d\t%.2f\t%.2f\n",
			row.name, row.concurrency, row.dialogTime, row.dialogs, row.share, row.demandShare)
	}
	return tw.Flush()
}

func simulate(opts options, classes []class) (report, error) {
	logger := zap.NewNop()
	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return report{}, err
		}
		logger = l
	}

	byRemote := make(map[string]class, len(classes))
	remotes := make([]string, len(classes))
	for i, cl := range classes {
		remotes[i] = fmt.Sprintf("10.0.0.%d:4000", i+1)
		byRemote[remotes[i]] = cl
	}

	var (
		mu    sync.Mutex
		conns = make(map[string]*simConn, len(classes))
	)
	connector := endpoint.ConnectorFunc(func(_ context.Context, p endpoint.ConnectParams) (dialog.ConnectionHandler, error) {
		cl := byRemote[p.Remote]
		remote, err := net.ResolveTCPAddr("tcp", p.Remote)
		if err != nil {
			return nil, err
		}
		c := newSimConn(p.Permits, p.Name, nil, remote, p.Owner, cl.dialogTime, p.Config.Dialog.MaxConcurrentDialogsLocal)
		mu.Lock()
		conns[cl.name] = c
		mu.Unlock()
		return c, nil
	})

	cfg := dialogconfig.Default()
	cfg.MaxActiveDialogs = opts.permits
	g, err := endpoint.NewGroup(cfg,
		endpoint.WithName("dialog-stress"),
		endpoint.WithLogger(logger),
		endpoint.WithConnector(connector),
	)
	if err != nil {
		return report{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	var wg conc.WaitGroup
	for i, cl := range classes {
		connCfg := dialogconfig.DefaultConnection()
		connCfg.Dialog.MaxConcurrentDialogsLocal = cl.concurrency
		ep, err := g.GetCreatorEndpoint(cl.name, remotes[i], "", connCfg)
		if err != nil {
			return report{}, multierr.Append(err, g.Shutdown())
		}
		for j := 0; j < cl.concurrency; j++ {
			wg.Go(func() { submit(ctx, ep) })
		}
	}

	<-ctx.Done()
	err = g.Shutdown()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	timeout := time.After(_drainTimeout)
	for name, c := range conns {
		select {
		case <-c.Drained():
		case <-timeout:
			return report{}, multierr.Append(err, fmt.Errorf("connection %q did not return its permits", name))
		}
	}
	if free, total := g.Permits().Available(), g.Permits().Total(); free != total {
		err = multierr.Append(err, fmt.Errorf("%d of %d permits were not returned", total-free, total))
	}
	return buildReport(classes, conns), err
}

// submit keeps one dialog pending on ep until ctx ends.
func submit(ctx context.Context, ep dialog.Endpoint) {
	for ctx.Err() == nil {
		h := dialogtest.NewRecordingHandler()
		ep.StartDialog("sim", h, 0)
		<-h.Done()
		if len(h.Failures()) > 0 {
			return
		}
	}
}

func buildReport(classes []class, conns map[string]*simConn) report {
	var busy, demand float64
	rows := make([]row, len(classes))
	for i, cl := range classes {
		rows[i].class = cl
		if c, ok := conns[cl.name]; ok {
			rows[i].dialogs = c.completed.Load()
			rows[i].busy = c.busy.Load()
		}
		busy += float64(rows[i].busy)
		demand += float64(cl.dialogTime) * float64(cl.concurrency)
	}
	for i := range rows {
		if busy > 0 {
			rows[i].share = float64(rows[i].busy) / busy
		}
		rows[i].demandShare = float64(rows[i].dialogTime) * float64(rows[i].concurrency) / demand
	}
	return report{rows: rows}
}
