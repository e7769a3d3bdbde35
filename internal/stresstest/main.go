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

// Package main runs a dialog admission simulation: several connections
// compete for the permits of one endpoint group, each starting dialogs of a
// fixed duration as fast as its concurrency allows. It reports how the
// permits were shared.
//
// Output:
//
//	name   concurrency  dialog  dialogs  permit-share  demand-share
//	short  4            1ms     5713     0.19          0.10
//	long   4            4ms     1629     0.41          0.40
//	wide   8            1ms     5702     0.40          0.20
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "dialog-stress",
		Short: "Simulate connections competing for dialog permits",
		Long: `dialog-stress starts one simulated connection per class and keeps
every connection saturated with dialogs for the given duration. Each
dialog holds one of the group's permits for the class's dialog time.

Classes are given as name:concurrency:dialog-time, for example
short:4:1ms.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			classes, err := parseClasses(opts.classes)
			if err != nil {
				return err
			}
			report, err := simulate(opts, classes)
			if err != nil {
				return err
			}
			return report.Print(cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.Int64VarP(&opts.permits, "permits", "p", 8, "number of dialog permits shared by all connections")
	flags.DurationVarP(&opts.duration, "duration", "d", defaultDuration, "how long to run the simulation")
	flags.StringSliceVarP(&opts.classes, "class", "c", defaultClasses, "connection classes as name:concurrency:dialog-time")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log endpoint group activity")
	return cmd
}
