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
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseClasses(t *testing.T) {
	classes, err := parseClasses(defaultClasses)
	require.NoError(t, err)
	assert.Equal(t, class{name: "long", concurrency: 4, dialogTime: 4 * time.Millisecond}, classes[1])

	for _, give := range [][]string{
		nil,
		{"short"},
		{"short:0:1ms"},
		{"short:x:1ms"},
		{"short:1:-1ms"},
		{"short:1:1ms", "short:2:1ms"},
	} {
		_, err := parseClasses(give)
		assert.Error(t, err, "%v", give)
	}
}

func TestSimulate(t *testing.T) {
	classes, err := parseClasses([]string{"a:2:1ms", "b:2:2ms"})
	require.NoError(t, err)

	r, err := simulate(options{permits: 2, duration: 100 * time.Millisecond}, classes)
	require.NoError(t, err, "every permit is returned")
	require.Len(t, r.rows, 2)

	var share float64
	for _, row := range r.rows {
		assert.Positive(t, row.dialogs, row.name)
		share += row.share
	}
	assert.InDelta(t, 1, share, 0.001)
	assert.InDelta(t, 1.0/3, r.rows[0].demandShare, 0.001)

	var buf bytes.Buffer
	require.NoError(t, r.Print(&buf))
	assert.Contains(t, buf.String(), "permit-share")
}

func TestCommand(t *testing.T) {
	cmd := newCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--duration", "50ms", "--permits", "1", "--class", "solo:1:1ms"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "solo")

	cmd = newCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--class", "bad"})
	assert.Error(t, cmd.Execute())
}
