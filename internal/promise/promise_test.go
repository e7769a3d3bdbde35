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

package promise

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestCompleteRunsCallbacksOnce(t *testing.T) {
	p := New[string]()
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		p.OnComplete(func(v string, err error) {
			assert.Equal(t, "ready", v)
			assert.NoError(t, err)
			calls.Inc()
		})
	}

	assert.True(t, p.Complete("ready"))
	assert.False(t, p.Complete("again"))
	assert.False(t, p.Fail(errors.New("late")))
	assert.Equal(t, int32(3), calls.Load())

	// late registration runs inline
	p.OnComplete(func(v string, err error) { calls.Inc() })
	assert.Equal(t, int32(4), calls.Load())

	v, err, ok := p.Result()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, "ready", v)
}

func TestFail(t *testing.T) {
	p := New[int]()
	sadness := errors.New("great sadness")
	require.True(t, p.Fail(sadness))

	v, err := p.Wait(context.Background())
	assert.Equal(t, 0, v)
	assert.Equal(t, sadness, err)
}

func TestCancel(t *testing.T) {
	p := New[int]()
	assert.True(t, p.Cancel())
	assert.False(t, p.Cancel())
	_, err, _ := p.Result()
	assert.Equal(t, ErrCancelled, err)
}

func TestWaitContext(t *testing.T) {
	p := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	_, err := p.Wait(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)

	_, _, ok := p.Result()
	assert.False(t, ok)
}

func TestConcurrentRegistration(t *testing.T) {
	p := New[int]()
	var (
		wg    sync.WaitGroup
		calls atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.OnComplete(func(int, error) { calls.Inc() })
		}()
	}
	p.Complete(1)
	wg.Wait()

	<-p.Done()
	assert.Equal(t, int32(50), calls.Load())
}
