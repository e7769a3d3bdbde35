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

// Package promise provides a one-shot result shared by many waiters.
//
// A Promise is completed at most once, by a single producer. Continuations
// registered with OnComplete run exactly once: on the completing goroutine
// if registered before completion, or on the registering goroutine after.
package promise

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is the failure of a promise that was cancelled before it
// completed.
var ErrCancelled = errors.New("promise cancelled")

// Promise holds a value or an error that becomes available later.
type Promise[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	value     T
	err       error
	callbacks []func(T, error)
}

// New returns an incomplete promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Complete resolves the promise with v. It returns false if the promise
// was already completed.
func (p *Promise[T]) Complete(v T) bool {
	return p.finish(v, nil)
}

// Fail resolves the promise with err. It returns false if the promise was
// already completed.
func (p *Promise[T]) Fail(err error) bool {
	var zero T
	return p.finish(zero, err)
}

// Cancel fails the promise with ErrCancelled unless it already completed.
func (p *Promise[T]) Cancel() bool {
	return p.Fail(ErrCancelled)
}

func (p *Promise[T]) finish(v T, err error) bool {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return false
	}
	p.completed = true
	p.value, p.err = v, err
	callbacks := p.callbacks
	p.callbacks = nil
	close(p.done)
	p.mu.Unlock()

	for _, f := range callbacks {
		f(v, err)
	}
	return true
}

// OnComplete registers f to run once the promise completes.
func (p *Promise[T]) OnComplete(f func(T, error)) {
	p.mu.Lock()
	if !p.completed {
		p.callbacks = append(p.callbacks, f)
		p.mu.Unlock()
		return
	}
	v, err := p.value, p.err
	p.mu.Unlock()
	f(v, err)
}

// Done returns a channel that is closed once the promise completes.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome of the promise and whether it has completed.
func (p *Promise[T]) Result() (T, error, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err, p.completed
}

// Wait blocks until the promise completes or ctx is done.
func (p *Promise[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		v, err, _ := p.Result()
		return v, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
