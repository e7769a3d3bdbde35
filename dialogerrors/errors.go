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

// Package dialogerrors holds the failures reported to dialog handlers when a
// dialog cannot be started.
//
// Failures never propagate to the caller of StartDialog; they reach the
// dialog's own Handler.OnFailure as a *Status.
package dialogerrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Newf returns a new Status.
//
// The Code should never be CodeOK, if it is, this will return nil.
func Newf(code Code, format string, args ...interface{}) *Status {
	if code == CodeOK {
		return nil
	}

	var err error
	if len(args) == 0 {
		err = errors.New(format)
	} else {
		err = fmt.Errorf(format, args...)
	}
	return &Status{code: code, err: err}
}

// Wrap returns a Status with the given code that wraps err. The message of
// err becomes the message of the Status.
func Wrap(code Code, err error) *Status {
	if code == CodeOK || err == nil {
		return nil
	}
	return &Status{code: code, err: &wrapError{err: err}}
}

// ShutdownErrorf returns a new Status with code CodeShutdown.
func ShutdownErrorf(format string, args ...interface{}) error {
	return Newf(CodeShutdown, format, args...)
}

// NotEstablishedErrorf returns a new Status with code CodeNotEstablished.
func NotEstablishedErrorf(format string, args ...interface{}) error {
	return Newf(CodeNotEstablished, format, args...)
}

// FromError returns the Status for the provided error.
//
// If the error:
//   - is nil, return nil
//   - is a Status, return the Status
//   - is an I/O, network or deadline failure, return a CodeConnect Status
//     wrapping it
//
// Otherwise, return a wrapped error with code CodeUnknown.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}

	var st *Status
	if errors.As(err, &st) {
		return st
	}
	if isConnectFailure(err) {
		return Wrap(CodeConnect, err)
	}
	return Wrap(CodeUnknown, err)
}

func isConnectFailure(err error) bool {
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno)
}

// IsStatus returns whether the provided error is a Status, including
// wrapped ones. This is false if the error is nil.
func IsStatus(err error) bool {
	var st *Status
	return errors.As(err, &st)
}

// IsShutdown returns true if FromError(err).Code() == CodeShutdown.
func IsShutdown(err error) bool {
	return FromError(err).Code() == CodeShutdown
}

// IsNotEstablished returns true if FromError(err).Code() == CodeNotEstablished.
func IsNotEstablished(err error) bool {
	return FromError(err).Code() == CodeNotEstablished
}

// IsConnect returns true if FromError(err).Code() == CodeConnect.
func IsConnect(err error) bool {
	return FromError(err).Code() == CodeConnect
}

// IsUnknown returns true if FromError(err).Code() == CodeUnknown.
func IsUnknown(err error) bool {
	return FromError(err).Code() == CodeUnknown
}

// Status represents a dialog start failure.
type Status struct {
	code Code
	err  error
}

// Code returns the error code for this Status.
func (s *Status) Code() Code {
	if s == nil {
		return CodeOK
	}
	return s.code
}

// Message returns the error message for this Status.
func (s *Status) Message() string {
	if s == nil || s.err == nil {
		return ""
	}
	return s.err.Error()
}

// Unwrap supports errors.Unwrap.
func (s *Status) Unwrap() error {
	if s == nil {
		return nil
	}
	return errors.Unwrap(s.err)
}

// Error implements the error interface.
func (s *Status) Error() string {
	buffer := bytes.NewBuffer(nil)
	_, _ = buffer.WriteString(`code:`)
	_, _ = buffer.WriteString(s.code.String())
	if msg := s.Message(); msg != "" {
		_, _ = buffer.WriteString(` message:`)
		_, _ = buffer.WriteString(msg)
	}
	return buffer.String()
}

// wrapError does what it says on the tin.
type wrapError struct {
	err error
}

func (e *wrapError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *wrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}
