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

package endpoint

import (
	"errors"
	"fmt"

	"go.uber.org/dialogmux/api/dialog"
)

var (
	// ErrGroupShutdown is returned when operating on a group that has been
	// shut down.
	ErrGroupShutdown = errors.New("dialogmux: endpoint group is shut down")

	// ErrListenHandleClosed is returned when a ListenHandle is shut down
	// more than once.
	ErrListenHandleClosed = errors.New("dialogmux: listen handle is already shut down")

	errNoConnector = errors.New("dialogmux: no connector configured")
	errNoBinder    = errors.New("dialogmux: no binder configured")

	errNilRegistration = errors.New("dialogmux: cannot listen with a nil handler factory or accept callback")
)

type duplicateTypeError struct {
	Type    dialog.Type
	Address string
}

func (e duplicateTypeError) Error() string {
	return fmt.Sprintf("dialogmux: dialog type %q is already registered on listener %q", e.Type, e.Address)
}
