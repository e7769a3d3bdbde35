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

package dialogerrors

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CodeOK means no error.
	CodeOK Code = 0

	// CodeShutdown means the dialog could not start because the destination
	// endpoint, its connection or the owning group has shut down.
	CodeShutdown Code = 1

	// CodeNotEstablished means there is no established connection to start
	// the dialog on. Responder endpoints without an accepted connection
	// report this code.
	CodeNotEstablished Code = 2

	// CodeConnect means the connection could not be established. The
	// underlying I/O failure is wrapped and available through errors.Unwrap.
	CodeConnect Code = 3

	// CodeUnknown means the failure was not recognized as one of the known
	// kinds. The original error is wrapped.
	CodeUnknown Code = 4
)

var (
	_codeToString = map[Code]string{
		CodeOK:             "ok",
		CodeShutdown:       "shutdown",
		CodeNotEstablished: "not-established",
		CodeConnect:        "connect",
		CodeUnknown:        "unknown",
	}
	_stringToCode = map[string]Code{
		"ok":              CodeOK,
		"shutdown":        CodeShutdown,
		"not-established": CodeNotEstablished,
		"connect":         CodeConnect,
		"unknown":         CodeUnknown,
	}
)

// Code represents the kind of failure observed while starting a dialog.
type Code int

// String returns the string representation of the Code.
func (c Code) String() string {
	s, ok := _codeToString[c]
	if ok {
		return s
	}
	return strconv.Itoa(int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) {
	s, ok := _codeToString[c]
	if ok {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("unknown code: %d", int(c))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(text []byte) error {
	i, ok := _stringToCode[strings.ToLower(string(text))]
	if !ok {
		return fmt.Errorf("unknown code string: %s", string(text))
	}
	*c = i
	return nil
}
