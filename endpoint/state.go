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

import "fmt"

// State is the lifecycle state of a CreatorEndpoint.
type State int

const (
	// StateNone indicates no connection has been requested yet.
	StateNone State = iota

	// StateResolving indicates a connection attempt is in flight.
	StateResolving

	// StateReady indicates the endpoint has a connection handler.
	StateReady

	// StateShutdown indicates the endpoint is closed. It is terminal.
	StateShutdown
)

var stateToName = map[State]string{
	StateNone:      "none",
	StateResolving: "resolving",
	StateReady:     "ready",
	StateShutdown:  "shutdown",
}

func (s State) String() string {
	if name, ok := stateToName[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// canTransition reports whether an endpoint may move from s to to.
func (s State) canTransition(to State) bool {
	switch to {
	case StateResolving:
		return s == StateNone
	case StateReady:
		return s == StateResolving
	case StateShutdown:
		return s != StateShutdown
	default:
		return false
	}
}
