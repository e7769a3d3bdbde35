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

package dialogconfig

import "time"

// Negotiate returns the dialog settings in effect on a connection given the
// local configuration and the settings advertised by the peer.
//
// Each effective value is the smaller of the two, ignoring unset (zero)
// values, except HeartbeatInterval which takes the larger. Local limits
// are paired with the peer's Remote limits and vice versa, so the result
// is expressed from the local point of view.
func Negotiate(local, remote Dialog) Dialog {
	return Dialog{
		MaxConcurrentDialogsLocal:   minInt(local.MaxConcurrentDialogsLocal, remote.MaxConcurrentDialogsRemote),
		MaxConcurrentDialogsRemote:  minInt(local.MaxConcurrentDialogsRemote, remote.MaxConcurrentDialogsLocal),
		MaxFrameLengthLocal:         minInt(local.MaxFrameLengthLocal, remote.MaxFrameLengthRemote),
		MaxFrameLengthRemote:        minInt(local.MaxFrameLengthRemote, remote.MaxFrameLengthLocal),
		MaxTotalMessageLengthLocal:  minInt64(local.MaxTotalMessageLengthLocal, remote.MaxTotalMessageLengthRemote),
		MaxTotalMessageLengthRemote: minInt64(local.MaxTotalMessageLengthRemote, remote.MaxTotalMessageLengthLocal),

		ConnectTimeout:    minDuration(local.ConnectTimeout, remote.ConnectTimeout),
		HeartbeatInterval: maxDuration(local.HeartbeatInterval, remote.HeartbeatInterval),
		HeartbeatTimeout:  minDuration(local.HeartbeatTimeout, remote.HeartbeatTimeout),
		IdleTimeout:       minDuration(local.IdleTimeout, remote.IdleTimeout),

		FlushBatchSize:  minInt(local.FlushBatchSize, remote.FlushBatchSize),
		FlushBatchCount: minInt(local.FlushBatchCount, remote.FlushBatchCount),

		AcceptMaxActiveConnections: minInt(local.AcceptMaxActiveConnections, remote.AcceptMaxActiveConnections),
		BacklogClearInterval:       minDuration(local.BacklogClearInterval, remote.BacklogClearInterval),
	}
}

func minInt(a, b int) int {
	return int(minInt64(int64(a), int64(b)))
}

func minInt64(a, b int64) int64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	}
	return min(a, b)
}

func minDuration(a, b time.Duration) time.Duration {
	return time.Duration(minInt64(int64(a), int64(b)))
}

func maxDuration(a, b time.Duration) time.Duration {
	return max(a, b)
}
