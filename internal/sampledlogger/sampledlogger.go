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

// Package sampledlogger rate-limits repetitive log messages. Each distinct
// message is written at most once per interval; occurrences dropped in
// between are counted and attached to the next write.
package sampledlogger

import (
	"sync"
	"time"

	"go.uber.org/dialogmux/internal/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap logger with per-message rate limiting.
type Logger struct {
	logger   *zap.Logger
	interval time.Duration
	clock    clock.Clock

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	last       time.Time
	suppressed int
}

// New creates a Logger that writes each message at most once per interval.
// A nil logger logs nothing; a nil clock uses the real clock.
func New(logger *zap.Logger, interval time.Duration, clk clock.Clock) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.NewReal()
	}
	return &Logger{
		logger:   logger,
		interval: interval,
		clock:    clk,
		entries:  make(map[string]*entry),
	}
}

func (l *Logger) log(level zapcore.Level, msg string, fields ...zap.Field) {
	ce := l.logger.Check(level, msg)
	if ce == nil {
		return
	}

	now := l.clock.Now()
	l.mu.Lock()
	e, ok := l.entries[msg]
	if !ok {
		e = &entry{}
		l.entries[msg] = e
	}
	if ok && now.Sub(e.last) < l.interval {
		e.suppressed++
		l.mu.Unlock()
		return
	}
	suppressed := e.suppressed
	e.last = now
	e.suppressed = 0
	l.mu.Unlock()

	if suppressed > 0 {
		fields = append(fields, zap.Int("suppressed", suppressed))
	}
	ce.Write(fields...)
}

// Info logs an info-level message with rate limiting.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.log(zapcore.InfoLevel, msg, fields...)
}

// Warn logs a warn-level message with rate limiting.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.log(zapcore.WarnLevel, msg, fields...)
}

// Error logs an error-level message with rate limiting.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.log(zapcore.ErrorLevel, msg, fields...)
}
