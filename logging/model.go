/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logging is the pool's thin structured-logging facade: a handful
// of severity-named methods over a *logrus.Logger, matching the pool's
// actual diagnostic surface (connection lifecycle debug traces, the
// Connection: close UserWarning) rather than a general-purpose log API.
package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/httpool/connid"
	loglvl "github.com/nabbar/httpool/logger/level"
)

// Logger wraps a *logrus.Logger at a fixed severity threshold; construct
// with New. All methods are nil-receiver safe and a zero Logger discards
// every entry, so a pool built without a logger configured can log
// unconditionally.
type Logger struct {
	out *logrus.Logger
}

// New returns a Logger that only emits entries at or above lvl.
func New(lvl loglvl.Level) *Logger {
	out := logrus.New()
	out.SetLevel(lvl.Logrus())
	return &Logger{out: out}
}

func (l *Logger) entry(data interface{}) *logrus.Entry {
	e := l.out.WithField("component", "httpool")
	if data != nil {
		e = e.WithField("data", data)
	}
	return e
}

// Debug logs connection-lifecycle detail: dials, idle/reserved transitions,
// waiter queue admits.
func (l *Logger) Debug(message string, data interface{}, args ...interface{}) {
	if l == nil || l.out == nil {
		return
	}
	l.entry(data).Debug(fmt.Sprintf(message, args...))
}

// Warning logs a recoverable but noteworthy condition — the pool's
// UserWarning channel.
func (l *Logger) Warning(message string, data interface{}, args ...interface{}) {
	if l == nil || l.out == nil {
		return
	}
	l.entry(data).Warning(fmt.Sprintf(message, args...))
}

// Error logs a failure the caller also receives as a returned error.
func (l *Logger) Error(message string, data interface{}, args ...interface{}) {
	if l == nil || l.out == nil {
		return
	}
	l.entry(data).Error(fmt.Sprintf(message, args...))
}

// WarnConnectionClose reports that a connection leaving ACTIVE on Aclose had
// Connection: close negotiated on its last exchange. It matches the
// func(connid.ID) signature dispatch.Config.Warn expects, so it can be
// wired in directly: Config{Warn: logger.WarnConnectionClose}.
func (l *Logger) WarnConnectionClose(id connid.ID) {
	l.Warning("connection (seq=%d gen=%d) closed by peer via Connection: close", id, id.Seq, id.Gen)
}
