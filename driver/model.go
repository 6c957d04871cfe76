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

// Package driver runs one HTTP/1.1 exchange at a time over a single
// connection, walking it through the pool's wire-level phase state machine
// and reporting each transition to the tracing hook.
package driver

import (
	"bufio"
	"context"
	"crypto/tls"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/nabbar/httpool/network"
	"github.com/nabbar/httpool/origin"
	"github.com/nabbar/httpool/trace"
)

// Phase is the per-connection wire-level state, linear for the duration of
// one exchange:
//
//	CONNECTING → SENDING_HEADERS → SENDING_BODY → RECEIVING_HEADERS →
//	RECEIVING_BODY → RESPONSE_CLOSED → {IDLE | CLOSED}
type Phase uint8

const (
	Connecting Phase = iota
	SendingHeaders
	SendingBody
	ReceivingHeaders
	ReceivingBody
	ResponseClosed
	Idle
	Closed
)

// Config carries the knobs a Conn needs to dial and negotiate.
type Config struct {
	Backend        network.Backend
	TLSConfig      *tls.Config
	HTTP2          bool
	ConnectTimeout time.Duration
	TLSTimeout     time.Duration
}

// Conn is one pooled connection's wire driver: it owns the underlying
// network.Stream and the phase state machine for the exchange currently in
// flight.
type Conn struct {
	cfg    Config
	origin origin.Origin
	stream network.Stream
	reader *bufio.Reader

	phase     Phase
	singleUse bool // Connection: close negotiated by either side
}

// Connect dials and, for https origins, negotiates TLS. It is the only
// phase that runs before any request exists.
func Connect(ctx context.Context, cfg Config, o origin.Origin, localAddress string, hook trace.Func) (*Conn, error) {
	kw := map[string]any{"host": o.Host, "port": o.Port}

	trace.Emit(hook, trace.ConnectTCPStarted, kw)
	stream, err := cfg.Backend.ConnectTCP(ctx, o.Host, o.Port, cfg.ConnectTimeout, localAddress)
	if err != nil {
		trace.Emit(hook, trace.ConnectTCPFailed, kw)
		return nil, err
	}
	trace.Emit(hook, trace.ConnectTCPComplete, kw)

	if o.Scheme.TLS() {
		trace.Emit(hook, trace.StartTLSStarted, kw)
		tlsStream, err := cfg.Backend.StartTLS(ctx, stream, o.Host, cfg.TLSTimeout, cfg.TLSConfig)
		if err != nil {
			trace.Emit(hook, trace.StartTLSFailed, kw)
			_ = stream.Close()
			return nil, err
		}
		trace.Emit(hook, trace.StartTLSComplete, kw)
		stream = tlsStream
	}

	return &Conn{
		cfg:    cfg,
		origin: o,
		stream: stream,
		reader: bufio.NewReader(stream),
		phase:  Idle,
	}, nil
}

// Phase reports the connection's current wire-level state.
func (c *Conn) Phase() Phase {
	return c.phase
}

// SingleUse reports whether Connection: close was negotiated on the last
// exchange; if true the pool must retire this connection instead of
// reserving or idling it.
func (c *Conn) SingleUse() bool {
	return c.singleUse
}

// Close releases the underlying stream.
func (c *Conn) Close() error {
	c.phase = Closed
	return c.stream.Close()
}

// SetIODeadline applies a combined read/write deadline to the underlying
// stream ahead of the next Do call; a zero duration clears it.
func (c *Conn) SetIODeadline(d time.Duration) error {
	if d <= 0 {
		return c.stream.SetDeadline(time.Time{})
	}
	return c.stream.SetDeadline(time.Now().Add(d))
}

func connectionHeaderSaysClose(values []string) bool {
	return httpguts.HeaderValuesContainsToken(values, "close")
}
