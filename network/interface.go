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

// Package network is the injected dependency the driver dials through: TCP
// connect and TLS handshake, kept separate from the driver so tests can
// substitute a deterministic fake for a real socket.
package network

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// Stream is the minimal surface the driver needs from an established
// connection: it is satisfied by *net.TCPConn, *tls.Conn, and the fake
// backend's in-memory pipe.
type Stream interface {
	net.Conn
}

// Backend abstracts the socket layer, per §6's network_backend dependency.
type Backend interface {
	// ConnectTCP dials host:port, optionally from localAddress, failing
	// after timeout elapses.
	ConnectTCP(ctx context.Context, host string, port uint16, timeout time.Duration, localAddress string) (Stream, error)

	// StartTLS upgrades an established stream to TLS for host, using cfg
	// (nil selects the backend's own default) within timeout.
	StartTLS(ctx context.Context, stream Stream, host string, timeout time.Duration, cfg *tls.Config) (Stream, error)
}
