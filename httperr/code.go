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

// Package httperr carries the error taxonomy surfaced by the pool: the codes
// a caller of Acquire/Aread/Aclose/Release can match on.
package httperr

import (
	"fmt"

	liberr "github.com/nabbar/httpool/errors"
)

const (
	// ErrUnsupportedProtocol is raised when a request URL names a scheme
	// other than http/https, or names none at all.
	ErrUnsupportedProtocol liberr.CodeError = iota + liberr.MinPkgHttpPool
	// ErrPoolTimeout is raised when a waiter's extensions.timeout.pool
	// deadline elapses before capacity is freed.
	ErrPoolTimeout
	// ErrConnectError is raised when the network backend fails connect_tcp
	// or start_tls.
	ErrConnectError
	// ErrRemoteProtocolError is raised when the driver observes malformed
	// HTTP/1.1 framing at any phase.
	ErrRemoteProtocolError
	// ErrRuntimeError is raised for HTTP/2 refusal and for closing the pool
	// while an ACTIVE connection is in flight.
	ErrRuntimeError
	// ErrInvalidConfig is raised by pool construction when keepalive_expiry
	// or max_keepalive_connections is zero.
	ErrInvalidConfig
)

func init() {
	if liberr.ExistInMapMessage(ErrUnsupportedProtocol) {
		panic(fmt.Errorf("error code collision with package httpool/httperr"))
	}
	liberr.RegisterIdFctMessage(ErrUnsupportedProtocol, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrUnsupportedProtocol:
		return "unsupported or missing scheme: only http and https are pooled"
	case ErrPoolTimeout:
		return "timed out waiting for pool capacity"
	case ErrConnectError:
		return "network backend failed to establish the connection"
	case ErrRemoteProtocolError:
		return "peer violated HTTP/1.1 framing"
	case ErrRuntimeError:
		return "invalid runtime operation (HTTP/2 refusal or pool closed in-flight)"
	case ErrInvalidConfig:
		return "pool configuration is invalid"
	}
	return liberr.NullMessage
}
