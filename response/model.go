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

// Package response is the caller-facing object returned by Acquire: it
// exposes aread/aclose/release and, by calling back into the dispatcher on
// each, drives the ACTIVE→RESERVED→IDLE transitions of its connection.
package response

import (
	"io"
	"net/http"
	"sync"

	"github.com/nabbar/httpool/connid"
)

// Controller is the dispatcher-side callback surface a Handle drives. It is
// satisfied by package dispatch; kept as an interface here so response
// never imports dispatch (dispatch imports response to build Handles).
type Controller interface {
	// HandleClose processes the ACTIVE-exit transition for id: removes the
	// connection if it negotiated Connection: close (returning warn=true so
	// the caller surfaces a UserWarning), else moves it ACTIVE→RESERVED.
	HandleClose(id connid.ID) (warn bool)
	// HandleRelease processes RESERVED→IDLE for id. Handle.Release always
	// calls HandleClose first, so an ACTIVE connection arrives here already
	// RESERVED. A no-op on an IDLE or RETIRED connection.
	HandleRelease(id connid.ID)
}

// Handle is returned by Acquire for every successfully dispatched request.
type Handle struct {
	connID         connid.ID
	resp           *http.Response
	ctrl           Controller
	releaseOnClose bool
	warnFn         func(connID connid.ID)

	mu       sync.Mutex
	body     []byte
	drained  bool
	closed   bool
	released bool
}

// New builds a Handle around resp for the connection identified by connID.
// If releaseOnClose is true, Aclose additionally performs Release so the
// net transition is ACTIVE→IDLE instead of ACTIVE→RESERVED. warnFn, if
// non-nil, is invoked when Aclose discovers Connection: close was
// negotiated (the pool's UserWarning diagnostic channel).
func New(connID connid.ID, resp *http.Response, ctrl Controller, releaseOnClose bool, warnFn func(connid.ID)) *Handle {
	return &Handle{connID: connID, resp: resp, ctrl: ctrl, releaseOnClose: releaseOnClose, warnFn: warnFn}
}

// ConnID returns the opaque token identifying the underlying connection;
// it is surfaced on every response, including error responses where a
// connection was actually established.
func (h *Handle) ConnID() connid.ID {
	return h.connID
}

// Response returns the underlying *http.Response. Its status and headers
// are always populated; its Body should be read through Aread, not
// directly, so the pool observes when draining completes.
func (h *Handle) Response() *http.Response {
	return h.resp
}

// Aread drains the response body into memory. Idempotent: a second call
// returns the same bytes without reading again.
func (h *Handle) Aread() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.drained {
		return h.body, nil
	}

	b, err := io.ReadAll(h.resp.Body)
	if err != nil {
		return nil, err
	}
	h.body = b
	h.drained = true
	return b, nil
}

// Aclose closes the underlying body stream, triggering the ACTIVE-exit
// transition. Idempotent.
func (h *Handle) Aclose() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.acloseLocked()
}

func (h *Handle) acloseLocked() error {
	if h.closed {
		return nil
	}
	h.closed = true

	err := h.resp.Body.Close()

	warn := h.ctrl.HandleClose(h.connID)
	if warn && h.warnFn != nil {
		h.warnFn(h.connID)
	}

	if h.releaseOnClose {
		h.released = true
		h.ctrl.HandleRelease(h.connID)
	}

	return err
}

// Release is the caller-explicit relinquish. On an ACTIVE connection it
// implies Aclose first, then transitions RESERVED→IDLE. A no-op on an
// already-IDLE or RETIRED connection.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if !h.closed {
		err = h.acloseLocked()
	}

	if h.released {
		return err
	}
	h.released = true
	h.ctrl.HandleRelease(h.connID)
	return err
}
