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

// Package authflow drives a multi-request exchange that must stay pinned to
// one underlying connection — NTLM/Kerberos-style handshakes, or any other
// per-connection server state a caller negotiates across several requests.
// It replaces a generator that yields a request, receives a response, and
// may yield a second request reusing the same connection with a small state
// object the pool itself never has to know about: the pool only ever sees a
// sequence of ordinary Acquire calls, each one hinting at the connection the
// previous one used.
package authflow

import (
	"context"
	"net/http"

	"github.com/nabbar/httpool"
	"github.com/nabbar/httpool/connid"
	liberr "github.com/nabbar/httpool/errors"
	"github.com/nabbar/httpool/httperr"
	"github.com/nabbar/httpool/response"
)

// Flow is the caller-supplied driver for a pinned-connection exchange. It
// is called once to obtain the first request (prev == nil), then once more
// per round trip with the previous response, until it reports done.
type Flow interface {
	// NextRequest returns the request to send next, or done=true if the
	// flow has nothing left to send. prev is nil on the very first call.
	NextRequest(prev *http.Response) (req *http.Request, done bool)
}

// Acquirer is the subset of *httpool.Pool that Drive needs. It is satisfied
// by *httpool.Pool; tests substitute a double that never touches a real
// network backend.
type Acquirer interface {
	Acquire(ctx context.Context, req *http.Request, opts httpool.AcquireOptions) (*response.Handle, liberr.Error)
}

// Drive runs flow to completion against pool, rebinding every request after
// the first to the exact connection the previous one used. The final
// Handle (the one whose response satisfied flow) is returned unreleased, so
// the caller can read its body before deciding whether to Release or
// Aclose it; every intermediate Handle is drained and released internally.
func Drive(ctx context.Context, pool Acquirer, flow Flow, opts httpool.AcquireOptions) (*response.Handle, liberr.Error) {
	req, done := flow.NextRequest(nil)
	if done {
		return nil, nil
	}

	var hint *connid.ID

	for {
		roundOpts := opts
		roundOpts.ConnIDHint = hint

		h, err := pool.Acquire(ctx, req, roundOpts)
		if err != nil {
			return nil, err
		}

		next, done := flow.NextRequest(h.Response())
		if done {
			return h, nil
		}

		if _, rerr := h.Aread(); rerr != nil {
			_ = h.Aclose()
			return nil, httperr.ErrRuntimeError.Error(rerr)
		}

		id := h.ConnID()
		hint = &id

		if cerr := h.Aclose(); cerr != nil {
			return nil, httperr.ErrRuntimeError.Error(cerr)
		}

		req = next
	}
}
