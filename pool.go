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

// Package httpool is an asynchronous-friendly HTTP/1.1 connection pool: it
// hands out connections through an explicit reservation lifecycle
// (ACTIVE/RESERVED/IDLE/RETIRED) instead of the usual "get a connection,
// return a connection" round trip, so a caller can rebind a later request to
// the exact connection that served an earlier one.
package httpool

import (
	"context"
	"net/http"
	"time"

	liberr "github.com/nabbar/httpool/errors"

	"github.com/nabbar/httpool/connid"
	"github.com/nabbar/httpool/dispatch"
	dnsmapper "github.com/nabbar/httpool/httpcli/dns-mapper"
	"github.com/nabbar/httpool/network"
	"github.com/nabbar/httpool/response"
	"github.com/nabbar/httpool/trace"
)

// Pool is the caller-facing handle on a running connection pool. Construct
// with NewPool; the zero value is not usable.
type Pool struct {
	d *dispatch.Dispatcher
}

// NewPool validates cfg and returns a running Pool.
func NewPool(cfg Config) (*Pool, liberr.Error) {
	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}

	var backend network.Backend
	if tlsCfg := cfg.TLSConfig.New(); tlsCfg != nil {
		if len(cfg.DNSOverrides) > 0 {
			mapper := dnsmapper.New(context.Background(), &dnsmapper.Config{DNSMapper: cfg.DNSOverrides}, nil, nil)
			backend = network.NewDefaultWithResolver(tlsCfg, mapper)
		} else {
			backend = network.NewDefault(tlsCfg)
		}
	}

	d, err := dispatch.New(dispatch.Config{
		MaxConnections:          cfg.MaxConnections,
		MaxKeepAliveConnections: cfg.MaxKeepAliveConnections,
		KeepAliveExpiry:         cfg.KeepAliveExpiry.Time(),
		HTTP2:                   cfg.HTTP2,
		Backend:                 backend,
		ConnectTimeout:          cfg.ConnectTimeout.Time(),
		TLSTimeout:              cfg.TLSTimeout.Time(),
		Warn:                    cfg.Warn,
	})
	if err != nil {
		return nil, err
	}

	return &Pool{d: d}, nil
}

// AcquireOptions carries the per-call extensions an httpx-style caller would
// pass alongside the request itself.
type AcquireOptions struct {
	// ConnIDHint rebinds this request to the exact connection that served
	// a previous one, when that connection is still RESERVED for this
	// origin. A stale or mismatched hint is ignored, not an error.
	ConnIDHint *connid.ID

	// PoolTimeout bounds how long Acquire may suspend waiting for
	// capacity; zero waits indefinitely (subject to ctx).
	PoolTimeout time.Duration

	// ReleaseOnClose makes the returned Handle's Aclose also Release, so
	// the net transition is ACTIVE→IDLE in a single call.
	ReleaseOnClose bool

	// Trace, if non-nil, receives every wire-level event for this
	// exchange (connect_tcp, start_tls, send/receive headers and body,
	// response_closed).
	Trace trace.Func
}

// Acquire dispatches req through the pool, returning a Handle whose
// Aread/Aclose/Release drive the connection's ACTIVE→RESERVED→IDLE
// transitions. The request's URL scheme must be http or https.
func (p *Pool) Acquire(ctx context.Context, req *http.Request, opts AcquireOptions) (*response.Handle, liberr.Error) {
	return p.d.Acquire(ctx, dispatch.Request{
		HTTP:           req,
		ConnIDHint:     opts.ConnIDHint,
		PoolTimeout:    opts.PoolTimeout,
		ReleaseOnClose: opts.ReleaseOnClose,
		Trace:          opts.Trace,
	})
}

// Stats reports the current size of the three disjoint connection status
// sets: ACTIVE, RESERVED, IDLE.
func (p *Pool) Stats() (active, reserved, idle int) {
	return p.d.Stats()
}

// Close tears down every RESERVED and IDLE connection. It refuses (with
// ErrRuntimeError) if any connection is still ACTIVE — callers must drain
// in-flight exchanges before closing the pool.
func (p *Pool) Close() liberr.Error {
	return p.d.Close()
}
