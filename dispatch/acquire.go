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

package dispatch

import (
	"context"
	"net/http"
	"time"

	liberr "github.com/nabbar/httpool/errors"

	"github.com/nabbar/httpool/connid"
	"github.com/nabbar/httpool/driver"
	"github.com/nabbar/httpool/httperr"
	"github.com/nabbar/httpool/origin"
	"github.com/nabbar/httpool/registry"
	"github.com/nabbar/httpool/response"
	"github.com/nabbar/httpool/trace"
	"github.com/nabbar/httpool/waiter"
)

// Request is everything Acquire needs beyond the pool's own configuration.
type Request struct {
	HTTP *http.Request

	// ConnIDHint, if set, is tried first: a caller rebinding to the exact
	// connection that served a previous request on the same origin. A
	// stale or origin-mismatched hint is silently ignored, not an error.
	ConnIDHint *connid.ID

	// PoolTimeout bounds how long Acquire may suspend on the waiter queue.
	// Zero means wait indefinitely (subject to ctx).
	PoolTimeout time.Duration

	// ReleaseOnClose makes the returned Handle's Aclose also Release, so
	// the net transition is ACTIVE→IDLE in one call instead of
	// ACTIVE→RESERVED.
	ReleaseOnClose bool

	Trace trace.Func
}

// Acquire runs the dispatch algorithm: try the conn_id hint, then an IDLE
// match, then create a new connection if under budget, then evict a
// cross-origin IDLE connection to make room, and failing all of that,
// suspend on the waiter queue until capacity frees or PoolTimeout/ctx fires.
func (d *Dispatcher) Acquire(ctx context.Context, req Request) (*response.Handle, liberr.Error) {
	o, oerr := origin.FromURL(req.HTTP.URL)
	if oerr != nil {
		return nil, oerr
	}

	for {
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return nil, httperr.ErrRuntimeError.Error(nil)
		}

		if req.ConnIDHint != nil {
			if conn, ok := d.reg.LookupReserved(*req.ConnIDHint, o); ok {
				d.reg.Transition(conn.ID, registry.Reserved, registry.Active)
				drv := d.drivers[conn.ID]
				d.mu.Unlock()
				return d.exchange(ctx, conn.ID, drv, req)
			}
		}

		if conn, ok := d.reg.PickIdle(o); ok {
			d.reg.Transition(conn.ID, registry.Idle, registry.Active)
			drv := d.drivers[conn.ID]
			d.mu.Unlock()
			return d.exchange(ctx, conn.ID, drv, req)
		}

		if !d.reg.AtCapacity() {
			d.mu.Unlock()
			h, herr, race := d.createAndExchange(ctx, o, req)
			if race {
				continue
			}
			return h, herr
		}

		if d.evictOneCrossOriginIdleLocked(o) {
			d.mu.Unlock()
			h, herr, race := d.createAndExchange(ctx, o, req)
			if race {
				continue
			}
			return h, herr
		}

		w := waiter.New(o)
		d.q.Enqueue(w)
		d.mu.Unlock()

		if werr := d.wait(ctx, w, req.PoolTimeout); werr != nil {
			return nil, werr
		}
		// woken: capacity or an IDLE match may now exist; loop back and
		// re-run the algorithm from the top.
	}
}

// evictOneCrossOriginIdleLocked removes one IDLE connection belonging to a
// different origin to make room for o, per the dispatcher's step 5. Caller
// must hold d.mu.
func (d *Dispatcher) evictOneCrossOriginIdleLocked(o origin.Origin) bool {
	for _, other := range d.reg.IdleOrigins() {
		if other.Equal(o) {
			continue
		}
		if conn, ok := d.reg.PickIdle(other); ok {
			d.reg.Remove(conn.ID)
			delete(d.drivers, conn.ID)
			return true
		}
	}
	return false
}

func (d *Dispatcher) wait(ctx context.Context, w *waiter.Waiter, poolTimeout time.Duration) liberr.Error {
	var timeoutCh <-chan time.Time
	if poolTimeout > 0 {
		t := time.NewTimer(poolTimeout)
		defer t.Stop()
		timeoutCh = t.C
	}

	select {
	case <-w.Signal:
		return nil
	case <-timeoutCh:
		d.mu.Lock()
		d.q.Remove(w)
		d.mu.Unlock()
		return httperr.ErrPoolTimeout.Error(nil)
	case <-ctx.Done():
		d.mu.Lock()
		d.q.Remove(w)
		d.mu.Unlock()
		return httperr.ErrRuntimeError.Error(ctx.Err())
	}
}

// createAndExchange dials a brand new connection for o and runs req over
// it. The dial itself happens with d.mu released, so by the time Insert
// runs, another waiter may have already consumed the capacity this caller
// observed as free; capacityRace reports that race so Acquire can fall back
// to re-running the algorithm instead of leaking the dialed connection.
func (d *Dispatcher) createAndExchange(ctx context.Context, o origin.Origin, req Request) (resp *response.Handle, rerr liberr.Error, capacityRace bool) {
	dcfg := driver.Config{
		Backend:        d.cfg.Backend,
		TLSConfig:      d.cfg.TLSConfig,
		HTTP2:          d.cfg.HTTP2,
		ConnectTimeout: d.cfg.ConnectTimeout,
		TLSTimeout:     d.cfg.TLSTimeout,
	}

	drv, err := driver.Connect(ctx, dcfg, o, "", req.Trace)
	if err != nil {
		return nil, httperr.ErrConnectError.Error(err), false
	}

	id := d.gen.Next()

	d.mu.Lock()
	inserted := d.reg.Insert(registry.Connection{ID: id, Origin: o, Closer: drv, CreatedAt: time.Now()})
	if inserted {
		d.drivers[id] = drv
	}
	d.mu.Unlock()

	if !inserted {
		_ = drv.Close()
		return nil, nil, true
	}

	h, herr := d.exchange(ctx, id, drv, req)
	return h, herr, false
}

// exchange runs one HTTP/1.1 exchange over drv and, on success, wraps the
// response in a Handle so Aread/Aclose/Release drive the registry
// transitions through this Dispatcher. If ctx is cancelled while the
// exchange is in flight, the underlying stream is closed to unblock it and
// the connection is retired rather than returned to RESERVED or IDLE.
func (d *Dispatcher) exchange(ctx context.Context, id connid.ID, drv *driver.Conn, req Request) (*response.Handle, liberr.Error) {
	cancelled := make(chan struct{})
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = drv.Close()
			close(cancelled)
		case <-done:
		}
	}()

	resp, derr := drv.Do(req.HTTP, req.Trace)
	close(done)

	select {
	case <-cancelled:
		if derr == nil {
			derr = httperr.ErrRuntimeError.Error(ctx.Err())
		}
	default:
	}

	d.mu.Lock()
	if derr != nil {
		d.reg.Remove(id)
		delete(d.drivers, id)
		d.wakeWaitersLocked()
		d.mu.Unlock()
		return nil, derr
	}

	single := drv.SingleUse()
	d.reg.Update(id, func(c *registry.Connection) {
		c.RequestCount++
		c.SingleUse = single
	})
	d.mu.Unlock()

	return response.New(id, resp, d, req.ReleaseOnClose, d.cfg.Warn), nil
}
