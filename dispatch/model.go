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

// Package dispatch is the pool's single point of synchronization: it owns
// the pool-wide mutex and composes registry, waiter and driver into the
// Acquire algorithm, acting as the response.Controller that drives
// ACTIVE→RESERVED→IDLE transitions as callers aread/aclose/release.
package dispatch

import (
	"crypto/tls"
	"sync"
	"time"

	liberr "github.com/nabbar/httpool/errors"

	"github.com/nabbar/httpool/connid"
	"github.com/nabbar/httpool/driver"
	"github.com/nabbar/httpool/httperr"
	"github.com/nabbar/httpool/network"
	"github.com/nabbar/httpool/origin"
	"github.com/nabbar/httpool/registry"
	"github.com/nabbar/httpool/waiter"
)

// Config carries everything a Dispatcher needs to bound and dial
// connections. New rejects a zero MaxConnections, MaxKeepAliveConnections
// or KeepAliveExpiry, and substitutes network.NewDefault(nil) for a nil
// Backend; no other field gets a default.
type Config struct {
	MaxConnections          uint32
	MaxKeepAliveConnections uint32
	KeepAliveExpiry         time.Duration
	HTTP2                   bool
	Backend                 network.Backend
	TLSConfig               *tls.Config
	ConnectTimeout          time.Duration
	TLSTimeout              time.Duration

	// Warn, if non-nil, is invoked whenever Aclose discovers a connection
	// negotiated Connection: close — the pool's UserWarning channel.
	Warn func(connID connid.ID)
}

// Dispatcher is the pool's runtime core. Construct with New.
type Dispatcher struct {
	mu  sync.Mutex
	cfg Config
	reg *registry.Registry
	q   waiter.Queue
	gen *connid.Generator

	// drivers holds the wire driver for every connection currently in the
	// registry, keyed the same way. The registry itself only needs an
	// io.Closer to tear a connection down; Acquire needs the concrete
	// *driver.Conn back to run a second exchange over a reused connection.
	drivers map[connid.ID]*driver.Conn

	closed bool
}

// New validates cfg and returns a ready Dispatcher.
func New(cfg Config) (*Dispatcher, liberr.Error) {
	if cfg.KeepAliveExpiry <= 0 || cfg.MaxKeepAliveConnections == 0 || cfg.MaxConnections == 0 {
		return nil, httperr.ErrInvalidConfig.Error(nil)
	}
	if cfg.Backend == nil {
		cfg.Backend = network.NewDefault(nil)
	}

	return &Dispatcher{
		cfg:     cfg,
		reg:     registry.New(cfg.MaxConnections, cfg.MaxKeepAliveConnections),
		gen:     connid.NewGenerator(0),
		drivers: make(map[connid.ID]*driver.Conn),
	}, nil
}

// Stats reports a point-in-time snapshot of the registry's disjoint status
// sets, for callers that want pool introspection without reaching into
// package registry directly.
func (d *Dispatcher) Stats() (active, reserved, idle int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.Counts()
}

// Close tears down every RESERVED and IDLE connection and refuses (with
// ErrRuntimeError) if any connection is still ACTIVE — the pool never closes
// out from under an in-flight exchange.
func (d *Dispatcher) Close() liberr.Error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reg.HasActive() {
		return httperr.ErrRuntimeError.Error(nil)
	}

	d.closed = true
	if err := d.reg.CloseAllIdleAndReserved(); err != nil {
		return httperr.ErrRuntimeError.Error(err)
	}
	return nil
}

// HandleClose implements response.Controller: the ACTIVE-exit transition.
// A connection that negotiated Connection: close is removed outright and
// reported back as a warning; otherwise it moves ACTIVE→RESERVED, held open
// in case its conn_id is presented again before it idles out.
func (d *Dispatcher) HandleClose(id connid.ID) (warn bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, ok := d.reg.Get(id)
	if !ok {
		return false
	}

	if conn.SingleUse {
		d.reg.Remove(id)
		delete(d.drivers, id)
		d.wakeWaitersLocked()
		return true
	}

	d.reg.Transition(id, registry.Active, registry.Reserved)
	d.wakeWaitersLocked()
	return false
}

// HandleRelease implements response.Controller: RESERVED→IDLE. A no-op if
// the connection was already removed (the single-use HandleClose path).
func (d *Dispatcher) HandleRelease(id connid.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.reg.Get(id); !ok {
		return
	}
	d.reg.Transition(id, registry.Reserved, registry.Idle)
	d.wakeWaitersLocked()
}

// wakeWaitersLocked wakes the single oldest waiter for whom capacity now
// exists or whose origin has an IDLE match. Called after every transition
// that can free capacity (ACTIVE→IDLE, ACTIVE→RESERVED, removal); one such
// transition frees at most one slot, so at most one waiter is woken per
// call. Callers must already hold d.mu.
func (d *Dispatcher) wakeWaitersLocked() {
	d.q.WakeMatching(func(o origin.Origin) bool {
		if _, ok := d.reg.PickIdle(o); ok {
			return true
		}
		return !d.reg.AtCapacity()
	})
}
