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

// Package registry is the pool's authoritative index of every live
// connection, plus the three disjoint status sets (ACTIVE, RESERVED, IDLE)
// derived from it. Every exported method assumes the caller already holds
// the pool-wide mutex (see package dispatch) — the registry performs no
// locking of its own, matching the single-mutex cooperative model the rest
// of the pool follows.
package registry

import (
	"io"
	"time"

	"github.com/nabbar/httpool/connid"
	"github.com/nabbar/httpool/origin"
)

// Status is the pool-assigned state of a connection, orthogonal to its
// driver state.
type Status uint8

const (
	Active Status = iota
	Reserved
	Idle
)

func (s Status) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Reserved:
		return "RESERVED"
	case Idle:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// Connection is the registry's record for one pooled connection. Closer is
// the underlying driver connection; the registry closes it on Remove but
// never reads from or writes to it directly.
type Connection struct {
	ID                connid.ID
	Origin            origin.Origin
	Closer            io.Closer
	RequestCount      uint32
	CreatedAt         time.Time
	KeepAliveDeadline time.Time // time of the last move to IDLE; zero until then
	SingleUse         bool      // Connection: close was negotiated
}

type entry struct {
	conn   Connection
	status Status
}

// Registry is the pool's connection index. The zero value is not usable;
// construct with New.
type Registry struct {
	maxConnections        uint32
	maxKeepaliveConns      uint32
	byID                  map[connid.ID]*entry
	idleByOrigin          map[origin.Origin][]*entry // front = most recently idled
}

// New returns an empty Registry bounded by the given capacity limits.
func New(maxConnections, maxKeepaliveConnections uint32) *Registry {
	return &Registry{
		maxConnections:    maxConnections,
		maxKeepaliveConns: maxKeepaliveConnections,
		byID:              make(map[connid.ID]*entry),
		idleByOrigin:      make(map[origin.Origin][]*entry),
	}
}

// Len returns |registry|.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Counts returns the size of each status set; their sum always equals Len().
func (r *Registry) Counts() (active, reserved, idle int) {
	for _, e := range r.byID {
		switch e.status {
		case Active:
			active++
		case Reserved:
			reserved++
		case Idle:
			idle++
		}
	}
	return
}

// AtCapacity reports whether Insert would currently fail.
func (r *Registry) AtCapacity() bool {
	return uint32(len(r.byID)) >= r.maxConnections
}

// Insert adds conn to the registry with status ACTIVE. It fails (returns
// false) if the registry is already at max_connections.
func (r *Registry) Insert(conn Connection) bool {
	if r.AtCapacity() {
		return false
	}
	r.byID[conn.ID] = &entry{conn: conn, status: Active}
	return true
}

// Transition moves conn_id from status `from` to status `to`. It fails if
// the connection is absent or its current status does not match `from`, or
// if moving to IDLE would exceed max_keepalive_connections.
func (r *Registry) Transition(id connid.ID, from, to Status) bool {
	e, ok := r.byID[id]
	if !ok || e.status != from {
		return false
	}

	if to == Idle {
		_, _, idle := r.Counts()
		if uint32(idle) >= r.maxKeepaliveConns {
			return false
		}
	}

	if from == Idle {
		r.removeFromIdleList(e)
	}

	e.status = to

	if to == Idle {
		e.conn.KeepAliveDeadline = time.Now()
		r.idleByOrigin[e.conn.Origin] = append([]*entry{e}, r.idleByOrigin[e.conn.Origin]...)
	}

	return true
}

// Remove drops conn_id from the registry and whichever status set holds it,
// closing its underlying connection. It is a no-op (returns false) if the
// id is unknown.
func (r *Registry) Remove(id connid.ID) (Connection, bool) {
	e, ok := r.byID[id]
	if !ok {
		return Connection{}, false
	}

	if e.status == Idle {
		r.removeFromIdleList(e)
	}
	delete(r.byID, id)

	if e.conn.Closer != nil {
		_ = e.conn.Closer.Close()
	}

	return e.conn, true
}

// LookupReserved returns the connection iff its status is RESERVED and its
// origin matches. A stale, absent, or origin-mismatched id is reported as
// "not found" — callers must treat that as an advisory hint to ignore, not
// an error (see the dispatcher's conn_id hint handling).
func (r *Registry) LookupReserved(id connid.ID, o origin.Origin) (Connection, bool) {
	e, ok := r.byID[id]
	if !ok || e.status != Reserved || !e.conn.Origin.Equal(o) {
		return Connection{}, false
	}
	return e.conn, true
}

// PickIdle returns an IDLE connection matching origin, if any. Ties are
// broken MRU: the connection most recently returned to IDLE is preferred,
// maximizing the odds its TCP/TLS session is still warm.
func (r *Registry) PickIdle(o origin.Origin) (Connection, bool) {
	lst := r.idleByOrigin[o]
	if len(lst) == 0 {
		return Connection{}, false
	}
	return lst[0].conn, true
}

// IdleOrigins returns every origin that currently has at least one IDLE
// connection — used by the dispatcher's step 5 cross-origin eviction scan.
func (r *Registry) IdleOrigins() []origin.Origin {
	out := make([]origin.Origin, 0, len(r.idleByOrigin))
	for o, lst := range r.idleByOrigin {
		if len(lst) > 0 {
			out = append(out, o)
		}
	}
	return out
}

// Get returns the current record for id regardless of status.
func (r *Registry) Get(id connid.ID) (Connection, bool) {
	e, ok := r.byID[id]
	if !ok {
		return Connection{}, false
	}
	return e.conn, true
}

// Update replaces the stored Connection for id in place (e.g. to bump
// RequestCount), preserving its status.
func (r *Registry) Update(id connid.ID, fn func(c *Connection)) {
	e, ok := r.byID[id]
	if !ok {
		return
	}
	fn(&e.conn)
}

func (r *Registry) removeFromIdleList(e *entry) {
	lst := r.idleByOrigin[e.conn.Origin]
	for i, x := range lst {
		if x == e {
			r.idleByOrigin[e.conn.Origin] = append(lst[:i], lst[i+1:]...)
			return
		}
	}
}
