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

package registry

import (
	libpool "github.com/nabbar/httpool/errors/pool"

	"github.com/nabbar/httpool/connid"
	"github.com/nabbar/httpool/origin"
)

// HasActive reports whether any connection is currently ACTIVE — the pool
// lifecycle uses this to decide whether teardown must be refused.
func (r *Registry) HasActive() bool {
	for _, e := range r.byID {
		if e.status == Active {
			return true
		}
	}
	return false
}

// CloseAllIdleAndReserved removes and closes every RESERVED and IDLE
// connection, collecting any close errors into one aggregate error. It
// leaves ACTIVE connections untouched — callers must have already verified
// none exist (see HasActive) before tearing down the pool.
func (r *Registry) CloseAllIdleAndReserved() error {
	errs := libpool.New()

	ids := make([]connid.ID, 0, len(r.byID))
	for id, e := range r.byID {
		if e.status == Reserved || e.status == Idle {
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		if e, ok := r.byID[id]; ok && e.conn.Closer != nil {
			errs.Add(e.conn.Closer.Close())
		}
		delete(r.byID, id)
	}
	r.idleByOrigin = make(map[origin.Origin][]*entry)

	return errs.Error()
}
