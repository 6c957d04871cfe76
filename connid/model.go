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

// Package connid generates the weak tokens ("conn_id") a caller may present
// to rebind a later request to the exact connection that served a previous
// one.
package connid

import (
	libatm "github.com/nabbar/httpool/atomic"
)

// ID is an opaque token naming one physical connection for its full
// lifetime. It carries no ownership: presenting a stale ID is silently
// ignored by the dispatcher.
//
// Gen is the generation the Generator was created with; Next never changes
// it, so IDs from one Generator differ by Seq alone, which repeats only if
// the uint64 counter wraps (after ~18 quintillion connections).
type ID struct {
	Seq uint64
	Gen uint32
}

// Generator hands out monotonically increasing IDs. The zero value is not
// usable; construct with NewGenerator.
type Generator struct {
	seq libatm.Value[uint64]
	gen uint32
}

// NewGenerator returns a ready-to-use Generator, optionally seeded with a
// generation number (tests that need deterministic staleness pin this; the
// pool itself always starts at generation 0).
func NewGenerator(gen uint32) *Generator {
	g := &Generator{seq: libatm.NewValue[uint64](), gen: gen}
	g.seq.Store(0)
	return g
}

// Next returns the next ID in sequence. Safe for concurrent use; the pool
// mutex need not be held.
func (g *Generator) Next() ID {
	for {
		cur := g.seq.Load()
		next := cur + 1
		if g.seq.CompareAndSwap(cur, next) {
			return ID{Seq: next, Gen: g.gen}
		}
	}
}
