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

// Package waiter is the pool's FIFO queue of callers suspended because no
// connection can currently be dispatched to them.
package waiter

import (
	"github.com/nabbar/httpool/origin"
)

// Waiter is one caller suspended on the queue. Signal is a buffered
// (capacity 1) channel the dispatcher closes-over-send to wake it; the
// caller's goroutine blocks on it (or its own deadline timer) while the
// pool mutex is released.
type Waiter struct {
	Origin origin.Origin
	Signal chan struct{}
}

// New returns a Waiter ready to be enqueued.
func New(o origin.Origin) *Waiter {
	return &Waiter{Origin: o, Signal: make(chan struct{}, 1)}
}

// Wake signals the waiter exactly once; repeated calls are harmless.
func (w *Waiter) Wake() {
	select {
	case w.Signal <- struct{}{}:
	default:
	}
}

// Queue is a strict FIFO of waiters. The zero value is ready to use. All
// methods assume the caller already holds the pool-wide mutex.
type Queue struct {
	items []*Waiter
}

// Enqueue appends w to the back of the queue.
func (q *Queue) Enqueue(w *Waiter) {
	q.items = append(q.items, w)
}

// Remove drops w from the queue wherever it sits (used on cancellation and
// on timeout); it is a no-op if w is not present.
func (q *Queue) Remove(w *Waiter) {
	for i, x := range q.items {
		if x == w {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Len reports the number of suspended waiters.
func (q *Queue) Len() int {
	return len(q.items)
}

// WakeMatching scans the queue in FIFO order and wakes (and dequeues) the
// first waiter for which match returns true. It returns the woken waiter,
// or nil if none matched.
func (q *Queue) WakeMatching(match func(o origin.Origin) bool) *Waiter {
	for i, w := range q.items {
		if match(w.Origin) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			w.Wake()
			return w
		}
	}
	return nil
}
