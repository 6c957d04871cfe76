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

package network

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// FakeStream is an in-memory net.Conn standing in for a real socket. Reads
// are served from a fixed byte slice (typically one or more canned HTTP/1.1
// responses back to back); writes are discarded into a buffer the test can
// inspect.
type FakeStream struct {
	mu       sync.Mutex
	r        *bytes.Reader
	w        bytes.Buffer
	closed   bool
	closedCh chan struct{}
}

// NewFakeStream builds a FakeStream whose Read calls drain body.
func NewFakeStream(body []byte) *FakeStream {
	return &FakeStream{r: bytes.NewReader(body), closedCh: make(chan struct{})}
}

func (f *FakeStream) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, io.EOF
	}
	return f.r.Read(p)
}

func (f *FakeStream) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.New("fake stream closed")
	}
	return f.w.Write(p)
}

// Written returns everything written to the stream so far.
func (f *FakeStream) Written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.w.Bytes()...)
}

func (f *FakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.closedCh)
	}
	return nil
}

func (f *FakeStream) LocalAddr() net.Addr                { return fakeAddr("local") }
func (f *FakeStream) RemoteAddr() net.Addr               { return fakeAddr("remote") }
func (f *FakeStream) SetDeadline(time.Time) error        { return nil }
func (f *FakeStream) SetReadDeadline(time.Time) error    { return nil }
func (f *FakeStream) SetWriteDeadline(time.Time) error   { return nil }

type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

// FakeBackend is a deterministic, in-process Backend for the end-to-end
// scenarios in the pool's test suite: it never touches a real socket.
type FakeBackend struct {
	// NextResponses, if set, supplies the bytes returned by the next
	// ConnectTCP call's stream, consumed one entry per call.
	NextResponses [][]byte

	// ConnectErr, if set, is returned instead of a stream.
	ConnectErr error
	// TLSErr, if set, is returned instead of a TLS stream.
	TLSErr error

	idx      int32
	connects int32
}

// ConnectCount reports how many times ConnectTCP has succeeded or failed.
func (b *FakeBackend) ConnectCount() int {
	return int(atomic.LoadInt32(&b.connects))
}

func (b *FakeBackend) ConnectTCP(_ context.Context, _ string, _ uint16, _ time.Duration, _ string) (Stream, error) {
	atomic.AddInt32(&b.connects, 1)
	if b.ConnectErr != nil {
		return nil, b.ConnectErr
	}

	i := atomic.AddInt32(&b.idx, 1) - 1
	var body []byte
	if int(i) < len(b.NextResponses) {
		body = b.NextResponses[i]
	}
	return NewFakeStream(body), nil
}

func (b *FakeBackend) StartTLS(_ context.Context, stream Stream, _ string, _ time.Duration, _ *tls.Config) (Stream, error) {
	if b.TLSErr != nil {
		return nil, b.TLSErr
	}
	return stream, nil
}
