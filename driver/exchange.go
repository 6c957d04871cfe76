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

package driver

import (
	"io"
	"net/http"

	liberr "github.com/nabbar/httpool/errors"

	"github.com/nabbar/httpool/httperr"
	"github.com/nabbar/httpool/trace"
)

// Do runs one HTTP/1.1 exchange over the connection, walking the phase
// state machine and emitting trace events as it goes. The returned
// *http.Response has already had its headers parsed; the body remains an
// open stream over the connection for the caller's aread/aclose to drain.
func (c *Conn) Do(req *http.Request, hook trace.Func) (*http.Response, liberr.Error) {
	kw := map[string]any{"host": c.origin.Host}

	if c.cfg.HTTP2 {
		return nil, httperr.ErrRuntimeError.Error(nil)
	}

	c.phase = SendingHeaders
	trace.Emit(hook, trace.SendRequestHeadersStarted, kw)

	// req.Write emits the request line, headers, and body as a single
	// framed write; from the pool's point of view that is both the
	// "headers" and "body" phases, so we report SendRequestBody as a
	// paired completion immediately after.
	if err := req.Write(c.stream); err != nil {
		trace.Emit(hook, trace.SendRequestHeadersFailed, kw)
		return nil, httperr.ErrRemoteProtocolError.Error(err)
	}
	trace.Emit(hook, trace.SendRequestHeadersComplete, kw)

	c.phase = SendingBody
	trace.Emit(hook, trace.SendRequestBodyStarted, kw)
	trace.Emit(hook, trace.SendRequestBodyComplete, kw)

	c.phase = ReceivingHeaders
	trace.Emit(hook, trace.ReceiveResponseHeadersStarted, kw)

	resp, err := http.ReadResponse(c.reader, req)
	if err != nil {
		trace.Emit(hook, trace.ReceiveResponseHeadersFailed, kw)
		trace.Emit(hook, trace.ResponseClosedStarted, kw)
		trace.Emit(hook, trace.ResponseClosedComplete, kw)
		c.phase = ResponseClosed
		return nil, httperr.ErrRemoteProtocolError.Error(err)
	}
	trace.Emit(hook, trace.ReceiveResponseHeadersComplete, kw)

	if resp.ProtoMajor >= 2 {
		trace.Emit(hook, trace.ReceiveResponseBodyStarted, kw)
		trace.Emit(hook, trace.ResponseClosedStarted, kw)
		trace.Emit(hook, trace.ResponseClosedComplete, kw)
		c.phase = ResponseClosed
		return nil, httperr.ErrRuntimeError.Error(nil)
	}

	if connectionHeaderSaysClose(req.Header.Values("Connection")) ||
		connectionHeaderSaysClose(resp.Header.Values("Connection")) {
		c.singleUse = true
	}

	c.phase = ReceivingBody
	trace.Emit(hook, trace.ReceiveResponseBodyStarted, kw)

	resp.Body = &tracedBody{ReadCloser: resp.Body, conn: c, hook: hook, kw: kw}

	return resp, nil
}

// tracedBody wraps the response body so draining/closing it completes the
// receive_response_body and response_closed phases and trace events.
type tracedBody struct {
	io.ReadCloser
	conn *Conn
	hook trace.Func
	kw   map[string]any
	done bool
}

func (b *tracedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		b.finishFailed()
	} else if err == io.EOF {
		b.finishComplete()
	}
	return n, err
}

func (b *tracedBody) Close() error {
	err := b.ReadCloser.Close()
	if err != nil {
		b.finishFailed()
	} else {
		b.finishComplete()
	}
	return err
}

func (b *tracedBody) finishComplete() {
	if b.done {
		return
	}
	b.done = true
	trace.Emit(b.hook, trace.ReceiveResponseBodyComplete, b.kw)
	b.conn.phase = ResponseClosed
	trace.Emit(b.hook, trace.ResponseClosedStarted, b.kw)
	trace.Emit(b.hook, trace.ResponseClosedComplete, b.kw)
}

func (b *tracedBody) finishFailed() {
	if b.done {
		return
	}
	b.done = true
	trace.Emit(b.hook, trace.ReceiveResponseBodyFailed, b.kw)
	b.conn.phase = ResponseClosed
	trace.Emit(b.hook, trace.ResponseClosedStarted, b.kw)
	trace.Emit(b.hook, trace.ResponseClosedComplete, b.kw)
}
