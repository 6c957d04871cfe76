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

// Package trace defines the pool's tracing-hook capability: a per-request
// callback invoked synchronously at each named lifecycle event.
package trace

// Func is the tracing hook a caller may place in a request's extensions. It
// is invoked synchronously; any error or panic it raises propagates to the
// caller unchanged — the pool never swallows instrumentation failures.
type Func func(event string, kwargs map[string]any)

// Event names are a fixed, stable, bit-exact vocabulary.
const (
	ConnectTCPStarted  = "connection.connect_tcp.started"
	ConnectTCPComplete = "connection.connect_tcp.complete"
	ConnectTCPFailed   = "connection.connect_tcp.failed"

	StartTLSStarted  = "connection.start_tls.started"
	StartTLSComplete = "connection.start_tls.complete"
	StartTLSFailed   = "connection.start_tls.failed"

	SendRequestHeadersStarted  = "http11.send_request_headers.started"
	SendRequestHeadersComplete = "http11.send_request_headers.complete"
	SendRequestHeadersFailed   = "http11.send_request_headers.failed"

	SendRequestBodyStarted  = "http11.send_request_body.started"
	SendRequestBodyComplete = "http11.send_request_body.complete"
	SendRequestBodyFailed   = "http11.send_request_body.failed"

	ReceiveResponseHeadersStarted  = "http11.receive_response_headers.started"
	ReceiveResponseHeadersComplete = "http11.receive_response_headers.complete"
	ReceiveResponseHeadersFailed   = "http11.receive_response_headers.failed"

	ReceiveResponseBodyStarted  = "http11.receive_response_body.started"
	ReceiveResponseBodyComplete = "http11.receive_response_body.complete"
	ReceiveResponseBodyFailed   = "http11.receive_response_body.failed"

	ResponseClosedStarted  = "http11.response_closed.started"
	ResponseClosedComplete = "http11.response_closed.complete"
)

// Emit invokes fn if non-nil; it is a no-op guard so driver code never has
// to nil-check the hook before every event.
func Emit(fn Func, event string, kwargs map[string]any) {
	if fn != nil {
		fn(event, kwargs)
	}
}
