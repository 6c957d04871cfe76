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
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	libtls "github.com/nabbar/httpool/certificates"
	dnsmapper "github.com/nabbar/httpool/httpcli/dns-mapper"
)

// defaultBackend dials real TCP sockets and negotiates real TLS, the same
// net.Dialer/tls.Config pairing the reference HTTP client transport uses.
type defaultBackend struct {
	dialer *net.Dialer
	tls    libtls.TLSConfig
	mapper dnsmapper.DNSMapper
}

// NewDefault returns the production Backend: a plain net.Dialer for
// connect_tcp and the given TLS config (nil selects sane TLS 1.2–1.3
// defaults) for start_tls.
func NewDefault(cfg libtls.TLSConfig) Backend {
	return NewDefaultWithResolver(cfg, nil)
}

// NewDefaultWithResolver is NewDefault with an optional hostname override:
// when mapper is non-nil, connect_tcp resolves host:port through it before
// falling back to the plain net.Dialer, letting a caller pin an origin to a
// fixed address without touching system DNS or /etc/hosts.
func NewDefaultWithResolver(cfg libtls.TLSConfig, mapper dnsmapper.DNSMapper) Backend {
	if cfg == nil {
		cfg = libtls.New()
		cfg.SetVersionMin(tls.VersionTLS12)
		cfg.SetVersionMax(tls.VersionTLS13)
	}
	return &defaultBackend{
		dialer: &net.Dialer{DualStack: true},
		tls:    cfg,
		mapper: mapper,
	}
}

func (b *defaultBackend) ConnectTCP(ctx context.Context, host string, port uint16, timeout time.Duration, localAddress string) (Stream, error) {
	d := *b.dialer
	d.Timeout = timeout

	if localAddress != "" {
		if addr, err := net.ResolveTCPAddr("tcp", localAddress); err == nil {
			d.LocalAddr = addr
		}
	}

	address := net.JoinHostPort(host, strconv.Itoa(int(port)))

	if b.mapper != nil {
		if mapped, err := b.mapper.SearchWithCache(address); err == nil && mapped != "" {
			address = mapped
		}
	}

	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (b *defaultBackend) StartTLS(ctx context.Context, stream Stream, host string, timeout time.Duration, cfg *tls.Config) (Stream, error) {
	if cfg == nil {
		cfg = b.tls.TLS(host)
	}

	c := tls.Client(stream, cfg)

	if timeout > 0 {
		if err := stream.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
		defer func() { _ = stream.SetDeadline(time.Time{}) }()
	}

	if err := c.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
