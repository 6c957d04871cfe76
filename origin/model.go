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

// Package origin identifies the reusable endpoint a pooled connection belongs
// to: the (scheme, host, port) triple every connection, idle entry and waiter
// is keyed on.
package origin

import (
	"net/url"
	"strconv"
	"strings"

	liberr "github.com/nabbar/httpool/errors"
	"github.com/nabbar/httpool/httperr"
)

// Scheme enumerates the two protocols this pool dials.
type Scheme uint8

const (
	HTTP Scheme = iota
	HTTPS
)

func (s Scheme) String() string {
	if s == HTTPS {
		return "https"
	}
	return "http"
}

// TLS reports whether connections for this scheme must negotiate TLS.
func (s Scheme) TLS() bool {
	return s == HTTPS
}

func defaultPort(s Scheme) uint16 {
	if s == HTTPS {
		return 443
	}
	return 80
}

// Origin is the normalized key identifying a reusable endpoint.
//
// Two origins are equal iff their scheme and port match exactly and their
// host matches case-insensitively; this is the only normalization the pool
// performs.
type Origin struct {
	Scheme Scheme
	Host   string
	Port   uint16
}

// Equal reports whether two origins identify the same endpoint.
func (o Origin) Equal(other Origin) bool {
	return o.Scheme == other.Scheme &&
		o.Port == other.Port &&
		strings.EqualFold(o.Host, other.Host)
}

// String renders the origin the way it would appear as a URL authority,
// useful for log fields and trace kwargs.
func (o Origin) String() string {
	return o.Scheme.String() + "://" + o.Host + ":" + strconv.Itoa(int(o.Port))
}

// Parse extracts the Origin from a request URL.
//
// Only http and https are supported; any other scheme, or an empty one,
// fails with ErrUnsupportedProtocol.
func Parse(raw string) (Origin, liberr.Error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Origin{}, httperr.ErrUnsupportedProtocol.Error(err)
	}
	return FromURL(u)
}

// FromURL extracts the Origin from an already-parsed URL.
func FromURL(u *url.URL) (Origin, liberr.Error) {
	if u == nil {
		return Origin{}, httperr.ErrUnsupportedProtocol.Error(nil)
	}

	var sch Scheme
	switch strings.ToLower(u.Scheme) {
	case "http":
		sch = HTTP
	case "https":
		sch = HTTPS
	default:
		return Origin{}, httperr.ErrUnsupportedProtocol.Error(nil)
	}

	host := u.Hostname()
	if host == "" {
		return Origin{}, httperr.ErrUnsupportedProtocol.Error(nil)
	}

	port := defaultPort(sch)
	if p := u.Port(); p != "" {
		v, e := strconv.ParseUint(p, 10, 16)
		if e != nil {
			return Origin{}, httperr.ErrUnsupportedProtocol.Error(e)
		}
		port = uint16(v)
	}

	return Origin{Scheme: sch, Host: host, Port: port}, nil
}
