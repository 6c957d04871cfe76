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

package httpool

import (
	"fmt"

	libval "github.com/go-playground/validator/v10"
	spfvpr "github.com/spf13/viper"

	libtls "github.com/nabbar/httpool/certificates"
	"github.com/nabbar/httpool/connid"
	libdur "github.com/nabbar/httpool/duration"
	liberr "github.com/nabbar/httpool/errors"

	"github.com/nabbar/httpool/httperr"
)

// Config is the pool's full configuration surface: capacity limits,
// keepalive accounting, the wire backend's TLS material, and the protocol
// switches a caller would otherwise have to pass to every Acquire.
type Config struct {
	MaxConnections          uint32 `mapstructure:"max-connections" json:"max-connections" yaml:"max-connections" toml:"max-connections" validate:"required,min=1"`
	MaxKeepAliveConnections uint32 `mapstructure:"max-keepalive-connections" json:"max-keepalive-connections" yaml:"max-keepalive-connections" toml:"max-keepalive-connections" validate:"required,min=1"`

	// KeepAliveExpiry must be positive (see Validate) and is passed on to
	// dispatch.Config. The pool does not retire IDLE connections by age: an
	// IDLE connection stays until it is reused, evicted for capacity, or
	// closed with the pool.
	KeepAliveExpiry libdur.Duration `mapstructure:"keepalive-expiry" json:"keepalive-expiry" yaml:"keepalive-expiry" toml:"keepalive-expiry" validate:"required"`

	// HTTP2 flips the pool into refusing every exchange with RuntimeError
	// instead of negotiating a second protocol; see driver.Config.HTTP2.
	HTTP2 bool `mapstructure:"http2" json:"http2" yaml:"http2" toml:"http2"`

	ConnectTimeout libdur.Duration `mapstructure:"connect-timeout,omitempty" json:"connect-timeout,omitempty" yaml:"connect-timeout,omitempty" toml:"connect-timeout,omitempty"`
	TLSTimeout     libdur.Duration `mapstructure:"tls-timeout,omitempty" json:"tls-timeout,omitempty" yaml:"tls-timeout,omitempty" toml:"tls-timeout,omitempty"`
	TLSConfig      libtls.Config   `mapstructure:"tls-config,omitempty" json:"tls-config,omitempty" yaml:"tls-config,omitempty" toml:"tls-config,omitempty"`

	// Warn, if non-nil, is invoked whenever Aclose discovers a connection
	// negotiated Connection: close — the pool's UserWarning channel. Not a
	// config-file value: set it after loading, e.g. to logging.Logger's
	// WarnConnectionClose.
	Warn func(connid.ID) `mapstructure:"-" json:"-" yaml:"-" toml:"-"`

	// DNSOverrides maps "host:port" to a replacement "host:port", applied
	// by connect_tcp before dialing. Lets a caller pin an origin to a fixed
	// address — testing, staged rollouts, split-horizon routing — without
	// touching system DNS. Empty disables the override entirely.
	DNSOverrides map[string]string `mapstructure:"dns-overrides,omitempty" json:"dns-overrides,omitempty" yaml:"dns-overrides,omitempty" toml:"dns-overrides,omitempty"`
}

// Validate runs struct-tag validation and additionally requires a positive
// keepalive expiry, which the "required" tag alone does not enforce: a pool
// without a keepalive expiry or without any IDLE capacity at all (the latter
// rejected by the min=1 tag) is a misconfiguration, not a
// degenerate-but-legal pool.
func (c Config) Validate() liberr.Error {
	err := httperr.ErrInvalidConfig.Error(nil)

	if er := libval.New().Struct(c); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		}
		for _, e := range er.(libval.ValidationErrors) {
			//nolint goerr113
			err.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
		}
	}

	if c.KeepAliveExpiry.Time() <= 0 {
		//nolint goerr113
		err.Add(fmt.Errorf("keepalive-expiry must be a positive duration"))
	}

	if err.HasParent() {
		return err
	}
	return nil
}

// LoadConfig unmarshals key from v into a Config and validates it. It uses
// spf13/viper directly: the pool has no component-registry or CLI-flag
// wiring of its own to hang a wrapper off of.
func LoadConfig(v *spfvpr.Viper, key string) (Config, liberr.Error) {
	var cfg Config

	if v == nil {
		return cfg, httperr.ErrInvalidConfig.Error(fmt.Errorf("nil viper instance"))
	}
	if !v.IsSet(key) {
		return cfg, httperr.ErrInvalidConfig.Error(fmt.Errorf("missing config key '%s'", key))
	}
	if e := v.UnmarshalKey(key, &cfg); e != nil {
		return cfg, httperr.ErrInvalidConfig.Error(e)
	}

	if verr := cfg.Validate(); verr != nil {
		return cfg, verr
	}
	return cfg, nil
}
