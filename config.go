// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xhr

import (
	"time"

	"github.com/gogama/xhr/backoff"
	"github.com/gogama/xhr/charset"
	"github.com/gogama/xhr/cookie"
	"github.com/gogama/xhr/dom"
	"github.com/gogama/xhr/logging"
	"github.com/gogama/xhr/metrics"
	"github.com/gogama/xhr/redirect"
	"github.com/gogama/xhr/transport"
)

// A BodyLimit selects what happens when a response body outgrows
// Config.MaxBodySize.
type BodyLimit int

const (
	// LimitAbort stops the transfer as soon as the limit is passed and
	// fails the request.
	LimitAbort BodyLimit = iota
	// LimitAfterCompletion stops buffering once the limit is passed,
	// lets the transfer run to its end, and then fails the request.
	LimitAfterCompletion
)

const (
	// DefaultMaxBodySize is the default limit on the buffered response
	// body and on the raw response header block.
	DefaultMaxBodySize = 8 * 1024 * 1024
	// DefaultMaxRequestBody is the default size at which a request body
	// is refused.
	DefaultMaxRequestBody = 8 * 1024 * 1024
	// DefaultUserAgent is sent when neither the caller nor the factory
	// set a User-Agent.
	DefaultUserAgent = "Mozilla/5.0 (compatible; xhr)"
)

// A Config holds the collaborators and limits shared by the requests of
// a Factory. The zero value is valid: every zero field takes its
// default when the Factory is created.
type Config struct {
	// Transport sends the requests. The default is a transport.HTTP
	// with its default Doer.
	Transport transport.Transport

	// Backoff gates requests to hosts that keep failing. The default is
	// a backoff.Ledger without a store, shared by every request of the
	// Factory.
	Backoff backoff.Guard

	// Cookies, if set, is shared by every session. If nil, each session
	// gets its own cookie.Jar.
	Cookies cookie.Store

	// Converter decodes response text. The default is charset.Default.
	Converter charset.Converter

	// Parser parses response XML. The default is dom.DefaultParser.
	Parser dom.Parser

	// Redirect decides which redirects are followed. The default is
	// redirect.NewPolicy(MaxRedirects).
	Redirect redirect.Policy

	// MaxRedirects is the number of redirects the default redirect
	// policy follows. The default is redirect.DefaultMaxRedirects.
	MaxRedirects int

	// MaxBodySize limits the buffered response body and the raw
	// response header block. The default is DefaultMaxBodySize.
	MaxBodySize int

	// BodyLimit selects how MaxBodySize is enforced on the body.
	BodyLimit BodyLimit

	// MaxRequestBody is the size at which Send refuses a body with a
	// SyntaxError. The default is DefaultMaxRequestBody.
	MaxRequestBody int

	// FallbackEncoding decodes response text the detected encoding
	// cannot. The default is charset.DefaultFallback.
	FallbackEncoding string

	// UserAgent is the initial default User-Agent of the Factory. The
	// default is DefaultUserAgent.
	UserAgent string

	// Clock returns the current time for the backoff guard. The
	// default is time.Now.
	Clock func() time.Time

	// Logger receives the request logs. The default discards them.
	Logger logging.Logger

	// Metrics, if not nil, records request metrics.
	Metrics *metrics.Collector
}

// DefaultConfig returns a Config with every field set to its default,
// except Cookies, which stays nil so that each session has its own jar.
func DefaultConfig() Config {
	var c Config
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Transport == nil {
		c.Transport = &transport.HTTP{}
	}
	if c.Backoff == nil {
		c.Backoff = backoff.NewLedger(nil, time.Now())
	}
	if c.Converter == nil {
		c.Converter = charset.Default
	}
	if c.Parser == nil {
		c.Parser = dom.DefaultParser
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = redirect.DefaultMaxRedirects
	}
	if c.Redirect == nil {
		c.Redirect = redirect.NewPolicy(c.MaxRedirects)
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
	if c.MaxRequestBody <= 0 {
		c.MaxRequestBody = DefaultMaxRequestBody
	}
	if c.FallbackEncoding == "" {
		c.FallbackEncoding = charset.DefaultFallback
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logger == nil {
		c.Logger = logging.Nop()
	}
	return c
}
