// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultMaxRedirects is the number of redirects followed by the
// policy returned by NewPolicy when given a non-positive maximum.
const DefaultMaxRedirects = 10

var (
	// ErrTooMany is returned when a redirect would exceed the maximum.
	ErrTooMany = errors.New("xhr/redirect: too many redirects")
	// ErrStatus is returned for a redirect status that is not followed.
	ErrStatus = errors.New("xhr/redirect: unsupported redirect status")
	// ErrLocation is returned when a Location does not resolve to an
	// HTTP(S) URL.
	ErrLocation = errors.New("xhr/redirect: invalid location")
)

// A Decision describes the next leg of a followed redirect.
type Decision struct {
	// Method is the method of the next leg.
	Method string
	// DropBody is true when the request body is not replayed.
	DropBody bool
}

// A Policy decides whether, and how, a redirect response is followed.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Decide returns the next leg for a redirect with the given status,
	// received for a request with the given method after count
	// redirects were already followed. A non-nil error means the
	// redirect is not followed and the request fails.
	Decide(status int, method string, count int) (Decision, error)
}

// PolicyFunc adapts an ordinary function to the Policy interface.
type PolicyFunc func(status int, method string, count int) (Decision, error)

// Decide calls f(status, method, count).
func (f PolicyFunc) Decide(status int, method string, count int) (Decision, error) {
	return f(status, method, count)
}

// DefaultPolicy follows up to DefaultMaxRedirects redirects.
var DefaultPolicy = NewPolicy(DefaultMaxRedirects)

// NewPolicy returns the standard policy following at most max
// redirects. 301 and 302 turn POST into GET, 303 always turns the
// method into GET, and 307 keeps the method and body. Every other
// status is refused.
func NewPolicy(max int) Policy {
	if max <= 0 {
		max = DefaultMaxRedirects
	}
	return standard(max)
}

type standard int

func (max standard) Decide(status int, method string, count int) (Decision, error) {
	if count+1 > int(max) {
		return Decision{}, fmt.Errorf("%w: more than %d", ErrTooMany, int(max))
	}
	switch status {
	case http.StatusMovedPermanently, http.StatusFound:
		if method == http.MethodPost {
			return Decision{Method: http.MethodGet, DropBody: true}, nil
		}
		return Decision{Method: method}, nil
	case http.StatusSeeOther:
		return Decision{Method: http.MethodGet, DropBody: true}, nil
	case http.StatusTemporaryRedirect:
		return Decision{Method: method}, nil
	}
	return Decision{}, fmt.Errorf("%w: %d", ErrStatus, status)
}

// Intercepts reports whether a response with the given status and
// Location header is a redirect to be handed to a Policy. A 3xx
// response without a Location completes as an ordinary response.
func Intercepts(status int, location string) bool {
	return status >= 300 && status < 400 && location != ""
}

// Resolve resolves location against the URL of the leg that received
// it. The result must be an HTTP(S) URL with a host.
func Resolve(base *url.URL, location string) (*url.URL, error) {
	u, err := base.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocation, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrLocation, location)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}
