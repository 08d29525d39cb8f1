// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	urlpkg "net/url"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// ErrMethod is returned when a method is not on the allow-list.
	ErrMethod = errors.New("xhr/request: unsupported method")
	// ErrURL is returned when a URL is not a credential-free HTTP(S)
	// URL.
	ErrURL = errors.New("xhr/request: invalid URL")
	// ErrBodyTooLarge is returned when a request body exceeds the
	// configured limit.
	ErrBodyTooLarge = errors.New("xhr/request: body too large")
)

const (
	// DefaultContentType is the Content-Type sent with a non-GET body
	// when the caller did not set one.
	DefaultContentType = "application/x-www-form-urlencoded"
	// XMLContentType is the Content-Type sent with a document body when
	// the caller did not set one.
	XMLContentType = "application/xml;charset=UTF-8"
)

var methods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"OPTIONS": true,
}

// A Plan describes the request a caller assembles between Open and
// Send: the method and URL given to Open, the credentials, the headers
// and cookies set with SetRequestHeader, and the body given to Send.
//
// A Plan is replayed once per redirect leg. The header and cookie sets
// are retained across legs; the method and URL of later legs are
// decided by the redirect policy and recorded on the Leg, never on the
// Plan.
type Plan struct {
	// Method is the upper-cased method given to Open.
	Method string

	// URL is the URL given to Open.
	URL *urlpkg.URL

	// Async reports whether Send should return before the response
	// arrives.
	Async bool

	// User and Password, when User is non-empty, are sent as HTTP
	// Basic credentials unless an Authorization header is set.
	User     string
	Password string

	// Header contains the custom headers set by the caller.
	Header Header

	// Cookies contains the cookie assignments set by the caller.
	Cookies CookieSet

	// Body is the pre-buffered request body.
	Body []byte

	// ContentType is the Content-Type defaulted onto a non-empty body
	// when the caller did not set one. Empty means DefaultContentType.
	ContentType string
}

// NewPlan validates the arguments of an Open call and returns a new
// plan.
//
// The method is matched case-insensitively against the allow-list GET,
// HEAD, POST, PUT, DELETE and OPTIONS. The URL must satisfy ParseURL.
func NewPlan(method, url string, async bool, user, password string) (*Plan, error) {
	m := strings.ToUpper(method)
	if !methods[m] {
		return nil, fmt.Errorf("%w: %q", ErrMethod, method)
	}
	u, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Method:   m,
		URL:      u,
		Async:    async,
		User:     user,
		Password: password,
	}, nil
}

// ParseURL parses and validates a request URL. The URL must be absolute,
// use the http or https scheme, name a host that can be converted to
// ASCII form, and carry no user information. The fragment is dropped
// and an empty port is removed.
func ParseURL(raw string) (*urlpkg.URL, error) {
	u, err := urlpkg.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrURL, raw)
	}
	if u.User != nil {
		return nil, fmt.Errorf("%w: credentials in %q", ErrURL, raw)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrURL, raw)
	}
	if !strings.HasPrefix(u.Host, "[") {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrURL, err)
		}
		if port := u.Port(); port != "" {
			u.Host = ascii + ":" + port
		} else {
			u.Host = removeEmptyPort(strings.Replace(u.Host, host, ascii, 1))
		}
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}

// SetHeader applies one SetRequestHeader call to the plan.
//
// The name "Cookie", matched exactly, is routed to the cookie set. All
// other names go to the header set. See Header.Set for the validation
// and policy rules.
func (p *Plan) SetHeader(name, value string) error {
	if name == "Cookie" {
		if err := validate(name, value); err != nil {
			return err
		}
		if value != "" {
			p.Cookies.Add(value)
		}
		return nil
	}
	return p.Header.Set(name, value)
}

// SetBody converts and stores the body given to Send. The body may be
// any type accepted by BodyBytes. A body of max bytes or more is
// rejected when max is positive.
func (p *Plan) SetBody(body interface{}, max int) error {
	b, err := BodyBytes(body)
	if err != nil {
		return err
	}
	if max > 0 && len(b) >= max {
		return fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, len(b))
	}
	p.Body = b
	return nil
}

// AddCookie adds a cookie to the plan's cookie set. Only c's name and
// value are used.
func (p *Plan) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	p.Cookies.Add(c2.String())
}

// A Leg is one request/response attempt within a possibly multi-hop
// redirect chain.
type Leg struct {
	// Number counts the redirects followed before this leg.
	Number int
	Method string
	URL    *urlpkg.URL
	Header http.Header
	Body   []byte
}

// NewLeg builds the outgoing request for one leg.
//
// The custom headers are copied. The cookie set is merged with stored,
// the cookie string held by the cookie store for u. A GET leg discards
// the body. A non-GET leg with a body gets the default Content-Type if
// none is set, and a non-GET leg without a body gets Content-Length: 0.
// If userAgent is non-empty and no User-Agent is set, it is added.
//
// Credentials, whether given to Open or set as an Authorization header,
// are only sent to the host and port of the plan's URL. A leg
// redirected elsewhere carries no Authorization header.
func (p *Plan) NewLeg(number int, method string, u *urlpkg.URL, stored, userAgent string) *Leg {
	h := p.Header.HTTPHeader()
	if c := p.Cookies.Merge(stored); c != "" {
		if existing := h.Get("Cookie"); existing != "" {
			c = existing + "; " + c
		}
		h.Set("Cookie", c)
	}
	if !sameHost(u, p.URL) {
		h.Del("Authorization")
	} else if p.User != "" && h.Get("Authorization") == "" {
		h.Set("Authorization", "Basic "+basicAuth(p.User, p.Password))
	}
	if userAgent != "" && h.Get("User-Agent") == "" {
		h.Set("User-Agent", userAgent)
	}
	body := p.Body
	if method == "GET" {
		body = nil
	} else if len(body) > 0 {
		if h.Get("Content-Type") == "" {
			ct := p.ContentType
			if ct == "" {
				ct = DefaultContentType
			}
			h.Set("Content-Type", ct)
		}
	} else {
		h.Set("Content-Length", "0")
	}
	return &Leg{
		Number: number,
		Method: method,
		URL:    u,
		Header: h,
		Body:   body,
	}
}

// sameHost reports whether a and b name the same host and port, with
// missing ports taken from the scheme.
func sameHost(a, b *urlpkg.URL) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(a.Hostname(), b.Hostname()) && effectivePort(a) == effectivePort(b)
}

func effectivePort(u *urlpkg.URL) string {
	if port := u.Port(); port != "" {
		return port
	}
	if strings.EqualFold(u.Scheme, "https") {
		return "443"
	}
	return "80"
}

// basicAuth is lifted verbatim from net/http/client.go.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
