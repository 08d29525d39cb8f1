// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cookie provides the cookie store shared by the requests of a
// session.
package cookie

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// A Store keeps the cookies received from servers and supplies them to
// later requests.
//
// Implementations of Store must be safe for concurrent use by multiple
// goroutines.
type Store interface {
	// CookiesForURL returns the value of the Cookie header to send to
	// u, or "" if there are no cookies for u.
	CookiesForURL(u *url.URL) string

	// StoreSetCookieHeaders stores the cookies named by the Set-Cookie
	// header values received from u.
	StoreSetCookieHeaders(u *url.URL, values []string)
}

// A Jar is a Store built on net/http/cookiejar with the public suffix
// list, so that a server cannot set cookies for a whole registry
// domain.
type Jar struct {
	jar http.CookieJar
}

// NewJar returns an empty Jar.
func NewJar() *Jar {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		// cookiejar.New never returns an error.
		panic("xhr/cookie: " + err.Error())
	}
	return &Jar{jar: jar}
}

// CookiesForURL returns the cookies for u joined with "; ".
func (j *Jar) CookiesForURL(u *url.URL) string {
	cookies := j.jar.Cookies(u)
	if len(cookies) == 0 {
		return ""
	}
	parts := make([]string, len(cookies))
	for i, c := range cookies {
		parts[i] = c.Name + "=" + c.Value
	}
	return strings.Join(parts, "; ")
}

// StoreSetCookieHeaders parses values as Set-Cookie headers and stores
// the valid cookies. Invalid values are ignored.
func (j *Jar) StoreSetCookieHeaders(u *url.URL, values []string) {
	if len(values) == 0 {
		return
	}
	h := http.Header{"Set-Cookie": values}
	cookies := (&http.Response{Header: h}).Cookies()
	if len(cookies) > 0 {
		j.jar.SetCookies(u, cookies)
	}
}

// SetCookies stores cookies for u directly.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
}

// Cookies returns the cookies for u.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}
