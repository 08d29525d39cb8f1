// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var (
	// ErrHeaderName is returned when a header name is not a valid HTTP
	// token.
	ErrHeaderName = errors.New("xhr/request: invalid header name")
	// ErrHeaderValue is returned when a header value contains control
	// characters or line breaks.
	ErrHeaderValue = errors.New("xhr/request: invalid header value")
)

// A Policy decides how a repeated header name is combined.
type Policy int

const (
	// Replace discards the previous value.
	Replace Policy = iota
	// Append joins the new value onto the previous value with ", ".
	Append
)

// forbidden lists the headers the transport manages itself. Keys are in
// canonical form.
var forbidden = map[string]bool{
	"Accept-Charset":            true,
	"Accept-Encoding":           true,
	"Connection":                true,
	"Content-Length":            true,
	"Content-Transfer-Encoding": true,
	"Date":                      true,
	"Expect":                    true,
	"Host":                      true,
	"Keep-Alive":                true,
	"Referer":                   true,
	"Te":                        true,
	"Trailer":                   true,
	"Transfer-Encoding":         true,
	"Upgrade":                   true,
	"Via":                       true,
}

var appendPolicy = map[string]bool{
	"Accept":          true,
	"Accept-Language": true,
	"Cache-Control":   true,
	"If-Match":        true,
	"If-None-Match":   true,
	"Pragma":          true,
	"Warning":         true,
}

// Forbidden reports whether name is a header the caller may not set.
// Matching is case-insensitive and includes the "Proxy-" and "Sec-"
// prefixes.
func Forbidden(name string) bool {
	c := http.CanonicalHeaderKey(name)
	return forbidden[c] || strings.HasPrefix(c, "Proxy-") || strings.HasPrefix(c, "Sec-")
}

// PolicyOf returns the policy applied to a repeated header name.
func PolicyOf(name string) Policy {
	if appendPolicy[http.CanonicalHeaderKey(name)] {
		return Append
	}
	return Replace
}

// A Field is a header name and value.
type Field struct {
	Name  string
	Value string
}

// A Header is an ordered set of custom request headers. Names are
// matched case-insensitively and keep the spelling of their first Set.
// The zero value is an empty header set.
type Header struct {
	fields []Field
}

// Set validates and stores a header.
//
// Set returns an error wrapping ErrHeaderName or ErrHeaderValue if the
// name or value is malformed. An empty value, or a forbidden name, is
// silently ignored. A repeated name is replaced or appended according
// to PolicyOf.
func (h *Header) Set(name, value string) error {
	if err := validate(name, value); err != nil {
		return err
	}
	if value == "" || Forbidden(name) {
		return nil
	}
	i := h.index(name)
	switch {
	case i < 0:
		h.fields = append(h.fields, Field{Name: name, Value: value})
	case PolicyOf(name) == Append:
		h.fields[i].Value += ", " + value
	default:
		h.fields[i].Value = value
	}
	return nil
}

func validate(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("%w: %q", ErrHeaderName, name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("%w: for %q", ErrHeaderValue, name)
	}
	return nil
}

// Get returns the value for name, or "" if none is set.
func (h *Header) Get(name string) string {
	if i := h.index(name); i >= 0 {
		return h.fields[i].Value
	}
	return ""
}

// Has reports whether a value is set for name.
func (h *Header) Has(name string) bool {
	return h.index(name) >= 0
}

// Len returns the number of distinct names.
func (h *Header) Len() int {
	return len(h.fields)
}

// Fields returns a copy of the headers in the order they were first set.
func (h *Header) Fields() []Field {
	return append([]Field(nil), h.fields...)
}

// HTTPHeader converts the header set into a new http.Header.
func (h *Header) HTTPHeader() http.Header {
	out := make(http.Header, len(h.fields)+4)
	for _, f := range h.fields {
		out.Add(f.Name, f.Value)
	}
	return out
}

func (h *Header) index(name string) int {
	for i := range h.fields {
		if strings.EqualFold(h.fields[i].Name, name) {
			return i
		}
	}
	return -1
}
