// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"strings"
)

// A CookieSet accumulates the values given to SetRequestHeader("Cookie").
//
// The value "none", in any case, clears the values accumulated so far
// and suppresses the cookies held by the cookie store for the rest of
// the request. The zero value is an empty set.
type CookieSet struct {
	values      []string
	clearStored bool
}

// Add records one cookie assignment.
func (c *CookieSet) Add(value string) {
	if strings.EqualFold(value, "none") {
		c.values = c.values[:0]
		c.clearStored = true
		return
	}
	c.values = append(c.values, value)
}

// Values returns the accumulated assignments in order.
func (c *CookieSet) Values() []string {
	return append([]string(nil), c.values...)
}

// ClearsStored reports whether "none" was added.
func (c *CookieSet) ClearsStored() bool {
	return c.clearStored
}

// Merge returns the Cookie header value to send: stored, the cookie
// string held by the cookie store, followed by the accumulated values,
// all joined with "; ". The stored value is dropped if "none" was added.
func (c *CookieSet) Merge(stored string) string {
	parts := make([]string, 0, len(c.values)+1)
	if stored != "" && !c.clearStored {
		parts = append(parts, stored)
	}
	parts = append(parts, c.values...)
	return strings.Join(parts, "; ")
}
