// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the outgoing half of an XMLHttpRequest-style
exchange: the Plan assembled by Open, SetRequestHeader and Send, and the
Leg built from it for each redirect hop.

A Plan validates its inputs as they arrive. Open's method must be on a
fixed allow-list and its URL must be a credential-free http or https URL:

	p, err := request.NewPlan("POST", "https://example.com/form", true, "", "")
	...
	err = p.SetHeader("X-Requested-With", "xhr")
	...
	err = p.SetBody("a=1", 8<<20)

Headers are validated as HTTP tokens and field values. Headers the
transport manages itself (Content-Length, Host, Proxy-*, Sec-* and so on)
are ignored without error. The Cookie header accumulates into a CookieSet
which is merged with the cookie store's value when a Leg is built; the
value "none" clears both.
*/
package request
