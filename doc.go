// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package xhr provides an XMLHttpRequest-style HTTP request engine: a
reusable request object that moves through a fixed lifecycle of ready
states, reassembles the response, follows redirects, and protects remote
hosts from clients that keep retrying after failures.

Create a Factory, then a Session, then requests.

	factory := xhr.NewFactory(xhr.Config{})
	session := factory.NewSession()
	req := session.NewRequest()
	err := req.Open("GET", "https://www.example.com/feed.xml", false, "", "")
	...
	err = req.Send(nil)
	...
	doc, err := req.ResponseXML()

An asynchronous request returns from Send immediately and reports its
progress through ready state notifications, delivered by the session's
event loop:

	req.OnReadyStateChange(func(r *xhr.Request) {
		if r.ReadyState() == xhr.Done && r.IsSuccessful() {
			text, _ := r.ResponseText()
			...
		}
	})
	err := req.Open("POST", "https://www.example.com/form", true, "", "")
	...
	err = req.Send(url.Values{"key": {"Value"}})
	...
	err = session.Wait(ctx, req)

For finer control over notifications, install handlers for specific
ready states:

	req.Handlers().PushBack(xhr.HeadersReceived, xhr.HandlerFunc(
		func(_ xhr.ReadyState, r *xhr.Request) {
			ct, _ := r.ResponseHeader("Content-Type")
			log.Printf("Content-Type of %s is %s", r.EffectiveURL(), ct)
		}))

The collaborators of a request are set in the Config given to the
Factory: the transport (package transport), the backoff guard (package
backoff), the cookie store (package cookie), the character set converter
(package charset), the XML parser (package dom) and the redirect policy
(package redirect). For example, to persist backoff state across
restarts and give each attempt 10 seconds:

	store, err := backoff.OpenSQLiteStore("backoff.db")
	...
	ledger := backoff.NewLedger(store, time.Now())
	err = ledger.Load(ctx, time.Now())
	...
	factory := xhr.NewFactory(xhr.Config{
		Transport: &transport.HTTP{TimeoutPolicy: timeout.Fixed(10 * time.Second)},
		Backoff:   ledger,
	})

Methods of Request return an *Error whose Code classifies the failure.
Use errors.Is with ErrSyntax, ErrInvalidState, ErrNetwork and ErrAbort
to test for a class.
*/
package xhr
