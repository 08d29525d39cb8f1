// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"

	"github.com/gogama/xhr/request"
)

// ErrSyncUnsupported is returned by Start when a transport cannot block
// the caller for a synchronous attempt.
var ErrSyncUnsupported = errors.New("xhr/transport: synchronous requests not supported")

// A HeaderField is one response header field, in arrival order.
type HeaderField struct {
	Name  string
	Value string
}

// A Poster runs functions, one at a time and in the order posted, on
// the goroutine that owns the requests. loop.Loop is a Poster.
type Poster interface {
	Post(f func())
}

// A Request is one transport attempt.
type Request struct {
	// Leg is the method, URL, headers and body to send.
	Leg *request.Leg

	// Async is false if Start must block until the attempt finishes,
	// delivering every callback before it returns.
	Async bool

	// Poster delivers the callbacks of an asynchronous attempt. If nil,
	// callbacks are delivered on whatever goroutine the transport
	// uses.
	Poster Poster

	// Context, if not nil, cancels the attempt like Handle.Cancel when
	// it is done. A synchronous attempt can only be canceled from
	// within a callback this way, since its Handle is returned after
	// the last callback.
	Context context.Context
}

// A Receiver is told about the progress of an attempt. The transport
// calls OnHeaders at most once, then OnBodyChunk zero or more times,
// then OnFinished exactly once, unless the attempt is canceled first.
// OnFinished may come without OnHeaders if the attempt fails before a
// response arrives.
type Receiver interface {
	OnHeaders(status int, statusText string, header []HeaderField)
	OnBodyChunk(chunk []byte)
	OnFinished(ok bool, err error)
}

// A Handle controls a started attempt.
type Handle interface {
	// Cancel stops the attempt. No callback is delivered after Cancel
	// returns. Cancel may be called more than once, and from within a
	// callback.
	Cancel()
}

// A Transport starts attempts.
//
// Implementations of Transport must be safe for concurrent use by
// multiple goroutines.
type Transport interface {
	// Start begins the attempt described by req, reporting progress to
	// r. An error means the attempt could not start and no callback
	// will be delivered.
	Start(req *Request, r Receiver) (Handle, error)
}

// An IdleCloser has a CloseIdleConnections method. HTTP implements it
// by forwarding to its Doer when the Doer is itself an IdleCloser.
type IdleCloser interface {
	CloseIdleConnections()
}
