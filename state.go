// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xhr

// A ReadyState identifies the lifecycle state of a Request. Install
// handlers for a ReadyState in a HandlerGroup to be told when the
// request enters it.
type ReadyState int

const (
	// Unsent is the state of a new Request, and of a Request after
	// Abort.
	//
	// The transition into Unsent never fires a notification.
	Unsent ReadyState = iota
	// Opened is the state after a successful Open.
	//
	// Send re-announces Opened, without changing the state, before it
	// consults the backoff guard. Each followed redirect also returns
	// the request to Opened before the next leg starts.
	Opened
	// HeadersReceived is the state after the response status and
	// headers of a leg have arrived.
	//
	// When a redirect is followed, HeadersReceived is the last state
	// of the leg that received the redirect; the request then moves
	// back to Opened.
	HeadersReceived
	// Loading is the state while response body bytes arrive. A
	// response with an empty body passes through Loading on its way
	// to Done.
	Loading
	// Done is the state after the request completed, successfully or
	// not. Use IsSuccessful to tell which.
	Done
	// stateSentinel provides the total number of states typed as a
	// ReadyState.
	stateSentinel

	// numStates provides the total number of states as an int.
	numStates = int(stateSentinel)
)

var stateNames = []string{
	"UNSENT",
	"OPENED",
	"HEADERS_RECEIVED",
	"LOADING",
	"DONE",
}

// States returns a slice containing all ready states, in the order in
// which a request passes through them.
func States() []ReadyState {
	return []ReadyState{
		Unsent,
		Opened,
		HeadersReceived,
		Loading,
		Done,
	}
}

// Name returns the name of the state.
func (s ReadyState) Name() string {
	return stateNames[int(s)]
}

// String returns the name of the state.
func (s ReadyState) String() string {
	return s.Name()
}
