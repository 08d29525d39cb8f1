// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xhr

// A HandlerGroup is a group of ready state handler chains which can be
// installed in a Request.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack adds a handler to the back of the handler chain for a
// specific ready state.
func (g *HandlerGroup) PushBack(s ReadyState, h Handler) {
	if h == nil {
		panic("xhr: nil handler")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numStates)
	}

	g.handlers[s] = append(g.handlers[s], h)
}

// run calls the chain for s in order, stopping early once current
// returns false.
func (g *HandlerGroup) run(s ReadyState, r *Request, current func() bool) {
	i := int(s)
	if i < len(g.handlers) {
		run(g.handlers[i], s, r, current)
	}
}

func run(chain []Handler, s ReadyState, r *Request, current func() bool) {
	for _, h := range chain {
		h.Handle(s, r)
		if !current() {
			return
		}
	}
}

// A Handler handles a Request entering a ready state.
//
// A handler may call any method of the Request, including Open, Send
// and Abort. If it does so, the handlers remaining in the chain are not
// called for the superseded notification.
type Handler interface {
	Handle(ReadyState, *Request)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as handlers. If f is a function with appropriate signature,
// then HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(ReadyState, *Request)

// Handle calls f(s, r).
func (f HandlerFunc) Handle(s ReadyState, r *Request) {
	f(s, r)
}
