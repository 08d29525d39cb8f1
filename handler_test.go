// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xhr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerGroup(t *testing.T) {
	var states []string
	var reqs []*Request
	h1 := &testHandler{seq: 1, states: &states, reqs: &reqs}
	h2 := &testHandler{seq: 2, states: &states, reqs: &reqs}
	g := &HandlerGroup{}
	always := func() bool { return true }
	t.Run("PushBack", func(t *testing.T) {
		assert.Panics(t, func() { g.PushBack(Opened, nil) })
		assert.Panics(t, func() { g.PushBack(ReadyState(123), h1) })
		g.PushBack(Opened, h1)
		g.PushBack(Opened, h2)
		g.PushBack(Done, h1)
	})
	t.Run("run", func(t *testing.T) {
		r1 := &Request{}
		r2 := &Request{}
		g.run(Loading, r1, always)
		assert.Empty(t, states)
		assert.Empty(t, reqs)
		g.run(Opened, r1, always)
		assert.Equal(t, []string{"1.OPENED", "2.OPENED"}, states)
		assert.Equal(t, []*Request{r1, r1}, reqs)
		states = states[:0]
		reqs = reqs[:0]
		g.run(Done, r2, always)
		assert.Equal(t, []string{"1.DONE"}, states)
		assert.Equal(t, []*Request{r2}, reqs)
	})
	t.Run("stop when superseded", func(t *testing.T) {
		states = states[:0]
		reqs = reqs[:0]
		g.run(Opened, &Request{}, func() bool { return false })
		assert.Equal(t, []string{"1.OPENED"}, states)
	})
	t.Run("empty group", func(t *testing.T) {
		var empty HandlerGroup
		assert.NotPanics(t, func() { empty.run(Done, &Request{}, always) })
	})
}

type testHandler struct {
	seq    int
	states *[]string
	reqs   *[]*Request
}

func (h *testHandler) Handle(s ReadyState, r *Request) {
	*h.states = append(*h.states, fmt.Sprintf("%d.%s", h.seq, s))
	*h.reqs = append(*h.reqs, r)
}

func TestHandlerFunc(t *testing.T) {
	var _s ReadyState
	var _r *Request
	var f = func(s ReadyState, r *Request) {
		_s = s
		_r = r
	}
	h := HandlerFunc(f)
	r := &Request{}
	h.Handle(HeadersReceived, r)

	assert.Equal(t, HeadersReceived, _s)
	assert.Same(t, r, _r)
}
