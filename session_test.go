// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xhr

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/gogama/xhr/backoff"
	"github.com/gogama/xhr/charset"
	"github.com/gogama/xhr/cookie"
	"github.com/gogama/xhr/dom"
	"github.com/gogama/xhr/logging"
	"github.com/gogama/xhr/redirect"
	"github.com/gogama/xhr/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closingTransport struct {
	*fakeTransport
	closed int
}

func (t *closingTransport) CloseIdleConnections() {
	t.closed++
}

// postingTransport answers every asynchronous attempt through its
// Poster, the way a real transport does from another goroutine.
type postingTransport struct {
	status int
	body   string
}

func (t *postingTransport) Start(req *transport.Request, r transport.Receiver) (transport.Handle, error) {
	h := &fakeAttempt{req: req, rcv: r}
	go req.Poster.Post(func() {
		if !h.canceled {
			h.respond(t.status, t.body)
		}
	})
	return h, nil
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.IsType(t, &transport.HTTP{}, c.Transport)
	assert.IsType(t, &backoff.Ledger{}, c.Backoff)
	assert.Nil(t, c.Cookies)
	assert.Equal(t, charset.Default, c.Converter)
	assert.Equal(t, dom.DefaultParser, c.Parser)
	assert.Equal(t, redirect.DefaultMaxRedirects, c.MaxRedirects)
	assert.NotNil(t, c.Redirect)
	assert.Equal(t, DefaultMaxBodySize, c.MaxBodySize)
	assert.Equal(t, LimitAbort, c.BodyLimit)
	assert.Equal(t, DefaultMaxRequestBody, c.MaxRequestBody)
	assert.Equal(t, charset.DefaultFallback, c.FallbackEncoding)
	assert.Equal(t, DefaultUserAgent, c.UserAgent)
	assert.NotNil(t, c.Clock)
	assert.Equal(t, logging.Nop(), c.Logger)
	assert.Nil(t, c.Metrics)
}

func TestFactory(t *testing.T) {
	t.Run("config keeps explicit values", func(t *testing.T) {
		ft := &fakeTransport{}
		f := NewFactory(Config{Transport: ft, MaxBodySize: 10, UserAgent: "gadget/1"})
		c := f.Config()
		assert.Same(t, ft, c.Transport)
		assert.Equal(t, 10, c.MaxBodySize)
		assert.Equal(t, "gadget/1", f.DefaultUserAgent())
		f.SetDefaultUserAgent("gadget/2")
		assert.Equal(t, "gadget/2", f.DefaultUserAgent())
		assert.Equal(t, "gadget/1", f.Config().UserAgent)
	})
	t.Run("requests get private sessions", func(t *testing.T) {
		f := NewFactory(Config{Transport: &fakeTransport{}})
		r1, r2 := f.NewRequest(), f.NewRequest()
		assert.NotSame(t, r1.Session(), r2.Session())
		assert.NotEqual(t, r1.Session().ID(), r2.Session().ID())
		u, _ := url.Parse("http://example.com/")
		r1.Session().Cookies().StoreSetCookieHeaders(u, []string{"a=1"})
		assert.Equal(t, "a=1", r1.Session().Cookies().CookiesForURL(u))
		assert.Empty(t, r2.Session().Cookies().CookiesForURL(u))
	})
	t.Run("shared cookie store", func(t *testing.T) {
		jar := cookie.NewJar()
		f := NewFactory(Config{Transport: &fakeTransport{}, Cookies: jar})
		assert.Same(t, jar, f.NewSession().Cookies())
		assert.Same(t, jar, f.NewSession().Cookies())
	})
}

func TestSession(t *testing.T) {
	t.Run("requests share cookies", func(t *testing.T) {
		ft := &fakeTransport{}
		s := newTestSession(t, ft)
		r1 := s.NewRequest()
		require.NoError(t, r1.Open("GET", "http://example.com/login", true, "", ""))
		require.NoError(t, r1.Send(nil))
		ft.last().respond(200, "", "Set-Cookie", "sid=abc")

		r2 := s.NewRequest()
		require.NoError(t, r2.Open("GET", "http://example.com/home", true, "", ""))
		require.NoError(t, r2.Send(nil))
		assert.Equal(t, "sid=abc", ft.last().req.Leg.Header.Get("Cookie"))
	})
	t.Run("close aborts in-flight requests", func(t *testing.T) {
		ct := &closingTransport{fakeTransport: &fakeTransport{}}
		s := NewFactory(Config{Transport: ct, Backoff: backoff.Never}).NewSession()
		r1, r2, r3 := s.NewRequest(), s.NewRequest(), s.NewRequest()
		for _, r := range []*Request{r1, r2} {
			require.NoError(t, r.Open("GET", "http://x/ok", true, "", ""))
			require.NoError(t, r.Send(nil))
		}
		require.NoError(t, r3.Open("GET", "http://x/ok", true, "", ""))
		assert.Equal(t, 2, s.InFlight())

		s.Close()

		assert.Equal(t, 0, s.InFlight())
		assert.Equal(t, Unsent, r1.ReadyState())
		assert.Equal(t, Unsent, r2.ReadyState())
		assert.Equal(t, Opened, r3.ReadyState())
		for _, a := range ct.attempts {
			assert.True(t, a.canceled)
		}
		assert.Equal(t, 1, ct.closed)
	})
	t.Run("synchronous requests are not pinned", func(t *testing.T) {
		var inFlight int
		var s *Session
		ft := &fakeTransport{script: func(a *fakeAttempt) {
			inFlight = s.InFlight()
			a.respond(200, "")
		}}
		s = newTestSession(t, ft)
		r := s.NewRequest()
		require.NoError(t, r.Open("GET", "http://x/ok", false, "", ""))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, 0, inFlight)
	})
	t.Run("wait", func(t *testing.T) {
		s := NewFactory(Config{
			Transport: &postingTransport{status: 200, body: "posted"},
			Backoff:   backoff.Never,
		}).NewSession()
		r := s.NewRequest()
		var states []ReadyState
		r.OnReadyStateChange(func(r *Request) {
			states = append(states, r.ReadyState())
		})
		require.NoError(t, r.Open("GET", "http://x/ok", true, "", ""))
		require.NoError(t, r.Send(nil))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, s.Wait(ctx, r))
		assert.Equal(t, []ReadyState{Opened, Opened, HeadersReceived, Loading, Done}, states)
		text, err := r.ResponseText()
		require.NoError(t, err)
		assert.Equal(t, "posted", text)
		assert.Equal(t, 0, s.InFlight())
	})
	t.Run("wait canceled", func(t *testing.T) {
		ft := &fakeTransport{}
		s := newTestSession(t, ft)
		r := s.NewRequest()
		require.NoError(t, r.Open("GET", "http://x/ok", true, "", ""))
		require.NoError(t, r.Send(nil))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, s.Wait(ctx, r), context.DeadlineExceeded)
		assert.Equal(t, Opened, r.ReadyState())
	})
}
