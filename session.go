// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xhr

import (
	"context"
	"sync"

	"github.com/gogama/xhr/cookie"
	"github.com/gogama/xhr/logging"
	"github.com/gogama/xhr/loop"
	"github.com/gogama/xhr/response"
	"github.com/gogama/xhr/transport"
	"github.com/google/uuid"
)

// A Factory creates sessions and requests sharing one Config. Use
// NewFactory to construct a Factory.
//
// The methods of Factory are safe for concurrent use.
type Factory struct {
	config    Config
	lock      sync.Mutex
	userAgent string
}

// NewFactory constructs a Factory. Zero fields of config take their
// defaults; see Config.
func NewFactory(config Config) *Factory {
	config = config.withDefaults()
	return &Factory{
		config:    config,
		userAgent: config.UserAgent,
	}
}

// Config returns the factory's configuration, with defaults applied.
func (f *Factory) Config() Config {
	return f.config
}

// SetDefaultUserAgent sets the User-Agent sent by requests whose caller
// sets none. It applies to requests sent after the call.
func (f *Factory) SetDefaultUserAgent(userAgent string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.userAgent = userAgent
}

// DefaultUserAgent returns the User-Agent set by SetDefaultUserAgent.
func (f *Factory) DefaultUserAgent() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.userAgent
}

// NewSession creates a session. The requests of one session share a
// cookie store and an event loop.
func (f *Factory) NewSession() *Session {
	id := uuid.New()
	cookies := f.config.Cookies
	if cookies == nil {
		cookies = cookie.NewJar()
	}
	return &Session{
		id:       id,
		factory:  f,
		cookies:  cookies,
		logger:   f.config.Logger.With(logging.String("session", id.String())),
		inFlight: make(map[*Request]struct{}),
	}
}

// NewRequest creates a request in a session of its own, so that it
// shares cookies with no other request unless Config.Cookies is set.
func (f *Factory) NewRequest() *Request {
	return f.NewSession().NewRequest()
}

// A Session groups requests sharing a cookie store and an event loop.
//
// An asynchronous request sent with the default transport delivers its
// progress through the session's Loop, so some goroutine must run it,
// for example with Run or Wait. Request methods must only be called on
// that goroutine while the loop runs.
type Session struct {
	id      uuid.UUID
	factory *Factory
	cookies cookie.Store
	logger  logging.Logger
	loop    loop.Loop

	lock     sync.Mutex
	inFlight map[*Request]struct{}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Cookies returns the session's cookie store.
func (s *Session) Cookies() cookie.Store {
	return s.cookies
}

// Loop returns the event loop delivering the session's asynchronous
// callbacks.
func (s *Session) Loop() *loop.Loop {
	return &s.loop
}

// NewRequest creates a request in the Unsent state.
func (s *Session) NewRequest() *Request {
	c := &s.factory.config
	logger := s.logger.With(logging.String("component", "xhr"))
	return &Request{
		session: s,
		config:  c,
		base:    logger,
		logger:  logger,
		resp:    response.New(c.MaxBodySize),
	}
}

// InFlight returns the number of asynchronous requests of the session
// that were sent and have not completed or been aborted.
func (s *Session) InFlight() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.inFlight)
}

// Run runs the session's event loop until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	return s.loop.Run(ctx)
}

// Wait runs the session's event loop until r is no longer in flight, or
// ctx is done.
func (s *Session) Wait(ctx context.Context, r *Request) error {
	return s.loop.RunUntil(ctx, func() bool { return !r.sendFlag })
}

// Close aborts every in-flight request of the session and closes the
// idle connections of the transport, if it has any.
func (s *Session) Close() {
	s.lock.Lock()
	reqs := make([]*Request, 0, len(s.inFlight))
	for r := range s.inFlight {
		reqs = append(reqs, r)
	}
	s.lock.Unlock()
	for _, r := range reqs {
		r.Abort()
	}
	if ic, ok := s.factory.config.Transport.(transport.IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (s *Session) pin(r *Request) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inFlight[r] = struct{}{}
}

func (s *Session) unpin(r *Request) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.inFlight, r)
}
