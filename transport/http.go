// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gogama/xhr/timeout"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard HTTP client from package net/http.
//
// An HTTPDoer used by the HTTP transport must not follow redirects or
// manage cookies, since the request does both itself.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// DefaultChunkSize is the size of the buffer used to read the response
// body when HTTP.ChunkSize is zero.
const DefaultChunkSize = 32 * 1024

// DefaultDoer is the HTTPDoer used when HTTP.Doer is nil. It is built on
// http.DefaultTransport, has no cookie jar, and returns redirect
// responses instead of following them.
var DefaultDoer HTTPDoer = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// HTTP is the Transport built on net/http. The zero value is ready to
// use.
//
// Each attempt runs under a context whose timeout comes from the
// timeout policy. Synchronous attempts run on the calling goroutine.
// Asynchronous attempts run on a new goroutine and post their callbacks
// through the Poster of the attempt.
type HTTP struct {
	// Doer sends the HTTP requests. If nil, DefaultDoer is used.
	Doer HTTPDoer

	// TimeoutPolicy sets the timeout of each attempt. If nil,
	// timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy

	// ChunkSize is the maximum size of the chunks handed to
	// Receiver.OnBodyChunk. If zero, DefaultChunkSize is used.
	ChunkSize int
}

// Start begins an attempt. For a synchronous attempt, every callback is
// delivered before Start returns.
func (t *HTTP) Start(req *Request, r Receiver) (Handle, error) {
	leg := req.Leg
	parent := req.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, t.timeoutPolicy().Timeout(leg))
	var body io.Reader
	if len(leg.Body) > 0 {
		body = bytes.NewReader(leg.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, leg.Method, leg.URL.String(), body)
	if err != nil {
		cancel()
		return nil, urlErrorWrap(leg.Method, leg.URL, err)
	}
	if leg.Header != nil {
		hreq.Header = leg.Header.Clone()
		hreq.Header.Del("Content-Length")
	}

	h := &handle{parent: parent, cancel: cancel}
	if !req.Async {
		t.run(hreq, h, r, h.direct)
		return h, nil
	}
	deliver := h.direct
	if req.Poster != nil {
		deliver = func(f func()) {
			req.Poster.Post(func() { h.direct(f) })
		}
	}
	go t.run(hreq, h, r, deliver)
	return h, nil
}

// CloseIdleConnections invokes the same method on the transport's
// underlying HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (t *HTTP) CloseIdleConnections() {
	if ic, ok := t.doer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (t *HTTP) run(hreq *http.Request, h *handle, r Receiver, deliver func(func())) {
	defer h.cancel()
	resp, err := t.doer().Do(hreq)
	if err != nil {
		err = urlErrorWrap(hreq.Method, hreq.URL, err)
		deliver(func() { r.OnFinished(false, err) })
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	status, text, fields := resp.StatusCode, statusText(resp), headerFields(resp.Header)
	deliver(func() { r.OnHeaders(status, text, fields) })

	buf := make([]byte, t.chunkSize())
	for {
		if h.canceled() {
			return
		}
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			deliver(func() { r.OnBodyChunk(chunk) })
		}
		if err == io.EOF {
			deliver(func() { r.OnFinished(true, nil) })
			return
		}
		if err != nil {
			err = urlErrorWrap(hreq.Method, hreq.URL, err)
			deliver(func() { r.OnFinished(false, err) })
			return
		}
	}
}

func (t *HTTP) doer() HTTPDoer {
	if t.Doer == nil {
		return DefaultDoer
	}
	return t.Doer
}

func (t *HTTP) timeoutPolicy() timeout.Policy {
	if t.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return t.TimeoutPolicy
}

func (t *HTTP) chunkSize() int {
	if t.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return t.ChunkSize
}

type handle struct {
	parent context.Context
	cancel context.CancelFunc
	done   atomic.Bool
}

func (h *handle) Cancel() {
	h.done.Store(true)
	h.cancel()
}

func (h *handle) canceled() bool {
	return h.done.Load() || h.parent.Err() != nil
}

func (h *handle) direct(f func()) {
	if !h.canceled() {
		f()
	}
}

// statusText returns the reason phrase of the status line.
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimPrefix(resp.Status, code+" "); text != resp.Status {
		return text
	}
	if resp.Status == code || resp.Status == "" {
		return http.StatusText(resp.StatusCode)
	}
	return resp.Status
}

// headerFields flattens h, sorted by name since net/http does not keep
// the arrival order of distinct names.
func headerFields(h http.Header) []HeaderField {
	names := make([]string, 0, len(h))
	n := 0
	for name, values := range h {
		names = append(names, name)
		n += len(values)
	}
	sort.Strings(names)
	fields := make([]HeaderField, 0, n)
	for _, name := range names {
		for _, v := range h[name] {
			fields = append(fields, HeaderField{Name: name, Value: v})
		}
	}
	return fields
}

func urlErrorWrap(method string, u *url.URL, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(method),
		URL: u.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
