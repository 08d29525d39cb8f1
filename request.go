// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xhr

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gogama/xhr/dom"
	"github.com/gogama/xhr/logging"
	"github.com/gogama/xhr/metrics"
	"github.com/gogama/xhr/redirect"
	"github.com/gogama/xhr/request"
	"github.com/gogama/xhr/response"
	"github.com/gogama/xhr/transport"
	"github.com/google/uuid"
)

var errNoResponse = errors.New("xhr: transport finished without a response")

// A Request is an XMLHttpRequest-style HTTP request. Create one with
// Session.NewRequest or Factory.NewRequest.
//
// A Request moves through the ready states Unsent, Opened,
// HeadersReceived, Loading and Done. Every transition fires exactly one
// notification, to the OnReadyStateChange function and then to the
// handlers installed for the new state, except the transition to Unsent
// made by Abort, which fires none.
//
// A Request is reusable: Open may be called again at any time, which
// aborts whatever the request was doing.
//
// A Request is not safe for concurrent use. Its methods, and the
// callbacks of its asynchronous attempts, must run on one goroutine,
// normally the one running the session's Loop. Notifications are
// delivered synchronously, and handlers may call any method of the
// Request, including Open, Send and Abort. Once a handler changes the
// state or starts a new attempt, the rest of the superseded
// notification is skipped.
type Request struct {
	session *Session
	config  *Config
	base    logging.Logger
	logger  logging.Logger

	handlers HandlerGroup
	onChange func(*Request)
	onData   func([]byte) int

	state     ReadyState
	sendFlag  bool
	attempt   uuid.UUID
	plan      *request.Plan
	resp      *response.Accumulator
	effective *url.URL
	method    string
	redirects int
	dropBody  bool
	success   bool
	err       error
	overflow  error
	checked   bool
	handle    transport.Handle
	cancel    context.CancelFunc
	sentAt    time.Time
	outcome   *outcome
}

// outcome is how a synchronous Send learns the result of its attempt.
type outcome struct {
	done    bool
	aborted bool
	ok      bool
	err     error
}

// Session returns the session the request belongs to.
func (r *Request) Session() *Session {
	return r.session
}

// Handlers returns the request's handler group, for installing
// handlers with PushBack.
func (r *Request) Handlers() *HandlerGroup {
	return &r.handlers
}

// OnReadyStateChange sets the function called on every ready state
// notification, before the handlers for the state. A nil f removes the
// function.
func (r *Request) OnReadyStateChange(f func(*Request)) {
	r.onChange = f
}

// OnDataReceived switches the request to streaming mode: response body
// chunks are handed to f instead of being buffered. If f returns less
// than the length of the chunk, the request fails. A nil f returns the
// request to buffering mode.
func (r *Request) OnDataReceived(f func(chunk []byte) int) {
	r.onData = f
}

// Open aborts whatever the request is doing, then prepares a new
// request with the given method and URL and moves to Opened.
//
// The method must be one of GET, HEAD, POST, PUT, DELETE and OPTIONS,
// in any case. The URL must be an absolute HTTP(S) URL without user
// information; credentials go in user and password instead. Otherwise
// Open returns a SyntaxError and leaves the request Unsent.
func (r *Request) Open(method, url string, async bool, user, password string) error {
	r.Abort()
	plan, err := request.NewPlan(method, url, async, user, password)
	if err != nil {
		return newError(SyntaxErr, "Open", err)
	}
	r.plan = plan
	r.effective = plan.URL
	r.method = plan.Method
	r.redirects = 0
	r.dropBody = false
	r.newAttempt()
	r.changeState(Opened)
	return nil
}

// SetRequestHeader sets a request header. It returns an
// InvalidStateError unless the request is Opened and not yet sent, and
// a SyntaxError for a malformed name or value.
//
// An empty value, or a header the caller may not set (see
// request.Forbidden), is ignored. The name "Cookie" is special: its
// values accumulate, and the value "none" clears both the accumulated
// cookies and the cookies the session would otherwise send.
func (r *Request) SetRequestHeader(name, value string) error {
	if r.state != Opened || r.sendFlag {
		return newError(InvalidStateErr, "SetRequestHeader", nil)
	}
	if err := r.plan.SetHeader(name, value); err != nil {
		return newError(SyntaxErr, "SetRequestHeader", err)
	}
	if request.Forbidden(name) {
		r.logger.Debug("ignored forbidden request header", logging.String("name", name))
	}
	return nil
}

// Send sends the request with an optional body, which may be of any
// type accepted by request.BodyBytes. The body is ignored for GET.
//
// Send returns an InvalidStateError unless the request is Opened and
// not yet sent, and a SyntaxError if the body cannot be read or is too
// large.
//
// If the backoff guard refuses the host, an asynchronous Send aborts
// the request, moves it to Done without success, and returns nil,
// while a synchronous Send returns an AbortError.
//
// An asynchronous Send returns once the attempt has started; failures
// surface as a Done request that is not successful. A synchronous Send
// returns after the request is Done, with a NetworkError if it failed.
func (r *Request) Send(body interface{}) error {
	return r.send("Send", body, "")
}

// SendDocument sends doc, serialized as XML, as the request body. The
// Content-Type defaults to request.XMLContentType.
func (r *Request) SendDocument(doc *dom.Document) error {
	var body []byte
	if doc != nil {
		body = doc.XML()
	}
	return r.send("SendDocument", body, request.XMLContentType)
}

func (r *Request) send(op string, body interface{}, contentType string) error {
	if r.state != Opened || r.sendFlag {
		return newError(InvalidStateErr, op, nil)
	}
	plan := r.plan
	if err := plan.SetBody(body, r.config.MaxRequestBody); err != nil {
		return newError(SyntaxErr, op, err)
	}
	if contentType != "" {
		plan.ContentType = contentType
	}
	if !r.changeState(Opened) || r.sendFlag {
		return newError(InvalidStateErr, op, nil)
	}

	c := r.config
	now := c.Clock()
	host := plan.URL.Hostname()
	if !c.Backoff.IsRequestAllowed(now, host) {
		r.logger.Warn("request refused by backoff guard", logging.String("host", host))
		c.Metrics.RecordBackoffDenied(host)
		r.Abort()
		if plan.Async {
			r.changeState(Done)
			return nil
		}
		return newError(AbortErr, op, ErrBackoff)
	}

	o := &outcome{}
	r.outcome = o
	r.sendFlag = true
	r.sentAt = now
	r.success = false
	r.err = nil
	if plan.Async {
		r.session.pin(r)
	}
	c.Metrics.RecordSend()
	r.startLeg()
	switch {
	case plan.Async:
		return nil
	case o.aborted:
		return newError(AbortErr, op, nil)
	case o.done && !o.ok:
		return newError(NetworkErr, op, o.err)
	}
	return nil
}

// Abort cancels the request and returns it to Unsent, discarding the
// response. Abort fires no notification and is idempotent.
func (r *Request) Abort() {
	wasSending := r.sendFlag
	r.cancelAttempt()
	r.sendFlag = false
	r.attempt = uuid.Nil
	r.resetResponse()
	r.success = false
	r.err = nil
	if wasSending {
		if r.plan.Async {
			r.session.unpin(r)
		}
		r.config.Metrics.RecordCompleted(r.method, metrics.OutcomeAborted, "", r.config.Clock().Sub(r.sentAt))
		r.logger.Debug("request aborted")
		if o := r.outcome; o != nil {
			o.aborted = true
			r.outcome = nil
		}
	}
	r.plan = nil
	r.effective = nil
	r.redirects = 0
	r.state = Unsent
}

// ReadyState returns the current ready state.
func (r *Request) ReadyState() ReadyState {
	return r.state
}

// Status returns the response status code. It returns an
// InvalidStateError unless the request is Loading or Done. A failed
// request has status 0.
func (r *Request) Status() (int, error) {
	if r.state != Loading && r.state != Done {
		return 0, newError(InvalidStateErr, "Status", nil)
	}
	return r.resp.Status(), nil
}

// StatusText returns the reason phrase of the response status. It
// returns an InvalidStateError unless the request is Loading or Done.
func (r *Request) StatusText() (string, error) {
	if r.state != Loading && r.state != Done {
		return "", newError(InvalidStateErr, "StatusText", nil)
	}
	return r.resp.StatusText(), nil
}

func (r *Request) headersAvailable() bool {
	return r.state == HeadersReceived || r.state == Loading || r.state == Done
}

// AllResponseHeaders returns the response headers, one "Name: value"
// line per field in arrival order, each ending in CRLF.
func (r *Request) AllResponseHeaders() (string, error) {
	if !r.headersAvailable() {
		return "", newError(InvalidStateErr, "AllResponseHeaders", nil)
	}
	return r.resp.AllHeaders(), nil
}

// ResponseHeader returns the value of the named response header, with
// repeated fields joined by ", ", or "" if there is none. The name is
// matched case-insensitively.
func (r *Request) ResponseHeader(name string) (string, error) {
	if !r.headersAvailable() {
		return "", newError(InvalidStateErr, "ResponseHeader", nil)
	}
	v, _ := r.resp.Header(name)
	return v, nil
}

// ResponseBody returns the body bytes received so far. It returns an
// InvalidStateError unless the request is Loading or Done. The returned
// slice must not be modified.
func (r *Request) ResponseBody() ([]byte, error) {
	if r.state != Loading && r.state != Done {
		return nil, newError(InvalidStateErr, "ResponseBody", nil)
	}
	return r.resp.Body(), nil
}

// ResponseText returns the response body decoded to UTF-8. It returns
// an InvalidStateError unless the request is Done.
//
// The encoding is detected from byte order marks, the Content-Type
// charset and any XML or HTML declaration. A body the detected encoding
// cannot decode is decoded as Config.FallbackEncoding, and failing
// that, has its invalid bytes replaced.
func (r *Request) ResponseText() (string, error) {
	if r.state != Done {
		return "", newError(InvalidStateErr, "ResponseText", nil)
	}
	return r.text(), nil
}

// ResponseXML returns the response body parsed as XML, or nil if the
// body is empty, not XML, or not well-formed. It returns an
// InvalidStateError unless the request is Done.
func (r *Request) ResponseXML() (*dom.Document, error) {
	if r.state != Done {
		return nil, newError(InvalidStateErr, "ResponseXML", nil)
	}
	r.text()
	c := r.config
	return r.resp.XML(c.Parser, c.Converter, c.FallbackEncoding), nil
}

// ResponseHTML returns the response body parsed as HTML. It returns an
// InvalidStateError unless the request is Done.
func (r *Request) ResponseHTML() (*goquery.Document, error) {
	if r.state != Done {
		return nil, newError(InvalidStateErr, "ResponseHTML", nil)
	}
	r.text()
	return r.resp.HTML(r.config.Converter, r.config.FallbackEncoding)
}

// EffectiveURL returns the URL of the current leg: the URL given to
// Open, or the target of the last redirect followed. It returns "" for
// an Unsent request.
func (r *Request) EffectiveURL() string {
	if r.effective == nil {
		return ""
	}
	return r.effective.String()
}

// IsSuccessful reports whether the request is Done without a transport
// failure. HTTP error statuses still count as success.
func (r *Request) IsSuccessful() bool {
	return r.state == Done && r.success
}

// Err returns the reason the last request failed, or nil.
func (r *Request) Err() error {
	return r.err
}

func (r *Request) text() string {
	c := r.config
	text := r.resp.Text(c.Converter, c.FallbackEncoding)
	if !r.checked {
		r.checked = true
		used, ok := r.resp.Encoding()
		cs := r.resp.Charset()
		switch {
		case !ok && r.resp.Len() > 0:
			r.logger.Warn("response text has invalid bytes replaced", logging.String("charset", cs))
		case ok && cs != "" && strings.EqualFold(used, c.FallbackEncoding) && !strings.EqualFold(cs, used):
			r.logger.Warn("response decoded with fallback encoding",
				logging.String("charset", cs), logging.String("fallback", used))
		}
	}
	return text
}

// changeState moves to s and fires the notification. It reports whether
// the request is still in s, within the same attempt, once the
// notification has been delivered.
func (r *Request) changeState(s ReadyState) bool {
	id := r.attempt
	r.state = s
	r.logger.Debug("ready state changed", logging.String("state", s.String()))
	current := func() bool { return r.attempt == id && r.state == s }
	if r.onChange != nil {
		r.onChange(r)
		if !current() {
			return false
		}
	}
	r.handlers.run(s, r, current)
	return current()
}

func (r *Request) newAttempt() uuid.UUID {
	r.attempt = uuid.New()
	r.logger = r.base.With(logging.String("attempt", r.attempt.String()))
	return r.attempt
}

func (r *Request) resetResponse() {
	r.resp.Reset()
	r.overflow = nil
	r.checked = false
}

func (r *Request) cancelAttempt() {
	if r.handle != nil {
		r.handle.Cancel()
		r.handle = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// startLeg starts the transport attempt for the current leg.
func (r *Request) startLeg() {
	c := r.config
	plan := r.plan
	stored := ""
	if !plan.Cookies.ClearsStored() {
		stored = r.session.cookies.CookiesForURL(r.effective)
	}
	leg := plan.NewLeg(r.redirects, r.method, r.effective, stored, r.session.factory.DefaultUserAgent())
	if r.dropBody && leg.Body != nil {
		leg.Body = nil
		leg.Header.Del("Content-Type")
		leg.Header.Set("Content-Length", "0")
	}

	id := r.newAttempt()
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.logger.Debug("starting attempt",
		logging.String("method", leg.Method),
		logging.String("url", leg.URL.String()),
		logging.Int("leg", leg.Number))
	c.Metrics.RecordStart(leg.Method)
	h, err := c.Transport.Start(&transport.Request{
		Leg:     leg,
		Async:   plan.Async,
		Poster:  &r.session.loop,
		Context: ctx,
	}, &receiver{r: r, id: id})
	current := r.attempt == id && r.sendFlag
	if err != nil {
		if current {
			r.finish(false, err)
		}
		return
	}
	if current {
		r.handle = h
	} else if h != nil {
		h.Cancel()
	}
}

func (r *Request) onHeaders(status int, statusText string, fields []transport.HeaderField) {
	if r.state != Opened {
		return
	}
	r.resp.SetStatus(status, statusText)
	for _, f := range fields {
		if err := r.resp.AddHeader(f.Name, f.Value); err != nil {
			r.finish(false, err)
			return
		}
	}
	if values := r.resp.SetCookies(); len(values) > 0 {
		r.session.cookies.StoreSetCookieHeaders(r.effective, values)
	}
	location, _ := r.resp.Header("Location")
	intercept := redirect.Intercepts(status, location)
	if !r.changeState(HeadersReceived) {
		return
	}
	if intercept {
		r.followRedirect(status, location)
	}
}

func (r *Request) followRedirect(status int, location string) {
	c := r.config
	target, err := redirect.Resolve(r.effective, location)
	var d redirect.Decision
	if err == nil {
		d, err = c.Redirect.Decide(status, r.method, r.redirects)
	}
	if err != nil {
		r.logger.Info("redirect not followed", logging.Int("status", status), logging.Err(err))
		r.finish(false, err)
		return
	}

	r.cancelAttempt()
	r.logger.Info("following redirect",
		logging.Int("status", status),
		logging.String("location", target.String()),
		logging.String("method", d.Method))
	c.Metrics.RecordRedirect(status)
	r.redirects++
	r.method = d.Method
	r.dropBody = r.dropBody || d.DropBody
	r.effective = target
	r.resetResponse()
	if !r.changeState(Opened) {
		return
	}
	r.startLeg()
}

func (r *Request) onBodyChunk(id uuid.UUID, chunk []byte) {
	if r.state == HeadersReceived && !r.changeState(Loading) {
		return
	}
	if r.state != Loading {
		return
	}
	c := r.config
	c.Metrics.RecordResponseBytes(r.method, len(chunk))
	if r.onData != nil {
		n := r.onData(chunk)
		if n < len(chunk) && r.attempt == id && r.sendFlag {
			r.finish(false, ErrStreamShortWrite)
		}
		return
	}
	if r.overflow != nil {
		return
	}
	if _, err := r.resp.Write(chunk); err != nil {
		if c.BodyLimit == LimitAbort {
			r.finish(false, err)
			return
		}
		r.overflow = err
	}
}

func (r *Request) onFinished(ok bool, err error) {
	switch {
	case ok && r.overflow != nil:
		ok, err = false, r.overflow
	case ok && r.state == Opened:
		ok, err = false, errNoResponse
	case ok && r.state == HeadersReceived:
		if !r.changeState(Loading) {
			return
		}
	}
	r.finish(ok, err)
}

// finish completes the current send and moves to Done.
func (r *Request) finish(ok bool, err error) {
	c := r.config
	plan := r.plan
	r.cancelAttempt()
	r.sendFlag = false
	r.success = ok
	r.err = err
	if !ok {
		r.resetResponse()
	}
	if plan.Async {
		r.session.unpin(r)
	}

	now := c.Clock()
	status := r.resp.Status()
	host := plan.URL.Hostname()
	if !errors.Is(err, transport.ErrSyncUnsupported) && c.Backoff.ReportResult(now, host, status) {
		if perr := c.Backoff.Persist(now); perr != nil {
			r.logger.Error("failed to persist backoff data", logging.Err(perr))
		}
	}

	outcome, category := metrics.OutcomeSuccess, ""
	if !ok {
		outcome, category = metrics.OutcomeFailure, transport.Categorize(err).String()
		r.logger.Info("request failed", logging.String("category", category), logging.Err(err))
	}
	c.Metrics.RecordCompleted(r.method, outcome, category, now.Sub(r.sentAt))
	if o := r.outcome; o != nil {
		o.done, o.ok, o.err = true, ok, err
		r.outcome = nil
	}
	r.changeState(Done)
}

// receiver forwards the callbacks of one attempt, dropping those that
// arrive after the attempt was superseded.
type receiver struct {
	r  *Request
	id uuid.UUID
}

func (rc *receiver) current() bool {
	return rc.r.attempt == rc.id && rc.r.sendFlag
}

func (rc *receiver) OnHeaders(status int, statusText string, header []transport.HeaderField) {
	if rc.current() {
		rc.r.onHeaders(status, statusText, header)
	}
}

func (rc *receiver) OnBodyChunk(chunk []byte) {
	if rc.current() {
		rc.r.onBodyChunk(rc.id, chunk)
	}
}

func (rc *receiver) OnFinished(ok bool, err error) {
	if rc.current() {
		rc.r.onFinished(ok, err)
	}
}
