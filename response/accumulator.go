// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package response

import (
	"errors"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gogama/xhr/charset"
	"github.com/gogama/xhr/dom"
)

var (
	// ErrTooLarge is returned by Write once the body would exceed the
	// limit. The bytes of the offending chunk are not buffered.
	ErrTooLarge = errors.New("xhr/response: body exceeds limit")
	// ErrHeadersTooLarge is returned by AddHeader once the raw header
	// blob would exceed the limit.
	ErrHeadersTooLarge = errors.New("xhr/response: headers exceed limit")
)

// An Accumulator holds the response state of one attempt. The zero
// value has no limit.
//
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	limit int

	status     int
	statusText string

	raw         strings.Builder
	header      map[string]string
	setCookies  []string
	contentType string
	charset     string

	body []byte

	textDone bool
	text     string
	encoding string
	decoded  bool

	xmlDone bool
	xml     *dom.Document

	htmlDone bool
	html     *goquery.Document
	htmlErr  error
}

// New returns an Accumulator that refuses a body or header blob larger
// than limit bytes. A limit of zero or less means no limit.
func New(limit int) *Accumulator {
	return &Accumulator{limit: limit}
}

// Reset discards all response state, keeping the limit.
func (a *Accumulator) Reset() {
	*a = Accumulator{limit: a.limit}
}

// SetStatus records the status code and reason phrase.
func (a *Accumulator) SetStatus(code int, text string) {
	a.status = code
	a.statusText = text
}

// Status returns the status code, or 0 if none was received.
func (a *Accumulator) Status() int {
	return a.status
}

// StatusText returns the reason phrase.
func (a *Accumulator) StatusText() string {
	return a.statusText
}

// AddHeader ingests one header field in arrival order. Repeated names
// are joined with ", ". Set-Cookie values are also kept individually.
// The Content-Type field determines ContentType and Charset.
func (a *Accumulator) AddHeader(name, value string) error {
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" {
		return nil
	}
	if a.limit > 0 && a.raw.Len()+len(name)+len(value)+4 > a.limit {
		return ErrHeadersTooLarge
	}
	a.raw.WriteString(name)
	a.raw.WriteString(": ")
	a.raw.WriteString(value)
	a.raw.WriteString("\r\n")

	if a.header == nil {
		a.header = make(map[string]string)
	}
	key := strings.ToLower(name)
	if prev, ok := a.header[key]; ok {
		a.header[key] = prev + ", " + value
	} else {
		a.header[key] = value
	}
	switch key {
	case "set-cookie":
		a.setCookies = append(a.setCookies, value)
	case "content-type":
		a.contentType, a.charset = parseContentType(value)
	}
	return nil
}

func parseContentType(v string) (mediaType, cs string) {
	mt, params, err := mime.ParseMediaType(v)
	if err == nil {
		return mt, strings.TrimSpace(params["charset"])
	}
	// Fall back to a lenient split for malformed parameter lists.
	parts := strings.Split(v, ";")
	mediaType = strings.ToLower(strings.TrimSpace(parts[0]))
	for _, p := range parts[1:] {
		k, val, ok := strings.Cut(p, "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), "charset") {
			cs = strings.Trim(strings.TrimSpace(val), `"'`)
		}
	}
	return
}

// AllHeaders returns every header field as "Name: value\r\n" lines, in
// arrival order.
func (a *Accumulator) AllHeaders() string {
	return a.raw.String()
}

// Header returns the value of the named header, matched
// case-insensitively, and whether it was present.
func (a *Accumulator) Header(name string) (string, bool) {
	v, ok := a.header[strings.ToLower(name)]
	return v, ok
}

// SetCookies returns the individual Set-Cookie values.
func (a *Accumulator) SetCookies() []string {
	return a.setCookies
}

// ContentType returns the lower-cased media type without parameters.
func (a *Accumulator) ContentType() string {
	return a.contentType
}

// Charset returns the charset parameter of the Content-Type header.
func (a *Accumulator) Charset() string {
	return a.charset
}

// Write buffers a body chunk. It returns ErrTooLarge, buffering nothing,
// if the chunk would take the body past the limit.
func (a *Accumulator) Write(p []byte) (int, error) {
	if a.limit > 0 && len(a.body)+len(p) > a.limit {
		return 0, ErrTooLarge
	}
	a.body = append(a.body, p...)
	return len(p), nil
}

// Body returns the bytes buffered so far.
func (a *Accumulator) Body() []byte {
	return a.body
}

// Len returns the number of body bytes buffered so far.
func (a *Accumulator) Len() int {
	return len(a.body)
}

// Text returns the body decoded to UTF-8. The decoding is done once:
// the encoding is detected from the body and the Content-Type charset,
// and conv falls back to the encoding named by fallback. If neither
// decodes the body, invalid UTF-8 sequences are replaced with U+FFFD.
//
// Text must not be called before the body is complete.
func (a *Accumulator) Text(conv charset.Converter, fallback string) string {
	if a.textDone {
		return a.text
	}
	a.textDone = true
	if len(a.body) == 0 {
		a.decoded = true
		return ""
	}
	text, used, ok := charset.Resolve(conv, a.body, a.contentType, a.charset, fallback)
	if !ok {
		text = strings.ToValidUTF8(string(a.body), "\ufffd")
	}
	a.text, a.encoding, a.decoded = text, used, ok
	return text
}

// Encoding returns the name of the encoding Text decoded the body from
// and whether the conversion succeeded. It is only meaningful after
// Text has been called.
func (a *Accumulator) Encoding() (string, bool) {
	return a.encoding, a.decoded
}

// XML returns the body parsed as an XML document, or nil if the body is
// empty, not XML, or not well-formed. The decoded text is shared with
// Text.
func (a *Accumulator) XML(parser dom.Parser, conv charset.Converter, fallback string) *dom.Document {
	if a.xmlDone {
		return a.xml
	}
	a.xmlDone = true
	if parser == nil {
		parser = dom.DefaultParser
	}
	text := a.Text(conv, fallback)
	if text == "" {
		return nil
	}
	doc, _ := parser.ParseIntoDom([]byte(text), a.contentType, "UTF-8", fallback)
	if doc != nil && a.encoding != "" {
		doc.Encoding = a.encoding
	}
	a.xml = doc
	return doc
}

// HTML returns the decoded body parsed as an HTML document.
func (a *Accumulator) HTML(conv charset.Converter, fallback string) (*goquery.Document, error) {
	if !a.htmlDone {
		a.htmlDone = true
		a.html, a.htmlErr = dom.ParseHTML(a.Text(conv, fallback))
	}
	return a.html, a.htmlErr
}
