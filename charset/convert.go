// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package charset

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrUnsupported is returned by Lookup for an unknown encoding label.
var ErrUnsupported = errors.New("xhr/charset: unsupported encoding")

// A Converter converts encoded bytes to UTF-8 text.
//
// ConvertToUTF8 decodes b as the encoding named by hint and, if that
// fails and fallback is non-empty, as the encoding named by fallback.
// It returns the text, the name of the encoding that produced it, and
// whether either conversion succeeded.
//
// Implementations of Converter must be safe for concurrent use by
// multiple goroutines.
type Converter interface {
	ConvertToUTF8(b []byte, hint, fallback string) (text, used string, ok bool)
}

// Default is the Converter built on golang.org/x/text.
var Default Converter = textConverter{}

type textConverter struct{}

func (textConverter) ConvertToUTF8(b []byte, hint, fallback string) (string, string, bool) {
	if hint == "" {
		hint = "UTF-8"
	}
	if s, ok := Convert(b, hint); ok {
		return s, hint, true
	}
	if fallback != "" {
		if s, ok := Convert(b, fallback); ok {
			return s, fallback, true
		}
	}
	return "", hint, false
}

// Resolve detects the encoding of content (see Detect) and converts it
// to UTF-8 with conv, falling back to the encoding named by fallback.
func Resolve(conv Converter, content []byte, contentType, hint, fallback string) (text, used string, ok bool) {
	if conv == nil {
		conv = Default
	}
	return conv.ConvertToUTF8(content, Detect(content, contentType, hint), fallback)
}

// Lookup returns the encoding for a label. GB2312 is widened to
// GB18030, since content labelled GB2312 routinely uses characters
// outside it.
func Lookup(name string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	switch label {
	case "gb2312", "gb_2312-80", "csgb2312":
		return simplifiedchinese.GB18030, nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case "utf-16":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case "utf-32le":
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	case "utf-32be":
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case "utf-32":
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM), nil
	}
	if e, err := ianaindex.IANA.Encoding(label); err == nil && e != nil {
		return e, nil
	}
	if e, err := htmlindex.Get(label); err == nil && e != nil {
		return e, nil
	}
	return nil, ErrUnsupported
}

// Convert decodes b as the named encoding. Each undecodable unit
// becomes U+FFFD; the conversion fails once more than max(2, len(b)/100)
// units are undecodable, or if the encoding is unknown. A leading byte
// order mark is dropped.
func Convert(b []byte, name string) (string, bool) {
	if len(b) == 0 {
		return "", true
	}
	budget := len(b) / 100
	if budget < 2 {
		budget = 2
	}
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "utf-8" || label == "utf8" {
		return convertUTF8(b, budget)
	}
	e, err := Lookup(name)
	if err != nil {
		return "", false
	}
	out, err := e.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	s := strings.TrimPrefix(string(out), "\ufeff")
	errs := strings.Count(s, string(utf8.RuneError))
	if errs > 0 {
		// U+FFFD characters present in the source are not errors.
		if rep := replacementBytes(e); len(rep) > 0 {
			errs -= bytes.Count(b, rep)
		}
	}
	if errs > budget {
		return "", false
	}
	return s, true
}

// replacementBytes returns how e encodes U+FFFD in the middle of a
// text, leaving out any byte order mark the encoder writes first, or
// nil if e cannot encode it.
func replacementBytes(e encoding.Encoding) []byte {
	one, err := e.NewEncoder().String("\ufffd")
	if err != nil {
		return nil
	}
	two, err := e.NewEncoder().String("\ufffd\ufffd")
	if err != nil || len(two) <= len(one) {
		return nil
	}
	return []byte(two[len(one):])
}

func convertUTF8(b []byte, budget int) (string, bool) {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		b = b[3:]
	}
	if utf8.Valid(b) {
		return string(b), true
	}
	var sb strings.Builder
	sb.Grow(len(b))
	errs := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			errs++
			if errs > budget {
				return "", false
			}
			size = 1
		}
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String(), true
}
