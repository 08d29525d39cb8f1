// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package charset

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// DefaultFallback is the encoding tried when the detected encoding
// cannot decode a response.
const DefaultFallback = "ISO-8859-1"

// maxDetectionDepth bounds the HTML <meta> prescan.
const maxDetectionDepth = 2048

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0, 0}
	bomUTF32BE = []byte{0, 0, 0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}

	xmlTag              = []byte("<?xml ")
	xmlTagBOMLessUTF16L = []byte{'<', 0, '?', 0, 'x', 0, 'm', 0, 'l', 0, ' ', 0}
	xmlTagBOMLessUTF16B = []byte{0, '<', 0, '?', 0, 'x', 0, 'm', 0, 'l', 0, ' '}
)

// Detect returns the name of the encoding content should be decoded
// with. The rules, in order:
//
// 1. a byte order mark, or a body that reads as BOM-less UTF-16 text
// with every character below U+0100, selects the matching UTF
// encoding;
//
// 2. a non-empty hint, typically the response charset, is used as is;
//
// 3. a BOM-less UTF-16 "<?xml " prolog selects UTF-16LE or UTF-16BE;
//
// 4. the encoding declared by the XML prolog, when contentType is empty
// or XML-like or the content starts with "<?xml ", or by an HTML
// <meta> tag within the first 2048 bytes, when contentType is
// text/html. A declaration naming UTF-16 or UTF-32 is replaced by
// UTF-8, since a document in either could not have been scanned as
// 8-bit text;
//
// 5. UTF-8.
func Detect(content []byte, contentType, hint string) string {
	if enc, ok := DetectUTF(content); ok {
		return enc
	}
	if hint != "" {
		return hint
	}
	if bytes.HasPrefix(content, xmlTagBOMLessUTF16L) {
		return "UTF-16LE"
	}
	if bytes.HasPrefix(content, xmlTagBOMLessUTF16B) {
		return "UTF-16BE"
	}
	var declared string
	if IsXML(contentType) || bytes.HasPrefix(content, xmlTag) {
		declared = XMLDecl(content)
	} else if strings.EqualFold(contentType, "text/html") {
		declared = HTMLCharset(content)
	}
	lower := strings.ToLower(declared)
	if declared == "" || strings.HasPrefix(lower, "utf") &&
		(strings.Contains(lower, "16") || strings.Contains(lower, "32")) {
		return "UTF-8"
	}
	return declared
}

// DetectUTF reports the UTF encoding content is confidently in, based
// on its byte order mark or, lacking one, on the BOM-less UTF-16
// pattern of exactly one zero byte in every byte pair. BOM-less UTF-8
// is never reported since it cannot be told apart from some multi-byte
// legacy encodings.
func DetectUTF(content []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		return "UTF-8", true
	case bytes.HasPrefix(content, bomUTF32LE):
		return "UTF-32LE", true
	case bytes.HasPrefix(content, bomUTF32BE):
		return "UTF-32BE", true
	case bytes.HasPrefix(content, bomUTF16LE):
		return "UTF-16LE", true
	case bytes.HasPrefix(content, bomUTF16BE):
		return "UTF-16BE", true
	}
	switch detectUTF16(content) {
	case littleEndian:
		return "UTF-16LE", true
	case bigEndian:
		return "UTF-16BE", true
	}
	return "", false
}

type endian int

const (
	notUTF16 endian = iota
	littleEndian
	bigEndian
)

func detectUTF16(content []byte) endian {
	if len(content) == 0 || len(content)%2 != 0 {
		return notUTF16
	}
	result := notUTF16
	for i := 0; i < len(content); i += 2 {
		even, odd := content[i], content[i+1]
		switch {
		case even == 0:
			if odd == 0 || result == littleEndian {
				return notUTF16
			}
			result = bigEndian
		case odd == 0:
			if result == bigEndian {
				return notUTF16
			}
			result = littleEndian
		default:
			return notUTF16
		}
	}
	return result
}

// IsXML reports whether a media type calls for XML treatment: it is
// empty, text/xml, application/xml, or ends in "+xml".
func IsXML(mediaType string) bool {
	mt := strings.ToLower(mediaType)
	return mt == "" || mt == "text/xml" || mt == "application/xml" ||
		len(mt) > 4 && strings.HasSuffix(mt, "+xml")
}

// XMLDecl returns the encoding named by content's XML declaration, or
// "" if content does not start with one. A UTF-8 byte order mark before
// the declaration is allowed.
func XMLDecl(content []byte) string {
	content = bytes.TrimPrefix(content, bomUTF8)
	if !bytes.HasPrefix(content, xmlTag) {
		return ""
	}
	end := bytes.Index(content, []byte("?>"))
	if end < 0 {
		return ""
	}
	decl := content[:end]
	i := bytes.LastIndex(decl, []byte(" encoding="))
	if i < 0 {
		return ""
	}
	value := decl[i+len(" encoding="):]
	if len(value) == 0 || value[0] != '"' && value[0] != '\'' {
		return ""
	}
	quote := value[0]
	value = value[1:]
	j := bytes.IndexByte(value, quote)
	if j < 0 {
		return ""
	}
	return string(value[:j])
}

// HTMLCharset returns the charset named by the first
// <meta http-equiv="content-type" content="...; charset=..."> or
// <meta charset="..."> tag found within the first 2048 bytes of
// content, or "".
func HTMLCharset(content []byte) string {
	if len(content) > maxDetectionDepth {
		content = content[:maxDetectionDepth]
	}
	z := html.NewTokenizer(bytes.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var httpEquiv, metaContent, metaCharset string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "http-equiv":
					httpEquiv = a.Val
				case "content":
					metaContent = a.Val
				case "charset":
					metaCharset = a.Val
				}
			}
			if metaCharset != "" {
				return strings.TrimSpace(metaCharset)
			}
			if strings.EqualFold(httpEquiv, "content-type") && metaContent != "" {
				return charsetParam(metaContent)
			}
		}
	}
}

// charsetParam extracts the token following "charset=" in a
// Content-Type style value.
func charsetParam(v string) string {
	lower := strings.ToLower(v)
	i := strings.Index(lower, "charset=")
	if i < 0 {
		return ""
	}
	rest := strings.TrimLeft(v[i+len("charset="):], " \t\"'")
	end := 0
	for end < len(rest) && isCharsetByte(rest[end]) {
		end++
	}
	return rest[:end]
}

func isCharsetByte(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9' ||
		b == '_' || b == '.' || b == '-' || b == ':'
}
