// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/gogama/xhr/charset"
)

// ErrNoRoot is returned by Parse for a document without a root element.
var ErrNoRoot = errors.New("xhr/dom: no root element")

// A Parser turns a response body into a document.
//
// ParseIntoDom returns nil if the body is not XML, cannot be decoded,
// is not well-formed, or has no root element. The returned string names
// the encoding the body was decoded from, when decoding happened.
//
// Implementations of Parser must be safe for concurrent use by multiple
// goroutines.
type Parser interface {
	ParseIntoDom(b []byte, contentType, hint, fallback string) (*Document, string)
}

// DefaultParser is an XMLParser using charset.Default.
var DefaultParser Parser = &XMLParser{}

// XMLParser is a Parser built on encoding/xml.
type XMLParser struct {
	// Converter decodes the body. If nil, charset.Default is used.
	Converter charset.Converter
}

var xmlDecl = []byte("<?xml")

// ParseIntoDom parses b if contentType is empty or XML-like, or if b
// starts with an XML declaration.
func (p *XMLParser) ParseIntoDom(b []byte, contentType, hint, fallback string) (*Document, string) {
	if len(b) == 0 {
		return nil, ""
	}
	if !charset.IsXML(contentType) && !bytes.HasPrefix(bytes.TrimPrefix(b, []byte("\xEF\xBB\xBF")), xmlDecl) {
		return nil, ""
	}
	text, used, ok := charset.Resolve(p.Converter, b, contentType, hint, fallback)
	if !ok {
		return nil, used
	}
	doc, err := Parse(text)
	if err != nil {
		return nil, used
	}
	doc.Encoding = used
	return doc, used
}

// Parse parses UTF-8 XML text. Any encoding named by the declaration is
// ignored, since text is already decoded.
func Parse(text string) (*Document, error) {
	d := xml.NewDecoder(strings.NewReader(text))
	d.Strict = true
	d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) {
		return r, nil
	}
	doc := NewDocument(nil)
	cur := &doc.Node
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if cur == &doc.Node && doc.DocumentElement() != nil {
				return nil, errors.New("xhr/dom: multiple root elements")
			}
			n := &Node{Type: ElementNode, Namespace: t.Name.Space, Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Space == "" && a.Name.Local == "xmlns" {
					continue
				}
				n.Attrs = append(n.Attrs, Attr{Namespace: a.Name.Space, Name: a.Name.Local, Value: a.Value})
			}
			cur.AppendChild(n)
			cur = n
		case xml.EndElement:
			cur = cur.Parent
		case xml.CharData:
			if cur == &doc.Node {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errors.New("xhr/dom: text outside root element")
				}
				continue
			}
			if last := lastChild(cur); last != nil && last.Type == TextNode {
				last.Data += string(t)
			} else {
				cur.AppendChild(&Node{Type: TextNode, Data: string(t)})
			}
		case xml.Comment:
			cur.AppendChild(&Node{Type: CommentNode, Data: string(t)})
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			cur.AppendChild(&Node{Type: ProcInstNode, Name: t.Target, Data: string(t.Inst)})
		}
	}
	if doc.DocumentElement() == nil {
		return nil, ErrNoRoot
	}
	return doc, nil
}

func lastChild(n *Node) *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}
