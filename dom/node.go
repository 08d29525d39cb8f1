// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dom

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// A NodeType identifies the kind of a Node.
type NodeType int

const (
	// DocumentNode is the root of a parsed document.
	DocumentNode NodeType = iota
	// ElementNode is an element.
	ElementNode
	// TextNode is character data, including CDATA sections.
	TextNode
	// CommentNode is a comment.
	CommentNode
	// ProcInstNode is a processing instruction other than the XML
	// declaration.
	ProcInstNode
)

// An Attr is an element attribute.
type Attr struct {
	Namespace string
	Name      string
	Value     string
}

// A Node is one node of a document tree.
type Node struct {
	Type NodeType
	// Namespace is the resolved namespace URL of an element.
	Namespace string
	// Name is the local name of an element or the target of a
	// processing instruction.
	Name string
	// Data is the content of a text, comment or processing instruction.
	Data     string
	Attrs    []Attr
	Parent   *Node
	Children []*Node
}

// AppendChild adds c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// Attribute returns the value of the attribute with the given local
// name.
func (n *Node) Attribute(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Data
	}
	var sb strings.Builder
	n.walk(func(d *Node) {
		if d.Type == TextNode {
			sb.WriteString(d.Data)
		}
	})
	return sb.String()
}

// ElementsByTagName returns the descendant elements of n with the given
// local name, in document order. The name "*" matches every element.
func (n *Node) ElementsByTagName(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.walk(func(d *Node) {
			if d.Type == ElementNode && (name == "*" || d.Name == name) {
				out = append(out, d)
			}
		})
	}
	return out
}

func (n *Node) walk(f func(*Node)) {
	f(n)
	for _, c := range n.Children {
		c.walk(f)
	}
}

// A Document is a parsed XML document.
type Document struct {
	Node
	// Encoding is the encoding the document was decoded from.
	Encoding string
}

// NewDocument returns a document whose only child is root.
func NewDocument(root *Node) *Document {
	d := &Document{Node: Node{Type: DocumentNode}}
	if root != nil {
		d.AppendChild(root)
	}
	return d
}

// DocumentElement returns the root element, or nil.
func (d *Document) DocumentElement() *Node {
	for _, c := range d.Children {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// XML serializes the document as UTF-8 XML with a declaration.
func (d *Document) XML() []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	for _, c := range d.Children {
		write(&buf, c)
	}
	return buf.Bytes()
}

func write(buf *bytes.Buffer, n *Node) {
	switch n.Type {
	case TextNode:
		_ = xml.EscapeText(buf, []byte(n.Data))
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	case ProcInstNode:
		buf.WriteString("<?")
		buf.WriteString(n.Name)
		if n.Data != "" {
			buf.WriteByte(' ')
			buf.WriteString(n.Data)
		}
		buf.WriteString("?>")
	case ElementNode:
		buf.WriteByte('<')
		buf.WriteString(n.Name)
		if n.Namespace != "" && (n.Parent == nil || n.Parent.Namespace != n.Namespace) {
			buf.WriteString(` xmlns="`)
			_ = xml.EscapeText(buf, []byte(n.Namespace))
			buf.WriteByte('"')
		}
		for _, a := range n.Attrs {
			buf.WriteByte(' ')
			buf.WriteString(a.Name)
			buf.WriteString(`="`)
			_ = xml.EscapeText(buf, []byte(a.Value))
			buf.WriteByte('"')
		}
		if len(n.Children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.Children {
			write(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(n.Name)
		buf.WriteByte('>')
	}
}
