// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("well-formed", func(t *testing.T) {
		doc, err := Parse(`<?xml version="1.0" encoding="ISO-8859-1"?>` +
			`<!-- c --><feed xmlns="urn:x"><item id="1">a &amp; b</item><item id="2"><![CDATA[<c>]]></item></feed>`)
		require.NoError(t, err)
		root := doc.DocumentElement()
		require.NotNil(t, root)
		assert.Equal(t, "feed", root.Name)
		assert.Equal(t, "urn:x", root.Namespace)
		items := doc.ElementsByTagName("item")
		require.Len(t, items, 2)
		id, ok := items[1].Attribute("id")
		assert.True(t, ok)
		assert.Equal(t, "2", id)
		_, ok = items[1].Attribute("missing")
		assert.False(t, ok)
		assert.Equal(t, "a & b", items[0].TextContent())
		assert.Equal(t, "<c>", items[1].TextContent())
		assert.Equal(t, "a & b<c>", root.TextContent())
		assert.Len(t, doc.ElementsByTagName("*"), 3)
		assert.Same(t, root, items[0].Parent)
	})
	for name, text := range map[string]string{
		"empty":            "",
		"comment only":     "<!-- nothing -->",
		"mismatched":       "<a></b>",
		"unclosed":         "<a><b></b>",
		"two roots":        "<a/><b/>",
		"text outside":     "junk<a/>",
		"undefined entity": "<a>&nbsp;</a>",
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse(text)
			assert.Nil(t, doc)
			assert.Error(t, err)
		})
	}
}

func TestXMLParser_ParseIntoDom(t *testing.T) {
	p := &XMLParser{}
	t.Run("XML content type", func(t *testing.T) {
		doc, enc := p.ParseIntoDom([]byte("<a>caf\xe9</a>"), "text/xml", "ISO-8859-1", "")
		require.NotNil(t, doc)
		assert.Equal(t, "ISO-8859-1", enc)
		assert.Equal(t, "ISO-8859-1", doc.Encoding)
		assert.Equal(t, "café", doc.DocumentElement().TextContent())
	})
	t.Run("declaration with other content type", func(t *testing.T) {
		doc, _ := p.ParseIntoDom([]byte(`<?xml version="1.0"?><a/>`), "text/html", "", "")
		require.NotNil(t, doc)
		assert.Equal(t, "a", doc.DocumentElement().Name)
	})
	t.Run("not XML", func(t *testing.T) {
		doc, enc := p.ParseIntoDom([]byte("<a/>"), "text/plain", "", "")
		assert.Nil(t, doc)
		assert.Empty(t, enc)
	})
	t.Run("malformed", func(t *testing.T) {
		doc, enc := p.ParseIntoDom([]byte("<a>"), "", "", "")
		assert.Nil(t, doc)
		assert.Equal(t, "UTF-8", enc)
	})
	t.Run("empty", func(t *testing.T) {
		doc, _ := p.ParseIntoDom(nil, "", "", "")
		assert.Nil(t, doc)
	})
}

func TestDocument_XML(t *testing.T) {
	root := &Node{Type: ElementNode, Name: "req"}
	root.Attrs = []Attr{{Name: "q", Value: `a"b`}}
	child := &Node{Type: ElementNode, Name: "v"}
	child.AppendChild(&Node{Type: TextNode, Data: "1 < 2"})
	root.AppendChild(child)
	root.AppendChild(&Node{Type: ElementNode, Name: "empty"})
	doc := NewDocument(root)
	assert.Equal(t,
		`<?xml version="1.0" encoding="UTF-8"?><req q="a&#34;b"><v>1 &lt; 2</v><empty/></req>`,
		string(doc.XML()))

	reparsed, err := Parse(string(doc.XML()))
	require.NoError(t, err)
	assert.Equal(t, "1 < 2", reparsed.DocumentElement().TextContent())
}

func TestParseHTML(t *testing.T) {
	doc, err := ParseHTML(`<html><body><p class="x">one</p><p>two</body>`)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("p").Length())
	assert.Equal(t, "one", doc.Find("p.x").Text())
}
