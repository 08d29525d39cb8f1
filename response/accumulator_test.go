// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package response

import (
	"testing"

	"github.com/gogama/xhr/charset"
	"github.com/gogama/xhr/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_Headers(t *testing.T) {
	a := New(0)
	require.NoError(t, a.AddHeader("Content-Type", "Text/HTML; charset=\"Big5\""))
	require.NoError(t, a.AddHeader("Set-Cookie", "a=1"))
	require.NoError(t, a.AddHeader("X-Multi", "one"))
	require.NoError(t, a.AddHeader("set-cookie", "b=2"))
	require.NoError(t, a.AddHeader("x-multi", " two "))
	require.NoError(t, a.AddHeader("", "ignored"))

	assert.Equal(t, "Content-Type: Text/HTML; charset=\"Big5\"\r\n"+
		"Set-Cookie: a=1\r\n"+
		"X-Multi: one\r\n"+
		"set-cookie: b=2\r\n"+
		"x-multi: two\r\n", a.AllHeaders())

	for _, name := range []string{"x-multi", "X-MULTI", "X-Multi"} {
		t.Run(name, func(t *testing.T) {
			v, ok := a.Header(name)
			assert.True(t, ok)
			assert.Equal(t, "one, two", v)
		})
	}
	_, ok := a.Header("Missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"a=1", "b=2"}, a.SetCookies())
	assert.Equal(t, "text/html", a.ContentType())
	assert.Equal(t, "Big5", a.Charset())
}

func TestParseContentType(t *testing.T) {
	testCases := []struct {
		in, mediaType, charset string
	}{
		{"text/plain", "text/plain", ""},
		{"application/XML; Charset=ISO-8859-1", "application/xml", "ISO-8859-1"},
		{"text/html; charset", "text/html", ""},
		{"text/html; charset='utf-8'; x", "text/html", "utf-8"},
		{"", "", ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.in, func(t *testing.T) {
			mt, cs := parseContentType(testCase.in)
			assert.Equal(t, testCase.mediaType, mt)
			assert.Equal(t, testCase.charset, cs)
		})
	}
}

func TestAccumulator_Limits(t *testing.T) {
	t.Run("body", func(t *testing.T) {
		a := New(5)
		n, err := a.Write([]byte("abc"))
		assert.NoError(t, err)
		assert.Equal(t, 3, n)
		n, err = a.Write([]byte("def"))
		assert.ErrorIs(t, err, ErrTooLarge)
		assert.Equal(t, 0, n)
		assert.Equal(t, "abc", string(a.Body()))
		_, err = a.Write([]byte("de"))
		assert.NoError(t, err)
		assert.Equal(t, 5, a.Len())
	})
	t.Run("headers", func(t *testing.T) {
		a := New(20)
		assert.NoError(t, a.AddHeader("A", "0123456789"))
		assert.ErrorIs(t, a.AddHeader("B", "0123"), ErrHeadersTooLarge)
		_, ok := a.Header("B")
		assert.False(t, ok)
	})
	t.Run("reset keeps limit", func(t *testing.T) {
		a := New(2)
		a.SetStatus(200, "OK")
		_, _ = a.Write([]byte("ab"))
		a.Reset()
		assert.Equal(t, 0, a.Status())
		assert.Equal(t, "", a.StatusText())
		assert.Equal(t, 0, a.Len())
		assert.Equal(t, "", a.AllHeaders())
		_, err := a.Write([]byte("abc"))
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}

type mockConverter struct {
	mock.Mock
}

func (m *mockConverter) ConvertToUTF8(b []byte, hint, fallback string) (string, string, bool) {
	args := m.Called(b, hint, fallback)
	return args.String(0), args.String(1), args.Bool(2)
}

func TestAccumulator_Text(t *testing.T) {
	t.Run("decoded once", func(t *testing.T) {
		m := &mockConverter{}
		m.Test(t)
		m.On("ConvertToUTF8", []byte("hi"), "UTF-8", "ISO-8859-1").Return("hi", "UTF-8", true).Once()
		a := New(0)
		_, _ = a.Write([]byte("hi"))
		assert.Equal(t, "hi", a.Text(m, "ISO-8859-1"))
		assert.Equal(t, "hi", a.Text(m, "ISO-8859-1"))
		enc, ok := a.Encoding()
		assert.Equal(t, "UTF-8", enc)
		assert.True(t, ok)
		m.AssertExpectations(t)
	})
	t.Run("unsupported charset uses fallback", func(t *testing.T) {
		a := New(0)
		require.NoError(t, a.AddHeader("Content-Type", "text/plain; charset=x-bogus"))
		_, _ = a.Write([]byte("caf\xe9"))
		assert.Equal(t, "café", a.Text(charset.Default, charset.DefaultFallback))
		enc, ok := a.Encoding()
		assert.Equal(t, charset.DefaultFallback, enc)
		assert.True(t, ok)
	})
	t.Run("undecodable body never fails", func(t *testing.T) {
		m := &mockConverter{}
		m.Test(t)
		m.On("ConvertToUTF8", mock.Anything, mock.Anything, "").Return("", "UTF-8", false)
		a := New(0)
		_, _ = a.Write([]byte("ok\xff"))
		assert.Equal(t, "ok\ufffd", a.Text(m, ""))
		_, ok := a.Encoding()
		assert.False(t, ok)
	})
	t.Run("empty", func(t *testing.T) {
		a := New(0)
		assert.Equal(t, "", a.Text(nil, ""))
	})
}

func TestAccumulator_XML(t *testing.T) {
	t.Run("latin-1 declaration", func(t *testing.T) {
		a := New(0)
		require.NoError(t, a.AddHeader("Content-Type", "text/xml"))
		_, _ = a.Write([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><a>caf` + "\xe9</a>"))
		doc := a.XML(nil, nil, charset.DefaultFallback)
		require.NotNil(t, doc)
		assert.Equal(t, "café", doc.DocumentElement().TextContent())
		assert.Equal(t, "ISO-8859-1", doc.Encoding)
		assert.Same(t, doc, a.XML(nil, nil, charset.DefaultFallback))
		assert.Equal(t, `<?xml version="1.0" encoding="ISO-8859-1"?><a>café</a>`, a.Text(nil, ""))
	})
	t.Run("not XML", func(t *testing.T) {
		a := New(0)
		require.NoError(t, a.AddHeader("Content-Type", "text/plain"))
		_, _ = a.Write([]byte("<a/>"))
		assert.Nil(t, a.XML(dom.DefaultParser, nil, ""))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, New(0).XML(nil, nil, ""))
	})
}

func TestAccumulator_HTML(t *testing.T) {
	a := New(0)
	_, _ = a.Write([]byte("<ul><li>x</li><li>y</li></ul>"))
	doc, err := a.HTML(nil, "")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("li").Length())
	again, _ := a.HTML(nil, "")
	assert.Same(t, doc, again)
}
