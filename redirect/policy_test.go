// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicy(t *testing.T) {
	testCases := []struct {
		status   int
		method   string
		expected Decision
	}{
		{301, "POST", Decision{Method: "GET", DropBody: true}},
		{302, "POST", Decision{Method: "GET", DropBody: true}},
		{303, "POST", Decision{Method: "GET", DropBody: true}},
		{307, "POST", Decision{Method: "POST"}},
		{301, "GET", Decision{Method: "GET"}},
		{302, "GET", Decision{Method: "GET"}},
		{303, "GET", Decision{Method: "GET", DropBody: true}},
		{307, "GET", Decision{Method: "GET"}},
		{302, "PUT", Decision{Method: "PUT"}},
		{303, "DELETE", Decision{Method: "GET", DropBody: true}},
		{307, "PUT", Decision{Method: "PUT"}},
	}
	p := NewPolicy(10)
	for _, testCase := range testCases {
		t.Run(fmt.Sprintf("%s %d", testCase.method, testCase.status), func(t *testing.T) {
			d, err := p.Decide(testCase.status, testCase.method, 0)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, d)
		})
	}
}

func TestNewPolicy_Refused(t *testing.T) {
	p := NewPolicy(10)
	for _, status := range []int{300, 304, 305, 306, 308, 399} {
		_, err := p.Decide(status, "GET", 0)
		assert.ErrorIs(t, err, ErrStatus, "status %d", status)
	}
}

func TestNewPolicy_Max(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		p := NewPolicy(3)
		for count := 0; count < 3; count++ {
			_, err := p.Decide(302, "GET", count)
			assert.NoError(t, err)
		}
		_, err := p.Decide(302, "GET", 3)
		assert.ErrorIs(t, err, ErrTooMany)
	})
	t.Run("default", func(t *testing.T) {
		for _, p := range []Policy{NewPolicy(0), NewPolicy(-1), DefaultPolicy} {
			_, err := p.Decide(302, "GET", DefaultMaxRedirects-1)
			assert.NoError(t, err)
			_, err = p.Decide(302, "GET", DefaultMaxRedirects)
			assert.ErrorIs(t, err, ErrTooMany)
		}
	})
}

func TestPolicyFunc(t *testing.T) {
	var calls int
	p := PolicyFunc(func(status int, method string, count int) (Decision, error) {
		calls++
		assert.Equal(t, 308, status)
		assert.Equal(t, "PUT", method)
		assert.Equal(t, 2, count)
		return Decision{Method: method}, nil
	})
	d, err := p.Decide(308, "PUT", 2)
	assert.NoError(t, err)
	assert.Equal(t, Decision{Method: "PUT"}, d)
	assert.Equal(t, 1, calls)
}

func TestIntercepts(t *testing.T) {
	assert.True(t, Intercepts(301, "/x"))
	assert.True(t, Intercepts(399, "/x"))
	assert.False(t, Intercepts(302, ""))
	assert.False(t, Intercepts(200, "/x"))
	assert.False(t, Intercepts(400, "/x"))
}

func TestResolve(t *testing.T) {
	base, err := url.Parse("http://x/a/b?q=1")
	require.NoError(t, err)
	testCases := []struct {
		location string
		expected string
	}{
		{"http://x/ok2", "http://x/ok2"},
		{"/root", "http://x/root"},
		{"c", "http://x/a/c"},
		{"//y:8080/z#frag", "http://y:8080/z"},
		{"HTTPS://Z/", "https://Z/"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.location, func(t *testing.T) {
			u, err := Resolve(base, testCase.location)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, u.String())
		})
	}
	for _, location := range []string{"ftp://x/f", "mailto:a@b", "http://", "http://x/%zz"} {
		t.Run(location, func(t *testing.T) {
			_, err := Resolve(base, location)
			assert.ErrorIs(t, err, ErrLocation)
		})
	}
}
