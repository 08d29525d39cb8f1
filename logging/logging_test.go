// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "level(9)", Level(9).String())
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, LevelInfo)
	l.now = func() time.Time { return time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Debug("dropped")
	assert.Empty(t, buf.String())

	child := l.With(String("component", "xhr"), Int("n", 1))
	child.Warn("hello", Err(errors.New("boom")), Int("n", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "2021-01-02T03:04:05Z", entry["time"])
	fields := entry["fields"].(map[string]interface{})
	assert.Equal(t, "xhr", fields["component"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, float64(2), fields["n"])
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.With(Bool("x", true)).Error("nothing", Err(nil))
	})
}
