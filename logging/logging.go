// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package logging provides the small structured logger used by the
// request engine and its collaborators.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// A Level is the severity of a log entry.
type Level int

const (
	// LevelDebug is used for state transitions and ignored input.
	LevelDebug Level = iota
	// LevelInfo is used for noteworthy but expected events.
	LevelInfo
	// LevelWarn is used for degraded behavior.
	LevelWarn
	// LevelError is used for failures the caller cannot see.
	LevelError
)

var levelNames = []string{"debug", "info", "warn", "error"}

// String returns the lower-case name of the level.
func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// A Field is a key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// String constructs a string-valued field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int constructs an int-valued field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Bool constructs a bool-valued field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration constructs a field holding a duration in its string form.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err constructs an "error" field. A nil error produces a nil value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// A Logger writes leveled, structured log entries.
//
// Implementations of Logger must be safe for concurrent use by multiple
// goroutines.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger which adds fields to every entry.
	With(fields ...Field) Logger
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nop{}
}

type nop struct{}

func (nop) Debug(string, ...Field) {}
func (nop) Info(string, ...Field) {}
func (nop) Warn(string, ...Field) {}
func (nop) Error(string, ...Field) {}
func (n nop) With(...Field) Logger { return n }

// JSONLogger prints one JSON object per entry to an io.Writer.
type JSONLogger struct {
	w      *syncWriter
	min    Level
	fields []Field
	now    func() time.Time
}

type syncWriter struct {
	lock sync.Mutex
	w    io.Writer
}

// NewJSONLogger creates a logger writing entries at or above min to w.
func NewJSONLogger(w io.Writer, min Level) *JSONLogger {
	return &JSONLogger{
		w:   &syncWriter{w: w},
		min: min,
		now: time.Now,
	}
}

func (l *JSONLogger) log(level Level, msg string, fields []Field) {
	if level < l.min {
		return
	}
	type outEntry struct {
		Level  string                 `json:"level"`
		Msg    string                 `json:"msg"`
		Time   string                 `json:"time"`
		Fields map[string]interface{} `json:"fields,omitempty"`
	}
	var m map[string]interface{}
	if len(l.fields)+len(fields) > 0 {
		m = make(map[string]interface{}, len(l.fields)+len(fields))
		for _, f := range l.fields {
			m[f.Key] = f.Value
		}
		for _, f := range fields {
			m[f.Key] = f.Value
		}
	}
	entry := outEntry{
		Level:  level.String(),
		Msg:    msg,
		Time:   l.now().UTC().Format(time.RFC3339Nano),
		Fields: m,
	}
	l.w.lock.Lock()
	defer l.w.lock.Unlock()
	enc, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.w.w, "%s %s %v\n", entry.Level, msg, m)
		return
	}
	_, _ = l.w.w.Write(append(enc, '\n'))
}

// Debug logs at LevelDebug.
func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }

// Info logs at LevelInfo.
func (l *JSONLogger) Info(msg string, fields ...Field) { l.log(LevelInfo, msg, fields) }

// Warn logs at LevelWarn.
func (l *JSONLogger) Warn(msg string, fields ...Field) { l.log(LevelWarn, msg, fields) }

// Error logs at LevelError.
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

// With returns a child logger sharing l's writer. Later fields with the
// same key override earlier ones.
func (l *JSONLogger) With(fields ...Field) Logger {
	child := &JSONLogger{
		w:      l.w,
		min:    l.min,
		now:    l.now,
		fields: make([]Field, 0, len(l.fields)+len(fields)),
	}
	child.fields = append(child.fields, l.fields...)
	child.fields = append(child.fields, fields...)
	return child
}
