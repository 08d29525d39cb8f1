// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xhr

import (
	"errors"
	"strconv"
)

// A Code classifies an Error. The values match the exception codes
// scripts see from an XMLHttpRequest.
type Code int

const (
	// InvalidStateErr means the method is not allowed in the current
	// ready state.
	InvalidStateErr Code = 11
	// SyntaxErr means an argument is malformed or not allowed.
	SyntaxErr Code = 12
	// NetworkErr means a synchronous request failed in transport.
	NetworkErr Code = 101
	// AbortErr means a synchronous request was aborted or refused by
	// the backoff guard.
	AbortErr Code = 102
)

var codeNames = map[Code]string{
	InvalidStateErr: "InvalidStateError",
	SyntaxErr:       "SyntaxError",
	NetworkErr:      "NetworkError",
	AbortErr:        "AbortError",
}

// String returns the name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Code(" + strconv.Itoa(int(c)) + ")"
}

// Sentinels for use with errors.Is. Any *Error matches the sentinel
// with the same Code.
var (
	ErrInvalidState = &Error{Code: InvalidStateErr}
	ErrSyntax       = &Error{Code: SyntaxErr}
	ErrNetwork      = &Error{Code: NetworkErr}
	ErrAbort        = &Error{Code: AbortErr}
)

// ErrBackoff is wrapped by the AbortError a synchronous Send returns
// when the backoff guard refuses the request.
var ErrBackoff = errors.New("xhr: request refused by backoff guard")

// ErrStreamShortWrite is the failure recorded when an OnDataReceived
// receiver consumes fewer bytes than it was given.
var ErrStreamShortWrite = errors.New("xhr: data receiver stopped the transfer")

// An Error is returned by the methods of Request.
type Error struct {
	// Code classifies the error.
	Code Code
	// Op is the Request method that failed, for example "Open".
	Op string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	s := "xhr: "
	if e.Op != "" {
		s += e.Op + ": "
	}
	s += e.Code.String()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}
