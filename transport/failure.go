// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"
	"syscall"
)

// A Category is the kind of a transport failure, as reported by
// Categorize. Categories are used to label logs and metrics; they do not
// change how a failed request completes.
type Category int

const (
	// Other is any failure not in another category, and the category
	// of a nil error.
	Other Category = iota
	// Timeout indicates the attempt timed out on the client side.
	//
	// Categorize returns Timeout if the error or any of its wrapped
	// causes has a Timeout() function that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection,
	// which corresponds to the POSIX error code ECONNREFUSED.
	ConnRefused
	// ConnReset indicates the remote host reset a previously active
	// TCP connection, which corresponds to the POSIX error code
	// ECONNRESET.
	ConnReset
	// Canceled indicates the attempt was canceled by the client, for
	// example because the request was aborted.
	Canceled
)

var categoryNames = [...]string{"other", "timeout", "conn_refused", "conn_reset", "canceled"}

// String returns a lower-case name for the category, suitable as a
// metric label.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "other"
	}
	return categoryNames[c]
}

// Categorize returns the category of a transport failure. It looks at
// the wrapped causes of err, not just err itself.
func Categorize(err error) Category {
	if err == nil {
		return Other
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	if errors.Is(err, context.Canceled) {
		return Canceled
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET {
			return ConnReset
		} else if errno == syscall.ECONNREFUSED {
			return ConnRefused
		}
	}

	return Other
}

type hasTimeout interface {
	Timeout() bool
}
