// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/xhr/request"
)

// A Policy defines a timeout policy which may be plugged into the
// net/http transport (transport.HTTP) to direct how to set the timeout
// for the first leg of a request, as well as for any leg that follows a
// redirect.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the transport attempt
	// carrying leg l. The timeout covers the whole attempt, from
	// connecting until the last body byte is read.
	Timeout(l *request.Leg) time.Duration
}

// DefaultPolicy is the default timeout policy. It sets a fixed timeout
// of 30 seconds on each leg.
var DefaultPolicy Policy = Fixed(30 * time.Second)

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value to set
// every leg timeout.
func Fixed(d time.Duration) Policy {
	return policy([]time.Duration{d})
}

// Stepped constructs a timeout policy that varies the timeout with the
// number of redirects followed so far.
//
// Parameter first is the timeout of the leg sent by Send. Parameter
// later contains the timeouts of the legs following the first, second,
// and subsequent redirects. If more redirects are followed than later
// has elements, the last element of later is used.
//
// Consider the following timeout policy:
//
// 	p := Stepped(10*time.Second, 5*time.Second, 2*time.Second)
//
// The policy p gives the original request 10 seconds, the leg after the
// first redirect 5 seconds, and every further leg 2 seconds.
func Stepped(first time.Duration, later ...time.Duration) Policy {
	p := make([]time.Duration, 1, 1+len(later))
	p[0] = first
	return policy(append(p, later...))
}

type policy []time.Duration

func (p policy) Timeout(l *request.Leg) time.Duration {
	i := l.Number
	if i > len(p)-1 {
		i = len(p) - 1
	}
	if i < 0 {
		i = 0
	}
	return p[i]
}
