// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package backoff

import (
	"sync"
	"time"
)

// A Limit specifies the maximum number of requests allowed to start
// per host per unit time.
type Limit struct {
	MaxRequests int
	Period      time.Duration
}

// NewThrottle constructs a guard which refuses to start a request to a
// host once the host has reached any of the given limits.
//
// For example, the following guard refuses a request if 10 requests to
// the same host were started in the last second, or 100 in the last
// minute:
//
//	g := backoff.NewThrottle(
//		backoff.Limit{MaxRequests: 10, Period: time.Second},
//		backoff.Limit{MaxRequests: 100, Period: time.Minute})
//
// Every allowed request counts against the limits. A throttle records
// no results and has nothing to persist.
func NewThrottle(limits ...Limit) Guard {
	for _, l := range limits {
		if l.MaxRequests < 1 {
			panic("xhr/backoff: MaxRequests must be positive")
		}
		if l.Period <= 0 {
			panic("xhr/backoff: Period must be positive")
		}
	}
	return &throttle{
		limits: limits,
		hosts:  make(map[string][]limitQueue),
	}
}

type throttle struct {
	limits []Limit
	lock   sync.Mutex
	hosts  map[string][]limitQueue
}

func (th *throttle) IsRequestAllowed(now time.Time, host string) bool {
	th.lock.Lock()
	defer th.lock.Unlock()
	qs, ok := th.hosts[host]
	if !ok {
		qs = make([]limitQueue, len(th.limits))
		for i, l := range th.limits {
			qs[i] = newLimitQueue(l.Period, l.MaxRequests)
		}
		th.hosts[host] = qs
	}
	for i := range qs {
		if !qs[i].room(now) {
			return false
		}
	}
	for i := range qs {
		qs[i].add(now)
	}
	return true
}

func (th *throttle) ReportResult(time.Time, string, int) bool {
	return false
}

func (th *throttle) Persist(time.Time) error {
	return nil
}

// limitQueue is a ring buffer of the start times within one period.
type limitQueue struct {
	antiPeriod time.Duration
	a          []time.Time
	start, len int
}

func newLimitQueue(period time.Duration, cap int) limitQueue {
	return limitQueue{
		antiPeriod: -period,
		a:          make([]time.Time, cap),
	}
}

// room evicts the samples at or before the period cutoff and reports
// whether another sample fits.
func (q *limitQueue) room(t time.Time) bool {
	cutoff := t.Add(q.antiPeriod)
	for q.len > 0 && !cutoff.Before(q.a[q.start]) {
		q.start = (q.start + 1) % len(q.a)
		q.len--
	}
	return q.len < len(q.a)
}

func (q *limitQueue) add(t time.Time) {
	i := (q.start + q.len) % len(q.a)
	q.a[i] = t
	q.len++
}
