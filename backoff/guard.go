// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package backoff

import (
	"errors"
	"time"
)

// A Guard decides whether a request to a host may start, and learns
// from the outcome of requests that completed.
//
// Implementations of Guard must be safe for concurrent use by multiple
// goroutines.
type Guard interface {
	// IsRequestAllowed returns false if a request to host must not
	// start at time now.
	IsRequestAllowed(now time.Time, host string) bool

	// ReportResult records the outcome of a request to host that
	// completed at time now. Status is the HTTP status code, or zero if
	// the request failed without a response. The return value is true
	// if the guard state changed in a way worth persisting.
	ReportResult(now time.Time, host string, status int) bool

	// Persist saves the guard state, if the guard has a store.
	Persist(now time.Time) error
}

// A ResultType classifies the outcome of a request.
type ResultType int

const (
	// Success clears the backoff record of the host.
	Success ResultType = iota
	// Constant backs off by a constant randomized interval.
	Constant
	// Exponential backs off by an exponentially growing randomized
	// interval.
	Exponential
)

// Classify maps an HTTP status code to a ResultType. Status zero means
// the request failed at the network level, which does not indicate an
// overloaded server, so it is backed off at a constant rate.
func Classify(status int) ResultType {
	switch {
	case status == 0:
		return Constant
	case status >= 100 && status < 500:
		return Success
	default:
		return Exponential
	}
}

// All combines guards. A request is allowed only if every guard allows
// it. Results are reported to every guard, and Persist is attempted on
// every guard, returning the joined errors.
func All(guards ...Guard) Guard {
	return all(guards)
}

type all []Guard

func (g all) IsRequestAllowed(now time.Time, host string) bool {
	for _, x := range g {
		if !x.IsRequestAllowed(now, host) {
			return false
		}
	}
	return true
}

func (g all) ReportResult(now time.Time, host string, status int) bool {
	changed := false
	for _, x := range g {
		changed = x.ReportResult(now, host, status) || changed
	}
	return changed
}

func (g all) Persist(now time.Time) error {
	var errs []error
	for _, x := range g {
		if err := x.Persist(now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Never is a Guard that allows every request and records nothing.
var Never Guard = never{}

type never struct{}

func (never) IsRequestAllowed(time.Time, string) bool { return true }
func (never) ReportResult(time.Time, string, int) bool { return false }
func (never) Persist(time.Time) error { return nil }
