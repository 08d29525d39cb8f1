// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package backoff

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// BaseInterval is the unit of the backoff interval.
	BaseInterval = 30 * time.Second
	// MaxInterval caps the backoff interval.
	MaxInterval = 4 * time.Hour
	// Expiry is how long a record outlives its next allowed time before
	// it is dropped from persisted data.
	Expiry = 24 * time.Hour
)

// ErrCorruptData is returned by SetData for a malformed line. Lines
// before the malformed one are kept.
var ErrCorruptData = errors.New("xhr/backoff: corrupt data")

type record struct {
	lastFailure int64 // ms
	failures    int
	nextTry     int64 // ms
	kind        ResultType
}

// A Ledger is the default Guard: a host-keyed table of failure records.
// Use NewLedger to construct a Ledger.
type Ledger struct {
	store   Store
	rand    *rand.Rand
	lock    sync.Mutex
	records map[string]*record
}

// NewLedger constructs an empty Ledger.
//
// Parameter store, if not nil, is where Persist saves the ledger and
// where Load reads it from.
//
// Parameter jitter randomizes backoff intervals. Pass nil to disable
// randomization. Otherwise specify either a random number generator
// seed value (as a time.Time, int, or int64) or a random number
// generator (as a rand.Source or *rand.Rand).
func NewLedger(store Store, jitter interface{}) *Ledger {
	return &Ledger{
		store:   store,
		rand:    jitterToRand(jitter),
		records: make(map[string]*record),
	}
}

// IsRequestAllowed returns true if host has no record, if its last
// failure lies in the future (the clock was set back), or if now is at
// or past its next allowed time.
func (l *Ledger) IsRequestAllowed(now time.Time, host string) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	r, ok := l.records[host]
	if !ok {
		return true
	}
	ms := now.UnixMilli()
	if r.lastFailure > ms {
		return true
	}
	return ms >= r.nextTry
}

// ReportResult records the outcome of a request to host. A successful
// status removes the host record and returns true if one existed. A
// failure increments the failure count, computes the next allowed time,
// and returns true.
func (l *Ledger) ReportResult(now time.Time, host string, status int) bool {
	kind := Classify(status)
	l.lock.Lock()
	defer l.lock.Unlock()
	if kind == Success {
		if _, ok := l.records[host]; ok {
			delete(l.records, host)
			return true
		}
		return false
	}
	r, ok := l.records[host]
	if !ok {
		r = &record{}
		l.records[host] = r
	}
	ms := now.UnixMilli()
	r.failures++
	r.lastFailure = ms
	r.kind = kind
	r.nextTry = ms + l.interval(r.failures, kind).Milliseconds()
	return true
}

// NextAllowed returns the time from which requests to host are allowed
// again, or the zero time if host has no record.
func (l *Ledger) NextAllowed(host string) time.Time {
	l.lock.Lock()
	defer l.lock.Unlock()
	if r, ok := l.records[host]; ok {
		return time.UnixMilli(r.nextTry)
	}
	return time.Time{}
}

// FailureCount returns the number of consecutive failures recorded for
// host.
func (l *Ledger) FailureCount(host string) int {
	l.lock.Lock()
	defer l.lock.Unlock()
	if r, ok := l.records[host]; ok {
		return r.failures
	}
	return 0
}

// Clear removes every record.
func (l *Ledger) Clear() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.records = make(map[string]*record)
}

// interval must be called with the lock held.
func (l *Ledger) interval(failures int, kind ResultType) time.Duration {
	// The first two failures are tolerated without backoff.
	if failures <= 2 {
		return 0
	}
	if kind == Constant {
		return l.randomize(BaseInterval)
	}
	exp := failures - l.intn(4)
	if exp < 1 {
		exp = 1
	} else if exp > 15 {
		exp = 15
	}
	d := BaseInterval << (exp - 1)
	if d > MaxInterval {
		d = MaxInterval
	}
	return l.randomize(d)
}

// randomize returns d plus or minus up to 20%.
func (l *Ledger) randomize(d time.Duration) time.Duration {
	ms := d.Milliseconds()
	variant := ms * 20 / 100
	if variant <= 0 || l.rand == nil {
		return d
	}
	ms += l.rand.Int63n(2*variant) - variant
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

func (l *Ledger) intn(n int) int {
	if l.rand == nil {
		return 0
	}
	return l.rand.Intn(n)
}

// Data serializes the records whose next allowed time plus Expiry is
// after now. Each record is one line "host\tlastFailureMillis\tcount\n",
// sorted by host, where a negative count marks constant backoff.
func (l *Ledger) Data(now time.Time) string {
	l.lock.Lock()
	defer l.lock.Unlock()
	ms := now.UnixMilli()
	hosts := make([]string, 0, len(l.records))
	for host, r := range l.records {
		if r.nextTry+Expiry.Milliseconds() > ms {
			hosts = append(hosts, host)
		}
	}
	sort.Strings(hosts)
	var sb strings.Builder
	for _, host := range hosts {
		r := l.records[host]
		count := r.failures
		if r.kind == Constant {
			count = -count
		}
		fmt.Fprintf(&sb, "%s\t%d\t%d\n", host, r.lastFailure, count)
	}
	return sb.String()
}

// SetData replaces the records with the ones serialized in data, in the
// format written by Data. Next allowed times are recomputed from the
// last failure times, and records already expired at now are dropped.
// Parsing stops at the first malformed line, returning ErrCorruptData.
func (l *Ledger) SetData(now time.Time, data string) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.records = make(map[string]*record)
	ms := now.UnixMilli()
	for data != "" {
		var line string
		line, data, _ = strings.Cut(data, "\n")
		parts := strings.Split(line, "\t")
		if len(parts) != 3 || parts[0] == "" {
			return fmt.Errorf("%w: %q", ErrCorruptData, line)
		}
		last, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || last < 0 {
			return fmt.Errorf("%w: %q", ErrCorruptData, line)
		}
		count, err := strconv.Atoi(parts[2])
		if err != nil {
			return fmt.Errorf("%w: %q", ErrCorruptData, line)
		}
		r := &record{lastFailure: last, failures: count, kind: Exponential}
		if count < 0 {
			r.failures = -count
			r.kind = Constant
		}
		r.nextTry = last + l.interval(r.failures, r.kind).Milliseconds()
		if r.nextTry+Expiry.Milliseconds() > ms {
			l.records[parts[0]] = r
		}
	}
	return nil
}

// Persist saves Data(now) to the store. It does nothing if the ledger
// has no store.
func (l *Ledger) Persist(now time.Time) error {
	if l.store == nil {
		return nil
	}
	return l.store.Save(context.Background(), l.Data(now))
}

// Load replaces the records with the data read from the store. It does
// nothing if the ledger has no store.
func (l *Ledger) Load(ctx context.Context, now time.Time) error {
	if l.store == nil {
		return nil
	}
	data, err := l.store.Load(ctx)
	if err != nil {
		return err
	}
	return l.SetData(now, data)
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("xhr/backoff: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("xhr/backoff: invalid jitter type")
	}
	return rand.New(s)
}
