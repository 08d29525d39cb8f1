// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package loop provides the event loop that owns a set of requests.
//
// Requests are not safe for concurrent use. Transports that work on
// other goroutines post their callbacks to a Loop, and the goroutine
// running the Loop delivers them one at a time, in the order posted.
package loop

import (
	"context"
	"sync"
)

// A Loop is a queue of functions run by one goroutine. The zero value is
// an empty loop ready to use.
type Loop struct {
	lock    sync.Mutex
	queue   []func()
	wake    chan struct{}
	running bool
}

func (l *Loop) wakeChan() chan struct{} {
	if l.wake == nil {
		l.wake = make(chan struct{}, 1)
	}
	return l.wake
}

// Post queues f. Post never blocks and may be called from any goroutine.
func (l *Loop) Post(f func()) {
	l.lock.Lock()
	l.queue = append(l.queue, f)
	wake := l.wakeChan()
	l.lock.Unlock()
	select {
	case wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued functions.
func (l *Loop) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.queue)
}

// RunOnce runs the functions queued at the time of the call, including
// none posted while they run, and returns how many it ran.
func (l *Loop) RunOnce() int {
	l.lock.Lock()
	batch := l.queue
	l.queue = nil
	l.lock.Unlock()
	for _, f := range batch {
		f()
	}
	return len(batch)
}

// Run runs posted functions until ctx is done, returning ctx.Err(). Run
// panics if the loop is already running.
func (l *Loop) Run(ctx context.Context) error {
	l.lock.Lock()
	if l.running {
		l.lock.Unlock()
		panic("xhr/loop: already running")
	}
	l.running = true
	wake := l.wakeChan()
	l.lock.Unlock()
	defer func() {
		l.lock.Lock()
		l.running = false
		l.lock.Unlock()
	}()

	for {
		l.RunOnce()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}

// RunUntil runs posted functions until done returns true after a batch,
// or ctx is done. It is handy for driving a single request to
// completion.
func (l *Loop) RunUntil(ctx context.Context, done func() bool) error {
	l.lock.Lock()
	wake := l.wakeChan()
	l.lock.Unlock()
	for {
		l.RunOnce()
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}
