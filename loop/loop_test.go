// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunOnce(t *testing.T) {
	var l Loop
	var order []int
	l.Post(func() { order = append(order, 1) })
	l.Post(func() {
		order = append(order, 2)
		l.Post(func() { order = append(order, 4) })
	})
	l.Post(func() { order = append(order, 3) })
	assert.Equal(t, 3, l.Len())

	assert.Equal(t, 3, l.RunOnce())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 1, l.RunOnce())
	assert.Equal(t, []int{1, 2, 3, 4}, order)
	assert.Equal(t, 0, l.RunOnce())
}

func TestLoop_Run(t *testing.T) {
	var l Loop
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- l.Run(ctx)
	}()

	var wg sync.WaitGroup
	var lock sync.Mutex
	n := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			l.Post(func() {
				lock.Lock()
				n++
				lock.Unlock()
				wg.Done()
			})
		}()
	}
	wg.Wait()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 10, n)
}

func TestLoop_RunTwicePanics(t *testing.T) {
	var l Loop
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	l.Post(func() { close(started) })
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	<-started
	assert.PanicsWithValue(t, "xhr/loop: already running", func() {
		_ = l.Run(ctx)
	})
	cancel()
	<-done
}

func TestLoop_RunUntil(t *testing.T) {
	var l Loop
	finished := false
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Post(func() { finished = true })
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.RunUntil(ctx, func() bool { return finished }))
	assert.True(t, finished)

	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	err := l.RunUntil(short, func() bool { return false })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
