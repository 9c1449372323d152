// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package reactor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostAndRunDeliversEventToSingleGoroutine(t *testing.T) {
	r := New()
	defer r.Stop()

	got := make(chan Event, 1)
	go r.Run(func(e Event) { got <- e })

	r.Post(Event{Kind: KindDatagram, Payload: "hello"})

	select {
	case e := <-got:
		require.Equal(t, KindDatagram, e.Kind)
		require.Equal(t, "hello", e.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for posted event")
	}
}

func TestScheduleAfterFiresTimerEvent(t *testing.T) {
	r := New()
	defer r.Stop()

	got := make(chan Event, 1)
	go r.Run(func(e Event) { got <- e })

	r.ScheduleAfter(10*time.Millisecond, "payload")

	select {
	case e := <-got:
		require.Equal(t, KindTimer, e.Kind)
		require.Equal(t, "payload", e.Payload)
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestCancelTimerPreventsFiring(t *testing.T) {
	r := New()
	defer r.Stop()

	var mu sync.Mutex
	var seen []Event
	go r.Run(func(e Event) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})

	id := r.ScheduleAfter(30*time.Millisecond, "cancelled")
	r.CancelTimer(id)

	time.Sleep(80 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Empty(t, seen)
}

func TestCancelTimerAfterFireIsNoop(t *testing.T) {
	r := New()
	defer r.Stop()

	got := make(chan Event, 1)
	go r.Run(func(e Event) { got <- e })

	id := r.ScheduleAfter(5*time.Millisecond, "fast")

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	require.NotPanics(t, func() { r.CancelTimer(id) })
}

func TestStopIsIdempotentAndEndsRun(t *testing.T) {
	r := New()
	done := make(chan struct{})
	go func() {
		r.Run(func(Event) {})
		close(done)
	}()

	r.Stop()
	r.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestPostAfterStopDoesNotBlock(t *testing.T) {
	r := New()
	r.Stop()

	done := make(chan struct{})
	go func() {
		r.Post(Event{Kind: KindDatagram})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Post blocked after Stop")
	}
}
