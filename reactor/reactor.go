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

// Package reactor implements the single-threaded cooperative event loop of
// §5: every source (socket reads, retransmit/ack/heartbeat timers, child
// process exits and output) posts an Event onto one channel; exactly one
// goroutine drains it and runs handlers to completion, so no handler ever
// observes another handler's partial state. Blocking I/O — the UDP read,
// a child process's stdout — happens in its own goroutine and only posts a
// finished Event; it never runs handler code itself.
package reactor

import (
	"sync"
	"sync/atomic"
	"time"
)

// Kind discriminates the event sources the reactor understands.
type Kind int

const (
	KindDatagram Kind = iota
	KindTimer
	KindChildOutput
	KindChildExit
)

// Event is one unit of work the loop goroutine will run a handler for.
type Event struct {
	Kind    Kind
	Payload any
}

// TimerID names a scheduled timer so it can be cancelled before it fires.
type TimerID uint64

// Reactor is the event loop itself: one inbound channel, a registry of live
// timers so they can be cancelled, and a Handle callback the caller
// supplies to Run.
type Reactor struct {
	events      chan Event
	stop        chan struct{}
	stopOnce    sync.Once
	nextTimerID atomic.Uint64
	mu          sync.Mutex
	timers      map[TimerID]*time.Timer
}

// New returns an idle Reactor with room for 1024 outstanding events
// before Post blocks (it should never need to: the loop drains
// continuously and handlers must not themselves block).
func New() *Reactor {
	return &Reactor{
		events: make(chan Event, 1024),
		stop:   make(chan struct{}),
		timers: make(map[TimerID]*time.Timer),
	}
}

// Post enqueues an event for the loop goroutine. Safe to call from any
// goroutine, including from inside a handler (e.g. to reschedule itself).
func (r *Reactor) Post(e Event) {
	select {
	case r.events <- e:
	case <-r.stop:
	}
}

// ScheduleAfter arranges for payload to be posted as a KindTimer event
// after d elapses. The returned TimerID may be passed to CancelTimer before
// it fires; firing removes the bookkeeping entry automatically.
func (r *Reactor) ScheduleAfter(d time.Duration, payload any) TimerID {
	id := TimerID(r.nextTimerID.Add(1))
	t := time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.timers, id)
		r.mu.Unlock()
		r.Post(Event{Kind: KindTimer, Payload: payload})
	})
	r.mu.Lock()
	r.timers[id] = t
	r.mu.Unlock()
	return id
}

// CancelTimer stops a pending timer. A no-op if it already fired.
func (r *Reactor) CancelTimer(id TimerID) {
	r.mu.Lock()
	t, ok := r.timers[id]
	delete(r.timers, id)
	r.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// Run drains events until Stop is called, invoking handle for each one on
// this goroutine — the single thread every handler in the system runs on.
func (r *Reactor) Run(handle func(Event)) {
	for {
		select {
		case e := <-r.events:
			handle(e)
		case <-r.stop:
			return
		}
	}
}

// Stop ends Run. Idempotent.
func (r *Reactor) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}
