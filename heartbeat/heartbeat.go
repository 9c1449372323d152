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

// Package heartbeat implements §4.8: HbSender emits unreliable periodic
// HEARTBEAT framesets, and HbListener tracks deadtime/warntime/come-alive
// state per peer off the shared reactor's timers.
package heartbeat

import (
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/metrics"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
	"github.com/assimilation/assimilation-official-sub001/netio"
	"github.com/assimilation/assimilation-official-sub001/reactor"
)

// registry is the process-wide set of live senders, so a process-wide
// shutdown can stop every sender atomically regardless of who created it.
var registry = struct {
	mu      sync.Mutex
	senders mapset.Set[*HbSender]
}{senders: mapset.NewSet[*HbSender]()}

// StopAll stops and unregisters every currently running HbSender.
func StopAll() {
	registry.mu.Lock()
	senders := registry.senders.ToSlice()
	registry.mu.Unlock()
	for _, s := range senders {
		s.Stop()
	}
}

// HbSender periodically sends one unreliable HEARTBEAT frameset — no
// SeqnoFrame, by design — to a single peer.
type HbSender struct {
	dest     netaddr.NetAddr
	interval time.Duration
	io       netio.NetIO
	reactor  *reactor.Reactor
	timer    reactor.TimerID
	log      *logrus.Entry
	mu       sync.Mutex
	running  bool
}

type sendTickPayload struct{ s *HbSender }

// NewSender returns an HbSender targeting dest every interval. It is
// registered in the process-wide set immediately so StopAll can reach it
// even if Start is never called.
func NewSender(r *reactor.Reactor, io netio.NetIO, dest netaddr.NetAddr, interval time.Duration, log *logrus.Entry) *HbSender {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &HbSender{
		dest:     dest,
		interval: interval,
		io:       io,
		reactor:  r,
		log:      log.WithField("component", "hbsender"),
	}
	registry.mu.Lock()
	registry.senders.Add(s)
	registry.mu.Unlock()
	return s
}

// Start begins emission; call once.
func (s *HbSender) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.timer = s.reactor.ScheduleAfter(s.interval, sendTickPayload{s: s})
}

// Stop ends emission and removes the sender from the process-wide set.
func (s *HbSender) Stop() {
	s.mu.Lock()
	if s.running {
		s.reactor.CancelTimer(s.timer)
		s.running = false
	}
	s.mu.Unlock()
	registry.mu.Lock()
	registry.senders.Remove(s)
	registry.mu.Unlock()
}

// handleTick is invoked through HandleEvent for this sender's
// sendTickPayload; wire HandleEvent from the loop's KindTimer dispatch.
func (s *HbSender) handleTick() {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return
	}
	fs := frameset.New(frameset.MsgHeartbeat, 0)
	if err := s.io.SendFrameSets(s.dest, []*frameset.FrameSet{fs}); err != nil {
		s.log.WithError(err).WithField("peer", s.dest.String()).Warn("failed to send heartbeat")
	}
	s.mu.Lock()
	if s.running {
		s.timer = s.reactor.ScheduleAfter(s.interval, sendTickPayload{s: s})
	}
	s.mu.Unlock()
}

// HandleEvent dispatches one reactor.Event destined for this package;
// harmless to call for events of other kinds or payload types.
func HandleEvent(e reactor.Event) {
	if e.Kind != reactor.KindTimer {
		return
	}
	switch p := e.Payload.(type) {
	case sendTickPayload:
		p.s.handleTick()
	case scanTickPayload:
		p.l.handleScan()
	}
}

// peerState is a single monitored peer's liveness bookkeeping.
type peerState struct {
	addr    netaddr.NetAddr
	nextDue time.Time
	warnDue time.Time
	dead    bool
}

// Callbacks are the liveness transitions an HbListener reports.
type Callbacks struct {
	OnHeartbeat func(peer netaddr.NetAddr)
	OnWarn      func(peer netaddr.NetAddr, howLate time.Duration)
	OnDead      func(peer netaddr.NetAddr)
	OnComeAlive func(peer netaddr.NetAddr, howLate time.Duration)
	// OnMartian is invoked for a heartbeat from a peer not registered
	// with AddPeer. May be nil.
	OnMartian func(peer netaddr.NetAddr)
}

type scanTickPayload struct{ l *HbListener }

// HbListener tracks deadtime/warntime/come-alive state for a set of peers,
// scanning at least every warntime/2 as required by §4.8.
type HbListener struct {
	mu       sync.Mutex
	peers    map[string]*peerState
	deadtime time.Duration
	warntime time.Duration
	cb       Callbacks
	reactor  *reactor.Reactor
	timer    reactor.TimerID
	running  bool
	now      func() time.Time
	metrics  *metrics.Heartbeat
}

// NewListener returns an HbListener with no peers registered yet. now lets
// tests supply a deterministic clock; pass nil in production for time.Now.
// m may be nil, in which case the listener calls metrics.NewHeartbeat, which
// registers a new set with the default Prometheus registry.
func NewListener(r *reactor.Reactor, deadtime, warntime time.Duration, cb Callbacks, now func() time.Time, m *metrics.Heartbeat) *HbListener {
	if now == nil {
		now = time.Now
	}
	if m == nil {
		m = metrics.NewHeartbeat()
	}
	return &HbListener{
		peers:    make(map[string]*peerState),
		deadtime: deadtime,
		warntime: warntime,
		cb:       cb,
		reactor:  r,
		now:      now,
		metrics:  m,
	}
}

// AddPeer begins monitoring peer, starting it in the alive state with a
// full deadtime/warntime grace period from now.
func (l *HbListener) AddPeer(peer netaddr.NetAddr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.peers[peer.String()] = &peerState{
		addr:    peer,
		nextDue: now.Add(l.deadtime),
		warnDue: now.Add(l.warntime),
	}
}

// RemovePeer stops monitoring peer.
func (l *HbListener) RemovePeer(peer netaddr.NetAddr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.peers, peer.String())
}

// StartScanning begins the periodic deadtime/warntime scan.
func (l *HbListener) StartScanning() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.timer = l.reactor.ScheduleAfter(l.scanInterval(), scanTickPayload{l: l})
}

// StopScanning ends the periodic scan.
func (l *HbListener) StopScanning() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		l.reactor.CancelTimer(l.timer)
		l.running = false
	}
}

func (l *HbListener) scanInterval() time.Duration {
	iv := l.warntime / 2
	if iv <= 0 {
		iv = l.deadtime / 2
	}
	if iv <= 0 {
		iv = time.Second
	}
	return iv
}

// OnHeartbeat processes one received heartbeat from peer: resets the
// deadlines, invokes OnHeartbeat, and invokes OnComeAlive (with lateness)
// if the peer had previously been declared dead.
func (l *HbListener) OnHeartbeat(peer netaddr.NetAddr) {
	l.mu.Lock()
	key := peer.String()
	st, ok := l.peers[key]
	if !ok {
		l.mu.Unlock()
		l.metrics.MartianTotal.Inc()
		if l.cb.OnMartian != nil {
			l.cb.OnMartian(peer)
		}
		return
	}
	now := l.now()
	wasDead := st.dead
	var howLate time.Duration
	if wasDead {
		howLate = now.Sub(st.nextDue)
	}
	st.dead = false
	st.nextDue = now.Add(l.deadtime)
	st.warnDue = now.Add(l.warntime)
	l.mu.Unlock()

	if l.cb.OnHeartbeat != nil {
		l.cb.OnHeartbeat(peer)
	}
	if wasDead && l.cb.OnComeAlive != nil {
		l.cb.OnComeAlive(peer, howLate)
	}
}

func (l *HbListener) handleScan() {
	l.mu.Lock()
	now := l.now()
	type transition struct {
		peer    netaddr.NetAddr
		warn    bool
		dead    bool
		howLate time.Duration
	}
	var transitions []transition
	for _, st := range l.peers {
		if !st.dead && now.Compare(st.nextDue) >= 0 {
			st.dead = true
			transitions = append(transitions, transition{peer: st.addr, dead: true})
			continue
		}
		if !st.dead && now.Compare(st.warnDue) >= 0 {
			transitions = append(transitions, transition{peer: st.addr, warn: true, howLate: now.Sub(st.warnDue)})
		}
	}
	running := l.running
	if running {
		l.timer = l.reactor.ScheduleAfter(l.scanInterval(), scanTickPayload{l: l})
	}
	deadCount := 0
	for _, st := range l.peers {
		if st.dead {
			deadCount++
		}
	}
	l.mu.Unlock()
	l.metrics.PeersDead.Set(float64(deadCount))

	for _, t := range transitions {
		switch {
		case t.dead:
			if l.cb.OnDead != nil {
				l.cb.OnDead(t.peer)
			}
		case t.warn:
			if l.cb.OnWarn != nil {
				l.cb.OnWarn(t.peer, t.howLate)
			}
		}
	}
}
