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

// Package discovery implements the collector framework of §6: periodic
// local collectors that publish JSON-bearing framesets upstream. Only the
// collector interface and a scheduling harness are specified; the concrete
// switch-neighbor (LLDP/CDP) and packet-capture collectors are out of scope
// and are not implemented here (see DESIGN.md).
package discovery

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/netio"
	"github.com/assimilation/assimilation-official-sub001/reactor"
)

// Collector is one local discovery source: Name identifies it in the
// upstream frameset's DiscoveryName frame, Interval is how often Collect runs, and
// Collect returns the JSON-serializable facts gathered this cycle (or an
// error, which is logged and treated as "nothing new this cycle").
type Collector interface {
	Name() string
	Interval() time.Duration
	Collect() (any, error)
}

// Publisher emits one discovery frameset per Collector cycle through the
// Send func given for that collector.
type Publisher struct {
	mu         sync.Mutex
	dest       func() (endpoint, queueID any)
	io         netio.NetIO
	reactor    *reactor.Reactor
	collectors map[string]*scheduled
	log        *logrus.Entry
}

type scheduled struct {
	c       Collector
	timer   reactor.TimerID
	running bool
}

type tickPayload struct {
	p    *Publisher
	name string
}

// Send is how a Publisher actually gets a frameset to its destination; it
// is supplied by the caller so discovery can ride either netio directly
// (unreliable) or a transport.FsProtocol (reliable, ordered) without this
// package depending on transport's session/queue bookkeeping.
type Send func(fs *frameset.FrameSet) error

// NewPublisher returns a Publisher with no collectors registered.
func NewPublisher(r *reactor.Reactor, log *logrus.Entry) *Publisher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Publisher{
		reactor:    r,
		collectors: make(map[string]*scheduled),
		log:        log.WithField("component", "discovery"),
	}
}

// Register adds c, schedules its first tick c.Interval() from now, and
// runs one collection immediately, publishing the result through send.
func (p *Publisher) Register(c Collector, send Send) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sc := &scheduled{c: c}
	p.collectors[c.Name()] = sc
	sc.running = true
	sc.timer = p.reactor.ScheduleAfter(c.Interval(), tickPayload{p: p, name: c.Name()})
	p.runCollectorLocked(sc, send)
}

// Unregister stops c's periodic collection.
func (p *Publisher) Unregister(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sc, ok := p.collectors[name]; ok {
		sc.running = false
		p.reactor.CancelTimer(sc.timer)
		delete(p.collectors, name)
	}
}

func (p *Publisher) runCollectorLocked(sc *scheduled, send Send) {
	facts, err := sc.c.Collect()
	if err != nil {
		p.log.WithError(err).WithField("collector", sc.c.Name()).Warn("collection failed")
		return
	}
	body, err := json.Marshal(facts)
	if err != nil {
		p.log.WithError(err).WithField("collector", sc.c.Name()).Warn("failed to marshal facts")
		return
	}
	fs := frameset.New(frameset.MsgDiscovery, 0)
	fs.Append(frame.NewCstring(frame.TypeDiscoveryName, sc.c.Name()))
	fs.Append(frame.NewBlob(frame.TypeDiscoveryJSON, body))
	if send != nil {
		if err := send(fs); err != nil {
			p.log.WithError(err).WithField("collector", sc.c.Name()).Warn("failed to publish discovery frameset")
		}
	}
}

// HandleTick dispatches one reactor tick to its collector, then
// reschedules. send is looked up by the caller per-collector since the
// destination (a CMA endpoint, typically) rarely changes between ticks.
func (p *Publisher) HandleTick(name string, send Send) {
	p.mu.Lock()
	sc, ok := p.collectors[name]
	if !ok || !sc.running {
		p.mu.Unlock()
		return
	}
	p.runCollectorLocked(sc, send)
	sc.timer = p.reactor.ScheduleAfter(sc.c.Interval(), tickPayload{p: p, name: name})
	p.mu.Unlock()
}
