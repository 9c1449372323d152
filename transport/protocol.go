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

package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/metrics"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
	"github.com/assimilation/assimilation-official-sub001/netio"
	"github.com/assimilation/assimilation-official-sub001/reactor"
)

// Config tunes the retransmission and shutdown behavior of a FsProtocol.
// Zero-value fields are replaced with the spec's defaults by New.
type Config struct {
	WindowSize         int           // default 7
	RetransmitInterval time.Duration // default 2s
	AckTimeout         time.Duration // default 10x RetransmitInterval
}

func (c Config) withDefaults() Config {
	if c.WindowSize <= 0 {
		c.WindowSize = 7
	}
	if c.RetransmitInterval <= 0 {
		c.RetransmitInterval = 2 * time.Second
	}
	if c.AckTimeout <= 0 {
		c.AckTimeout = 10 * c.RetransmitInterval
	}
	return c
}

// Callbacks are the application hooks a FsProtocol drives.
type Callbacks struct {
	// Deliver is invoked, in request_id order, for every frameset this
	// connection hands to the application — including out-of-band
	// control framesets, which carry queueID 0.
	Deliver func(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16)
	// ConnectionBroken is invoked when an ACK is never received within
	// AckTimeout; the connection has already been reset to NONE.
	ConnectionBroken func(endpoint netaddr.NetAddr, queueID uint16)
}

type connKey struct {
	endpoint string
	queueID  uint16
}

func keyOf(addr netaddr.NetAddr, queueID uint16) connKey {
	return connKey{endpoint: addr.String(), queueID: queueID}
}

// FsProtocol is the reliable-transport manager: it owns every connection's
// FsProtoElem, drives retransmission off the shared reactor, and hands
// fully-ordered framesets to the application.
type FsProtocol struct {
	mu    sync.Mutex
	conns map[connKey]*FsProtoElem

	reactor *reactor.Reactor
	io      netio.NetIO
	cfg     Config
	cb      Callbacks
	log     *logrus.Entry
	metrics *metrics.Transport
}

type retransmitPayload struct{ key connKey }

// New returns a FsProtocol driven by r and sending through io. m is the
// shared metric set (see package metrics); callers that also instrument
// netio's drop counter must pass the same *metrics.Transport there so both
// sides increment one registration rather than panicking on a duplicate.
func New(r *reactor.Reactor, io netio.NetIO, cfg Config, cb Callbacks, log *logrus.Entry, m *metrics.Transport) *FsProtocol {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if m == nil {
		m = metrics.NewTransport()
	}
	return &FsProtocol{
		conns:   make(map[connKey]*FsProtoElem),
		reactor: r,
		io:      io,
		cfg:     cfg.withDefaults(),
		cb:      cb,
		log:     log.WithField("component", "transport"),
		metrics: m,
	}
}

func (p *FsProtocol) setState(elem *FsProtoElem, s ConnState) {
	elem.State = s
	p.metrics.ConnectionState.WithLabelValues(elem.Endpoint.String(), fmt.Sprint(elem.QueueID)).Set(float64(s))
}

func newSessionID() uint32 {
	u := uuid.New()
	var v uint32
	for _, b := range u[:4] {
		v = v<<8 | uint32(b)
	}
	if v == 0 {
		v = 1
	}
	return v
}

func (p *FsProtocol) getOrCreate(key connKey, endpoint netaddr.NetAddr, queueID uint16) *FsProtoElem {
	elem, ok := p.conns[key]
	if !ok {
		elem = newElem(endpoint, queueID, newSessionID())
		p.conns[key] = elem
	}
	return elem
}

// Send submits fs for reliable delivery to endpoint on queueID. A SeqnoFrame
// with this connection's session_id, the given queue_id, and the next
// request_id (starting at 1) is prepended to fs; Send does not check whether
// fs already carries a SeqnoFrame, and always adds a new one. The first
// transmission happens immediately; retransmission is driven by the
// reactor's timers.
func (p *FsProtocol) Send(endpoint netaddr.NetAddr, queueID uint16, fs *frameset.FrameSet) error {
	key := keyOf(endpoint, queueID)
	p.mu.Lock()
	elem := p.getOrCreate(key, endpoint, queueID)
	if elem.State.IsShutdown() {
		p.mu.Unlock()
		return fmt.Errorf("transport: connection %s/%d is shutting down", endpoint, queueID)
	}
	if elem.State == StateNone {
		p.setState(elem, StateInit)
	}
	reqID := elem.NextRequestID
	elem.NextRequestID++
	seq := frame.NewSeqno(frame.TypeSeqno, elem.SessionID, reqID, queueID)
	fs.PrependSeqno(seq)
	wasEmpty := elem.OutQueue.Len() == 0
	elem.OutQueue.Put(reqID, fs)
	if wasEmpty {
		elem.oldestPendingSent = time.Now()
	}
	p.mu.Unlock()

	if err := p.io.SendFrameSets(endpoint, []*frameset.FrameSet{fs}); err != nil {
		p.log.WithError(err).WithField("peer", endpoint.String()).Warn("send failed, will retransmit")
	}
	p.scheduleRetransmit(key, elem)
	return nil
}

func (p *FsProtocol) scheduleRetransmit(key connKey, elem *FsProtoElem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if elem.hasRetransmit {
		return
	}
	elem.hasRetransmit = true
	elem.retransmitTimer = p.reactor.ScheduleAfter(p.cfg.RetransmitInterval, retransmitPayload{key: key})
}

// HandleEvent processes one reactor.Event; wire it up as the handler
// passed to reactor.Reactor.Run.
func (p *FsProtocol) HandleEvent(e reactor.Event) {
	switch e.Kind {
	case reactor.KindTimer:
		if rp, ok := e.Payload.(retransmitPayload); ok {
			p.onRetransmitTimer(rp.key)
		}
	}
}

func (p *FsProtocol) onRetransmitTimer(key connKey) {
	p.mu.Lock()
	elem, ok := p.conns[key]
	if !ok {
		p.mu.Unlock()
		return
	}
	elem.hasRetransmit = false

	if elem.OutQueue.Len() > 0 && !elem.oldestPendingSent.IsZero() &&
		time.Since(elem.oldestPendingSent) > p.cfg.AckTimeout {
		endpoint, queueID := elem.Endpoint, elem.QueueID
		delete(p.conns, key)
		p.mu.Unlock()
		p.log.WithField("peer", endpoint.String()).Warn("ack timeout, connection broken")
		p.metrics.ConnectionsBroken.WithLabelValues(endpoint.String()).Inc()
		if p.cb.ConnectionBroken != nil {
			p.cb.ConnectionBroken(endpoint, queueID)
		}
		return
	}

	ceiling := elem.LastAckRecv + uint64(p.cfg.WindowSize)
	var toResend []*frameset.FrameSet
	for _, reqID := range elem.OutQueue.Pending() {
		if reqID > ceiling {
			break
		}
		if fs, ok := elem.OutQueue.Get(reqID); ok {
			toResend = append(toResend, fs)
		}
	}
	endpoint := elem.Endpoint
	stillPending := elem.OutQueue.Len() > 0
	p.mu.Unlock()

	for _, fs := range toResend {
		p.metrics.Retransmits.WithLabelValues(endpoint.String()).Inc()
		if err := p.io.SendFrameSets(endpoint, []*frameset.FrameSet{fs}); err != nil {
			p.log.WithError(err).WithField("peer", endpoint.String()).Warn("retransmit failed")
		}
	}
	if stillPending {
		p.scheduleRetransmit(key, elem)
	}
}

// HandleFrameSet routes one decoded frameset: control messages (ACK,
// CONNSHUT, CONN_NAK) are handled here directly; everything else goes
// through the per-connection ordering state machine, or straight to the
// application if it carries no SeqnoFrame at all (an out-of-band control
// frameset defined above the transport layer, e.g. a heartbeat).
func (p *FsProtocol) HandleFrameSet(fs *frameset.FrameSet, from netaddr.NetAddr) {
	switch fs.Type {
	case frameset.MsgAck:
		p.handleAck(fs, from)
		return
	case frameset.MsgConnShut:
		p.handleConnShut(fs, from)
		return
	case frameset.MsgConnNak:
		p.handleConnNak(fs, from)
		return
	}
	seq := fs.Seqno()
	if seq == nil {
		if p.cb.Deliver != nil {
			p.cb.Deliver(fs, from, 0)
		}
		return
	}
	p.handleSequenced(fs, seq, from)
}

func (p *FsProtocol) handleSequenced(fs *frameset.FrameSet, seq *frame.SeqnoFrame, from netaddr.NetAddr) {
	key := keyOf(from, seq.QueueID())
	p.mu.Lock()
	elem := p.getOrCreate(key, from, seq.QueueID())

	switch elem.State {
	case StateNone:
		if seq.RequestID() != 1 {
			p.mu.Unlock()
			p.sendConnNak(elem)
			return
		}
		elem.SessionID = seq.SessionID()
		elem.ExpectedNext = 1
		p.setState(elem, StateInit)
	default:
		if elem.SessionID != seq.SessionID() {
			p.setState(elem, StateNone)
			elem.SessionID = 0
			elem.ExpectedNext = 1
			p.mu.Unlock()
			p.sendConnNak(elem)
			return
		}
	}

	if seq.RequestID() < elem.ExpectedNext {
		ackN := elem.ExpectedNext - 1
		p.mu.Unlock()
		p.sendAck(elem, ackN)
		return
	}

	elem.InQueue.Put(seq.RequestID(), fs)
	var delivered []*frameset.FrameSet
	for {
		item, ok := elem.InQueue.Get(elem.ExpectedNext)
		if !ok {
			break
		}
		delivered = append(delivered, item)
		elem.InQueue.Delete(elem.ExpectedNext)
		elem.ExpectedNext++
	}
	if elem.State == StateInit && elem.ExpectedNext > 2 {
		p.setState(elem, StateUp)
	}
	ackN := elem.ExpectedNext - 1
	haveAck := ackN > 0
	queueID := seq.QueueID()
	p.mu.Unlock()

	for _, d := range delivered {
		if p.cb.Deliver != nil {
			p.cb.Deliver(d, from, queueID)
		}
	}
	if haveAck {
		p.sendAck(elem, ackN)
	}
}

func (p *FsProtocol) handleAck(fs *frameset.FrameSet, from netaddr.NetAddr) {
	seq := fs.Seqno()
	if seq == nil {
		return
	}
	key := keyOf(from, seq.QueueID())
	p.mu.Lock()
	elem, ok := p.conns[key]
	if !ok || elem.SessionID != seq.SessionID() {
		p.mu.Unlock()
		return
	}
	if seq.RequestID() > elem.LastAckRecv {
		elem.LastAckRecv = seq.RequestID()
	}
	elem.OutQueue.DeleteUpTo(elem.LastAckRecv)
	if elem.State == StateInit {
		p.setState(elem, StateUp)
	}
	if elem.OutQueue.Len() == 0 {
		elem.oldestPendingSent = time.Time{}
	}
	p.mu.Unlock()
	p.maybeFinishShutdown(elem)
}

// Shutdown initiates a graceful close of a connection: UP -> SHUT1, a
// CONNSHUT frameset is sent, and the state machine completes the handshake
// as the peer's CONNSHUT and final ACK arrive (or AckTimeout elapses).
func (p *FsProtocol) Shutdown(endpoint netaddr.NetAddr, queueID uint16) {
	key := keyOf(endpoint, queueID)
	p.mu.Lock()
	elem, ok := p.conns[key]
	if !ok || elem.State != StateUp {
		p.mu.Unlock()
		return
	}
	p.setState(elem, StateShut1)
	p.mu.Unlock()
	p.sendConnShut(elem)
}

func (p *FsProtocol) handleConnShut(fs *frameset.FrameSet, from netaddr.NetAddr) {
	seq := fs.Seqno()
	if seq == nil {
		return
	}
	key := keyOf(from, seq.QueueID())
	p.mu.Lock()
	elem, ok := p.conns[key]
	if !ok {
		p.mu.Unlock()
		return
	}
	replyNeeded := false
	switch elem.State {
	case StateUp:
		p.setState(elem, StateShut2)
		replyNeeded = true
	case StateShut1:
		p.setState(elem, StateShut3)
	}
	p.mu.Unlock()
	if replyNeeded {
		p.sendConnShut(elem)
		p.mu.Lock()
		p.setState(elem, StateShut3)
		p.mu.Unlock()
	}
	p.maybeFinishShutdown(elem)
}

func (p *FsProtocol) handleConnNak(fs *frameset.FrameSet, from netaddr.NetAddr) {
	seq := fs.Seqno()
	queueID := uint16(0)
	if seq != nil {
		queueID = seq.QueueID()
	}
	key := keyOf(from, queueID)
	p.mu.Lock()
	delete(p.conns, key)
	p.mu.Unlock()
}

func (p *FsProtocol) maybeFinishShutdown(elem *FsProtoElem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if elem.State == StateShut3 && elem.OutQueue.Len() == 0 {
		p.setState(elem, StateNone)
		delete(p.conns, keyOf(elem.Endpoint, elem.QueueID))
	}
}

func (p *FsProtocol) sendAck(elem *FsProtoElem, ackN uint64) {
	fs := frameset.New(frameset.MsgAck, 0)
	fs.Append(frame.NewSeqno(frame.TypeSeqno, elem.SessionID, ackN, elem.QueueID))
	if err := p.io.SendFrameSets(elem.Endpoint, []*frameset.FrameSet{fs}); err != nil {
		p.log.WithError(err).Warn("failed to send ack")
	}
}

func (p *FsProtocol) sendConnShut(elem *FsProtoElem) {
	fs := frameset.New(frameset.MsgConnShut, 0)
	fs.Append(frame.NewSeqno(frame.TypeSeqno, elem.SessionID, 0, elem.QueueID))
	if err := p.io.SendFrameSets(elem.Endpoint, []*frameset.FrameSet{fs}); err != nil {
		p.log.WithError(err).Warn("failed to send connshut")
	}
}

func (p *FsProtocol) sendConnNak(elem *FsProtoElem) {
	fs := frameset.New(frameset.MsgConnNak, 0)
	fs.Append(frame.NewSeqno(frame.TypeSeqno, elem.SessionID, 0, elem.QueueID))
	if err := p.io.SendFrameSets(elem.Endpoint, []*frameset.FrameSet{fs}); err != nil {
		p.log.WithError(err).Warn("failed to send conn_nak")
	}
}
