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
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/metrics"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
	"github.com/assimilation/assimilation-official-sub001/netio"
	"github.com/assimilation/assimilation-official-sub001/reactor"
)

// testMetrics is constructed once for the whole package: promauto panics on
// a second registration of the same metric name, so every test must share
// one *metrics.Transport rather than letting New default a fresh one.
var testMetrics = metrics.NewTransport()

// fakeNetIO records every frameset handed to SendFrameSets without touching
// a real socket, so the state machine can be driven deterministically.
type fakeNetIO struct {
	mu   sync.Mutex
	sent []*frameset.FrameSet
}

func (f *fakeNetIO) Bind(netaddr.NetAddr) error       { return nil }
func (f *fakeNetIO) MaxPacketSize() int               { return 64 * 1024 }
func (f *fakeNetIO) SetMaxPacketSize(int)             {}
func (f *fakeNetIO) OutboundConfig() netio.OutboundConfig       { return netio.OutboundConfig{} }
func (f *fakeNetIO) SetOutboundConfig(netio.OutboundConfig)     {}
func (f *fakeNetIO) Close() error                     { return nil }
func (f *fakeNetIO) RecvFrameSets() ([]*frameset.FrameSet, netaddr.NetAddr, error) {
	return nil, netaddr.NetAddr{}, nil
}
func (f *fakeNetIO) SendFrameSets(dest netaddr.NetAddr, sets []*frameset.FrameSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sets...)
	return nil
}
func (f *fakeNetIO) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testEndpoint(port uint16) netaddr.NetAddr {
	a, err := netaddr.FromIP(net.ParseIP("127.0.0.1"), port)
	if err != nil {
		panic(err)
	}
	return a
}

func newTestProtocol(io *fakeNetIO, cb Callbacks) *FsProtocol {
	cfg := Config{WindowSize: 7, RetransmitInterval: time.Hour, AckTimeout: time.Hour}
	return New(reactor.New(), io, cfg, cb, nil, testMetrics)
}

func TestSendAssignsIncreasingRequestIDs(t *testing.T) {
	io := &fakeNetIO{}
	p := newTestProtocol(io, Callbacks{})
	peer := testEndpoint(9000)

	for i := 0; i < 3; i++ {
		fs := frameset.New(100, 0)
		require.NoError(t, p.Send(peer, 1, fs))
	}
	elem := p.conns[keyOf(peer, 1)]
	require.Equal(t, uint64(4), elem.NextRequestID)
	require.Equal(t, 3, io.sentCount())
}

func TestHandleSequencedDeliversInOrderAndAcks(t *testing.T) {
	io := &fakeNetIO{}
	var delivered []uint64
	p := newTestProtocol(io, Callbacks{
		Deliver: func(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16) {
			delivered = append(delivered, fs.Seqno().RequestID())
		},
	})
	peer := testEndpoint(9001)

	send := func(reqID uint64) {
		fs := frameset.New(200, 0)
		fs.Append(frame.NewSeqno(frame.TypeSeqno, 77, reqID, 1))
		p.HandleFrameSet(fs, peer)
	}

	// Out-of-order arrival: 2 before 1.
	send(2)
	require.Empty(t, delivered)
	send(1)
	require.Equal(t, []uint64{1, 2}, delivered)

	// An ACK should have gone out for the cumulative high-water mark.
	require.GreaterOrEqual(t, io.sentCount(), 1)
}

func TestHandleSequencedDuplicateIsSuppressed(t *testing.T) {
	io := &fakeNetIO{}
	var delivered int
	p := newTestProtocol(io, Callbacks{
		Deliver: func(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16) {
			delivered++
		},
	})
	peer := testEndpoint(9002)

	fs1 := frameset.New(200, 0)
	fs1.Append(frame.NewSeqno(frame.TypeSeqno, 55, 1, 1))
	p.HandleFrameSet(fs1, peer)
	require.Equal(t, 1, delivered)

	// Re-deliver request_id 1: must not be handed to the application again,
	// but still needs an ack resent for the peer's benefit.
	fs1dup := frameset.New(200, 0)
	fs1dup.Append(frame.NewSeqno(frame.TypeSeqno, 55, 1, 1))
	before := io.sentCount()
	p.HandleFrameSet(fs1dup, peer)
	require.Equal(t, 1, delivered)
	require.Greater(t, io.sentCount(), before)
}

func TestHandleSequencedSessionMismatchSendsConnNak(t *testing.T) {
	io := &fakeNetIO{}
	p := newTestProtocol(io, Callbacks{})
	peer := testEndpoint(9003)

	fs1 := frameset.New(200, 0)
	fs1.Append(frame.NewSeqno(frame.TypeSeqno, 55, 1, 1))
	p.HandleFrameSet(fs1, peer)

	elem := p.conns[keyOf(peer, 1)]
	require.Equal(t, StateInit, elem.State)

	// A later frameset on the same connection claiming a different
	// session_id must reset the connection and provoke a CONN_NAK.
	before := io.sentCount()
	fs2 := frameset.New(200, 0)
	fs2.Append(frame.NewSeqno(frame.TypeSeqno, 999, 2, 1))
	p.HandleFrameSet(fs2, peer)

	require.Greater(t, io.sentCount(), before)
	naked := io.sent[len(io.sent)-1]
	require.Equal(t, frameset.MsgConnNak, naked.Type)

	elem = p.conns[keyOf(peer, 1)]
	require.Equal(t, StateNone, elem.State)
}

func TestOnRetransmitTimerResendsWindowAndBreaksOnTimeout(t *testing.T) {
	io := &fakeNetIO{}
	var broken bool
	p := newTestProtocol(io, Callbacks{
		ConnectionBroken: func(endpoint netaddr.NetAddr, queueID uint16) { broken = true },
	})
	peer := testEndpoint(9004)
	fs := frameset.New(100, 0)
	require.NoError(t, p.Send(peer, 1, fs))
	key := keyOf(peer, 1)

	sentBefore := io.sentCount()
	p.onRetransmitTimer(key)
	require.Greater(t, io.sentCount(), sentBefore)
	require.Contains(t, p.conns, key)

	// Force the ack-timeout branch by backdating the oldest-pending send.
	elem := p.conns[key]
	elem.oldestPendingSent = time.Now().Add(-24 * time.Hour)
	p.onRetransmitTimer(key)
	require.True(t, broken)
	require.NotContains(t, p.conns, key)
}
