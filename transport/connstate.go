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
	"time"

	"github.com/assimilation/assimilation-official-sub001/netaddr"
	"github.com/assimilation/assimilation-official-sub001/reactor"
)

// ConnState is the connection lifecycle of §4.7.
type ConnState int

const (
	StateNone ConnState = iota
	StateInit
	StateUp
	StateShut1
	StateShut2
	StateShut3
)

func (s ConnState) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateInit:
		return "INIT"
	case StateUp:
		return "UP"
	case StateShut1:
		return "SHUT1"
	case StateShut2:
		return "SHUT2"
	case StateShut3:
		return "SHUT3"
	default:
		return "UNKNOWN"
	}
}

// IsShutdown reports FSPR_ISSHUTDOWN(state): state >= SHUT1. No new
// application framesets may be accepted for send once true.
func (s ConnState) IsShutdown() bool { return s >= StateShut1 }

// FsProtoElem is per-(endpoint, queue_id) connection state: §3.
type FsProtoElem struct {
	Endpoint  netaddr.NetAddr
	QueueID   uint16
	SessionID uint32
	State     ConnState

	OutQueue *FsQueue
	InQueue  *FsQueue

	// NextRequestID is the request_id this side will assign to the next
	// outbound frameset on this connection; it starts at 1.
	NextRequestID uint64
	// ExpectedNext is the request_id this side next expects from the
	// peer; it starts at 1.
	ExpectedNext uint64
	// LastAckRecv is the highest cumulative request_id the peer has
	// acknowledged on our outbound stream.
	LastAckRecv uint64

	retransmitTimer   reactor.TimerID
	hasRetransmit     bool
	oldestPendingSent time.Time
}

func newElem(endpoint netaddr.NetAddr, queueID uint16, sessionID uint32) *FsProtoElem {
	return &FsProtoElem{
		Endpoint:      endpoint,
		QueueID:       queueID,
		SessionID:     sessionID,
		State:         StateNone,
		OutQueue:      NewFsQueue(),
		InQueue:       NewFsQueue(),
		NextRequestID: 1,
		ExpectedNext:  1,
	}
}
