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

package frameset

// Message (frameset.Type) codes. These select application meaning, a
// different axis from the frame-type registry in package frame. The
// reliable-transport control messages (Ack/ConnShut/ConnNak) and the CMA
// handshake messages are interoperability-relevant within this codebase
// only — §6 does not fix their numeric values, so they live here rather
// than in the stable §6 frame-type table.
const (
	MsgHeartbeat    = uint16(1)
	MsgStartup      = uint16(2)
	MsgSetConfig    = uint16(3)
	MsgSendExpectHB = uint16(4)
	MsgSendHB       = uint16(5)
	MsgAck          = uint16(6)
	MsgConnShut     = uint16(7)
	MsgConnNak      = uint16(8)
	MsgDiscovery    = uint16(9)
)
