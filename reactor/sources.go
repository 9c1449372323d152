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

import "net"

// DatagramPayload is the KindDatagram event payload: exactly what was read,
// undecoded — decoding happens in the loop goroutine, not the reader.
type DatagramPayload struct {
	Data []byte
	From *net.UDPAddr
}

// RunUDPSource spawns the single goroutine that blocks on conn.ReadFromUDP
// and posts each datagram to r. It exits when conn is closed.
func RunUDPSource(r *Reactor, conn *net.UDPConn) {
	go func() {
		buf := make([]byte, 64*1024)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			cp := make([]byte, n)
			copy(cp, buf[:n])
			r.Post(Event{Kind: KindDatagram, Payload: DatagramPayload{Data: cp, From: addr}})
		}
	}()
}

// ChildOutputPayload is posted once per completed line of a child process's
// stdout or stderr, or once more at EOF carrying any trailing partial line.
type ChildOutputPayload struct {
	PID    int
	Stderr bool
	Line   string
	EOF    bool
}

// ChildExitPayload is posted exactly once per child process, after both of
// its output streams have reached EOF and Wait has returned.
type ChildExitPayload struct {
	PID    int
	Status ExitStatus
	Err    error
}

// ExitStatus mirrors the EXITED_* taxonomy of §7 for discovery child
// processes; the reliable transport never produces one of these.
type ExitStatus int

const (
	ExitedZero ExitStatus = iota
	ExitedNonzero
	ExitedSignal
	ExitedTimeout
	ExitedHung
)
