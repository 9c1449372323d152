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

// Package decoder implements PacketDecoder (§4.5): a thin adapter that
// turns one datagram into the ordered list of framesets it contains.
package decoder

import (
	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/frameset"
)

// PacketDecoder holds the frame-type registry and, when configured, the
// crypto context used to verify/decrypt incoming framesets.
type PacketDecoder struct {
	Registry *frame.Registry
	Crypto   *frameset.CryptoContext
}

// New returns a PacketDecoder using reg for frame dispatch.
func New(reg *frame.Registry) *PacketDecoder {
	return &PacketDecoder{Registry: reg}
}

// Decode walks pkt from start to end, decoding as many framesets as parse
// cleanly. The first frameset that fails to parse — malformed header,
// ordering violation, failed signature or decryption — truncates the
// result: everything decoded before it is still returned, nothing after.
func (d *PacketDecoder) Decode(pkt []byte, start, end int) []*frameset.FrameSet {
	var out []*frameset.FrameSet
	ptr := start
	for ptr < end {
		fs, next, err := frameset.ParseOne(pkt, ptr, end, d.Registry, d.Crypto)
		if err != nil {
			break
		}
		out = append(out, fs)
		if next <= ptr {
			break
		}
		ptr = next
	}
	return out
}
