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

// Package tlv implements bounds-safe big-endian integer access against a
// (buffer, end) pair, the primitive layer every frame variant and the
// generic TLV walker are built on. Every accessor takes the index one past
// the last readable byte explicitly, rather than trusting len(buf), because
// callers frequently hand it a sub-slice view bounded by a frameset's
// body_len rather than the physical end of the underlying datagram buffer.
package tlv

import "encoding/binary"

// Sentinel values returned on a bounds violation, matching the source's
// TLV_BAD* constants.
const (
	BadU8  uint8  = 0xff
	BadU16 uint16 = 0xffff
	BadU24 uint32 = 0xffffff
	BadU32 uint32 = 0xffffffff
)

// BadU64 is the sentinel for a failed 64-bit read.
var BadU64 uint64 = 0xffffffffffffffff

func fits(buf []byte, ptr, end, width int) bool {
	if ptr < 0 || width < 0 || end < 0 {
		return false
	}
	if ptr+width > end {
		return false
	}
	return ptr+width <= len(buf)
}

// GetU8 reads one byte at ptr, failing if ptr >= end.
func GetU8(buf []byte, ptr, end int) (uint8, bool) {
	if !fits(buf, ptr, end, 1) {
		return BadU8, false
	}
	return buf[ptr], true
}

// SetU8 writes one byte at ptr, failing if ptr >= end.
func SetU8(buf []byte, ptr, end int, v uint8) bool {
	if !fits(buf, ptr, end, 1) {
		return false
	}
	buf[ptr] = v
	return true
}

// GetU16 reads a big-endian 16-bit integer at ptr.
func GetU16(buf []byte, ptr, end int) (uint16, bool) {
	if !fits(buf, ptr, end, 2) {
		return BadU16, false
	}
	return binary.BigEndian.Uint16(buf[ptr:]), true
}

// SetU16 writes a big-endian 16-bit integer at ptr.
func SetU16(buf []byte, ptr, end int, v uint16) bool {
	if !fits(buf, ptr, end, 2) {
		return false
	}
	binary.BigEndian.PutUint16(buf[ptr:], v)
	return true
}

// GetU24 reads a big-endian 24-bit integer: a high byte followed by a
// 16-bit big-endian lower half, per §4.1 of the wire spec.
func GetU24(buf []byte, ptr, end int) (uint32, bool) {
	if !fits(buf, ptr, end, 3) {
		return BadU24, false
	}
	hi := uint32(buf[ptr])
	lo := binary.BigEndian.Uint16(buf[ptr+1:])
	return hi<<16 | uint32(lo), true
}

// SetU24 writes a big-endian 24-bit integer at ptr.
func SetU24(buf []byte, ptr, end int, v uint32) bool {
	if !fits(buf, ptr, end, 3) || v > 0xffffff {
		return false
	}
	buf[ptr] = byte(v >> 16)
	binary.BigEndian.PutUint16(buf[ptr+1:], uint16(v))
	return true
}

// GetU32 reads a big-endian 32-bit integer at ptr.
func GetU32(buf []byte, ptr, end int) (uint32, bool) {
	if !fits(buf, ptr, end, 4) {
		return BadU32, false
	}
	return binary.BigEndian.Uint32(buf[ptr:]), true
}

// SetU32 writes a big-endian 32-bit integer at ptr.
func SetU32(buf []byte, ptr, end int, v uint32) bool {
	if !fits(buf, ptr, end, 4) {
		return false
	}
	binary.BigEndian.PutUint32(buf[ptr:], v)
	return true
}

// GetU64 reads a big-endian 64-bit integer at ptr.
func GetU64(buf []byte, ptr, end int) (uint64, bool) {
	if !fits(buf, ptr, end, 8) {
		return BadU64, false
	}
	return binary.BigEndian.Uint64(buf[ptr:]), true
}

// SetU64 writes a big-endian 64-bit integer at ptr.
func SetU64(buf []byte, ptr, end int, v uint64) bool {
	if !fits(buf, ptr, end, 8) {
		return false
	}
	binary.BigEndian.PutUint64(buf[ptr:], v)
	return true
}

// GetUint reads a big-endian unsigned integer of the given width (1, 2, 3,
// 4 or 8 bytes), the shape every IntFrame variant needs regardless of its
// declared width.
func GetUint(buf []byte, ptr, end, width int) (uint64, bool) {
	switch width {
	case 1:
		v, ok := GetU8(buf, ptr, end)
		return uint64(v), ok
	case 2:
		v, ok := GetU16(buf, ptr, end)
		return uint64(v), ok
	case 3:
		v, ok := GetU24(buf, ptr, end)
		return uint64(v), ok
	case 4:
		v, ok := GetU32(buf, ptr, end)
		return uint64(v), ok
	case 8:
		return GetU64(buf, ptr, end)
	default:
		return BadU64, false
	}
}

// SetUint writes an unsigned integer of the given width in big-endian order.
func SetUint(buf []byte, ptr, end, width int, v uint64) bool {
	switch width {
	case 1:
		return SetU8(buf, ptr, end, uint8(v))
	case 2:
		return SetU16(buf, ptr, end, uint16(v))
	case 3:
		return SetU24(buf, ptr, end, uint32(v))
	case 4:
		return SetU32(buf, ptr, end, uint32(v))
	case 8:
		return SetU64(buf, ptr, end, v)
	default:
		return false
	}
}
