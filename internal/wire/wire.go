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

// Package wire implements the generic, frame-type-agnostic TLV header walk
// described in §4.2: every frame on the wire is a 16-bit type, a 24-bit
// length, and that many value bytes. Nothing here knows what a frame type
// means; that is the frame package's job.
package wire

import "github.com/assimilation/assimilation-official-sub001/internal/tlv"

// HeaderSize is the on-wire size of a TLV header: 2 bytes of type, 3 bytes
// of length.
const HeaderSize = 5

// Type returns the 16-bit type code of the TLV at ptr.
func Type(buf []byte, ptr, end int) (uint16, bool) {
	return tlv.GetU16(buf, ptr, end)
}

// Len returns the 24-bit value length of the TLV at ptr.
func Len(buf []byte, ptr, end int) (uint32, bool) {
	return tlv.GetU24(buf, ptr+2, end)
}

// ValuePtr returns the offset of the first value byte of the TLV at ptr.
func ValuePtr(ptr int) int {
	return ptr + HeaderSize
}

// TotalSize returns header size + value length for the TLV at ptr, or false
// if the header itself doesn't fit or the declared length runs past end.
func TotalSize(buf []byte, ptr, end int) (int, bool) {
	if ptr+HeaderSize > end {
		return 0, false
	}
	l, ok := Len(buf, ptr, end)
	if !ok {
		return 0, false
	}
	total := HeaderSize + int(l)
	if ptr+total > end {
		return 0, false
	}
	return total, true
}

// First returns the offset of the first TLV in [start, end), which is
// always start itself provided a header fits.
func First(start, end int) (int, bool) {
	if start+HeaderSize > end {
		return 0, false
	}
	return start, true
}

// Next returns the offset of the TLV following the one at ptr.
func Next(buf []byte, ptr, end int) (int, bool) {
	total, ok := TotalSize(buf, ptr, end)
	if !ok {
		return 0, false
	}
	return ptr + total, true
}

// FindNextType scans forward from ptr for a TLV whose type equals want,
// stopping at end. It does not descend into nested structures.
func FindNextType(buf []byte, ptr, end int, want uint16) (int, bool) {
	for p := ptr; p < end; {
		t, ok := Type(buf, p, end)
		if !ok {
			return 0, false
		}
		if t == want {
			return p, true
		}
		next, ok := Next(buf, p, end)
		if !ok || next <= p {
			return 0, false
		}
		p = next
	}
	return 0, false
}

// IsValidTLVPacket walks every TLV from start to end, verifying that each
// one's header and declared value both fit strictly inside end. It does not
// validate frame-specific payload shape; that is each variant's IsValid.
func IsValidTLVPacket(buf []byte, start, end int) bool {
	for p := start; p < end; {
		total, ok := TotalSize(buf, p, end)
		if !ok || total <= 0 {
			return false
		}
		p += total
	}
	return true
}
