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

// Package frame implements the tagged-value frame variants of §3/§4.3: the
// atoms a FrameSet is built from. Each variant knows how to validate its own
// raw TLV, how much wire space it needs, and how to serialize itself; the
// registry in this package dispatches a frame-type code to the variant that
// owns it.
package frame

import (
	"sync/atomic"

	"github.com/assimilation/assimilation-official-sub001/internal/tlv"
	"github.com/assimilation/assimilation-official-sub001/internal/wire"
)

// Stable frame-type codes, §6.
const (
	TypeEndSentinel = uint16(0)
	TypeSignature   = uint16(1)
	TypeEncryption  = uint16(2)
	TypeCompression = uint16(3)
	TypeReqID       = uint16(4)
	TypeReplyID     = uint16(5)
	TypePacketData  = uint16(6)
	TypeWallclock   = uint16(7)
	TypeIfName      = uint16(8)
)

// Private-range codes: not interoperability-critical, may be renumbered
// across a major version per §6.
const (
	TypeIPAddr      = uint16(100)
	TypeIPPort      = uint16(101)
	TypeHBInterval  = uint16(102)
	TypeDeadtime    = uint16(103)
	TypeWarntime    = uint16(104)
	TypeParamName   = uint16(105)
	TypeParamValue  = uint16(106)
	TypeIntValue    = uint16(107)
	TypeSeqno       = uint16(108)
	TypeNVPair      = uint16(109)
	TypeHostname    = uint16(110)
	TypeDiscoveryName = uint16(111)
	TypeDiscoveryJSON = uint16(112)
)

// Frame is the shared behavior of every tagged value on the wire: how big
// it marshals to, whether a raw TLV is a well-formed instance of it, and
// how to write itself into a caller-supplied buffer.
type Frame interface {
	// Type returns the 16-bit wire type code.
	Type() uint16
	// Value returns the frame's raw value bytes (no header).
	Value() []byte
	// DataSpace returns the marshalled size: header(5) + len(Value()),
	// unless a variant overrides it.
	DataSpace() int
	// IsValid inspects the raw TLV at ptr (bounded by end) and reports
	// whether it is a well-formed instance of this variant.
	IsValid(buf []byte, ptr, end int) bool
	// WriteTo serializes type, length and value into buf starting at
	// offset, bounded by pktEnd, and returns the offset just past what
	// it wrote.
	WriteTo(buf []byte, offset, pktEnd int) (int, bool)
}

// UnmarshalFunc decodes one frame of a known type from a raw TLV region.
type UnmarshalFunc func(buf []byte, ptr, end int) (Frame, error)

// Ref is an embeddable reference count matching the source's
// assimobj.c shared-ownership model: a frame instance may be appended to
// several framesets at once, and is released back to its owner's release
// hook only when the last reference drops. Go's GC makes the hook
// vestigial for memory reclamation, but callers (notably the send queue)
// still use Retain/Release to know when it is safe to recycle a pooled
// buffer backing Value().
type Ref struct {
	count   atomic.Int32
	release func()
}

// NewRef returns a Ref with one outstanding reference and the given
// release hook, invoked exactly once when the count returns to zero.
func NewRef(release func()) *Ref {
	r := &Ref{release: release}
	r.count.Store(1)
	return r
}

// Retain increments the reference count.
func (r *Ref) Retain() {
	r.count.Add(1)
}

// Release decrements the reference count, invoking the release hook (if
// any) the instant it reaches zero.
func (r *Ref) Release() {
	if r.count.Add(-1) == 0 && r.release != nil {
		r.release()
	}
}

// baseFrame carries the fields common to every variant: its type code and
// raw value. Variants embed it and override WriteTo/IsValid/DataSpace as
// needed.
type baseFrame struct {
	ftype uint16
	value []byte
}

func (f *baseFrame) Type() uint16   { return f.ftype }
func (f *baseFrame) Value() []byte  { return f.value }
func (f *baseFrame) DataSpace() int { return wire.HeaderSize + len(f.value) }

// writeHeaderAndValue writes the registry's 5-byte {type:u16, length:u24}
// header (the generic TLV form, chosen over the compact 4-byte form so
// frames carrying raw packet captures or compressed payloads can exceed
// 65535 bytes) followed by value.
func writeHeaderAndValue(buf []byte, offset, pktEnd int, ftype uint16, value []byte) (int, bool) {
	if offset+wire.HeaderSize+len(value) > pktEnd || offset+wire.HeaderSize+len(value) > len(buf) {
		return 0, false
	}
	if !tlv.SetU16(buf, offset, pktEnd, ftype) {
		return 0, false
	}
	if !tlv.SetU24(buf, offset+2, pktEnd, uint32(len(value))) {
		return 0, false
	}
	n := copy(buf[offset+wire.HeaderSize:], value)
	if n != len(value) {
		return 0, false
	}
	return offset + wire.HeaderSize + len(value), true
}

func (f *baseFrame) WriteTo(buf []byte, offset, pktEnd int) (int, bool) {
	return writeHeaderAndValue(buf, offset, pktEnd, f.ftype, f.value)
}

// readHeader reads the 5-byte {type, length} header and returns the value
// slice view plus the offset just past the value.
func readHeader(buf []byte, ptr, end int) (ftype uint16, value []byte, next int, ok bool) {
	t, ok1 := wire.Type(buf, ptr, end)
	l, ok2 := wire.Len(buf, ptr, end)
	if !ok1 || !ok2 {
		return 0, nil, 0, false
	}
	valStart := wire.ValuePtr(ptr)
	valEnd := valStart + int(l)
	if valEnd > end {
		return 0, nil, 0, false
	}
	return t, buf[valStart:valEnd], valEnd, true
}
