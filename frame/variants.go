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

package frame

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ---- BlobFrame: an opaque byte blob, e.g. raw captured packet data. ----

type BlobFrame struct{ baseFrame }

func NewBlob(ftype uint16, value []byte) *BlobFrame {
	return &BlobFrame{baseFrame{ftype: ftype, value: value}}
}

func (f *BlobFrame) IsValid(buf []byte, ptr, end int) bool {
	_, _, _, ok := readHeader(buf, ptr, end)
	return ok
}

func unmarshalBlob(buf []byte, ptr, end int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok {
		return nil, fmt.Errorf("frame: blob: truncated")
	}
	return NewBlob(t, append([]byte(nil), v...)), nil
}

// ---- CstringFrame: value must contain exactly one NUL, at the final position. ----

type CstringFrame struct{ baseFrame }

func NewCstring(ftype uint16, s string) *CstringFrame {
	return &CstringFrame{baseFrame{ftype: ftype, value: append([]byte(s), 0)}}
}

func (f *CstringFrame) String() string {
	if len(f.value) == 0 {
		return ""
	}
	return string(f.value[:len(f.value)-1])
}

func validCstringValue(v []byte) bool {
	if len(v) == 0 {
		return false
	}
	idx := bytes.IndexByte(v, 0)
	return idx == len(v)-1
}

func (f *CstringFrame) IsValid(buf []byte, ptr, end int) bool {
	_, v, _, ok := readHeader(buf, ptr, end)
	return ok && validCstringValue(v)
}

func unmarshalCstring(buf []byte, ptr, end int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok || !validCstringValue(v) {
		return nil, fmt.Errorf("frame: cstring: malformed value")
	}
	return &CstringFrame{baseFrame{ftype: t, value: append([]byte(nil), v...)}}, nil
}

// ---- NVpairFrame: "name\0value\0", exactly two NULs, one interior, one final. ----

type NVPairFrame struct{ baseFrame }

func NewNVPair(ftype uint16, name, value string) *NVPairFrame {
	v := append([]byte(name), 0)
	v = append(v, value...)
	v = append(v, 0)
	return &NVPairFrame{baseFrame{ftype: ftype, value: v}}
}

func (f *NVPairFrame) Name() string {
	idx := bytes.IndexByte(f.value, 0)
	if idx < 0 {
		return ""
	}
	return string(f.value[:idx])
}

func (f *NVPairFrame) ValueStr() string {
	idx := bytes.IndexByte(f.value, 0)
	if idx < 0 || idx+1 >= len(f.value) {
		return ""
	}
	return string(f.value[idx+1 : len(f.value)-1])
}

func validNVPairValue(v []byte) bool {
	if len(v) < 2 {
		return false
	}
	first := bytes.IndexByte(v, 0)
	if first < 0 || first == len(v)-1 {
		return false
	}
	last := bytes.LastIndexByte(v, 0)
	if last != len(v)-1 {
		return false
	}
	// exactly two NULs total
	return bytes.Count(v, []byte{0}) == 2
}

func (f *NVPairFrame) IsValid(buf []byte, ptr, end int) bool {
	_, v, _, ok := readHeader(buf, ptr, end)
	return ok && validNVPairValue(v)
}

func unmarshalNVPair(buf []byte, ptr, end int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok || !validNVPairValue(v) {
		return nil, fmt.Errorf("frame: nvpair: malformed value")
	}
	return &NVPairFrame{baseFrame{ftype: t, value: append([]byte(nil), v...)}}, nil
}

// ---- IntFrame: 1/2/3/4/8-byte big-endian unsigned integer. ----

type IntFrame struct {
	baseFrame
	width int
}

func NewInt(ftype uint16, width int, v uint64) *IntFrame {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return &IntFrame{baseFrame{ftype: ftype, value: buf[8-width:]}, width}
}

func (f *IntFrame) Uint() uint64 {
	var buf [8]byte
	copy(buf[8-f.width:], f.value)
	return binary.BigEndian.Uint64(buf[:])
}

func (f *IntFrame) IsValid(buf []byte, ptr, end int) bool {
	_, v, _, ok := readHeader(buf, ptr, end)
	return ok && len(v) == f.width
}

func unmarshalInt(buf []byte, ptr, end int, width int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok || len(v) != width {
		return nil, fmt.Errorf("frame: int: expected %d value bytes", width)
	}
	return &IntFrame{baseFrame{ftype: t, value: append([]byte(nil), v...)}, width}, nil
}

// ---- UnknownFrame: opaque, never valid for outbound use. ----

type UnknownFrame struct{ baseFrame }

func (f *UnknownFrame) IsValid(buf []byte, ptr, end int) bool { return false }

func unmarshalUnknown(buf []byte, ptr, end int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok {
		return nil, fmt.Errorf("frame: unknown: truncated")
	}
	return &UnknownFrame{baseFrame{ftype: t, value: append([]byte(nil), v...)}}, nil
}
