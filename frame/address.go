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
	"encoding/binary"
	"fmt"
)

// IANA-ish address family codes carried in AddressFrame/IPPortFrame values,
// ported from the source's address_family_numbers.h so the private range
// matches what netaddr expects.
const (
	FamilyIPv4  = uint16(2)
	FamilyIPv6  = uint16(10)
	FamilyMAC48 = uint16(65534)
	FamilyMAC64 = uint16(65535)
)

func addrBodyLen(family uint16) (int, bool) {
	switch family {
	case FamilyIPv4:
		return 4, true
	case FamilyIPv6:
		return 16, true
	case FamilyMAC48:
		return 6, true
	case FamilyMAC64:
		return 8, true
	default:
		return -1, false
	}
}

// ---- AddressFrame: 16-bit family + address bytes. ----

type AddressFrame struct{ baseFrame }

func NewAddress(ftype uint16, family uint16, addr []byte) *AddressFrame {
	v := make([]byte, 2+len(addr))
	binary.BigEndian.PutUint16(v, family)
	copy(v[2:], addr)
	return &AddressFrame{baseFrame{ftype: ftype, value: v}}
}

func (f *AddressFrame) Family() uint16 { return binary.BigEndian.Uint16(f.value) }
func (f *AddressFrame) AddrBytes() []byte {
	if len(f.value) < 2 {
		return nil
	}
	return f.value[2:]
}

func validAddressValue(v []byte) bool {
	if len(v) < 2 {
		return false
	}
	family := binary.BigEndian.Uint16(v)
	want, known := addrBodyLen(family)
	if known {
		return len(v) == 2+want
	}
	// other families accepted only if 6 <= total_length <= 34
	return len(v) >= 6 && len(v) <= 34
}

func (f *AddressFrame) IsValid(buf []byte, ptr, end int) bool {
	_, v, _, ok := readHeader(buf, ptr, end)
	return ok && validAddressValue(v)
}

func unmarshalAddress(buf []byte, ptr, end int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok || !validAddressValue(v) {
		return nil, fmt.Errorf("frame: address: malformed value")
	}
	return &AddressFrame{baseFrame{ftype: t, value: append([]byte(nil), v...)}}, nil
}

// ---- IPPortFrame: 16-bit family + 16-bit port + address bytes. ----

type IPPortFrame struct{ baseFrame }

func NewIPPort(ftype uint16, family, port uint16, addr []byte) *IPPortFrame {
	v := make([]byte, 4+len(addr))
	binary.BigEndian.PutUint16(v, family)
	binary.BigEndian.PutUint16(v[2:], port)
	copy(v[4:], addr)
	return &IPPortFrame{baseFrame{ftype: ftype, value: v}}
}

func (f *IPPortFrame) Family() uint16 { return binary.BigEndian.Uint16(f.value) }
func (f *IPPortFrame) Port() uint16   { return binary.BigEndian.Uint16(f.value[2:]) }
func (f *IPPortFrame) AddrBytes() []byte {
	if len(f.value) < 4 {
		return nil
	}
	return f.value[4:]
}

func validIPPortValue(v []byte) bool {
	if len(v) < 4 {
		return false
	}
	family := binary.BigEndian.Uint16(v)
	want, known := addrBodyLen(family)
	if known {
		return len(v) == 4+want
	}
	return len(v) >= 8 && len(v) <= 36
}

func (f *IPPortFrame) IsValid(buf []byte, ptr, end int) bool {
	_, v, _, ok := readHeader(buf, ptr, end)
	return ok && validIPPortValue(v)
}

func unmarshalIPPort(buf []byte, ptr, end int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok || !validIPPortValue(v) {
		return nil, fmt.Errorf("frame: ipport: malformed value")
	}
	return &IPPortFrame{baseFrame{ftype: t, value: append([]byte(nil), v...)}}, nil
}
