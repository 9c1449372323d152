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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressFrameRoundTripIPv4(t *testing.T) {
	f := NewAddress(TypeIPAddr, FamilyIPv4, []byte{10, 0, 0, 1})
	decoded := roundTrip(t, f)
	a, ok := decoded.(*AddressFrame)
	require.True(t, ok)
	require.Equal(t, FamilyIPv4, a.Family())
	require.Equal(t, []byte{10, 0, 0, 1}, a.AddrBytes())
}

func TestAddressFrameRejectsWrongLengthForKnownFamily(t *testing.T) {
	require.False(t, validAddressValue([]byte{0, 2, 1, 2, 3})) // IPv4 needs 4 bytes, got 3
}

func TestAddressFrameAcceptsUnknownFamilyWithinBounds(t *testing.T) {
	v := make([]byte, 10)
	v[1] = 0xaa // unknown family code
	require.True(t, validAddressValue(v))
	require.False(t, validAddressValue(make([]byte, 3)))
}

func TestIPPortFrameRoundTripIPv6(t *testing.T) {
	addr := make([]byte, 16)
	addr[15] = 1
	f := NewIPPort(TypeIPPort, FamilyIPv6, 8472, addr)
	decoded := roundTrip(t, f)
	p, ok := decoded.(*IPPortFrame)
	require.True(t, ok)
	require.Equal(t, FamilyIPv6, p.Family())
	require.Equal(t, uint16(8472), p.Port())
	require.Equal(t, addr, p.AddrBytes())
}

func TestIPPortFrameRejectsTruncatedValue(t *testing.T) {
	require.False(t, validIPPortValue([]byte{0, 1, 2}))
}

func TestSeqnoFrameRoundTrip(t *testing.T) {
	f := NewSeqno(TypeSeqno, 42, 7, 3)
	decoded := roundTrip(t, f)
	s, ok := decoded.(*SeqnoFrame)
	require.True(t, ok)
	require.Equal(t, uint32(42), s.SessionID())
	require.Equal(t, uint64(7), s.RequestID())
	require.Equal(t, uint16(3), s.QueueID())
}

func TestSeqnoFrameEqualAndLess(t *testing.T) {
	a := NewSeqno(TypeSeqno, 1, 5, 0)
	b := NewSeqno(TypeSeqno, 1, 5, 0)
	c := NewSeqno(TypeSeqno, 1, 6, 0)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.True(t, a.Less(c))
	require.False(t, c.Less(a))
}

func TestUnmarshalSeqnoRejectsWrongValueLength(t *testing.T) {
	short := NewBlob(TypeSeqno, []byte{1, 2, 3})
	buf := make([]byte, short.DataSpace())
	_, ok := short.WriteTo(buf, 0, len(buf))
	require.True(t, ok)
	_, err := unmarshalSeqno(buf, 0, len(buf))
	require.Error(t, err)
}
