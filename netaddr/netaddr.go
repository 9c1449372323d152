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

// Package netaddr implements the polymorphic network address of §3: IPv4,
// IPv6, MAC48 and MAC64 bodies behind one equatable, hashable value with a
// canonical string form.
package netaddr

import (
	"encoding/binary"
	"fmt"
	"net"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/assimilation/assimilation-official-sub001/frame"
)

// stringCache memoizes NetAddr.String() by hash, since the canonical form
// is recomputed on every log line a hot path (heartbeat scans, retransmit
// warnings) emits.
var stringCache, _ = lru.New[uint64, string](4096)

// Family identifies which kind of address body a NetAddr carries.
type Family uint16

const (
	FamilyIPv4    Family = Family(frame.FamilyIPv4)
	FamilyIPv6    Family = Family(frame.FamilyIPv6)
	FamilyMAC48   Family = Family(frame.FamilyMAC48)
	FamilyMAC64   Family = Family(frame.FamilyMAC64)
	FamilyGeneric Family = 0
)

// NetAddr is an immutable (family, body, optional port) value. Two NetAddrs
// compare equal iff family, body and port are all equal — IPv4-mapped IPv6
// addresses are coerced to a canonical family before comparison so
// "::ffff:127.0.0.1" and "127.0.0.1" hash and compare equal once both carry
// the same port (S7).
type NetAddr struct {
	family Family
	body   []byte
	port   uint16
	hasPort bool
}

// New returns a NetAddr with no port set.
func New(family Family, body []byte) NetAddr {
	return NetAddr{family: family, body: append([]byte(nil), body...)}
}

// WithPort returns a copy of a carrying port p.
func (a NetAddr) WithPort(p uint16) NetAddr {
	a.port = p
	a.hasPort = true
	return a
}

// Family reports the address family.
func (a NetAddr) Family() Family { return a.family }

// Body returns the raw address bytes.
func (a NetAddr) Body() []byte { return a.body }

// Port returns the port and whether one was set.
func (a NetAddr) Port() (uint16, bool) { return a.port, a.hasPort }

// FromIP builds a NetAddr from a net.IP, coercing IPv4-in-IPv6-mapped
// addresses down to plain IPv4 so two textual spellings of the same host
// compare equal regardless of which family the caller started from.
func FromIP(ip net.IP, port uint16) (NetAddr, error) {
	if v4 := ip.To4(); v4 != nil {
		return New(FamilyIPv4, v4).WithPort(port), nil
	}
	if v6 := ip.To16(); v6 != nil {
		return New(FamilyIPv6, v6).WithPort(port), nil
	}
	return NetAddr{}, fmt.Errorf("netaddr: not a valid IP: %v", ip)
}

// ParseHostPort parses "host:port" (or a bare host) into a NetAddr,
// coercing the way FromIP does.
func ParseHostPort(hostport string, defaultPort uint16) (NetAddr, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	port := defaultPort
	if err != nil {
		host = hostport
	} else {
		var p int
		if _, err := fmt.Sscanf(portStr, "%d", &p); err != nil {
			return NetAddr{}, fmt.Errorf("netaddr: bad port %q", portStr)
		}
		port = uint16(p)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return NetAddr{}, fmt.Errorf("netaddr: unparsable host %q", host)
	}
	return FromIP(ip, port)
}

// MAC48 builds a NetAddr from a 6-byte hardware address.
func MAC48(addr net.HardwareAddr) (NetAddr, error) {
	if len(addr) != 6 {
		return NetAddr{}, fmt.Errorf("netaddr: MAC48 requires 6 bytes, got %d", len(addr))
	}
	return New(FamilyMAC48, addr), nil
}

// MAC64 builds a NetAddr from an 8-byte EUI-64 hardware address.
func MAC64(addr []byte) (NetAddr, error) {
	if len(addr) != 8 {
		return NetAddr{}, fmt.Errorf("netaddr: MAC64 requires 8 bytes, got %d", len(addr))
	}
	return New(FamilyMAC64, addr), nil
}

// Equal ignores no fields: family, body and port (when either side has one)
// must all match.
func (a NetAddr) Equal(b NetAddr) bool {
	if a.family != b.family || a.hasPort != b.hasPort || a.port != b.port {
		return false
	}
	if len(a.body) != len(b.body) {
		return false
	}
	for i := range a.body {
		if a.body[i] != b.body[i] {
			return false
		}
	}
	return true
}

// Hash folds family, body and port into a single uint64, uniform across
// address kinds.
func (a NetAddr) Hash() uint64 {
	h := uint64(14695981039346656037) // FNV-1a offset basis
	const prime = uint64(1099511628211)
	mix := func(b byte) {
		h ^= uint64(b)
		h *= prime
	}
	var fb [2]byte
	binary.BigEndian.PutUint16(fb[:], uint16(a.family))
	mix(fb[0])
	mix(fb[1])
	for _, b := range a.body {
		mix(b)
	}
	if a.hasPort {
		var pb [2]byte
		binary.BigEndian.PutUint16(pb[:], a.port)
		mix(pb[0])
		mix(pb[1])
	}
	return h
}

// String returns the canonical form: "[ipv6]:port", "ipv4:port", or
// "xx-xx-xx-xx-xx-xx" for MAC addresses (MACs never carry a port). The
// result is cached by Hash() — logging call sites (heartbeat scans,
// retransmit warnings) call this far more often than a NetAddr's fields
// change, and a hash collision only costs a wrong log line, not behavior.
func (a NetAddr) String() string {
	key := a.Hash()
	if s, ok := stringCache.Get(key); ok {
		return s
	}
	s := a.format()
	stringCache.Add(key, s)
	return s
}

func (a NetAddr) format() string {
	switch a.family {
	case FamilyIPv4:
		ip := net.IP(a.body).String()
		if a.hasPort {
			return fmt.Sprintf("%s:%d", ip, a.port)
		}
		return ip
	case FamilyIPv6:
		ip := net.IP(a.body).String()
		if a.hasPort {
			return fmt.Sprintf("[%s]:%d", ip, a.port)
		}
		return ip
	case FamilyMAC48, FamilyMAC64:
		out := ""
		for i, b := range a.body {
			if i > 0 {
				out += "-"
			}
			out += fmt.Sprintf("%02x", b)
		}
		return out
	default:
		return fmt.Sprintf("family(%d):%x", a.family, a.body)
	}
}

// ToFrame renders a as an AddressFrame or IPPortFrame of the given wire type.
func (a NetAddr) ToFrame(ftype uint16) frame.Frame {
	if a.hasPort {
		return frame.NewIPPort(ftype, uint16(a.family), a.port, a.body)
	}
	return frame.NewAddress(ftype, uint16(a.family), a.body)
}

// FromAddressFrame reconstructs a NetAddr from a decoded AddressFrame.
func FromAddressFrame(f *frame.AddressFrame) NetAddr {
	return New(Family(f.Family()), f.AddrBytes())
}

// FromIPPortFrame reconstructs a NetAddr from a decoded IPPortFrame.
func FromIPPortFrame(f *frame.IPPortFrame) NetAddr {
	return New(Family(f.Family()), f.AddrBytes()).WithPort(f.Port())
}
