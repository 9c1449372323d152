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

// Package netio implements the abstract datagram transport of §4.6: bind,
// send a frameset list as one datagram, receive-and-decode, and the current
// signing/encryption/compression configuration stamped onto every outbound
// packet.
package netio

import (
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/assimilation/assimilation-official-sub001/decoder"
	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/metrics"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
)

// OutboundConfig is the "current signing / encryption / compression" state
// NetIO stamps onto every packet it sends. Accessors return a copy so
// callers may hand it to a goroutine-unsafe construct call freely.
type OutboundConfig struct {
	Signer     frameset.Signer
	Cipher     frameset.Cipher
	Compressor frameset.Compressor
}

// NetIO is the abstract datagram transport contract of §4.6.
type NetIO interface {
	Bind(addr netaddr.NetAddr) error
	MaxPacketSize() int
	SetMaxPacketSize(n int)
	SendFrameSets(dest netaddr.NetAddr, sets []*frameset.FrameSet) error
	RecvFrameSets() ([]*frameset.FrameSet, netaddr.NetAddr, error)
	OutboundConfig() OutboundConfig
	SetOutboundConfig(cfg OutboundConfig)
	Close() error
}

// UDPIO is the UDP specialization: an IPv6-dual-stack, non-blocking UDP
// socket whose handle is released when the object is closed.
type UDPIO struct {
	conn       *net.UDPConn
	maxPktSize int
	cfg        OutboundConfig
	decoder    *decoder.PacketDecoder
	log        *logrus.Entry
	metrics    *metrics.Transport
}

// NewUDPIO returns a UDPIO using dec to decode inbound datagrams. m may be
// shared with a transport.FsProtocol so the two sides' counters land on one
// Prometheus registration instead of panicking on a duplicate; a nil m
// calls metrics.NewTransport, which registers a new set with the default
// Prometheus registry.
func NewUDPIO(dec *decoder.PacketDecoder, log *logrus.Entry, m *metrics.Transport) *UDPIO {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if m == nil {
		m = metrics.NewTransport()
	}
	return &UDPIO{maxPktSize: 64 * 1024, decoder: dec, log: log.WithField("component", "netio"), metrics: m}
}

// Bind associates the socket with a local address. It always opens a
// dual-stack "udp" socket (not udp4/udp6) so IPv4-mapped peers and native
// IPv6 peers share one listener.
func (u *UDPIO) Bind(addr netaddr.NetAddr) error {
	port, _ := addr.Port()
	laddr := &net.UDPAddr{Port: int(port)}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("netio: bind: %w", err)
	}
	u.conn = conn
	return nil
}

func (u *UDPIO) MaxPacketSize() int      { return u.maxPktSize }
func (u *UDPIO) SetMaxPacketSize(n int)  { u.maxPktSize = n }
func (u *UDPIO) OutboundConfig() OutboundConfig { return u.cfg }
func (u *UDPIO) SetOutboundConfig(cfg OutboundConfig) { u.cfg = cfg }

// SendFrameSets stamps the current signing (and optional encryption and
// compression) configuration into each frameset's header, serializes them
// all, and emits the concatenation as one datagram. It is an error to call
// this before a signing identity has been configured.
func (u *UDPIO) SendFrameSets(dest netaddr.NetAddr, sets []*frameset.FrameSet) error {
	if u.cfg.Signer == nil {
		return fmt.Errorf("netio: send: no signing identity configured")
	}
	var pkt []byte
	for _, fs := range sets {
		b, err := fs.Construct(u.cfg.Signer, u.cfg.Cipher, u.cfg.Compressor)
		if err != nil {
			return fmt.Errorf("netio: construct: %w", err)
		}
		pkt = append(pkt, b...)
	}
	if len(pkt) > u.maxPktSize {
		return fmt.Errorf("netio: send: packet of %d bytes exceeds max %d", len(pkt), u.maxPktSize)
	}
	raddr := &net.UDPAddr{IP: addrToIP(dest), Port: int(mustPort(dest))}
	_, err := u.conn.WriteToUDP(pkt, raddr)
	return err
}

// RecvFrameSets reads one datagram, decodes it, and returns the frameset
// list and the sender's address. The first frameset that fails to parse or
// verify ends decoding (handled inside the decoder): framesets before it are
// returned, it and everything after it are dropped. A datagram that decodes
// to zero framesets is reported as a warning, not
// an error, so the reactor's poll loop keeps running.
func (u *UDPIO) RecvFrameSets() ([]*frameset.FrameSet, netaddr.NetAddr, error) {
	buf := make([]byte, u.maxPktSize)
	n, raddr, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, netaddr.NetAddr{}, err
	}
	src, err := netaddr.FromIP(raddr.IP, uint16(raddr.Port))
	if err != nil {
		return nil, netaddr.NetAddr{}, err
	}
	sets := u.decoder.Decode(buf, 0, n)
	if len(sets) == 0 {
		u.log.WithField("peer", src.String()).Warn("datagram decoded to zero framesets")
		u.metrics.DatagramsDropped.WithLabelValues(src.String()).Inc()
	}
	return sets, src, nil
}

// Close releases the OS socket handle.
func (u *UDPIO) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}

func addrToIP(a netaddr.NetAddr) net.IP { return net.IP(a.Body()) }

func mustPort(a netaddr.NetAddr) uint16 {
	p, _ := a.Port()
	return p
}
