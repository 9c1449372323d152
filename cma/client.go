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

// Package cma implements the nanoprobe side of the startup handshake
// described in the wire layer's multicast-bootstrap note: a multicast
// STARTUP broadcast to the well-known CMA rendezvous address, the
// CMA's SETCONFIG reply carrying canonical configuration and address, and
// the first SENDEXPECTHB that begins heartbeat emission and monitoring.
package cma

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/assimilation/assimilation-official-sub001/config"
	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
	"github.com/assimilation/assimilation-official-sub001/netio"
)

// DefaultBootstrapPort is the default UDP port for both multicast discovery
// of, and subsequent unicast exchange with, the CMA.
const DefaultBootstrapPort = 1984

// DefaultMulticastIP is the reserved IPv4 multicast address nanoprobe
// broadcasts its initial STARTUP to when no CMA address is otherwise known.
const DefaultMulticastIP = "224.0.2.5"

// Phase is this client's position in the startup handshake.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseStarted
	PhaseConfigured
	PhaseMonitoring
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "CONNECTING"
	case PhaseStarted:
		return "STARTED"
	case PhaseConfigured:
		return "CONFIGURED"
	case PhaseMonitoring:
		return "MONITORING"
	default:
		return "UNKNOWN"
	}
}

// Callbacks are invoked as the handshake advances.
type Callbacks struct {
	// OnConfigured fires once, when the first SETCONFIG is applied. cfg is
	// the now-current configuration; canonical is the address the CMA told
	// us to use going forward (the unicast replacement for the multicast
	// bootstrap address).
	OnConfigured func(cfg *config.Store, canonical netaddr.NetAddr)
	// OnMonitoringStarted fires once, on the first SENDEXPECTHB.
	OnMonitoringStarted func()
}

// DefaultMulticastAddr returns the well-known CMA rendezvous address.
func DefaultMulticastAddr() (netaddr.NetAddr, error) {
	ip := net.ParseIP(DefaultMulticastIP)
	if ip == nil {
		return netaddr.NetAddr{}, fmt.Errorf("cma: invalid builtin multicast address")
	}
	return netaddr.FromIP(ip, DefaultBootstrapPort)
}

// Client drives one nanoprobe's handshake against its CMA.
type Client struct {
	mu         sync.Mutex
	io         netio.NetIO
	cfg        *config.Store
	tracker    *addrTracker
	phase      Phase
	cmaAddr    netaddr.NetAddr
	canonical  netaddr.NetAddr
	haveCanon  bool
	cb         Callbacks
	log        *logrus.Entry
}

// New returns a Client that will bootstrap against bootstrapAddr (typically
// DefaultMulticastAddr()) using cfg as the configuration store SETCONFIG
// replaces wholesale.
func New(io netio.NetIO, cfg *config.Store, bootstrapAddr netaddr.NetAddr, cb Callbacks, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		io:      io,
		cfg:     cfg,
		tracker: newAddrTracker(10*time.Minute, 1),
		cmaAddr: bootstrapAddr,
		cb:      cb,
		log:     log.WithField("component", "cma"),
	}
}

// Start emits the initial STARTUP frameset to the configured CMA address —
// the multicast rendezvous address, unless a prior SETCONFIG already gave
// us a canonical unicast address to use instead.
func (c *Client) Start(localHostname string) error {
	c.mu.Lock()
	dest := c.cmaAddr
	if c.haveCanon {
		dest = c.canonical
	}
	c.phase = PhaseStarted
	c.mu.Unlock()

	fs := frameset.New(frameset.MsgStartup, 0)
	fs.Append(frame.NewCstring(frame.TypeHostname, localHostname))
	if err := c.io.SendFrameSets(dest, []*frameset.FrameSet{fs}); err != nil {
		return fmt.Errorf("cma: startup: %w", err)
	}
	return nil
}

// HandleFrameSet processes one frameset received from the CMA. Anything
// other than SETCONFIG/SENDEXPECTHB is ignored — those belong to
// whichever Listener action map the caller wired up separately.
func (c *Client) HandleFrameSet(fs *frameset.FrameSet, from netaddr.NetAddr) {
	switch fs.Type {
	case frameset.MsgSetConfig:
		c.handleSetConfig(fs, from)
	case frameset.MsgSendExpectHB:
		c.handleSendExpectHB()
	}
}

func (c *Client) handleSetConfig(fs *frameset.FrameSet, from netaddr.NetAddr) {
	var body []byte
	if blob, ok := fs.Find(frame.TypeDiscoveryJSON).(*frame.BlobFrame); ok {
		body = blob.Value()
	}
	if body != nil {
		if err := c.cfg.ReplaceFromJSON(body); err != nil {
			c.log.WithError(err).Warn("SETCONFIG carried malformed configuration, ignoring")
			return
		}
	}

	canonical := from
	if ipp, ok := fs.Find(frame.TypeIPPort).(*frame.IPPortFrame); ok {
		canonical = netaddr.FromIPPortFrame(ipp)
	}
	c.tracker.addStatement(from.String(), canonical.String())

	c.mu.Lock()
	firstTime := c.phase < PhaseConfigured
	c.phase = PhaseConfigured
	c.canonical = canonical
	c.haveCanon = true
	c.mu.Unlock()

	if firstTime && c.cb.OnConfigured != nil {
		c.cb.OnConfigured(c.cfg, canonical)
	}
}

func (c *Client) handleSendExpectHB() {
	c.mu.Lock()
	firstTime := c.phase < PhaseMonitoring
	c.phase = PhaseMonitoring
	c.mu.Unlock()

	if firstTime && c.cb.OnMonitoringStarted != nil {
		c.cb.OnMonitoringStarted()
	}
}

// CurrentPhase reports this client's position in the handshake.
func (c *Client) CurrentPhase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// CanonicalAddr returns the address the CMA told us to use, and whether
// one has been received yet.
func (c *Client) CanonicalAddr() (netaddr.NetAddr, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canonical, c.haveCanon
}
