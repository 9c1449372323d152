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

// Command nanoprobe is the wire-protocol agent: it binds a UDP socket,
// bootstraps against a CMA by multicast, and drives the reliable transport,
// heartbeat and discovery subsystems off one reactor loop.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/assimilation/assimilation-official-sub001/cma"
	"github.com/assimilation/assimilation-official-sub001/config"
	"github.com/assimilation/assimilation-official-sub001/decoder"
	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/heartbeat"
	"github.com/assimilation/assimilation-official-sub001/keyring"
	"github.com/assimilation/assimilation-official-sub001/listener"
	"github.com/assimilation/assimilation-official-sub001/metrics"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
	"github.com/assimilation/assimilation-official-sub001/netio"
	"github.com/assimilation/assimilation-official-sub001/reactor"
	"github.com/assimilation/assimilation-official-sub001/transport"
)

var log = logrus.NewEntry(logrus.StandardLogger())

func main() {
	app := cli.NewApp()
	app.Name = "nanoprobe"
	app.Usage = "lightweight heartbeat and discovery agent"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "keydir", Usage: "directory holding <key_id>.{pub,priv} files", Value: "/etc/nanoprobe/keys"},
		cli.StringFlag{Name: "keyid", Usage: "local signing key identity", Value: "nanoprobe"},
		cli.UintFlag{Name: "port", Usage: "local UDP port", Value: cma.DefaultBootstrapPort},
		cli.StringFlag{Name: "cma", Usage: "CMA bootstrap address (host:port); default is the multicast rendezvous", Value: ""},
		cli.StringFlag{Name: "hostname", Usage: "hostname reported in STARTUP", Value: ""},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("nanoprobe exited with error")
	}
}

func run(ctx *cli.Context) error {
	keys, err := keyring.LoadDir(ctx.String("keydir"))
	if err != nil {
		return fmt.Errorf("loading key directory: %w", err)
	}
	keyID := ctx.String("keyid")
	if _, ok := keys.Lookup(keyID); !ok {
		return fmt.Errorf("key identity %q not found in %s", keyID, ctx.String("keydir"))
	}
	if err := keys.SetSigningIdentity(keyID); err != nil {
		return fmt.Errorf("selecting signing identity: %w", err)
	}

	reg := frame.NewRegistry()
	signer := &keyring.HMACSigner{Registry: keys}
	// HMACVerifier checks a signature against every key currently
	// registered for one identity; a deployment with more than one
	// trusted peer identity needs the decoder to pick the verifier by the
	// SignatureFrame's claimed key_id instead of a fixed identity here.
	verifier := &keyring.HMACVerifier{Registry: keys, Identity: keyID}

	dec := decoder.New(reg)
	dec.Crypto = &frameset.CryptoContext{Verifier: verifier}

	transportMetrics := metrics.NewTransport()

	r := reactor.New()
	io := netio.NewUDPIO(dec, log, transportMetrics)
	io.SetOutboundConfig(netio.OutboundConfig{Signer: signer})

	localAddr := netaddr.New(netaddr.FamilyIPv4, []byte{0, 0, 0, 0}).WithPort(uint16(ctx.Uint("port")))
	if err := io.Bind(localAddr); err != nil {
		return fmt.Errorf("binding UDP socket: %w", err)
	}
	defer io.Close()

	cfg := config.New()

	lst := listener.New(false, log)

	proto := transport.New(r, io, transport.Config{}, transport.Callbacks{
		Deliver: func(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16) {
			lst.Dispatch(fs, from, queueID)
		},
		ConnectionBroken: func(endpoint netaddr.NetAddr, queueID uint16) {
			log.WithField("peer", endpoint.String()).Warn("connection broken: ack timeout")
		},
	}, log, transportMetrics)

	bootstrap, err := cma.DefaultMulticastAddr()
	if err != nil {
		return err
	}
	if addr := ctx.String("cma"); addr != "" {
		bootstrap, err = netaddr.ParseHostPort(addr, cma.DefaultBootstrapPort)
		if err != nil {
			return fmt.Errorf("parsing --cma address: %w", err)
		}
	}

	var hbListener *heartbeat.HbListener
	client := cma.New(io, cfg, bootstrap, cma.Callbacks{
		OnConfigured: func(cfg *config.Store, canonical netaddr.NetAddr) {
			log.WithField("canonical", canonical.String()).Info("received SETCONFIG")
		},
		OnMonitoringStarted: func() {
			log.Info("heartbeat monitoring enabled")
			hbListener.StartScanning()
		},
	}, log)

	hbListener = heartbeat.NewListener(r, 30*time.Second, 10*time.Second, heartbeat.Callbacks{
		OnWarn: func(peer netaddr.NetAddr, howLate time.Duration) {
			log.WithField("peer", peer.String()).Warnf("heartbeat late by %s", howLate)
		},
		OnDead: func(peer netaddr.NetAddr) {
			log.WithField("peer", peer.String()).Error("peer declared dead")
		},
		OnComeAlive: func(peer netaddr.NetAddr, howLate time.Duration) {
			log.WithField("peer", peer.String()).Info("peer came back alive")
		},
		OnMartian: func(peer netaddr.NetAddr) {
			log.WithField("peer", peer.String()).Warn("heartbeat from unregistered peer")
		},
	}, nil, metrics.NewHeartbeat())

	lst.AddAction(frameset.MsgHeartbeat, func(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16) {
		hbListener.OnHeartbeat(from)
	})
	lst.AddAction(frameset.MsgSetConfig, func(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16) {
		client.HandleFrameSet(fs, from)
	})
	lst.AddAction(frameset.MsgSendExpectHB, func(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16) {
		client.HandleFrameSet(fs, from)
	})

	go runRecvLoop(r, io)

	hostname := ctx.String("hostname")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	if err := client.Start(hostname); err != nil {
		return fmt.Errorf("sending STARTUP: %w", err)
	}

	r.Run(func(e reactor.Event) {
		switch e.Kind {
		case reactor.KindDatagram:
			if in, ok := e.Payload.(inboundFrameSets); ok {
				for _, fs := range in.sets {
					proto.HandleFrameSet(fs, in.from)
				}
			}
		case reactor.KindTimer:
			proto.HandleEvent(e)
			heartbeat.HandleEvent(e)
		}
	})
	return nil
}

// inboundFrameSets is the decoded payload of one received datagram, posted
// to the reactor so dispatch happens on the single loop goroutine rather
// than the blocking receive goroutine below.
type inboundFrameSets struct {
	sets []*frameset.FrameSet
	from netaddr.NetAddr
}

// runRecvLoop blocks on io.RecvFrameSets and posts each decoded datagram to
// r; it never runs handler code itself, matching the reactor's contract
// that blocking I/O lives off the loop goroutine.
func runRecvLoop(r *reactor.Reactor, io netio.NetIO) {
	for {
		sets, from, err := io.RecvFrameSets()
		if err != nil {
			log.WithError(err).Warn("recv loop exiting")
			return
		}
		r.Post(reactor.Event{Kind: reactor.KindDatagram, Payload: inboundFrameSets{sets: sets, from: from}})
	}
}
