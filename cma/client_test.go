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

package cma

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assimilation/assimilation-official-sub001/config"
	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
	"github.com/assimilation/assimilation-official-sub001/netio"
)

type fakeIO struct{ sent []*frameset.FrameSet }

func (f *fakeIO) Bind(netaddr.NetAddr) error                          { return nil }
func (f *fakeIO) MaxPacketSize() int                                  { return 64 * 1024 }
func (f *fakeIO) SetMaxPacketSize(int)                                {}
func (f *fakeIO) OutboundConfig() netio.OutboundConfig                { return netio.OutboundConfig{} }
func (f *fakeIO) SetOutboundConfig(netio.OutboundConfig)              {}
func (f *fakeIO) Close() error                                        { return nil }
func (f *fakeIO) RecvFrameSets() ([]*frameset.FrameSet, netaddr.NetAddr, error) {
	return nil, netaddr.NetAddr{}, nil
}
func (f *fakeIO) SendFrameSets(dest netaddr.NetAddr, sets []*frameset.FrameSet) error {
	f.sent = append(f.sent, sets...)
	return nil
}

func testPeer(t *testing.T, port uint16) netaddr.NetAddr {
	t.Helper()
	a, err := netaddr.FromIP(net.ParseIP("198.51.100.1"), port)
	require.NoError(t, err)
	return a
}

func TestClientStartSendsStartupToBootstrapAddr(t *testing.T) {
	io := &fakeIO{}
	bootstrap := testPeer(t, 1984)
	c := New(io, config.New(), bootstrap, Callbacks{}, nil)

	require.NoError(t, c.Start("host-a"))
	require.Len(t, io.sent, 1)
	require.Equal(t, frameset.MsgStartup, io.sent[0].Type)
	require.Equal(t, PhaseStarted, c.CurrentPhase())
}

func TestHandleSetConfigAppliesConfigAndFiresOnConfiguredOnce(t *testing.T) {
	io := &fakeIO{}
	var configuredCount int
	var gotCanon netaddr.NetAddr
	c := New(io, config.New(), testPeer(t, 1984), Callbacks{
		OnConfigured: func(cfg *config.Store, canonical netaddr.NetAddr) {
			configuredCount++
			gotCanon = canonical
		},
	}, nil)

	from := testPeer(t, 7000)
	canon := testPeer(t, 9000)

	fs := frameset.New(frameset.MsgSetConfig, 0)
	fs.Append(frame.NewBlob(frame.TypeDiscoveryJSON, []byte(`{"deadtime":30}`)))
	fs.Append(canon.ToFrame(frame.TypeIPPort))
	c.HandleFrameSet(fs, from)

	require.Equal(t, PhaseConfigured, c.CurrentPhase())
	require.Equal(t, 1, configuredCount)
	require.Equal(t, canon.String(), gotCanon.String())

	got, ok := c.CanonicalAddr()
	require.True(t, ok)
	require.Equal(t, canon.String(), got.String())

	// A second SETCONFIG must not re-fire OnConfigured.
	fs2 := frameset.New(frameset.MsgSetConfig, 0)
	c.HandleFrameSet(fs2, from)
	require.Equal(t, 1, configuredCount)
}

func TestHandleSendExpectHBFiresOnMonitoringStartedOnce(t *testing.T) {
	io := &fakeIO{}
	var started int
	c := New(io, config.New(), testPeer(t, 1984), Callbacks{
		OnMonitoringStarted: func() { started++ },
	}, nil)

	fs := frameset.New(frameset.MsgSendExpectHB, 0)
	c.HandleFrameSet(fs, testPeer(t, 7000))
	c.HandleFrameSet(fs, testPeer(t, 7000))

	require.Equal(t, PhaseMonitoring, c.CurrentPhase())
	require.Equal(t, 1, started)
}
