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

package netio

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/assimilation/assimilation-official-sub001/decoder"
	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/keyring"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
)

func sharedSigningKey(t *testing.T) *keyring.KeyPair {
	t.Helper()
	kp, err := keyring.GenerateKeyPair("k1", "node-a")
	require.NoError(t, err)
	return kp
}

func loopback(t *testing.T, port uint16) netaddr.NetAddr {
	t.Helper()
	a, err := netaddr.FromIP(net.ParseIP("127.0.0.1"), port)
	require.NoError(t, err)
	return a
}

func TestUDPIORoundTripsSignedFrameSet(t *testing.T) {
	kp := sharedSigningKey(t)

	senderReg := keyring.NewRegistry()
	senderReg.Insert(kp)
	require.NoError(t, senderReg.SetSigningIdentity(kp.KeyID))

	recvReg := keyring.NewRegistry()
	recvReg.Insert(kp)

	dec := decoder.New(frame.NewRegistry())
	dec.Crypto = &frameset.CryptoContext{Verifier: &keyring.HMACVerifier{Registry: recvReg, Identity: kp.Identity}}

	server := NewUDPIO(dec, nil, nil)
	require.NoError(t, server.Bind(loopback(t, 0)))
	defer server.Close()

	serverAddr := server.conn.LocalAddr().(*net.UDPAddr)

	client := NewUDPIO(decoder.New(frame.NewRegistry()), nil, nil)
	require.NoError(t, client.Bind(loopback(t, 0)))
	defer client.Close()
	client.SetOutboundConfig(OutboundConfig{Signer: &keyring.HMACSigner{Registry: senderReg}})

	fs := frameset.New(frameset.MsgHeartbeat, 0)
	fs.Append(frame.NewCstring(frame.TypeHostname, "node-a"))

	dest, err := netaddr.FromIP(serverAddr.IP, uint16(serverAddr.Port))
	require.NoError(t, err)
	require.NoError(t, client.SendFrameSets(dest, []*frameset.FrameSet{fs}))

	require.NoError(t, server.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	sets, from, err := server.RecvFrameSets()
	require.NoError(t, err)
	require.Len(t, sets, 1)
	require.Equal(t, frameset.MsgHeartbeat, sets[0].Type)
	require.Equal(t, "127.0.0.1", net.IP(from.Body()).String())

	name, ok := sets[0].Find(frame.TypeHostname).(*frame.CstringFrame)
	require.True(t, ok)
	require.Equal(t, "node-a", name.String())
}

func TestUDPIOSendWithoutSignerFails(t *testing.T) {
	io := NewUDPIO(decoder.New(frame.NewRegistry()), nil, nil)
	require.NoError(t, io.Bind(loopback(t, 0)))
	defer io.Close()

	fs := frameset.New(frameset.MsgHeartbeat, 0)
	err := io.SendFrameSets(loopback(t, 9), []*frameset.FrameSet{fs})
	require.Error(t, err)
}

func TestUDPIORejectsOversizePacket(t *testing.T) {
	kp := sharedSigningKey(t)
	reg := keyring.NewRegistry()
	reg.Insert(kp)
	require.NoError(t, reg.SetSigningIdentity(kp.KeyID))

	io := NewUDPIO(decoder.New(frame.NewRegistry()), nil, nil)
	require.NoError(t, io.Bind(loopback(t, 0)))
	defer io.Close()
	io.SetMaxPacketSize(16)
	io.SetOutboundConfig(OutboundConfig{Signer: &keyring.HMACSigner{Registry: reg}})

	fs := frameset.New(frameset.MsgHeartbeat, 0)
	fs.Append(frame.NewCstring(frame.TypeHostname, "a much longer hostname than fits"))
	err := io.SendFrameSets(loopback(t, 9), []*frameset.FrameSet{fs})
	require.Error(t, err)
}
