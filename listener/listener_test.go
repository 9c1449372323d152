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

package listener

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
)

func testPeer(t *testing.T) netaddr.NetAddr {
	t.Helper()
	a, err := netaddr.FromIP(net.ParseIP("127.0.0.1"), 5000)
	require.NoError(t, err)
	return a
}

func TestDispatchRoutesToRegisteredAction(t *testing.T) {
	l := New(false, nil)
	var got *frameset.FrameSet
	l.AddAction(42, func(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16) {
		got = fs
	})

	fs := frameset.New(42, 0)
	l.Dispatch(fs, testPeer(t), 0)
	require.Same(t, fs, got)
}

func TestDispatchDropsUnregisteredType(t *testing.T) {
	l := New(false, nil)
	called := false
	l.AddAction(1, func(*frameset.FrameSet, netaddr.NetAddr, uint16) { called = true })

	l.Dispatch(frameset.New(2, 0), testPeer(t), 0)
	require.False(t, called)
}

func TestRemoveActionStopsDispatch(t *testing.T) {
	l := New(false, nil)
	called := false
	l.AddAction(1, func(*frameset.FrameSet, netaddr.NetAddr, uint16) { called = true })
	l.RemoveAction(1)

	l.Dispatch(frameset.New(1, 0), testPeer(t), 0)
	require.False(t, called)
}

func TestAuthListenerRejectsWhenPolicyDenies(t *testing.T) {
	called := false
	al := NewAuth(false, func(from netaddr.NetAddr, fs *frameset.FrameSet, keyID string) bool {
		return keyID == "trusted"
	}, nil)
	al.AddAction(1, func(*frameset.FrameSet, netaddr.NetAddr, uint16) { called = true })

	al.DispatchAuth(frameset.New(1, 0), testPeer(t), 0, "untrusted")
	require.False(t, called)

	al.DispatchAuth(frameset.New(1, 0), testPeer(t), 0, "trusted")
	require.True(t, called)
}

func TestNewAuthWithNilPolicyRejectsEverything(t *testing.T) {
	called := false
	al := NewAuth(false, nil, nil)
	al.AddAction(1, func(*frameset.FrameSet, netaddr.NetAddr, uint16) { called = true })

	al.DispatchAuth(frameset.New(1, 0), testPeer(t), 0, "anything")
	require.False(t, called)
}
