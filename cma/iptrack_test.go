// Copyright 2018 The go-ethereum Authors
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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddrTrackerNeedsMoreThanMinStatementsToAgree(t *testing.T) {
	tr := newAddrTracker(time.Hour, 1)
	tr.addStatement("peerA", "203.0.113.1:7000")
	require.Equal(t, "", tr.predict())

	tr.addStatement("peerB", "203.0.113.1:7000")
	require.Equal(t, "203.0.113.1:7000", tr.predict())
}

func TestAddrTrackerPicksMostCorroboratedEndpoint(t *testing.T) {
	tr := newAddrTracker(time.Hour, 1)
	tr.addStatement("peerA", "10.0.0.1:1")
	tr.addStatement("peerB", "10.0.0.1:1")
	tr.addStatement("peerC", "10.0.0.2:1")
	require.Equal(t, "10.0.0.1:1", tr.predict())
}

func TestAddrTrackerExpiresOldStatements(t *testing.T) {
	tr := newAddrTracker(10*time.Millisecond, 0)
	tr.addStatement("peerA", "10.0.0.1:1")
	require.Equal(t, "10.0.0.1:1", tr.predict())

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, "", tr.predict())
}
