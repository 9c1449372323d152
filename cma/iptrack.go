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

import "time"

// addrTracker predicts this host's externally-visible endpoint from
// SETCONFIG statements the CMA (and, in a multi-homed deployment, more than
// one CMA replica) has made about it, the way the teacher's IPTracker
// predicts a node's NAT-visible address from peer statements.
type addrTracker struct {
	window        time.Duration
	minStatements int
	statements    map[string]ipStatement
}

type ipStatement struct {
	endpoint string
	time     time.Time
}

func newAddrTracker(window time.Duration, minStatements int) *addrTracker {
	return &addrTracker{
		window:        window,
		minStatements: minStatements,
		statements:    make(map[string]ipStatement),
	}
}

// addStatement records that source claimed our endpoint is endpoint.
func (t *addrTracker) addStatement(source, endpoint string) {
	t.statements[source] = ipStatement{endpoint: endpoint, time: time.Now()}
}

// predict returns the endpoint with the most corroborating statements, once
// more than minStatements agree, or "" if no endpoint has reached quorum.
func (t *addrTracker) predict() string {
	t.gc()
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, s := range t.statements {
		c := counts[s.endpoint] + 1
		counts[s.endpoint] = c
		if c > bestCount && c > t.minStatements {
			best, bestCount = s.endpoint, c
		}
	}
	return best
}

func (t *addrTracker) gc() {
	cutoff := time.Now().Add(-t.window)
	for source, s := range t.statements {
		if s.time.Before(cutoff) {
			delete(t.statements, source)
		}
	}
}
