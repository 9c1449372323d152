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

// Package metrics collects counters for the self-monitoring path the
// discovery framework can publish alongside its own collectors: no HTTP
// exposition endpoint is wired here, only the registry and the
// instrumented call sites.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transport holds the counters incremented by the reliable-transport
// manager.
type Transport struct {
	Retransmits       *prometheus.CounterVec
	ConnectionsBroken *prometheus.CounterVec
	DatagramsDropped  *prometheus.CounterVec
	ConnectionState   *prometheus.GaugeVec
}

// NewTransport registers and returns the transport metric set.
func NewTransport() *Transport {
	return &Transport{
		Retransmits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanoprobe_transport_retransmits_total",
				Help: "Total number of framesets resent by the retransmit timer",
			},
			[]string{"peer"},
		),
		ConnectionsBroken: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanoprobe_transport_connections_broken_total",
				Help: "Total number of connections reset after an ack timeout",
			},
			[]string{"peer"},
		),
		DatagramsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanoprobe_transport_datagrams_dropped_total",
				Help: "Total number of inbound datagrams that decoded to zero framesets",
			},
			[]string{"peer"},
		),
		ConnectionState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nanoprobe_transport_connection_state",
				Help: "Current ConnState value (0=NONE..5=SHUT3) of a tracked connection",
			},
			[]string{"peer", "queue_id"},
		),
	}
}

// Heartbeat holds the gauges incremented by the heartbeat listener.
type Heartbeat struct {
	PeersDead    prometheus.Gauge
	MartianTotal prometheus.Counter
}

// NewHeartbeat registers and returns the heartbeat metric set.
func NewHeartbeat() *Heartbeat {
	return &Heartbeat{
		PeersDead: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "nanoprobe_heartbeat_peers_dead",
			Help: "Number of monitored peers currently considered dead",
		}),
		MartianTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nanoprobe_heartbeat_martian_total",
			Help: "Total number of heartbeats received from unregistered peers",
		}),
	}
}
