package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "minesweeper_ws_connections_active",
			Help: "Open websocket connections",
		},
	)
	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minesweeper_ws_messages_total",
			Help: "Inbound websocket messages by type and outcome code",
		},
		[]string{"type", "outcome"},
	)
	broadcastDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minesweeper_ws_broadcast_drops_total",
			Help: "Connections dropped because their send queue was full",
		},
	)
)

func init() {
	prometheus.MustRegister(connectionsActive)
	prometheus.MustRegister(actionsTotal)
	prometheus.MustRegister(broadcastDrops)
}
