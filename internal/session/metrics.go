package session

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "minesweeper_sessions_active",
			Help: "Game sessions currently held by the registry",
		},
	)
	sessionsEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minesweeper_sessions_evicted_total",
			Help: "Idle game sessions removed by the sweeper",
		},
	)
	finishedGames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minesweeper_games_finished_total",
			Help: "Boards that reached a terminal status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(sessionsActive)
	prometheus.MustRegister(sessionsEvicted)
	prometheus.MustRegister(finishedGames)
}
