package automatic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fourgraph_selfplay_games_total",
		Help: "Self-play games played to the end",
	})
	pliesPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fourgraph_selfplay_plies_total",
		Help: "Moves committed in self-play games",
	})
	nodesReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fourgraph_selfplay_nodes_released_total",
		Help: "Graph nodes released when moves were committed",
	})
	nodesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fourgraph_selfplay_nodes_collected_total",
		Help: "Graph nodes freed by garbage collection",
	})
	gamesInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fourgraph_selfplay_games_in_progress",
		Help: "Self-play games being played",
	})
)
