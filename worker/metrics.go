package worker

import "github.com/prometheus/client_golang/prometheus"

var (
	ticksCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fruitsnake",
			Subsystem: "worker",
			Name:      "ticks_total",
			Help:      "Ticks applied across all sessions.",
		},
	)
	wrapsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fruitsnake",
			Subsystem: "worker",
			Name:      "wraps_total",
			Help:      "Moves that crossed the edge of the board.",
		},
	)
	foodEatenCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fruitsnake",
			Subsystem: "worker",
			Name:      "food_eaten_total",
			Help:      "Food eaten, by kind.",
		},
		[]string{"kind"},
	)
	gamesEndedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fruitsnake",
			Subsystem: "worker",
			Name:      "games_ended_total",
			Help:      "Games that ended, by outcome.",
		},
		[]string{"status"},
	)
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fruitsnake",
			Subsystem: "worker",
			Name:      "tick_duration_seconds",
			Help:      "Time spent applying and recording a tick.",
		},
	)
)

func init() {
	prometheus.MustRegister(ticksCounter, wrapsCounter, foodEatenCounter, gamesEndedCounter, tickDuration)
}
