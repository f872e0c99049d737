package controller

import (
	"context"

	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/prometheus/client_golang/prometheus"
)

// InstrumentStore wraps all store methods to instrument the underlying calls.
func InstrumentStore(s Store) Store { return &metrics{s} }

var (
	storeCalls = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fruitsnake",
			Subsystem: "store",
			Name:      "calls",
			Help:      "Calls processed by the store.",
		},
		[]string{"method"},
	)
	storeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fruitsnake",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Store calls that returned an error.",
		},
		[]string{"method"},
	)
)

func instrument(method string) func() {
	t := prometheus.NewTimer(storeCalls.WithLabelValues(method))
	return t.ObserveDuration
}

func countErr(method string, err error) error {
	if err != nil && err != ErrNotFound {
		storeErrors.WithLabelValues(method).Inc()
	}
	return err
}

func init() {
	prometheus.MustRegister(storeCalls, storeErrors)
}

type metrics struct{ s Store }

func (m *metrics) SetGameStatus(c context.Context, id string, status rules.GameStatus) error {
	defer instrument("SetGameStatus")()
	return countErr("SetGameStatus", m.s.SetGameStatus(c, id, status))
}

func (m *metrics) CreateGame(c context.Context, g *rules.Game, frames []*rules.Snapshot) error {
	defer instrument("CreateGame")()
	return countErr("CreateGame", m.s.CreateGame(c, g, frames))
}

func (m *metrics) PushGameFrame(c context.Context, id string, f *rules.Snapshot) error {
	defer instrument("PushGameFrame")()
	return countErr("PushGameFrame", m.s.PushGameFrame(c, id, f))
}

func (m *metrics) ListGameFrames(c context.Context, id string, limit, offset int) ([]*rules.Snapshot, error) {
	defer instrument("ListGameFrames")()
	frames, err := m.s.ListGameFrames(c, id, limit, offset)
	return frames, countErr("ListGameFrames", err)
}

func (m *metrics) GetGame(c context.Context, id string) (*rules.Game, error) {
	defer instrument("GetGame")()
	g, err := m.s.GetGame(c, id)
	return g, countErr("GetGame", err)
}

func (m *metrics) ListGames(c context.Context, limit int) ([]*rules.Game, error) {
	defer instrument("ListGames")()
	games, err := m.s.ListGames(c, limit)
	return games, countErr("ListGames", err)
}
