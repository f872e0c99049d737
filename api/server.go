// Package api exposes sessions and recorded games over HTTP so a browser can
// play: sessions are created, driven with commands and watched over a
// websocket, recorded games and the leaderboard are read from the store.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/battlesnakeio/fruitsnake/config"
	"github.com/battlesnakeio/fruitsnake/controller"
	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultGamesLimit  = 10
	defaultFramesLimit = 100
)

// Server is the HTTP host for game sessions.
type Server struct {
	hs         *http.Server
	store      controller.Store
	cfg        rules.Config
	sessions   *registry
	stopReaper context.CancelFunc
}

// New creates a server listening on addr, recording games into store and
// creating every session with cfg.
func New(addr string, store controller.Store, cfg rules.Config) *Server {
	s := &Server{
		store:    store,
		cfg:      cfg,
		sessions: newRegistry(),
	}

	router := httprouter.New()
	router.POST("/sessions", s.createSession)
	router.GET("/sessions/:id", s.sessionStatus)
	router.DELETE("/sessions/:id", s.deleteSession)
	router.POST("/sessions/:id/commands", s.sendCommand)
	router.GET("/sessions/:id/socket", s.socket)
	router.GET("/games", s.listGames)
	router.GET("/games/:id", s.getGame)
	router.GET("/games/:id/frames", s.listFrames)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
	}).Handler(router)

	s.hs = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopReaper = cancel
	if config.SessionIdleTimeout > 0 {
		go s.sessions.reap(ctx, config.SessionIdleTimeout)
	}
	return s
}

// WaitForExit serves until the server is shut down.
func (s *Server) WaitForExit() {
	log.Infof("fruitsnake api listening on %s", s.hs.Addr)
	err := s.hs.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Errorf("Error while listening: %v", err)
	}
}

// Handler returns the routes of the server, wrapped with cors.
func (s *Server) Handler() http.Handler {
	return s.hs.Handler
}

// Shutdown stops every session then the http server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopReaper()
	s.sessions.stopAll()
	return s.hs.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("unable to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Cause(err) == controller.ErrNotFound {
		writeError(w, http.StatusNotFound, err)
		return
	}
	log.WithError(err).Error("store request failed")
	writeError(w, http.StatusInternalServerError, err)
}

func intParam(r *http.Request, name string, defaults int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaults, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q", name, val)
	}
	return i, nil
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, err := intParam(r, "limit", defaultGamesLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	games, err := s.store.ListGames(r.Context(), limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GamesResponse{Games: games})
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	g, err := s.store.GetGame(r.Context(), ps.ByName("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) listFrames(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, err := intParam(r, "limit", defaultFramesLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	frames, err := s.store.ListGameFrames(r.Context(), ps.ByName("id"), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if frames == nil {
		frames = []*rules.Snapshot{}
	}
	writeJSON(w, http.StatusOK, FramesResponse{Frames: frames})
}
