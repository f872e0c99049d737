package api

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/battlesnakeio/fruitsnake/config"
	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/battlesnakeio/fruitsnake/worker"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	errTooManySessions = errors.New("too many sessions")
	errSessionNotFound = errors.New("session not found")
	errRateLimited     = errors.New("rate limited")
)

var activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "fruitsnake",
	Subsystem: "api",
	Name:      "active_sessions",
	Help:      "Number of sessions currently hosted.",
})

func init() {
	prometheus.MustRegister(activeSessions)
}

type sessionEntry struct {
	// unix nanos, first for 64-bit alignment of atomic access
	lastActive int64
	sockets    int32

	session *worker.Session
	limiter *rate.Limiter
	cancel  context.CancelFunc
}

func (e *sessionEntry) touch() {
	atomic.StoreInt64(&e.lastActive, time.Now().UnixNano())
}

func (e *sessionEntry) idleSince() time.Time {
	return time.Unix(0, atomic.LoadInt64(&e.lastActive))
}

func (e *sessionEntry) watched() bool {
	return atomic.LoadInt32(&e.sockets) > 0
}

func (e *sessionEntry) openSocket() {
	atomic.AddInt32(&e.sockets, 1)
	e.touch()
}

func (e *sessionEntry) closeSocket() {
	atomic.AddInt32(&e.sockets, -1)
	e.touch()
}

type registry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func newRegistry() *registry {
	return &registry{sessions: map[string]*sessionEntry{}}
}

// add registers e. When the registry is full the least recently active
// session whose game has ended and nobody watches makes room, it is returned
// so the caller can stop it.
func (r *registry) add(e *sessionEntry) (*sessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted *sessionEntry
	if len(r.sessions) >= config.MaxSessions {
		for _, other := range r.sessions {
			if other.watched() || !other.session.Latest().Status.Ended() {
				continue
			}
			if evicted == nil || other.idleSince().Before(evicted.idleSince()) {
				evicted = other
			}
		}
		if evicted == nil {
			return nil, errTooManySessions
		}
		r.deleteLocked(evicted.session.ID)
	}

	e.touch()
	r.sessions[e.session.ID] = e
	activeSessions.Inc()
	return evicted, nil
}

func (r *registry) get(id string) (*sessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	return e, ok
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteLocked(id)
}

func (r *registry) deleteLocked(id string) {
	if _, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		activeSessions.Dec()
	}
}

// idle removes and returns the unwatched sessions inactive since before
// deadline.
func (r *registry) idle(deadline time.Time) []*sessionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*sessionEntry
	for id, e := range r.sessions {
		if e.watched() || !e.idleSince().Before(deadline) {
			continue
		}
		r.deleteLocked(id)
		out = append(out, e)
	}
	return out
}

// stopAll cancels every session and waits for them to finish recording.
func (r *registry) stopAll() {
	r.mu.Lock()
	entries := make([]*sessionEntry, 0, len(r.sessions))
	for _, e := range r.sessions {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.cancel()
		<-e.session.Done()
	}
}

// reap frees idle sessions every quarter of timeout until ctx is done.
func (r *registry) reap(ctx context.Context, timeout time.Duration) {
	t := time.NewTicker(timeout / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			for _, e := range r.idle(now.Add(-timeout)) {
				log.WithField("SessionID", e.session.ID).Info("freeing idle session")
				e.cancel()
			}
		}
	}
}

func (s *Server) lookup(w http.ResponseWriter, ps httprouter.Params) (*sessionEntry, bool) {
	e, ok := s.sessions.get(ps.ByName("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errSessionNotFound)
	}
	return e, ok
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := CreateSessionRequest{}
	// an empty body, chunked or not, asks for an unseeded session
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request"))
		return
	}

	var rng *rand.Rand
	if req.Seed != nil {
		rng = rand.New(rand.NewSource(*req.Seed))
	}
	e, err := rules.New(s.cfg, rng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	id := uuid.NewV4().String()
	ctx, cancel := context.WithCancel(context.Background())
	entry := &sessionEntry{
		session: worker.NewSession(id, e, s.store),
		limiter: rate.NewLimiter(config.CommandRate, config.CommandBurst),
		cancel:  cancel,
	}
	evicted, err := s.sessions.add(entry)
	if err != nil {
		cancel()
		writeError(w, http.StatusTooManyRequests, err)
		return
	}
	if evicted != nil {
		log.WithField("SessionID", evicted.session.ID).Info("freeing ended session")
		evicted.cancel()
	}

	go func() {
		defer s.sessions.remove(id)
		if err := entry.session.Run(ctx); err != nil && err != context.Canceled {
			log.WithError(err).WithField("SessionID", id).Error("session failed")
		}
	}()

	writeJSON(w, http.StatusOK, CreateSessionResponse{ID: id})
}

func (s *Server) sessionStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, ok := s.lookup(w, ps)
	if !ok {
		return
	}
	e.touch()
	writeJSON(w, http.StatusOK, e.session.Latest())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, ok := s.lookup(w, ps)
	if !ok {
		return
	}
	e.cancel()
	<-e.session.Done()
	s.sessions.remove(e.session.ID)
	writeJSON(w, http.StatusOK, e.session.Latest())
}

func (s *Server) sendCommand(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, ok := s.lookup(w, ps)
	if !ok {
		return
	}
	req := CommandRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request"))
		return
	}
	snap, err := e.command(r.Context(), req.Command)
	switch {
	case err == errRateLimited:
		writeError(w, http.StatusTooManyRequests, err)
	case err == worker.ErrInvalidCommand:
		writeError(w, http.StatusBadRequest, err)
	case err == worker.ErrSessionClosed:
		writeError(w, http.StatusNotFound, errSessionNotFound)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

// command rate limits, parses and applies a command, returning the snapshot
// published after it.
func (e *sessionEntry) command(ctx context.Context, name string) (*rules.Snapshot, error) {
	e.touch()
	if !e.limiter.Allow() {
		return nil, errRateLimited
	}
	cmd, err := worker.ParseCommand(name)
	if err != nil {
		return nil, err
	}
	if err := e.session.Send(ctx, cmd); err != nil {
		return nil, err
	}
	return e.session.Latest(), nil
}
