// Package worker provides the actual running of games. A Session owns an
// engine, drives its ticks from a timer, applies player commands between
// ticks and records every run to a controller store.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/battlesnakeio/fruitsnake/controller"
	"github.com/battlesnakeio/fruitsnake/rules"
	log "github.com/sirupsen/logrus"
)

// ErrSessionClosed is returned when sending to a session that stopped running.
var ErrSessionClosed = errors.New("worker: session closed")

// StoreTimeout bounds the store writes made after the session context ended.
var StoreTimeout = 2 * time.Second

const subscriberBuffer = 16

type commandRequest struct {
	cmd   Command
	reply chan error
}

// Session runs a single engine. All engine access happens on the goroutine
// calling Run, other goroutines talk to it through Send and read the
// published snapshots.
type Session struct {
	ID string

	engine   *rules.Engine
	store    controller.Store
	commands chan commandRequest
	done     chan struct{}

	// owned by the Run goroutine
	gameID string

	mu      sync.RWMutex
	latest  *rules.Snapshot
	subs    map[int]chan *rules.Snapshot
	nextSub int
	closed  bool
}

// NewSession creates a session around e. Runs are recorded into store, a nil
// store disables recording.
func NewSession(id string, e *rules.Engine, store controller.Store) *Session {
	return &Session{
		ID:       id,
		engine:   e,
		store:    store,
		commands: make(chan commandRequest),
		done:     make(chan struct{}),
		latest:   e.Snapshot(),
		subs:     map[int]chan *rules.Snapshot{},
	}
}

// Send applies cmd on the session goroutine and waits for it to be applied.
func (s *Session) Send(ctx context.Context, cmd Command) error {
	req := commandRequest{cmd: cmd, reply: make(chan error, 1)}
	select {
	case s.commands <- req:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest returns the last published snapshot. Snapshots are shared between
// readers and must not be modified.
func (s *Session) Latest() *rules.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Done is closed once Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Subscribe returns a channel receiving every published snapshot, starting
// with the current one. Slow subscribers miss snapshots rather than block the
// session. The channel is closed by cancel or when the session stops.
func (s *Session) Subscribe() (<-chan *rules.Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *rules.Snapshot, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- s.latest

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Session) publish() {
	snap := s.engine.Snapshot()
	snap.GameID = s.gameID

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snap
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Session) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Run drives the session until ctx is done. The tick timer only runs while
// the game is running. It is armed with the engine speed after every tick and
// when the game starts or resumes, commands never re-arm a pending timer.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.closeSubscribers()

	var timer *time.Timer
	var tick <-chan time.Time
	arm := func() {
		d := s.engine.Speed()
		if timer == nil {
			timer = time.NewTimer(d)
		} else {
			timer.Reset(d)
		}
		tick = timer.C
	}
	disarm := func() {
		if timer != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		tick = nil
	}
	defer disarm()

	log.WithField("SessionID", s.ID).Info("session started")
	s.publish()
	for {
		select {
		case <-ctx.Done():
			s.endRecording(rules.GameStatusExited)
			log.WithField("SessionID", s.ID).Info("session stopped")
			return ctx.Err()

		case req := <-s.commands:
			wasRunning := s.engine.Status() == rules.GameStatusRunning
			err := s.apply(ctx, req.cmd)
			running := s.engine.Status() == rules.GameStatusRunning
			switch {
			case running && !wasRunning:
				arm()
			case !running && wasRunning:
				disarm()
			}
			s.publish()
			req.reply <- err

		case <-tick:
			tick = nil
			res := s.tick(ctx)
			if res.Status == rules.GameStatusRunning {
				arm()
			}
			s.publish()
		}
	}
}

func (s *Session) apply(ctx context.Context, cmd Command) error {
	if d, ok := directions[cmd]; ok {
		if !s.engine.SetDirection(d) {
			log.WithFields(log.Fields{
				"SessionID": s.ID,
				"Direction": d,
			}).Debug("direction ignored")
		}
		return nil
	}

	switch cmd {
	case CommandStart:
		if s.engine.Start() {
			s.beginRecording(ctx)
		}
	case CommandPause:
		if s.engine.Status().Ended() || s.engine.Status() == rules.GameStatusReady {
			return nil
		}
		s.engine.TogglePause()
		s.recordStatus(ctx, s.engine.Status())
	case CommandReset:
		s.endRecording(rules.GameStatusExited)
		s.engine.Reset()
	case CommandExit:
		s.engine.Exit()
		s.endRecording(s.engine.Status())
	default:
		return ErrInvalidCommand
	}
	return nil
}

func (s *Session) tick(ctx context.Context) *rules.TickResult {
	start := time.Now()
	defer func() { tickDuration.Observe(time.Since(start).Seconds()) }()

	res := s.engine.Tick()
	ticksCounter.Inc()
	if res.Wrapped {
		wrapsCounter.Inc()
	}
	for _, f := range res.Eaten {
		foodEatenCounter.WithLabelValues(f.Kind.String()).Inc()
	}

	if s.recording() {
		frame := s.engine.Snapshot()
		frame.GameID = s.gameID
		if err := s.store.PushGameFrame(ctx, s.gameID, frame); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"SessionID": s.ID,
				"GameID":    s.gameID,
				"Turn":      res.Turn,
			}).Error("unable to record frame")
		}
	}

	if res.Status.Ended() {
		gamesEndedCounter.WithLabelValues(string(res.Status)).Inc()
		log.WithFields(log.Fields{
			"SessionID": s.ID,
			"GameID":    s.gameID,
			"Turn":      res.Turn,
			"Score":     s.engine.Score(),
		}).Infof("game %s", res.Status)
		s.endRecording(res.Status)
	}
	return res
}

func (s *Session) recording() bool {
	return s.store != nil && s.gameID != ""
}

func (s *Session) beginRecording(ctx context.Context) {
	if s.store == nil {
		return
	}
	game, frames := rules.CreateInitialGame(s.engine)
	if err := s.store.CreateGame(ctx, game, frames); err != nil {
		log.WithError(err).WithField("SessionID", s.ID).Error("unable to record game")
		return
	}
	s.gameID = game.ID
	log.WithFields(log.Fields{
		"SessionID": s.ID,
		"GameID":    s.gameID,
	}).Info("recording game")
}

func (s *Session) recordStatus(ctx context.Context, status rules.GameStatus) {
	if !s.recording() {
		return
	}
	if err := s.store.SetGameStatus(ctx, s.gameID, status); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"SessionID": s.ID,
			"GameID":    s.gameID,
			"Status":    status,
		}).Error("unable to record status")
	}
}

// endRecording stores the final status of the current run. It uses its own
// context so it still works once the session context is done.
func (s *Session) endRecording(status rules.GameStatus) {
	if !s.recording() {
		return
	}
	if !status.Ended() {
		status = rules.GameStatusExited
	}
	ctx, cancel := context.WithTimeout(context.Background(), StoreTimeout)
	defer cancel()
	s.recordStatus(ctx, status)
	s.gameID = ""
}
