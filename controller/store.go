package controller

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/battlesnakeio/fruitsnake/rules"
)

var (
	// ErrNotFound is thrown when a game is not found.
	ErrNotFound = errors.New("controller: game not found")
	// ErrInvalidSequence is returned when a frame does not follow the last
	// recorded turn.
	ErrInvalidSequence = errors.New("controller: invalid frame sequence")
)

// Store is the interface to the backend store of recorded games.
type Store interface {
	// CreateGame will insert a game with its initial frames.
	CreateGame(context.Context, *rules.Game, []*rules.Snapshot) error
	// PushGameFrame appends the frame of the next turn and updates the score,
	// turn and status of the game.
	PushGameFrame(c context.Context, id string, f *rules.Snapshot) error
	// SetGameStatus is used to set a specific game status.
	SetGameStatus(c context.Context, id string, status rules.GameStatus) error
	// GetGame will fetch the game.
	GetGame(context.Context, string) (*rules.Game, error)
	// ListGameFrames will list frames by an offset and limit, it supports
	// negative offset.
	ListGameFrames(c context.Context, id string, limit, offset int) ([]*rules.Snapshot, error)
	// ListGames returns the leaderboard: games by score, best first.
	ListGames(c context.Context, limit int) ([]*rules.Game, error)
}

// FrameRange resolves limit and offset against n recorded frames, returning
// the half open range to read. A negative offset counts back from the last
// frame and a limit of 0 or less reads to the end.
func FrameRange(n, limit, offset int) (start, end int) {
	if offset < 0 {
		offset = n + offset
		if offset < 0 {
			offset = 0
		}
	}
	if offset >= n {
		return n, n
	}
	end = n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

// UpdateGame copies the progress recorded in f onto g.
func UpdateGame(g *rules.Game, f *rules.Snapshot) {
	g.Score = f.Score
	g.Turn = f.Turn
	g.Status = f.Status
}

// SortGames orders games for the leaderboard: highest score first, then the
// oldest game.
func SortGames(games []*rules.Game) {
	sort.SliceStable(games, func(i, j int) bool {
		if games[i].Score != games[j].Score {
			return games[i].Score > games[j].Score
		}
		if !games[i].Created.Equal(games[j].Created) {
			return games[i].Created.Before(games[j].Created)
		}
		return games[i].ID < games[j].ID
	})
}

// InMemStore returns an in memory implementation of the Store interface.
func InMemStore() Store {
	return &inmem{
		games:  map[string]*rules.Game{},
		frames: map[string][]*rules.Snapshot{},
	}
}

type inmem struct {
	games  map[string]*rules.Game
	frames map[string][]*rules.Snapshot
	lock   sync.Mutex
}

func (in *inmem) CreateGame(ctx context.Context, g *rules.Game, frames []*rules.Snapshot) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	clone := *g
	in.games[g.ID] = &clone
	in.frames[g.ID] = []*rules.Snapshot{}
	for _, f := range frames {
		if err := in.appendFrame(g.ID, f); err != nil {
			return err
		}
	}
	return nil
}

func (in *inmem) PushGameFrame(ctx context.Context, id string, f *rules.Snapshot) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	return in.appendFrame(id, f)
}

func (in *inmem) appendFrame(id string, f *rules.Snapshot) error {
	g, ok := in.games[id]
	if !ok {
		return ErrNotFound
	}
	if f.Turn != int64(len(in.frames[id])) {
		return ErrInvalidSequence
	}
	in.frames[id] = append(in.frames[id], f)
	UpdateGame(g, f)
	return nil
}

func (in *inmem) SetGameStatus(ctx context.Context, id string, status rules.GameStatus) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	g, ok := in.games[id]
	if !ok {
		return ErrNotFound
	}
	g.Status = status
	return nil
}

func (in *inmem) GetGame(ctx context.Context, id string) (*rules.Game, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	if g, ok := in.games[id]; ok {
		clone := *g
		return &clone, nil
	}
	return nil, ErrNotFound
}

func (in *inmem) ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*rules.Snapshot, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	if _, ok := in.games[id]; !ok {
		return nil, ErrNotFound
	}
	frames := in.frames[id]
	start, end := FrameRange(len(frames), limit, offset)
	if start == end {
		return nil, nil
	}
	out := make([]*rules.Snapshot, end-start)
	copy(out, frames[start:end])
	return out, nil
}

func (in *inmem) ListGames(ctx context.Context, limit int) ([]*rules.Game, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	games := make([]*rules.Game, 0, len(in.games))
	for _, g := range in.games {
		clone := *g
		games = append(games, &clone)
	}
	SortGames(games)
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}
