package filestore

import (
	"context"
	"os/user"
	"path"
	"sync"

	"github.com/battlesnakeio/fruitsnake/controller"
	"github.com/battlesnakeio/fruitsnake/rules"
	log "github.com/sirupsen/logrus"
)

func defaultDir() string {
	return path.Join(homeDir(), ".fruitsnake/games")
}

func homeDir() string {
	usr, err := user.Current()
	if err != nil {
		return "."
	}
	return usr.HomeDir
}

// NewFileStore returns a file based store implementation (1 file per game).
// Games that are still being recorded are cached in memory, finished games are
// read back from disk on every request.
func NewFileStore(directory string) controller.Store {
	if directory == "" {
		directory = defaultDir()
	}

	return &fileStore{
		games:     map[string]*rules.Game{},
		frames:    map[string][]*rules.Snapshot{},
		writers:   map[string]writer{},
		directory: directory,
	}
}

type fileStore struct {
	games     map[string]*rules.Game
	frames    map[string][]*rules.Snapshot
	writers   map[string]writer
	lock      sync.Mutex
	directory string
}

// closeGame removes the game from in-memory cache and closes the handle to its
// file. Should be called when game is complete.
func (fs *fileStore) closeGame(id string) {
	if w, ok := fs.writers[id]; ok {
		err := w.Close()
		if err != nil {
			log.WithError(err).WithField("GameID", id).Error("Error while closing file writer")
		}
	}
	delete(fs.games, id)
	delete(fs.frames, id)
	delete(fs.writers, id)
}

// Close closes every open game file.
func (fs *fileStore) Close() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	for id := range fs.writers {
		fs.closeGame(id)
	}
	return nil
}

func (fs *fileStore) CreateGame(ctx context.Context, g *rules.Game, frames []*rules.Snapshot) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	handle, err := fs.requireHandle(g.ID, true)
	if err != nil {
		return err
	}
	clone := *g
	if err := writeGameInfo(handle, &clone); err != nil {
		fs.closeGame(g.ID)
		return err
	}
	fs.games[g.ID] = &clone
	fs.frames[g.ID] = []*rules.Snapshot{}
	return fs.appendFrames(g.ID, frames)
}

func (fs *fileStore) SetGameStatus(ctx context.Context, id string, status rules.GameStatus) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	game, _, err := fs.requireGame(id, true)
	if err != nil {
		return err
	}
	handle, err := fs.requireHandle(id, false)
	if err != nil {
		return err
	}
	if err := writeStatus(handle, status); err != nil {
		return err
	}

	game.Status = status
	if status.Ended() {
		fs.closeGame(id)
	}
	return nil
}

func (fs *fileStore) PushGameFrame(ctx context.Context, id string, f *rules.Snapshot) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.appendFrame(id, f)
}

func (fs *fileStore) ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*rules.Snapshot, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	_, frames, err := fs.requireGame(id, false)
	if err != nil {
		return nil, err
	}

	start, end := controller.FrameRange(len(frames), limit, offset)
	if start == end {
		return nil, nil
	}
	out := make([]*rules.Snapshot, end-start)
	copy(out, frames[start:end])
	return out, nil
}

func (fs *fileStore) GetGame(ctx context.Context, id string) (*rules.Game, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	g, _, err := fs.requireGame(id, false)
	if err != nil {
		return nil, err
	}

	// Clone the game, since this could be modified after this is returned
	// and upset internal state inside the store.
	clone := *g
	return &clone, nil
}

// ListGames scans the directory. Games on disk are summarised from their
// header, last frame and status lines without caching them.
func (fs *fileStore) ListGames(ctx context.Context, limit int) ([]*rules.Game, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	ids, err := listGameIDs(fs.directory)
	if err != nil {
		return nil, err
	}

	games := make([]*rules.Game, 0, len(ids))
	for _, id := range ids {
		if g, ok := fs.games[id]; ok {
			clone := *g
			games = append(games, &clone)
			continue
		}
		g, err := ReadGameSummary(fs.directory, id)
		if err != nil {
			log.WithError(err).WithField("GameID", id).Warn("skipping unreadable game file")
			continue
		}
		games = append(games, g)
	}

	controller.SortGames(games)
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (fs *fileStore) requireHandle(id string, mustBeNew bool) (writer, error) {
	if w, ok := fs.writers[id]; ok {
		return w, nil
	}

	handle, err := openFileWriter(fs.directory, id, mustBeNew)
	if err != nil {
		return nil, err
	}

	fs.writers[id] = handle
	return handle, nil
}

// requireGame returns the game and its frames, loading them from disk when
// they are not cached. Loaded games are only cached when cache is set, which
// writers do so their appends stay in sync with the file.
func (fs *fileStore) requireGame(id string, cache bool) (*rules.Game, []*rules.Snapshot, error) {
	// Do nothing if game already loaded.
	if g, ok := fs.games[id]; ok {
		return g, fs.frames[id], nil
	}

	// Load game and frames from file.
	g, frames, err := ReadGame(fs.directory, id)
	if err != nil {
		return nil, nil, err
	}

	if cache {
		fs.games[id] = g
		fs.frames[id] = frames
	}
	return g, frames, nil
}

func (fs *fileStore) appendFrame(id string, f *rules.Snapshot) error {
	game, _, err := fs.requireGame(id, true)
	if err != nil {
		return err
	}
	if f.Turn != int64(len(fs.frames[id])) {
		return controller.ErrInvalidSequence
	}

	handle, err := fs.requireHandle(id, false)
	if err != nil {
		return err
	}

	// Add frame to archive file
	if err := writeFrame(handle, f); err != nil {
		return err
	}

	// Add frame to in-memory cache
	fs.frames[id] = append(fs.frames[id], f)
	controller.UpdateGame(game, f)
	return nil
}

func (fs *fileStore) appendFrames(gameID string, frames []*rules.Snapshot) error {
	for _, f := range frames {
		if err := fs.appendFrame(gameID, f); err != nil {
			return err
		}
	}
	return nil
}

// entry is a line in a game file. The first line holds the game, the
// following lines hold either a frame or a status change.
type entry struct {
	Game   *rules.Game      `json:"game,omitempty"`
	Frame  *rules.Snapshot  `json:"frame,omitempty"`
	Status rules.GameStatus `json:"status,omitempty"`
}

const fileExt = ".game"

func getFilePath(directory string, id string) string {
	return path.Join(directory, id) + fileExt
}
