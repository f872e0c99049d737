package filestore

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"testing"

	"github.com/battlesnakeio/fruitsnake/controller"
	"github.com/battlesnakeio/fruitsnake/controller/testsuite"
	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "fruitsnake-filestore")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func TestFileStoreSuite(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	testsuite.Suite(t, NewFileStore(dir), func() {})
}

func TestFileStoreReopen(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	ctx := context.Background()

	game := testsuite.Game(5)
	fs := NewFileStore(dir)
	err := fs.CreateGame(ctx, game, []*rules.Snapshot{testsuite.Frame(game.ID, 0, 5)})
	require.NoError(t, err)
	require.NoError(t, fs.PushGameFrame(ctx, game.ID, testsuite.Frame(game.ID, 1, 6)))
	require.NoError(t, fs.SetGameStatus(ctx, game.ID, rules.GameStatusWon))

	// A second store on the same directory sees everything on disk.
	other := NewFileStore(dir)
	g, err := other.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, rules.GameStatusWon, g.Status)
	require.Equal(t, 6, g.Score)
	require.Equal(t, int64(1), g.Turn)

	frames, err := other.ListGameFrames(ctx, game.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	require.Equal(t, testsuite.Frame(game.ID, 1, 6), frames[1])

	// Recording can carry on after a reload.
	require.NoError(t, other.PushGameFrame(ctx, game.ID, testsuite.Frame(game.ID, 2, 7)))
	require.Equal(t, controller.ErrInvalidSequence,
		other.PushGameFrame(ctx, game.ID, testsuite.Frame(game.ID, 2, 7)))

	games, err := other.ListGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, 7, games[0].Score)
}

func TestFileStoreClosesFinishedGames(t *testing.T) {
	defer restoreOpeners()
	fs, w := testFileStore()
	game := testsuite.Game(5)

	err := fs.CreateGame(context.Background(), game, []*rules.Snapshot{testsuite.Frame(game.ID, 0, 5)})
	require.NoError(t, err)

	err = fs.SetGameStatus(context.Background(), game.ID, rules.GameStatusLost)
	require.NoError(t, err)
	require.True(t, w.closed)

	g, frames, err := readArchive(newMockReader(w.text))
	require.NoError(t, err)
	require.Equal(t, rules.GameStatusLost, g.Status)
	require.Len(t, frames, 1)
}

func TestFileStoreKeepsPausedGamesOpen(t *testing.T) {
	defer restoreOpeners()
	fs, w := testFileStore()
	game := testsuite.Game(5)

	require.NoError(t, fs.CreateGame(context.Background(), game, nil))
	require.NoError(t, fs.SetGameStatus(context.Background(), game.ID, rules.GameStatusPaused))
	require.False(t, w.closed)
}

func TestCreateGameHandlesWriteError(t *testing.T) {
	defer restoreOpeners()
	fs, w := testFileStore()
	w.err = errors.New("fail")

	game := testsuite.Game(5)
	err := fs.CreateGame(context.Background(), game, nil)
	require.NotNil(t, err)
	require.True(t, w.closed)
}

func TestCreateGameHandlesOpenFileError(t *testing.T) {
	defer restoreOpeners()
	openFileWriter = func(directory, id string, mustCreate bool) (writer, error) {
		return nil, errors.New("fail")
	}
	fs := NewFileStore(os.TempDir())

	game := testsuite.Game(5)
	err := fs.CreateGame(context.Background(), game, nil)
	require.NotNil(t, err)
}

func TestGetGameNotFound(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	fs := NewFileStore(dir)

	_, err := fs.GetGame(context.Background(), "notfound")
	require.Equal(t, controller.ErrNotFound, err)

	err = fs.SetGameStatus(context.Background(), "notfound", rules.GameStatusExited)
	require.Equal(t, controller.ErrNotFound, err)

	games, err := fs.ListGames(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, games)
}

func restoreOpeners() {
	openFileWriter = appendOnlyFileWriter
	openFileReader = readOnlyFileReader
}

func testFileStore() (controller.Store, *mockWriter) {
	w := &mockWriter{
		closed: false,
	}
	openFileWriter = func(directory, id string, mustCreate bool) (writer, error) {
		return w, nil
	}
	openFileReader = func(directory, id string) (reader, error) {
		return newMockReader(w.text), nil
	}
	return NewFileStore("unused"), w
}

func TestFileStoreDoesNotCacheFinishedGames(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	ctx := context.Background()

	game := testsuite.Game(5)
	writer := NewFileStore(dir)
	require.NoError(t, writer.CreateGame(ctx, game, []*rules.Snapshot{testsuite.Frame(game.ID, 0, 5)}))
	require.NoError(t, writer.PushGameFrame(ctx, game.ID, testsuite.Frame(game.ID, 1, 8)))
	require.NoError(t, writer.SetGameStatus(ctx, game.ID, rules.GameStatusLost))

	reader := NewFileStore(dir).(*fileStore)
	g, err := reader.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, rules.GameStatusLost, g.Status)
	frames, err := reader.ListGameFrames(ctx, game.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	games, err := reader.ListGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, 8, games[0].Score)
	require.Equal(t, int64(1), games[0].Turn)
	require.Equal(t, rules.GameStatusLost, games[0].Status)

	require.Empty(t, reader.games)
	require.Empty(t, reader.frames)
}
