package testsuite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/battlesnakeio/fruitsnake/controller"
	"github.com/battlesnakeio/fruitsnake/rules"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2018, 6, 1, 12, 0, 0, 0, time.UTC)

// Game returns a running game record with a fresh id.
func Game(score int) *rules.Game {
	return &rules.Game{
		ID:        uuid.NewV4().String(),
		Status:    rules.GameStatusRunning,
		TileCount: 20,
		Score:     score,
		Created:   created,
	}
}

// Frame returns a recorded frame for turn.
func Frame(id string, turn int64, score int) *rules.Snapshot {
	return &rules.Snapshot{
		GameID:    id,
		Turn:      turn,
		Status:    rules.GameStatusRunning,
		TileCount: 20,
		Snake:     []rules.Point{{X: 10 + int(turn), Y: 10}, {X: 9 + int(turn), Y: 10}},
		Direction: rules.Right,
		Foods: []rules.Food{
			{Pos: rules.Point{X: 1, Y: 2}, Kind: rules.RedApple},
			{Pos: rules.Point{X: 3, Y: 4}, Kind: rules.Banana},
		},
		Score: score,
		Speed: 200,
	}
}

func testStoreGames(t *testing.T, s controller.Store) {
	ctx := context.Background()
	game := Game(5)

	// Create and fetch a game.
	err := s.CreateGame(ctx, game, nil)
	require.Nil(t, err)
	g, err := s.GetGame(ctx, game.ID)
	require.Nil(t, err)
	require.Equal(t, game, g)

	// NotFound error thrown.
	_, err = s.GetGame(ctx, game.ID+"-missing")
	require.Equal(t, controller.ErrNotFound, err)
}

func testStoreGameStatus(t *testing.T, s controller.Store) {
	ctx := context.Background()
	game := Game(5)

	err := s.CreateGame(ctx, game, []*rules.Snapshot{Frame(game.ID, 0, 5)})
	require.Nil(t, err)

	// Set game to exited.
	err = s.SetGameStatus(ctx, game.ID, rules.GameStatusExited)
	require.Nil(t, err)
	g, err := s.GetGame(ctx, game.ID)
	require.Nil(t, err)
	require.Equal(t, rules.GameStatusExited, g.Status)
	require.Equal(t, 5, g.Score)

	err = s.SetGameStatus(ctx, game.ID+"-missing", rules.GameStatusWon)
	require.Equal(t, controller.ErrNotFound, err)
}

func testStoreGameFrames(t *testing.T, s controller.Store) {
	ctx := context.Background()
	game := Game(5)
	key := game.ID

	err := s.CreateGame(ctx, game, nil)
	require.Nil(t, err)

	// Read game frames, too high offset.
	frames, err := s.ListGameFrames(ctx, key, 10, 100)
	require.Nil(t, err)
	require.Equal(t, 0, len(frames))

	// Read game frames, 0 offset.
	frames, err = s.ListGameFrames(ctx, key, 10, 0)
	require.Nil(t, err)
	require.Equal(t, 0, len(frames))

	// Push some game frames.
	want := []*rules.Snapshot{Frame(key, 0, 5), Frame(key, 1, 6), Frame(key, 2, 4)}
	want[2].Status = rules.GameStatusPaused
	for _, f := range want {
		require.Nil(t, s.PushGameFrame(ctx, key, f))
	}

	// Read the game frames.
	frames, err = s.ListGameFrames(ctx, key, 10, 0)
	require.Nil(t, err)
	require.Equal(t, want, frames)

	// The game follows the last frame.
	g, err := s.GetGame(ctx, key)
	require.Nil(t, err)
	require.Equal(t, 4, g.Score)
	require.Equal(t, int64(2), g.Turn)
	require.Equal(t, rules.GameStatusPaused, g.Status)

	// Limits and offsets.
	frames, err = s.ListGameFrames(ctx, key, 1, 0)
	require.Nil(t, err)
	require.Equal(t, want[:1], frames)
	frames, err = s.ListGameFrames(ctx, key, 2, 1)
	require.Nil(t, err)
	require.Equal(t, want[1:], frames)
	frames, err = s.ListGameFrames(ctx, key, 0, 0)
	require.Nil(t, err)
	require.Equal(t, want, frames)

	// Negative offsets count back from the last frame.
	frames, err = s.ListGameFrames(ctx, key, 1, -1)
	require.Nil(t, err)
	require.Equal(t, want[2:], frames)
	frames, err = s.ListGameFrames(ctx, key, 1, -2)
	require.Nil(t, err)
	require.Equal(t, want[1:2], frames)
	frames, err = s.ListGameFrames(ctx, key, 10, -10)
	require.Nil(t, err)
	require.Equal(t, want, frames)

	// Read game frames that don't exist.
	frames, err = s.ListGameFrames(ctx, key+"-missing", 1, 0)
	require.Equal(t, controller.ErrNotFound, err)
	require.Equal(t, 0, len(frames))

	// Read the game frames, too high offset.
	frames, err = s.ListGameFrames(ctx, key, 10, 100)
	require.Nil(t, err)
	require.Equal(t, 0, len(frames))
}

func testStoreFrameSequence(t *testing.T, s controller.Store) {
	ctx := context.Background()
	game := Game(5)
	key := game.ID

	err := s.CreateGame(ctx, game, []*rules.Snapshot{Frame(key, 0, 5)})
	require.Nil(t, err)

	// Gaps and repeats are rejected.
	require.Equal(t, controller.ErrInvalidSequence, s.PushGameFrame(ctx, key, Frame(key, 2, 5)))
	require.Equal(t, controller.ErrInvalidSequence, s.PushGameFrame(ctx, key, Frame(key, 0, 5)))
	require.Nil(t, s.PushGameFrame(ctx, key, Frame(key, 1, 5)))

	// Frames for a game that was never created.
	err = s.PushGameFrame(ctx, key+"-missing", Frame(key, 0, 5))
	require.Equal(t, controller.ErrNotFound, err)

	frames, err := s.ListGameFrames(ctx, key, 0, 0)
	require.Nil(t, err)
	require.Len(t, frames, 2)
}

func testStoreLeaderboard(t *testing.T, s controller.Store) {
	ctx := context.Background()

	scores := []int{12, 30, 3}
	ids := map[string]int{}
	for _, score := range scores {
		g := Game(score)
		ids[g.ID] = score
		require.Nil(t, s.CreateGame(ctx, g, nil))
	}

	games, err := s.ListGames(ctx, 0)
	require.Nil(t, err)
	var mine []int
	for _, g := range games {
		if score, ok := ids[g.ID]; ok {
			require.Equal(t, score, g.Score)
			mine = append(mine, g.Score)
		}
	}
	require.Equal(t, []int{30, 12, 3}, mine)
	for i := 1; i < len(games); i++ {
		require.True(t, games[i-1].Score >= games[i].Score)
	}

	// Scores follow pushed frames.
	var low string
	for id, score := range ids {
		if score == 3 {
			low = id
		}
	}
	require.Nil(t, s.PushGameFrame(ctx, low, Frame(low, 0, 1000)))
	games, err = s.ListGames(ctx, 1)
	require.Nil(t, err)
	require.Len(t, games, 1)
	require.Equal(t, low, games[0].ID)
}

// Games with the same score rank oldest first, also when the limit cuts
// through the tie.
func testStoreLeaderboardTies(t *testing.T, s controller.Store) {
	ctx := context.Background()

	base := uuid.NewV4().String()
	var ids []string
	for i, suffix := range []string{"a", "b", "c"} {
		g := Game(2000)
		g.ID = base + "-" + suffix
		g.Created = created.Add(time.Duration(i) * time.Minute)
		require.Nil(t, s.CreateGame(ctx, g, nil))
		ids = append(ids, g.ID)
	}

	games, err := s.ListGames(ctx, 1)
	require.Nil(t, err)
	require.Len(t, games, 1)
	require.Equal(t, ids[0], games[0].ID)

	games, err = s.ListGames(ctx, 2)
	require.Nil(t, err)
	require.Len(t, games, 2)
	require.Equal(t, ids[0], games[0].ID)
	require.Equal(t, ids[1], games[1].ID)
}

func testStoreConcurrentWriters(t *testing.T, s controller.Store) {
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20*6)
	keys := make(chan string, 20)
	wg.Add(20)

	for i := 0; i < 20; i++ {
		go func() {
			defer wg.Done()
			game := Game(5)
			keys <- game.ID
			errs <- s.CreateGame(ctx, game, nil)
			for turn := int64(0); turn < 5; turn++ {
				errs <- s.PushGameFrame(ctx, game.ID, Frame(game.ID, turn, 5))
			}
		}()
	}

	wg.Wait()
	close(errs)
	close(keys)

	for err := range errs {
		require.Nil(t, err)
	}
	for key := range keys {
		frames, err := s.ListGameFrames(ctx, key, 0, 0)
		require.Nil(t, err)
		require.Len(t, frames, 5)
	}
}

// Suite will execute the store testsuite.
func Suite(t *testing.T, s controller.Store, pretest func()) {
	s = controller.InstrumentStore(s)
	t.Run("Games", func(t *testing.T) { pretest(); testStoreGames(t, s) })
	t.Run("GameStatus", func(t *testing.T) { pretest(); testStoreGameStatus(t, s) })
	t.Run("GameFrames", func(t *testing.T) { pretest(); testStoreGameFrames(t, s) })
	t.Run("FrameSequence", func(t *testing.T) { pretest(); testStoreFrameSequence(t, s) })
	t.Run("Leaderboard", func(t *testing.T) { pretest(); testStoreLeaderboard(t, s) })
	t.Run("LeaderboardTies", func(t *testing.T) { pretest(); testStoreLeaderboardTies(t, s) })
	t.Run("ConcurrentWriters", func(t *testing.T) { pretest(); testStoreConcurrentWriters(t, s) })
}
