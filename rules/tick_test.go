package rules

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var commonStart = time.Date(2018, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testEngine(t *testing.T, cfg Config) (*Engine, *fakeClock) {
	e, err := New(cfg, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	clock := &fakeClock{now: commonStart}
	e.Clock = clock.Now
	return e, clock
}

// farFoods returns a pool that stays out of the way of a snake moving along
// row 10 and column 10.
func farFoods(kinds ...FoodKind) []Food {
	foods := []Food{}
	for i, k := range kinds {
		foods = append(foods, Food{Pos: Point{X: 2 + i, Y: 2}, Kind: k})
	}
	return foods
}

func nextHead(e *Engine, d Direction) Point {
	p, _ := step(e.snake[0], d, e.cfg.TileCount)
	return p
}

// eatAlong steers the snake through dirs, placing a food of kind under the
// head before each tick and keeping the rest of the pool out of the way.
func eatAlong(t *testing.T, e *Engine, kind FoodKind, dirs []Direction) []*TickResult {
	results := []*TickResult{}
	for _, d := range dirs {
		e.SetDirection(d)
		e.foods = append(farFoods(RedApple, GreenApple, GreenApple, GreenApple),
			Food{Pos: nextHead(e, e.dir), Kind: kind})
		results = append(results, e.Tick())
	}
	return results
}

func repeat(d Direction, n int) []Direction {
	dirs := make([]Direction, n)
	for i := range dirs {
		dirs[i] = d
	}
	return dirs
}

func TestGameTickIgnoredUntilStarted(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	before := e.Snapshot()

	res := e.Tick()
	require.Equal(t, GameStatusReady, res.Status)
	require.Equal(t, int64(0), res.Turn)
	require.Equal(t, before, e.Snapshot())
}

func TestGameTickUpdatesSnake(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.foods = farFoods(RedApple, GreenApple, Orange, Banana, RedApple)
	require.True(t, e.Start())

	res := e.Tick()
	require.Equal(t, int64(1), res.Turn)
	require.False(t, res.Wrapped)
	require.Empty(t, res.Eaten)
	require.Equal(t, GameStatusRunning, res.Status)
	require.Equal(t, []Point{{11, 10}, {10, 10}, {9, 10}, {8, 10}, {7, 10}}, e.snake)
	require.Equal(t, 5, e.Score())
}

func TestGameTickWrapPenalty(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.snake = []Point{{19, 10}, {18, 10}, {17, 10}, {16, 10}, {15, 10}}
	e.foods = farFoods(RedApple, GreenApple, Orange, Banana, RedApple)
	e.Start()

	res := e.Tick()
	require.True(t, res.Wrapped)
	require.Equal(t, Point{X: 0, Y: 10}, e.snake[0])
	require.Equal(t, 3, e.Score())
	require.Len(t, e.snake, 5)
}

func TestGameTickWrapPenaltyBeforeFood(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.snake = []Point{{10, 0}, {10, 1}, {10, 2}, {10, 3}, {10, 4}}
	e.dir = Up
	e.foods = append(farFoods(RedApple, GreenApple, GreenApple, GreenApple),
		Food{Pos: Point{X: 10, Y: 19}, Kind: RedApple})
	e.Start()

	res := e.Tick()
	require.True(t, res.Wrapped)
	require.Len(t, res.Eaten, 1)
	require.Equal(t, 4, e.Score())
}

func TestGameTickSnakeEatsRedApple(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.foods = append(farFoods(GreenApple, GreenApple, Orange, Banana),
		Food{Pos: Point{X: 11, Y: 10}, Kind: RedApple})
	e.Start()

	res := e.Tick()
	require.Equal(t, 6, e.Score())
	require.Equal(t, []Food{{Pos: Point{X: 11, Y: 10}, Kind: RedApple}}, res.Eaten)
	require.Len(t, res.Spawned, 1)
	require.Equal(t, RedApple, res.Spawned[0].Kind, "the only red apple was eaten")
	require.Len(t, e.foods, 5)
	require.Len(t, e.snake, 5)
	for _, f := range e.foods {
		require.False(t, f.Pos.Equal(Point{X: 11, Y: 10}))
	}
}

func TestGameTickGreenAppleCostsAPoint(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.Start()

	res := eatAlong(t, e, GreenApple, []Direction{Right})
	require.Len(t, res[0].Eaten, 1)
	require.Equal(t, 4, e.Score())
}

func TestGameTickBananaSpeedsUpThenReverts(t *testing.T) {
	e, clock := testEngine(t, DefaultConfig())
	e.Start()
	require.Equal(t, 200*time.Millisecond, e.Speed())

	res := eatAlong(t, e, Banana, []Direction{Right})
	require.True(t, res[0].SpeedChanged)
	require.Equal(t, 5, e.Score())
	require.Equal(t, 100*time.Millisecond, e.Speed())
	require.Equal(t, int64(100), e.Snapshot().Speed)

	expiry, ok := e.SpeedEffectExpiry()
	require.True(t, ok)
	require.Equal(t, commonStart.Add(5*time.Second), expiry)

	clock.Advance(4999 * time.Millisecond)
	require.Equal(t, 100*time.Millisecond, e.Speed())

	clock.Advance(time.Millisecond)
	require.Equal(t, 200*time.Millisecond, e.Speed())
	_, ok = e.SpeedEffectExpiry()
	require.False(t, ok)

	e.foods = farFoods(RedApple, GreenApple, GreenApple, GreenApple, GreenApple)
	next := e.Tick()
	require.True(t, next.SpeedChanged)
	require.Equal(t, 200*time.Millisecond, e.speed)
}

func TestGameTickOrangeSlowsDown(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.Start()

	eatAlong(t, e, Orange, []Direction{Right})
	require.Equal(t, 300*time.Millisecond, e.Speed())
	require.Equal(t, 5, e.Score())
}

func TestGameTickLastEffectWins(t *testing.T) {
	e, clock := testEngine(t, DefaultConfig())
	e.Start()

	eatAlong(t, e, Orange, []Direction{Right})
	clock.Advance(3 * time.Second)
	eatAlong(t, e, Banana, []Direction{Right})
	require.Equal(t, 100*time.Millisecond, e.Speed())

	// the orange would have expired here
	clock.Advance(2 * time.Second)
	require.Equal(t, 100*time.Millisecond, e.Speed())

	clock.Advance(3 * time.Second)
	require.Equal(t, 200*time.Millisecond, e.Speed())
}

func TestGameTickPausedDoesNotMutate(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.Start()
	e.TogglePause()
	before := e.Snapshot()

	res := e.Tick()
	require.Equal(t, GameStatusPaused, res.Status)
	require.Equal(t, before, e.Snapshot())

	e.TogglePause()
	require.Equal(t, GameStatusRunning, e.Status())
	require.Equal(t, int64(1), e.Tick().Turn)
}

func TestGameTickLostAtExactlyZero(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.Start()

	results := eatAlong(t, e, GreenApple, repeat(Right, 5))
	require.Equal(t, 0, e.Score())
	for _, res := range results[:4] {
		require.Equal(t, GameStatusRunning, res.Status)
	}
	require.Equal(t, GameStatusLost, results[4].Status)
	require.True(t, e.IsOver())

	turn := e.Turn()
	res := e.Tick()
	require.Equal(t, GameStatusLost, res.Status)
	require.Equal(t, turn, e.Turn(), "ended games ignore ticks")
}

func TestGameTickWonAtExactlyThirty(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.Start()

	// 25 red apples without ever wrapping: up 9, right 9, down 7
	dirs := append(repeat(Up, 9), repeat(Right, 9)...)
	dirs = append(dirs, repeat(Down, 7)...)
	results := eatAlong(t, e, RedApple, dirs)

	for _, res := range results {
		require.False(t, res.Wrapped)
	}
	for _, res := range results[:24] {
		require.Equal(t, GameStatusRunning, res.Status)
	}
	require.Equal(t, 30, e.Score())
	require.Equal(t, GameStatusWon, results[24].Status)
	require.Equal(t, GameStatusWon, e.Status())
}

func TestGameTickTopUpStopsWhenPoolFull(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.foods = []Food{}
	for i := 0; i < e.cfg.MaxFoods; i++ {
		e.foods = append(e.foods, Food{Pos: Point{X: i, Y: 2}, Kind: GreenApple})
	}
	e.Start()

	res := e.Tick()
	require.Equal(t, GameStatusRunning, res.Status)
	require.Empty(t, res.Spawned)
	require.Len(t, e.foods, e.cfg.MaxFoods)
	require.Equal(t, 0, e.redApples())
}

func TestGameTickTopsUpMissingFood(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.foods = farFoods(GreenApple, GreenApple)
	e.Start()

	res := e.Tick()
	require.Len(t, res.Spawned, 3)
	require.Len(t, e.foods, 5)
	require.True(t, e.redApples() >= 1)
}

func TestSpawnFoodPoolFull(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	for len(e.foods) < e.cfg.MaxFoods {
		f, err := e.spawnFood()
		require.NoError(t, err)
		require.NotNil(t, f)
	}

	f, err := e.spawnFood()
	require.NoError(t, err)
	require.Nil(t, f)
	require.Len(t, e.foods, e.cfg.MaxFoods)
}

func TestSpawnFoodForcesRedApple(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	e.foods = farFoods(GreenApple, Orange)

	f, err := e.spawnFood()
	require.NoError(t, err)
	require.Equal(t, RedApple, f.Kind)
}

func TestSpawnFoodNoSpace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TileCount = 3
	cfg.SnakeLength = 3
	cfg.MinFoods = 1
	cfg.MaxFoods = 6
	e, _ := testEngine(t, cfg)

	e.foods = []Food{}
	for x := 0; x < 3; x++ {
		for _, y := range []int{0, 2} {
			e.foods = append(e.foods, Food{Pos: Point{X: x, Y: y}, Kind: GreenApple})
		}
	}
	e.cfg.MaxFoods = 7

	f, err := e.spawnFood()
	require.Equal(t, ErrNoSpace, err)
	require.Nil(t, f)
}

func TestSpawnFoodFindsLastFreeCell(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TileCount = 3
	cfg.SnakeLength = 3
	cfg.MinFoods = 1
	cfg.MaxFoods = 6
	e, _ := testEngine(t, cfg)

	e.foods = []Food{}
	for x := 0; x < 3; x++ {
		for _, y := range []int{0, 2} {
			if x == 2 && y == 2 {
				continue
			}
			e.foods = append(e.foods, Food{Pos: Point{X: x, Y: y}, Kind: GreenApple})
		}
	}

	f, err := e.spawnFood()
	require.NoError(t, err)
	require.Equal(t, Point{X: 2, Y: 2}, f.Pos)
}

func TestGameTickInvariants(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())
	rng := rand.New(rand.NewSource(7))
	dirs := []Direction{Up, Down, Left, Right}
	e.Start()

	for i := 0; i < 2000; i++ {
		e.SetDirection(dirs[rng.Intn(len(dirs))])
		res := e.Tick()
		if res.Status.Ended() {
			require.True(t, e.Start())
		}

		require.Len(t, e.snake, e.cfg.SnakeLength)
		require.True(t, len(e.foods) >= e.cfg.MinFoods, "pool below minimum at turn %d", e.turn)
		require.True(t, len(e.foods) <= e.cfg.MaxFoods, "pool above maximum at turn %d", e.turn)
		if len(e.foods) < e.cfg.MaxFoods {
			require.True(t, e.redApples() >= e.cfg.MinRedApples)
		}

		seen := map[Point]bool{}
		for _, f := range e.foods {
			require.False(t, seen[f.Pos], "duplicate food at %v", f.Pos)
			seen[f.Pos] = true
			require.True(t, f.Pos.X >= 0 && f.Pos.X < e.cfg.TileCount)
			require.True(t, f.Pos.Y >= 0 && f.Pos.Y < e.cfg.TileCount)
		}
		for _, s := range e.snake {
			require.False(t, seen[s], "food under the snake at %v", s)
		}
	}
}
