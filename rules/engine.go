package rules

import (
	"math/rand"
	"time"
)

// Engine holds the state of a single game and the transitions over it. An
// Engine is owned by one goroutine, it does no locking of its own.
type Engine struct {
	// Clock is the time source for speed effects, defaults to time.Now.
	Clock func() time.Time

	cfg Config
	rng *rand.Rand

	snake []Point
	dir   Direction
	foods []Food
	score int
	turn  int64

	speed        time.Duration
	speedExpires time.Time

	paused  bool
	running bool
	exited  bool
}

// New creates an engine for cfg and resets it. A nil rng is seeded from the
// current time.
func New(cfg Config, rng *rand.Rand) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine{
		Clock: time.Now,
		cfg:   cfg,
		rng:   rng,
	}
	e.Reset()
	return e, nil
}

// Reset puts the engine back to the start of a game: the snake in a
// horizontal line heading right, initial score, default speed and a freshly
// spawned food pool. The game is left ready, not running.
func (e *Engine) Reset() {
	n := e.cfg.TileCount
	head := Point{X: n / 2, Y: n / 2}
	e.snake = make([]Point, e.cfg.SnakeLength)
	for i := range e.snake {
		e.snake[i] = Point{X: ((head.X-i)%n + n) % n, Y: head.Y}
	}
	e.dir = Right
	e.score = e.cfg.InitialScore
	e.turn = 0
	e.speed = time.Duration(e.cfg.Speed)
	e.speedExpires = time.Time{}
	e.paused = false
	e.running = false
	e.exited = false

	e.foods = e.foods[:0]
	for len(e.foods) < e.cfg.MinFoods {
		if f, err := e.spawnFood(); f == nil || err != nil {
			break
		}
	}
}

// Start begins a run. A ready game starts as is, a finished or exited game is
// reset first. It returns false when the game is already running or paused.
func (e *Engine) Start() bool {
	switch e.Status() {
	case GameStatusRunning, GameStatusPaused:
		return false
	case GameStatusReady:
	default:
		e.Reset()
	}
	e.running = true
	return true
}

// Exit stops the current run without resetting it.
func (e *Engine) Exit() {
	if !e.running || e.IsOver() {
		return
	}
	e.running = false
	e.exited = true
}

// SetDirection changes the heading when d is orthogonal to the current axis
// of motion. Reversals and same-axis requests are ignored.
func (e *Engine) SetDirection(d Direction) bool {
	if !turnAllowed(e.dir, d) {
		return false
	}
	e.dir = d
	return true
}

// TogglePause flips the paused flag.
func (e *Engine) TogglePause() {
	e.paused = !e.paused
}

// IsOver reports whether the score crossed a winning or losing threshold.
func (e *Engine) IsOver() bool {
	return e.score <= e.cfg.LoseScore || e.score >= e.cfg.WinScore
}

// Status returns where the game is in its lifecycle.
func (e *Engine) Status() GameStatus {
	switch {
	case e.score >= e.cfg.WinScore:
		return GameStatusWon
	case e.score <= e.cfg.LoseScore:
		return GameStatusLost
	case e.exited:
		return GameStatusExited
	case !e.running:
		return GameStatusReady
	case e.paused:
		return GameStatusPaused
	}
	return GameStatusRunning
}

// Speed is the interval the host should wait before the next tick.
func (e *Engine) Speed() time.Duration {
	if e.effectExpired() {
		return time.Duration(e.cfg.Speed)
	}
	return e.speed
}

// SpeedEffectExpiry returns when the active speed effect ends.
func (e *Engine) SpeedEffectExpiry() (time.Time, bool) {
	if e.speedExpires.IsZero() || e.effectExpired() {
		return time.Time{}, false
	}
	return e.speedExpires, true
}

// Config returns the configuration the engine was created with.
func (e *Engine) Config() Config { return e.cfg }

// Score returns the current score.
func (e *Engine) Score() int { return e.score }

// Turn returns the number of ticks applied since the last reset.
func (e *Engine) Turn() int64 { return e.turn }

// Snapshot returns a copy of the observable state.
func (e *Engine) Snapshot() *Snapshot {
	snake := make([]Point, len(e.snake))
	copy(snake, e.snake)
	foods := make([]Food, len(e.foods))
	copy(foods, e.foods)
	return &Snapshot{
		Turn:      e.turn,
		Status:    e.Status(),
		TileCount: e.cfg.TileCount,
		Snake:     snake,
		Direction: e.dir,
		Foods:     foods,
		Score:     e.score,
		Speed:     e.Speed().Nanoseconds() / int64(time.Millisecond),
		Paused:    e.paused,
	}
}

func (e *Engine) effectExpired() bool {
	return !e.speedExpires.IsZero() && !e.Clock().Before(e.speedExpires)
}

func (e *Engine) applyEffect(effect Effect) bool {
	switch effect {
	case EffectSlow:
		e.speed = time.Duration(e.cfg.SlowSpeed)
	case EffectFast:
		e.speed = time.Duration(e.cfg.FastSpeed)
	default:
		return false
	}
	e.speedExpires = e.Clock().Add(time.Duration(e.cfg.EffectDuration))
	return true
}

// expireSpeedEffect reverts to the default speed once the last effect ran
// out. Reverting does not depend on which effect was active.
func (e *Engine) expireSpeedEffect() bool {
	if !e.effectExpired() {
		return false
	}
	changed := e.speed != time.Duration(e.cfg.Speed)
	e.speed = time.Duration(e.cfg.Speed)
	e.speedExpires = time.Time{}
	return changed
}

func (e *Engine) redApples() int {
	n := 0
	for _, f := range e.foods {
		if f.Kind == RedApple {
			n++
		}
	}
	return n
}
