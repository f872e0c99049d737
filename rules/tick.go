package rules

import (
	"errors"

	log "github.com/sirupsen/logrus"
)

// ErrNoSpace is returned when no free cell is left for a new food.
var ErrNoSpace = errors.New("rules: no unoccupied cell left for food")

// maxSpawnAttempts caps the random sampling before falling back to scanning
// the board for free cells.
const maxSpawnAttempts = 100

// TickResult describes what a single tick changed.
type TickResult struct {
	Turn         int64
	Wrapped      bool
	Eaten        []Food
	Spawned      []Food
	SpeedChanged bool
	Status       GameStatus
}

// Tick runs the game one step: move the head (wrapping around the edges),
// drop the tail, eat whatever is under the new head, check for the end of the
// game and top the food pool back up. Ticks on a game that is not running are
// ignored.
func (e *Engine) Tick() *TickResult {
	res := &TickResult{Turn: e.turn}
	if e.Status() != GameStatusRunning {
		res.Status = e.Status()
		return res
	}

	res.SpeedChanged = e.expireSpeedEffect()
	e.turn++
	res.Turn = e.turn

	// 1. move the snake, the length never changes
	head, wrapped := step(e.snake[0], e.dir, e.cfg.TileCount)
	if wrapped {
		res.Wrapped = true
		e.score -= e.cfg.WrapPenalty
		log.WithFields(log.Fields{
			"Turn":  e.turn,
			"Head":  head,
			"Score": e.score,
		}).Debug("wrapped around the board")
	}
	e.snake = append([]Point{head}, e.snake[:len(e.snake)-1]...)

	// 2. eat, replacing every eaten food with a new one
	for _, f := range e.eatFoodAt(head) {
		e.score += f.Kind.Points()
		if e.applyEffect(f.Kind.Effect()) {
			res.SpeedChanged = true
		}
		res.Eaten = append(res.Eaten, f)
		log.WithFields(log.Fields{
			"Turn":  e.turn,
			"Food":  f.Kind,
			"Score": e.score,
		}).Debug("snake ate")
		e.spawnInto(res)
	}

	// 3. check for the end of the game
	if e.IsOver() {
		e.running = false
		res.Status = e.Status()
		log.WithFields(log.Fields{
			"Turn":   e.turn,
			"Score":  e.score,
			"Status": res.Status,
		}).Info("game over")
		return res
	}

	// 4. keep the minimum food and red apples on the board
	for len(e.foods) < e.cfg.MinFoods || e.redApples() < e.cfg.MinRedApples {
		if !e.spawnInto(res) {
			break
		}
	}
	res.Status = e.Status()
	return res
}

// eatFoodAt removes and returns the foods at p, scanning from the back of the
// pool.
func (e *Engine) eatFoodAt(p Point) []Food {
	var eaten []Food
	for i := len(e.foods) - 1; i >= 0; i-- {
		if e.foods[i].Pos.Equal(p) {
			eaten = append(eaten, e.foods[i])
			e.foods = append(e.foods[:i], e.foods[i+1:]...)
		}
	}
	return eaten
}

func (e *Engine) spawnInto(res *TickResult) bool {
	f, err := e.spawnFood()
	if err != nil {
		log.WithError(err).WithField("Turn", e.turn).Warn("unable to spawn food")
		return false
	}
	if f == nil {
		return false
	}
	res.Spawned = append(res.Spawned, *f)
	return true
}

// spawnFood adds one food to the pool. It is a no-op returning nil when the
// pool is full. Red apples are forced while the board has fewer than the
// configured minimum, otherwise the kind is uniformly random.
func (e *Engine) spawnFood() (*Food, error) {
	if len(e.foods) >= e.cfg.MaxFoods {
		return nil, nil
	}

	kind := RedApple
	if e.redApples() >= e.cfg.MinRedApples {
		kind = FoodKinds[e.rng.Intn(len(FoodKinds))]
	}

	p, err := e.getUnoccupiedPoint()
	if err != nil {
		return nil, err
	}
	f := Food{Pos: p, Kind: kind}
	e.foods = append(e.foods, f)
	return &f, nil
}

// getUnoccupiedPoint picks a uniformly random cell free of snake and food.
func (e *Engine) getUnoccupiedPoint() (Point, error) {
	n := e.cfg.TileCount
	for attempts := 0; attempts < maxSpawnAttempts; attempts++ {
		p := Point{X: e.rng.Intn(n), Y: e.rng.Intn(n)}
		if !e.isOccupied(p) {
			return p, nil
		}
	}

	openPoints := e.getUnoccupiedPoints()
	if len(openPoints) == 0 {
		return Point{}, ErrNoSpace
	}
	return openPoints[e.rng.Intn(len(openPoints))], nil
}

func (e *Engine) getUnoccupiedPoints() []Point {
	occupied := make(map[Point]bool, len(e.snake)+len(e.foods))
	for _, s := range e.snake {
		occupied[s] = true
	}
	for _, f := range e.foods {
		occupied[f.Pos] = true
	}

	n := e.cfg.TileCount
	candidatePoints := make([]Point, 0, n*n-len(occupied))
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			p := Point{X: x, Y: y}
			if !occupied[p] {
				candidatePoints = append(candidatePoints, p)
			}
		}
	}
	return candidatePoints
}

func (e *Engine) isOccupied(p Point) bool {
	for _, s := range e.snake {
		if s.Equal(p) {
			return true
		}
	}
	for _, f := range e.foods {
		if f.Pos.Equal(p) {
			return true
		}
	}
	return false
}
