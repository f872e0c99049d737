package rules

import (
	"time"

	uuid "github.com/satori/go.uuid"
)

// CreateInitialGame creates the record of a new run for the engine's current
// state along with its turn 0 frame.
func CreateInitialGame(e *Engine) (*Game, []*Snapshot) {
	id := uuid.NewV4().String()

	frame := e.Snapshot()
	frame.GameID = id

	game := &Game{
		ID:        id,
		Status:    frame.Status,
		TileCount: frame.TileCount,
		Score:     frame.Score,
		Turn:      frame.Turn,
		Created:   time.Now().UTC(),
	}
	return game, []*Snapshot{frame}
}
