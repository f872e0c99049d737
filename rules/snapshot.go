package rules

import "time"

// Snapshot is the observable state of a game at a turn. It is what renderers
// draw and what gets recorded as a frame.
type Snapshot struct {
	GameID    string     `json:"gameId,omitempty"`
	Turn      int64      `json:"turn"`
	Status    GameStatus `json:"status"`
	TileCount int        `json:"tileCount"`
	Snake     []Point    `json:"snake"`
	Direction Direction  `json:"direction"`
	Foods     []Food     `json:"foods"`
	Score     int        `json:"score"`
	Speed     int64      `json:"speed"` // milliseconds
	Paused    bool       `json:"paused"`
}

// Head returns the first point in the snake.
func (s *Snapshot) Head() *Point {
	if len(s.Snake) == 0 {
		return nil
	}
	return &s.Snake[0]
}

// Interval returns the tick interval the snapshot was taken at.
func (s *Snapshot) Interval() time.Duration {
	return time.Duration(s.Speed) * time.Millisecond
}

// Game is the metadata of a recorded run.
type Game struct {
	ID        string     `json:"id"`
	Status    GameStatus `json:"status"`
	TileCount int        `json:"tileCount"`
	Score     int        `json:"score"`
	Turn      int64      `json:"turn"`
	Created   time.Time  `json:"created"`
}
