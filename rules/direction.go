package rules

import "fmt"

// Point is a cell on the board.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Equal checks if 2 points are the same x,y coordinate
func (p Point) Equal(other Point) bool {
	return p.X == other.X && p.Y == other.Y
}

// Direction is a unit step, exactly one of X and Y is non zero.
type Direction struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var (
	// Up moves towards row 0
	Up = Direction{X: 0, Y: -1}
	// Down moves towards the last row
	Down = Direction{X: 0, Y: 1}
	// Left moves towards column 0
	Left = Direction{X: -1, Y: 0}
	// Right moves towards the last column
	Right = Direction{X: 1, Y: 0}
)

// ParseDirection converts "up", "down", "left" or "right" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Direction{}, fmt.Errorf("rules: unknown direction %q", s)
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("(%d,%d)", d.X, d.Y)
}

// turnAllowed reports whether next leaves the current axis of motion. Moving
// horizontally needs the current X to be 0, vertically the current Y.
func turnAllowed(current, next Direction) bool {
	if next.X != 0 && next.Y == 0 {
		return current.X == 0
	}
	if next.Y != 0 && next.X == 0 {
		return current.Y == 0
	}
	return false
}

// step moves p one cell in d on a torus of size n. wrapped is true when the
// move crossed an edge.
func step(p Point, d Direction, n int) (next Point, wrapped bool) {
	x, y := p.X+d.X, p.Y+d.Y
	next = Point{X: ((x % n) + n) % n, Y: ((y % n) + n) % n}
	return next, next.X != x || next.Y != y
}
