package rules

// GameStatus is the lifecycle state of a run.
type GameStatus string

const (
	// GameStatusReady represents a freshly reset game waiting to be started
	GameStatusReady GameStatus = "ready"
	// GameStatusRunning represents a game that accepts ticks
	GameStatusRunning GameStatus = "running"
	// GameStatusPaused represents a running game whose ticks are suspended
	GameStatusPaused GameStatus = "paused"
	// GameStatusWon represents a game that reached the winning score
	GameStatusWon GameStatus = "won"
	// GameStatusLost represents a game whose score dropped to the losing score
	GameStatusLost GameStatus = "lost"
	// GameStatusExited represents a game stopped by the player before it ended
	GameStatusExited GameStatus = "exited"
)

// Ended reports whether the status is terminal for the run.
func (s GameStatus) Ended() bool {
	return s == GameStatusWon || s == GameStatusLost || s == GameStatusExited
}
