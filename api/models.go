package api

import "github.com/battlesnakeio/fruitsnake/rules"

// CreateSessionRequest optionally seeds the food placement of a new session.
type CreateSessionRequest struct {
	Seed *int64 `json:"seed,omitempty"`
}

// CreateSessionResponse carries the ID of a new session.
type CreateSessionResponse struct {
	ID string
}

// CommandRequest is a player command, either posted or sent on the socket.
type CommandRequest struct {
	Command string `json:"command"`
}

// GamesResponse lists recorded games, best score first.
type GamesResponse struct {
	Games []*rules.Game `json:"games"`
}

// FramesResponse holds a window of a recorded game's frames.
type FramesResponse struct {
	Frames []*rules.Snapshot `json:"frames"`
}
