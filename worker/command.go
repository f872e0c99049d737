package worker

import (
	"errors"

	"github.com/battlesnakeio/fruitsnake/rules"
)

// ErrInvalidCommand is returned for commands a session does not understand.
var ErrInvalidCommand = errors.New("worker: invalid command")

// Command is an input to a session.
type Command string

// Commands accepted by a session.
const (
	CommandUp    Command = "up"
	CommandDown  Command = "down"
	CommandLeft  Command = "left"
	CommandRight Command = "right"
	CommandPause Command = "pause"
	CommandStart Command = "start"
	CommandReset Command = "reset"
	CommandExit  Command = "exit"
)

var directions = map[Command]rules.Direction{
	CommandUp:    rules.Up,
	CommandDown:  rules.Down,
	CommandLeft:  rules.Left,
	CommandRight: rules.Right,
}

// ParseCommand validates s as a Command.
func ParseCommand(s string) (Command, error) {
	c := Command(s)
	switch c {
	case CommandUp, CommandDown, CommandLeft, CommandRight,
		CommandPause, CommandStart, CommandReset, CommandExit:
		return c, nil
	}
	return "", ErrInvalidCommand
}
