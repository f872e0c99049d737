package commands

import (
	"github.com/battlesnakeio/fruitsnake/worker"
	termbox "github.com/nsf/termbox-go"
)

var keyCommands = map[termbox.Key]worker.Command{
	termbox.KeyArrowUp:    worker.CommandUp,
	termbox.KeyArrowDown:  worker.CommandDown,
	termbox.KeyArrowLeft:  worker.CommandLeft,
	termbox.KeyArrowRight: worker.CommandRight,
	termbox.KeySpace:      worker.CommandPause,
	termbox.KeyEnter:      worker.CommandStart,
	termbox.KeyBackspace:  worker.CommandReset,
	termbox.KeyBackspace2: worker.CommandReset,
	termbox.KeyEsc:        worker.CommandExit,
}

var runeCommands = map[rune]worker.Command{
	'w': worker.CommandUp,
	's': worker.CommandDown,
	'a': worker.CommandLeft,
	'd': worker.CommandRight,
	'p': worker.CommandPause,
	'r': worker.CommandReset,
}

// keyCommand maps a key press to a session command. quit is set for the keys
// that leave the program.
func keyCommand(ev termbox.Event) (cmd worker.Command, quit bool, ok bool) {
	if ev.Type != termbox.EventKey {
		return "", false, false
	}
	if ev.Ch != 0 {
		if ev.Ch == 'q' || ev.Ch == 'Q' {
			return "", true, false
		}
		ch := ev.Ch
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		cmd, ok = runeCommands[ch]
		return cmd, false, ok
	}
	if ev.Key == termbox.KeyCtrlC {
		return "", true, false
	}
	cmd, ok = keyCommands[ev.Key]
	return cmd, false, ok
}
