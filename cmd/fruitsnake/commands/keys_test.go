package commands

import (
	"testing"

	"github.com/battlesnakeio/fruitsnake/worker"
	termbox "github.com/nsf/termbox-go"
	"github.com/stretchr/testify/require"
)

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		name string
		ev   termbox.Event
		cmd  worker.Command
		quit bool
		ok   bool
	}{
		{"arrow", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyArrowLeft}, worker.CommandLeft, false, true},
		{"wasd", termbox.Event{Type: termbox.EventKey, Ch: 'w'}, worker.CommandUp, false, true},
		{"upper case", termbox.Event{Type: termbox.EventKey, Ch: 'D'}, worker.CommandRight, false, true},
		{"space", termbox.Event{Type: termbox.EventKey, Key: termbox.KeySpace}, worker.CommandPause, false, true},
		{"p", termbox.Event{Type: termbox.EventKey, Ch: 'p'}, worker.CommandPause, false, true},
		{"enter", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyEnter}, worker.CommandStart, false, true},
		{"backspace", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyBackspace2}, worker.CommandReset, false, true},
		{"r", termbox.Event{Type: termbox.EventKey, Ch: 'r'}, worker.CommandReset, false, true},
		{"escape", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyEsc}, worker.CommandExit, false, true},
		{"q", termbox.Event{Type: termbox.EventKey, Ch: 'q'}, "", true, false},
		{"ctrl-c", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlC}, "", true, false},
		{"unbound", termbox.Event{Type: termbox.EventKey, Ch: 'x'}, "", false, false},
		{"resize", termbox.Event{Type: termbox.EventResize}, "", false, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cmd, quit, ok := keyCommand(test.ev)
			require.Equal(t, test.cmd, cmd)
			require.Equal(t, test.quit, quit)
			require.Equal(t, test.ok, ok)
		})
	}
}
