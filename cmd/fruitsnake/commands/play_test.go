package commands

import (
	"testing"

	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/stretchr/testify/require"
)

func TestStatusMessage(t *testing.T) {
	tests := map[rules.GameStatus]string{
		rules.GameStatusReady:   "Press Enter to start the game.",
		rules.GameStatusRunning: "",
		rules.GameStatusPaused:  "Paused. Press Space to resume.",
		rules.GameStatusWon:     "You won! Press Enter to play again.",
		rules.GameStatusLost:    "Game Over! Press Enter to try again.",
		rules.GameStatusExited:  "Game exited. Press Enter to start a new game.",
	}
	for status, msg := range tests {
		require.Equal(t, msg, statusMessage(&rules.Snapshot{Status: status}), string(status))
	}
}

func TestFrameInterval(t *testing.T) {
	require.Equal(t, defaultInterval, frameInterval(nil))
	require.Equal(t, defaultInterval, frameInterval(&rules.Snapshot{}))
	require.Equal(t, int64(100), frameInterval(&rules.Snapshot{Speed: 100}).Nanoseconds()/1e6)
}

func TestOpenStore(t *testing.T) {
	defer func(b string) { backend = b }(backend)

	backend = "none"
	store, closeStore, err := openStore()
	require.NoError(t, err)
	require.Nil(t, store)
	closeStore()

	backend = "inmem"
	store, closeStore, err = openStore()
	require.NoError(t, err)
	require.NotNil(t, store)
	closeStore()

	backend = "carrier-pigeon"
	_, _, err = openStore()
	require.Error(t, err)
}
