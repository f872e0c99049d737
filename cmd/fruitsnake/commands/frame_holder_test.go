package commands

import (
	"testing"
	"time"

	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/stretchr/testify/require"
)

func TestFrameHolder(t *testing.T) {
	fh := &frameHolder{}
	require.Equal(t, 0, fh.count())
	require.Nil(t, fh.get(0))

	first := fh.initialFrame()
	go func() {
		for turn := int64(0); turn < 3; turn++ {
			fh.append(&rules.Snapshot{Turn: turn})
		}
	}()

	select {
	case f := <-first:
		require.Equal(t, int64(0), f.Turn)
	case <-time.After(time.Second):
		t.Fatal("no initial frame")
	}

	for fh.count() < 3 {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, int64(2), fh.get(2).Turn)
	require.Nil(t, fh.get(-1))
	require.Nil(t, fh.get(3))
}

func TestMoveFrames(t *testing.T) {
	fh := &frameHolder{}
	for turn := int64(0); turn < 3; turn++ {
		fh.append(&rules.Snapshot{Turn: turn})
	}

	i, f, done := moveFrameForwards(0, fh)
	require.Equal(t, 1, i)
	require.Equal(t, int64(1), f.Turn)
	require.False(t, done)

	i, f, done = moveFrameForwards(2, fh)
	require.Equal(t, 3, i)
	require.Nil(t, f)
	require.True(t, done)

	i, f = moveFrameBackwards(1, fh)
	require.Equal(t, 0, i)
	require.Equal(t, int64(0), f.Turn)
	i, _ = moveFrameBackwards(0, fh)
	require.Equal(t, 0, i)
}
