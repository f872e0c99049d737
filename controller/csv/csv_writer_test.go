package csv

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/battlesnakeio/fruitsnake/controller/testsuite"
	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/stretchr/testify/require"
)

func TestDirectionBetween(t *testing.T) {
	require.Equal(t, "r", directionBetween(rules.Point{X: 3, Y: 3}, rules.Point{X: 4, Y: 3}, 20))
	require.Equal(t, "r", directionBetween(rules.Point{X: 19, Y: 3}, rules.Point{X: 0, Y: 3}, 20))
	require.Equal(t, "l", directionBetween(rules.Point{X: 0, Y: 3}, rules.Point{X: 19, Y: 3}, 20))
	require.Equal(t, "u", directionBetween(rules.Point{X: 3, Y: 3}, rules.Point{X: 3, Y: 2}, 20))
	require.Equal(t, "u", directionBetween(rules.Point{X: 3, Y: 0}, rules.Point{X: 3, Y: 19}, 20))
	require.Equal(t, "d", directionBetween(rules.Point{X: 3, Y: 3}, rules.Point{X: 3, Y: 4}, 20))
	require.Equal(t, "_", directionBetween(rules.Point{X: 3, Y: 3}, rules.Point{X: 3, Y: 3}, 20))
}

func TestWriteGame(t *testing.T) {
	game := testsuite.Game(6)
	f0 := testsuite.Frame(game.ID, 0, 5)
	f1 := testsuite.Frame(game.ID, 1, 6)
	f0.Foods = []rules.Food{{Pos: rules.Point{X: 11, Y: 10}, Kind: rules.RedApple}}

	buf := &bytes.Buffer{}
	require.NoError(t, WriteGame(buf, game, []*rules.Snapshot{f0, f1}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], `#{"id":"`+game.ID))
	require.Equal(t, "turn,move,score,status,speed,ate", lines[1])
	require.Equal(t, "1,r,6,running,200,red-apple", lines[2])
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("fail") }

func TestWriteGameError(t *testing.T) {
	err := WriteGame(failWriter{}, testsuite.Game(5), nil)
	require.Error(t, err)
}
