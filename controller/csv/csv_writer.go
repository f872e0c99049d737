package csv

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/battlesnakeio/fruitsnake/rules"
)

/*
An exported game looks like this, the metadata json is all on one line:

#{"id":"1234","status":"won","tileCount":20,"score":30,"turn":112,...}
turn,move,score,status,speed,ate
1,r,5,running,200,
2,u,6,running,200,red-apple
*/

var columns = []string{"turn", "move", "score", "status", "speed", "ate"}

// directionBetween returns the move letter from head a to head b on a board
// of size n, a step across an edge counts as the move that wrapped.
func directionBetween(a, b rules.Point, n int) string {
	dx, dy := b.X-a.X, b.Y-a.Y
	switch {
	case dx == 1 || dx == -(n-1):
		return "r"
	case dx == -1 || dx == n-1:
		return "l"
	case dy == 1 || dy == -(n-1):
		return "d"
	case dy == -1 || dy == n-1:
		return "u"
	}
	return "_"
}

func findMove(thisFrame, previousFrame *rules.Snapshot) string {
	thisHead := thisFrame.Head()
	previousHead := previousFrame.Head()
	if thisHead == nil || previousHead == nil {
		return "_"
	}
	return directionBetween(*previousHead, *thisHead, thisFrame.TileCount)
}

// findEaten lists the foods that were under the new head in the previous frame.
func findEaten(thisFrame, previousFrame *rules.Snapshot) string {
	head := thisFrame.Head()
	if head == nil {
		return ""
	}
	eaten := []string{}
	for _, f := range previousFrame.Foods {
		if f.Pos.Equal(*head) {
			eaten = append(eaten, f.Kind.String())
		}
	}
	return strings.Join(eaten, "+")
}

func toRow(thisFrame, previousFrame *rules.Snapshot) []string {
	return []string{
		strconv.FormatInt(thisFrame.Turn, 10),
		findMove(thisFrame, previousFrame),
		strconv.Itoa(thisFrame.Score),
		string(thisFrame.Status),
		strconv.FormatInt(thisFrame.Speed, 10),
		findEaten(thisFrame, previousFrame),
	}
}

func writeMetadata(w io.Writer, game *rules.Game) error {
	metaJSON, err := json.Marshal(game)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "#"+string(metaJSON)+"\n")
	return err
}

// WriteGame exports a recorded game as CSV, one row per turn after the
// initial frame.
func WriteGame(w io.Writer, game *rules.Game, frames []*rules.Snapshot) error {
	// First line: commented out metadata.
	if err := writeMetadata(w, game); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	// Second line: column headers
	if err := cw.Write(columns); err != nil {
		return err
	}

	// Subsequent lines: actual CSV data
	for i := 1; i < len(frames); i++ {
		if err := cw.Write(toRow(frames[i], frames[i-1])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
