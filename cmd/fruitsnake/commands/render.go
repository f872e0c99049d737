package commands

import (
	"errors"
	"fmt"

	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/mattn/go-runewidth"
	termbox "github.com/nsf/termbox-go"
)

const (
	defaultColor = termbox.ColorDefault
	bgColor      = termbox.ColorDefault
	snakeColor   = termbox.ColorGreen
	headColor    = termbox.ColorYellow

	// every tile is two terminal columns wide so the board looks square
	cellWidth = 2
	left      = 4
	top       = 2
)

var foodRunes = map[rules.FoodKind]rune{
	rules.RedApple:   '🍎',
	rules.GreenApple: '🍏',
	rules.Orange:     '🍊',
	rules.Banana:     '🍌',
}

var foodLegend = []struct {
	kind rules.FoodKind
	text string
}{
	{rules.RedApple, "red apple    +1"},
	{rules.GreenApple, "green apple  -1"},
	{rules.Orange, "orange       slower"},
	{rules.Banana, "banana       faster"},
}

func render(frame *rules.Snapshot, title, message string) error {
	if frame == nil {
		return errors.New("received nil frame")
	}
	err := termbox.Clear(defaultColor, defaultColor)
	if err != nil {
		return err
	}

	n := frame.TileCount
	renderTitle(title)
	renderBoard(n)
	renderSnake(frame.Snake)
	renderFood(frame.Foods)
	renderPanel(frame, left+n*cellWidth+4)
	tbprint(left, top+n+3, defaultColor, defaultColor, message)

	return termbox.Flush()
}

func cellX(x int) int { return left + x*cellWidth }
func cellY(y int) int { return top + y + 1 }

func renderSnake(snake []rules.Point) {
	for i, b := range snake {
		color := snakeColor
		if i == 0 {
			color = headColor
		}
		for c := 0; c < cellWidth; c++ {
			termbox.SetCell(cellX(b.X)+c, cellY(b.Y), ' ', color, color)
		}
	}
}

func renderFood(foods []rules.Food) {
	for _, f := range foods {
		termbox.SetCell(cellX(f.Pos.X), cellY(f.Pos.Y), foodRunes[f.Kind], defaultColor, bgColor)
	}
}

func renderBoard(n int) {
	width := n * cellWidth
	bottom := top + n + 1
	for i := top + 1; i < bottom; i++ {
		termbox.SetCell(left-1, i, '│', defaultColor, bgColor)
		termbox.SetCell(left+width, i, '│', defaultColor, bgColor)
	}

	termbox.SetCell(left-1, top, '┌', defaultColor, bgColor)
	termbox.SetCell(left-1, bottom, '└', defaultColor, bgColor)
	termbox.SetCell(left+width, top, '┐', defaultColor, bgColor)
	termbox.SetCell(left+width, bottom, '┘', defaultColor, bgColor)

	fill(left, top, width, 1, termbox.Cell{Ch: '─'})
	fill(left, bottom, width, 1, termbox.Cell{Ch: '─'})
}

func renderTitle(title string) {
	tbprint(left, top-1, defaultColor, defaultColor, title)
}

func renderPanel(frame *rules.Snapshot, x int) {
	y := top + 1
	lines := []string{
		fmt.Sprintf("Score  %d", frame.Score),
		fmt.Sprintf("Turn   %d", frame.Turn),
		fmt.Sprintf("Speed  %v", frame.Interval()),
		fmt.Sprintf("Status %s", frame.Status),
	}
	for _, l := range lines {
		tbprint(x, y, defaultColor, defaultColor, l)
		y++
	}

	y++
	for _, l := range foodLegend {
		termbox.SetCell(x, y, foodRunes[l.kind], defaultColor, bgColor)
		tbprint(x+cellWidth+1, y, defaultColor, defaultColor, l.text)
		y++
	}
}

func fill(x, y, w, h int, cell termbox.Cell) {
	for ly := 0; ly < h; ly++ {
		for lx := 0; lx < w; lx++ {
			termbox.SetCell(x+lx, y+ly, cell.Ch, cell.Fg, cell.Bg)
		}
	}
}

func tbprint(x, y int, fg, bg termbox.Attribute, msg string) {
	for _, c := range msg {
		termbox.SetCell(x, y, c, fg, bg)
		x += runewidth.RuneWidth(c)
	}
}
