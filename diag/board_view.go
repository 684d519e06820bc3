package diag

import (
	"fmt"
	"strings"

	"gongtp/board"
)

// cellDim is the pixel size of one board point in the rendered SVG.
const cellDim = 32

// Cell is a board point reshaped for SVG rendering: plain (x, y) pixel-grid
// coordinates and a fill color, immediately usable as drawing parameters.
// Mirrors server/cell_views.CellViewModel's role for the gridworld views.
type Cell struct {
	X, Y int
	Fill string
}

// ConvertSnapshot reshapes a board snapshot into a grid of Cells, flipping
// the board's bottom-up Y axis into SVG's top-down one — the same
// coordinate-system flip cell_views.Convert performs for gridworld states
// (there: `Y: max_y - y - 1`; here: the same formula over board rows).
func ConvertSnapshot(snap board.Snapshot) [][]Cell {
	grid := make([][]Cell, snap.Width)
	for x := range grid {
		grid[x] = make([]Cell, snap.Height)
	}
	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			grid[x][snap.Height-y-1] = Cell{
				X:    x,
				Y:    snap.Height - y - 1,
				Fill: stoneFill(snap.Stones[y*snap.Width+x]),
			}
		}
	}
	return grid
}

func stoneFill(c board.Color) string {
	switch c {
	case board.Black:
		return "black"
	case board.White:
		return "white"
	default:
		return "none"
	}
}

// RenderSVG draws cells as a grid of points, each stone-occupied point
// filled with a circle. A bare stdlib string builder is used rather than
// html/template: the markup is a fixed handful of tags with no untrusted
// input (board state is entirely first-party), so there is nothing for a
// template engine to escape.
func RenderSVG(cells [][]Cell) string {
	if len(cells) == 0 {
		return `<svg xmlns="http://www.w3.org/2000/svg"></svg>`
	}
	width := len(cells) * cellDim
	height := len(cells[0]) * cellDim

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, width, height)
	b.WriteString(`<rect width="100%" height="100%" fill="#dcb35c"/>`)
	for _, col := range cells {
		for _, cell := range col {
			cx := cell.X*cellDim + cellDim/2
			cy := cell.Y*cellDim + cellDim/2
			if cell.Fill == "none" {
				continue
			}
			fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="%d" fill="%s" stroke="black"/>`,
				cx, cy, cellDim/2-2, cell.Fill)
		}
	}
	b.WriteString(`</svg>`)
	return b.String()
}
