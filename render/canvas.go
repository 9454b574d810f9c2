package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-drive/visual"
)

// Cell is one terminal character with packed colors
type Cell struct {
	Rune rune
	Fg   visual.RGB
	Bg   visual.RGB
	Bold bool
}

// Canvas is an off-screen cell grid flushed to a tcell screen once per frame
type Canvas struct {
	cells  []Cell
	width  int
	height int
}

// NewCanvas creates a cleared canvas
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

// Resize adjusts dimensions, reallocating only if capacity is insufficient
func (c *Canvas) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	size := width * height
	if cap(c.cells) < size {
		c.cells = make([]Cell, size)
	} else {
		c.cells = c.cells[:size]
	}
	c.width = width
	c.height = height
	c.Clear()
}

// Clear resets all cells to blank using exponential copy
func (c *Canvas) Clear() {
	if len(c.cells) == 0 {
		return
	}
	c.cells[0] = Cell{Rune: ' ', Fg: colorText, Bg: colorBackground}
	for filled := 1; filled < len(c.cells); filled *= 2 {
		copy(c.cells[filled:], c.cells[:filled])
	}
}

// Size returns canvas dimensions
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

func (c *Canvas) inBounds(x, y int) bool {
	return x >= 0 && x < c.width && y >= 0 && y < c.height
}

// Set writes a rune and foreground, keeping the background
func (c *Canvas) Set(x, y int, r rune, fg visual.RGB) {
	if !c.inBounds(x, y) {
		return
	}
	cell := &c.cells[y*c.width+x]
	cell.Rune = r
	cell.Fg = fg
}

// SetBg paints a cell background
func (c *Canvas) SetBg(x, y int, bg visual.RGB) {
	if !c.inBounds(x, y) {
		return
	}
	c.cells[y*c.width+x].Bg = bg
}

// Text writes s left to right, clipped at the edge
func (c *Canvas) Text(x, y int, s string, fg visual.RGB, bold bool) int {
	for _, r := range s {
		if c.inBounds(x, y) {
			cell := &c.cells[y*c.width+x]
			cell.Rune = r
			cell.Fg = fg
			cell.Bold = bold
		}
		x++
	}
	return x
}

// At returns the cell at x,y; out of bounds returns the zero Cell
func (c *Canvas) At(x, y int) Cell {
	if !c.inBounds(x, y) {
		return Cell{}
	}
	return c.cells[y*c.width+x]
}

// Row returns the runes of line y
func (c *Canvas) Row(y int) string {
	if y < 0 || y >= c.height {
		return ""
	}
	rs := make([]rune, c.width)
	for x := 0; x < c.width; x++ {
		rs[x] = c.cells[y*c.width+x].Rune
	}
	return string(rs)
}

// Flush copies the canvas to screen and shows it
func (c *Canvas) Flush(screen tcell.Screen) {
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			cell := c.cells[y*c.width+x]
			style := tcell.StyleDefault.
				Foreground(toColor(cell.Fg)).
				Background(toColor(cell.Bg)).
				Bold(cell.Bold)
			screen.SetContent(x, y, cell.Rune, nil, style)
		}
	}
	screen.Show()
}

func toColor(c visual.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c>>16&0xff), int32(c>>8&0xff), int32(c&0xff))
}
