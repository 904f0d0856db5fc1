package tui

import (
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

type boxRunes struct {
	tl, tr, bl, br, h, v rune
}

var (
	boxItem     = boxRunes{'┌', '┐', '└', '┘', '─', '│'}
	boxSelected = boxRunes{'╔', '╗', '╚', '╝', '═', '║'}
	boxActive   = boxRunes{'┏', '┓', '┗', '┛', '━', '┃'}
	boxGroup    = boxRunes{'╭', '╮', '╰', '╯', '┄', '┆'}
	boxTarget   = boxRunes{'#', '#', '#', '#', '#', '#'}
	boxMarquee  = boxRunes{'+', '+', '+', '+', '.', ':'}
)

// cellGrid is the plain-rune raster of the canvas pane.
type cellGrid struct {
	w, h  int
	cells [][]rune
}

func newCellGrid(w, h int) *cellGrid {
	g := &cellGrid{w: w, h: h, cells: make([][]rune, h)}
	for y := range g.cells {
		g.cells[y] = []rune(strings.Repeat(" ", w))
	}
	return g
}

func (g *cellGrid) set(x, y int, r rune) {
	if x >= 0 && x < g.w && y >= 0 && y < g.h {
		g.cells[y][x] = r
	}
}

func (g *cellGrid) box(x0, y0, x1, y1 int, b boxRunes) {
	for x := x0 + 1; x < x1; x++ {
		g.set(x, y0, b.h)
		g.set(x, y1, b.h)
	}
	for y := y0 + 1; y < y1; y++ {
		g.set(x0, y, b.v)
		g.set(x1, y, b.v)
	}
	g.set(x0, y0, b.tl)
	g.set(x1, y0, b.tr)
	g.set(x0, y1, b.bl)
	g.set(x1, y1, b.br)
}

func (g *cellGrid) fill(x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			g.set(x, y, ' ')
		}
	}
}

func (g *cellGrid) text(x, y int, s string) {
	for _, r := range []rune(s) {
		g.set(x, y, r)
		x++
	}
}

func (g *cellGrid) String() string {
	lines := make([]string, g.h)
	for y, row := range g.cells {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}

// renderCanvas rasterises outlines, then items in stacking order, then the marquee.
func renderCanvas(v workspace.CanvasView, geo geometry) string {
	grid := newCellGrid(geo.cols, geo.rows)

	for _, o := range v.Groups {
		x0, y0, x1, y1 := geo.toCells(o.Bounds)
		b := boxGroup
		if o.DropTarget || o.GroupID == v.DropTarget {
			b = boxTarget
		}
		grid.box(x0, y0, x1, y1, b)
		grid.text(x0+1, y0, truncate(" "+o.Name+" ", x1-x0-1))
	}

	for _, it := range v.Items {
		x0, y0, x1, y1 := geo.toCells(it.Bounds)
		b := boxItem
		switch {
		case it.Active:
			b = boxActive
		case it.Selected:
			b = boxSelected
		}
		grid.fill(x0, y0, x1, y1)
		if x1-x0 < 2 || y1-y0 < 1 {
			grid.text(x0, y0, truncate(itemGlyph(it)+it.Label, x1-x0+1))
			continue
		}
		grid.box(x0, y0, x1, y1, b)
		inner := x1 - x0 - 1
		grid.text(x0+1, y0+1, truncate(itemGlyph(it)+it.Label, inner))
		if it.Copy && y1-y0 > 2 {
			grid.text(x0+1, y0+2, truncate("copy", inner))
		}
		if it.Active && it.Text != "" {
			for i, ln := range strings.Split(it.Text, "\n") {
				if y0+2+i >= y1 {
					break
				}
				grid.text(x0+1, y0+2+i, truncate(ln, inner))
			}
		}
	}

	if v.Marquee != nil {
		x0, y0, x1, y1 := geo.toCells(*v.Marquee)
		grid.box(x0, y0, x1, y1, boxMarquee)
	}
	return grid.String()
}

func itemGlyph(it workspace.Item) string {
	switch it.Key.Kind {
	case model.KeyMember:
		return "@"
	case model.KeyAnnotation:
		return "✎ "
	}
	return ""
}
