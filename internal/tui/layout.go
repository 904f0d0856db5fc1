package tui

import (
	"math"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

const (
	sidebarWidth = 28
	previewWidth = 36
	headerRows   = 1
	footerRows   = 1
)

// geometry maps terminal cells to canvas pixels for the current window size.
//
//	row 0            header
//	rows 1..h-2      sidebar | canvas | preview
//	row h-1          footer
type geometry struct {
	sideW    int
	canvasX  int
	canvasY  int
	cols     int
	rows     int
	previewX int
	previewW int

	// Canvas pixels per cell.
	sx, sy float64
}

func newGeometry(width, height int, l canvas.Layout, sidebar, preview bool) geometry {
	g := geometry{canvasY: headerRows}
	if sidebar && width >= sidebarWidth+20 {
		g.sideW = sidebarWidth
	}
	if preview && width-g.sideW >= previewWidth+20 {
		g.previewW = previewWidth
	}
	g.canvasX = g.sideW
	g.cols = max(width-g.sideW-g.previewW, 1)
	g.rows = max(height-headerRows-footerRows, 1)
	g.previewX = g.canvasX + g.cols
	g.sx = l.Width / float64(g.cols)
	g.sy = l.Height / float64(g.rows)
	return g
}

func (g geometry) inCanvas(x, y int) bool {
	return x >= g.canvasX && x < g.canvasX+g.cols && y >= g.canvasY && y < g.canvasY+g.rows
}

func (g geometry) inSidebar(x, y int) bool {
	return g.sideW > 0 && x < g.sideW && y >= g.canvasY && y < g.canvasY+g.rows
}

// toCanvas returns the canvas point under the centre of cell (x, y). Cells outside the
// canvas pane map onto its nearest edge.
func (g geometry) toCanvas(x, y int) model.Point {
	cx := min(max(x-g.canvasX, 0), g.cols-1)
	cy := min(max(y-g.canvasY, 0), g.rows-1)
	return model.Point{X: (float64(cx) + 0.5) * g.sx, Y: (float64(cy) + 0.5) * g.sy}
}

// toCells returns the cell span [x0,x1]×[y0,y1] covered by r, relative to the canvas pane.
func (g geometry) toCells(r model.Rect) (x0, y0, x1, y1 int) {
	x0 = int(math.Floor(r.X / g.sx))
	y0 = int(math.Floor(r.Y / g.sy))
	x1 = int(math.Ceil(r.Right()/g.sx)) - 1
	y1 = int(math.Ceil(r.Bottom()/g.sy)) - 1
	return x0, y0, max(x1, x0), max(y1, y0)
}

// normalizePane forces s to exactly width columns (ANSI-aware) and height lines so panes
// line up under lipgloss.JoinHorizontal.
func normalizePane(s string, width, height int) string {
	width = max(width, 0)
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			ln = xansi.Truncate(ln, width, "…")
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// truncate shortens a label to at most w columns.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	if w == 1 {
		return xansi.Truncate(s, 1, "")
	}
	return xansi.Truncate(s, w, "…")
}
