package grouping

import (
	"math"
	"sort"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

// GridColumns is ceil(sqrt(n)) capped at maxCols.
func GridColumns(n, maxCols int) int {
	if n <= 0 {
		return 0
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if maxCols > 0 && cols > maxCols {
		cols = maxCols
	}
	return cols
}

// GridLayout returns top-left positions for sizes laid out row-major in a square-ish grid
// centred on anchor. Every cell is as large as the largest item.
func GridLayout(sizes []canvas.Size, anchor model.Point, gap float64, maxCols int) []model.Point {
	n := len(sizes)
	if n == 0 {
		return nil
	}
	cols := GridColumns(n, maxCols)
	rows := (n + cols - 1) / cols
	var cellW, cellH float64
	for _, s := range sizes {
		cellW = math.Max(cellW, s.W)
		cellH = math.Max(cellH, s.H)
	}
	totalW := float64(cols)*cellW + float64(cols-1)*gap
	totalH := float64(rows)*cellH + float64(rows-1)*gap
	originX := anchor.X - totalW/2
	originY := anchor.Y - totalH/2

	out := make([]model.Point, n)
	for i := range sizes {
		r := i / cols
		c := i % cols
		out[i] = model.Point{
			X: originX + float64(c)*(cellW+gap),
			Y: originY + float64(r)*(cellH+gap),
		}
	}
	return out
}

// Outline returns the padded bounding box of member rects; ok is false when there are none.
func Outline(members []model.Rect, pad float64) (model.Rect, bool) {
	u, ok := canvas.Union(members)
	if !ok {
		return model.Rect{}, false
	}
	return canvas.Inflate(u, pad), true
}

func sortKeys(keys []model.ItemKey) {
	sort.Slice(keys, func(i, j int) bool { return model.ItemKeyLess(keys[i], keys[j]) })
}
