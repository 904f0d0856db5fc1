package canvas

import (
	"math"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

// NormalizeRect turns a drag from a to b into a rect with non-negative width and height.
func NormalizeRect(a, b model.Point) model.Rect {
	x := math.Min(a.X, b.X)
	y := math.Min(a.Y, b.Y)
	return model.Rect{X: x, Y: y, W: math.Abs(b.X - a.X), H: math.Abs(b.Y - a.Y)}
}

// Intersects is an axis-aligned overlap test. Degenerate rects never intersect anything.
func Intersects(a, b model.Rect) bool {
	if a.W <= 0 || a.H <= 0 || b.W <= 0 || b.H <= 0 {
		return false
	}
	return a.X < b.Right() && a.Right() > b.X && a.Y < b.Bottom() && a.Bottom() > b.Y
}

// Union returns the bounding box of rs. ok is false when rs is empty.
func Union(rs []model.Rect) (model.Rect, bool) {
	if len(rs) == 0 {
		return model.Rect{}, false
	}
	minX, minY := rs[0].X, rs[0].Y
	maxX, maxY := rs[0].Right(), rs[0].Bottom()
	for _, r := range rs[1:] {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}
	return model.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

func Inflate(r model.Rect, by float64) model.Rect {
	return model.Rect{X: r.X - by, Y: r.Y - by, W: r.W + 2*by, H: r.H + 2*by}
}

func Distance(a, b model.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
