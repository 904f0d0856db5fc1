// Package selection resolves marquee rectangles into sets of item keys, on the canvas
// and on the two sidebar lists.
package selection

import (
	"sort"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

// Selectable is one hit-testable item with its live bounds.
type Selectable struct {
	Key    model.ItemKey
	Bounds model.Rect
}

type KeySet map[model.ItemKey]struct{}

func NewKeySet(keys ...model.ItemKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s KeySet) Has(k model.ItemKey) bool {
	_, ok := s[k]
	return ok
}

func (s KeySet) Add(k model.ItemKey) { s[k] = struct{}{} }

func (s KeySet) Remove(k model.ItemKey) { delete(s, k) }

func (s KeySet) Sorted() []model.ItemKey {
	out := make([]model.ItemKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return model.ItemKeyLess(out[i], out[j]) })
	return out
}

func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func (s KeySet) Equal(o KeySet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// Prune drops keys for which live returns false and reports whether anything changed.
func (s KeySet) Prune(live func(model.ItemKey) bool) bool {
	changed := false
	for k := range s {
		if !live(k) {
			delete(s, k)
			changed = true
		}
	}
	return changed
}

// Resolve returns every item whose bounds intersect rect.
func Resolve(rect model.Rect, items []Selectable) KeySet {
	out := KeySet{}
	for _, it := range items {
		if canvas.Intersects(rect, it.Bounds) {
			out.Add(it.Key)
		}
	}
	return out
}

// Marquee is an in-progress rectangle selection.
type Marquee struct {
	Start   model.Point
	Current model.Point
}

func (m Marquee) Rect() model.Rect { return canvas.NormalizeRect(m.Start, m.Current) }

func (m Marquee) Resolve(items []Selectable) KeySet { return Resolve(m.Rect(), items) }

// HitTest returns the topmost item containing p. Items later in the slice are on top.
func HitTest(p model.Point, items []Selectable) (Selectable, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Bounds.Contains(p) {
			return items[i], true
		}
	}
	return Selectable{}, false
}
