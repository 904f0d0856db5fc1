// Package canvas holds the coordinate and bounds model of the workspace surface.
//
// All coordinates are canvas pixels with the origin at the top-left. Items are
// addressed by their top-left corner; the padding band along every edge is
// never entered by any item.
package canvas

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

type Size struct {
	W float64 `json:"width" yaml:"width"`
	H float64 `json:"height" yaml:"height"`
}

// AnnotationSizes describes the two footprints of one annotation kind.
type AnnotationSizes struct {
	Collapsed Size `json:"collapsed" yaml:"collapsed"`
	Default   Size `json:"default" yaml:"default"`
	Min       Size `json:"min" yaml:"min"`
	Max       Size `json:"max" yaml:"max"`
}

type Layout struct {
	Width   float64 `json:"width" yaml:"width"`
	Height  float64 `json:"height" yaml:"height"`
	Padding float64 `json:"padding" yaml:"padding"`

	File Size `json:"file" yaml:"file"`

	MemberHeight  float64 `json:"memberHeight" yaml:"member_height"`
	MemberBase    float64 `json:"memberBase" yaml:"member_base"`
	MemberPerChar float64 `json:"memberPerChar" yaml:"member_per_char"`
	MemberMin     float64 `json:"memberMin" yaml:"member_min"`
	MemberMax     float64 `json:"memberMax" yaml:"member_max"`

	Comment AnnotationSizes `json:"comment" yaml:"comment"`
	Memo    AnnotationSizes `json:"memo" yaml:"memo"`

	GroupPadding float64 `json:"groupPadding" yaml:"group_padding"`
	GridGap      float64 `json:"gridGap" yaml:"grid_gap"`
	GridColumns  int     `json:"gridColumns" yaml:"grid_columns"`

	// DragThreshold is the pointer travel below which a press is a click.
	DragThreshold float64 `json:"dragThreshold" yaml:"drag_threshold"`
	// ResizeHandle is the edge length of the resize hot corner of the active annotation.
	ResizeHandle    float64       `json:"resizeHandle" yaml:"resize_handle"`
	DropAckDuration time.Duration `json:"dropAckDuration" yaml:"drop_ack_duration"`
}

func DefaultLayout() Layout {
	return Layout{
		Width:   1000,
		Height:  800,
		Padding: 16,

		File: Size{W: 112, H: 96},

		MemberHeight:  56,
		MemberBase:    72,
		MemberPerChar: 8,
		MemberMin:     120,
		MemberMax:     240,

		Comment: AnnotationSizes{
			Collapsed: Size{W: 36, H: 36},
			Default:   Size{W: 280, H: 180},
			Min:       Size{W: 220, H: 140},
			Max:       Size{W: 480, H: 420},
		},
		Memo: AnnotationSizes{
			Collapsed: Size{W: 160, H: 40},
			Default:   Size{W: 240, H: 200},
			Min:       Size{W: 200, H: 120},
			Max:       Size{W: 520, H: 520},
		},

		GroupPadding:    14,
		GridGap:         24,
		GridColumns:     4,
		DragThreshold:   4,
		ResizeHandle:    14,
		DropAckDuration: 1200 * time.Millisecond,
	}
}

// Normalize fills zero fields from the defaults so partially configured layouts stay usable.
func (l Layout) Normalize() Layout {
	d := DefaultLayout()
	if l.Width <= 0 {
		l.Width = d.Width
	}
	if l.Height <= 0 {
		l.Height = d.Height
	}
	if l.Padding < 0 {
		l.Padding = 0
	}
	if l.File.W <= 0 || l.File.H <= 0 {
		l.File = d.File
	}
	if l.MemberHeight <= 0 {
		l.MemberHeight = d.MemberHeight
	}
	if l.MemberBase <= 0 {
		l.MemberBase = d.MemberBase
	}
	if l.MemberPerChar <= 0 {
		l.MemberPerChar = d.MemberPerChar
	}
	if l.MemberMin <= 0 {
		l.MemberMin = d.MemberMin
	}
	if l.MemberMax < l.MemberMin {
		l.MemberMax = math.Max(d.MemberMax, l.MemberMin)
	}
	if l.Comment.Collapsed.W <= 0 {
		l.Comment = d.Comment
	}
	if l.Memo.Collapsed.W <= 0 {
		l.Memo = d.Memo
	}
	if l.GroupPadding <= 0 {
		l.GroupPadding = d.GroupPadding
	}
	if l.GridGap <= 0 {
		l.GridGap = d.GridGap
	}
	if l.GridColumns <= 0 {
		l.GridColumns = d.GridColumns
	}
	if l.DragThreshold <= 0 {
		l.DragThreshold = d.DragThreshold
	}
	if l.ResizeHandle <= 0 {
		l.ResizeHandle = d.ResizeHandle
	}
	if l.DropAckDuration <= 0 {
		l.DropAckDuration = d.DropAckDuration
	}
	return l
}

// Clamp constrains a top-left position so a w×h item stays inside the padded canvas.
// On an axis where the canvas is smaller than the item the coordinate collapses to the padding.
func (l Layout) Clamp(p model.Point, w, h float64) model.Point {
	return model.Point{
		X: clampAxis(p.X, w, l.Width, l.Padding),
		Y: clampAxis(p.Y, h, l.Height, l.Padding),
	}
}

func clampAxis(v, size, extent, pad float64) float64 {
	hi := extent - pad - size
	if hi < pad {
		return pad
	}
	return Clamp(v, pad, hi)
}

// DeltaRange returns the interval of horizontal (or vertical) offsets that keep r inside the canvas.
func (l Layout) DeltaRange(r model.Rect) (loX, hiX, loY, hiY float64) {
	loX, hiX = axisRange(r.X, r.W, l.Width, l.Padding)
	loY, hiY = axisRange(r.Y, r.H, l.Height, l.Padding)
	return loX, hiX, loY, hiY
}

func axisRange(v, size, extent, pad float64) (lo, hi float64) {
	lo = pad - v
	hi = extent - pad - size - v
	if hi < lo {
		// Oversized item: the only valid spot is the padding.
		hi = lo
	}
	return lo, hi
}

func (l Layout) InBounds(r model.Rect) bool {
	const eps = 1e-9
	return r.X >= l.Padding-eps && r.Y >= l.Padding-eps &&
		r.Right() <= l.Width-l.Padding+eps && r.Bottom() <= l.Height-l.Padding+eps
}

func (l Layout) MemberWidth(name string) float64 {
	w := l.MemberBase + l.MemberPerChar*float64(utf8.RuneCountInString(name))
	return Clamp(w, l.MemberMin, l.MemberMax)
}

func (l Layout) MemberSize(name string) Size {
	return Size{W: l.MemberWidth(name), H: l.MemberHeight}
}

func (l Layout) Annotation(kind model.AnnotationKind) AnnotationSizes {
	if kind == model.AnnotationComment {
		return l.Comment
	}
	return l.Memo
}

// AnnotationSize returns the footprint used for bounds: stored size when expanded, the
// fixed collapsed footprint otherwise.
func (l Layout) AnnotationSize(a model.Annotation, expanded bool) Size {
	sz := l.Annotation(a.Kind)
	if !expanded {
		return sz.Collapsed
	}
	return Size{
		W: Clamp(a.Width, sz.Min.W, sz.Max.W),
		H: Clamp(a.Height, sz.Min.H, sz.Max.H),
	}
}

// ResizeLimit returns the largest size an expanded annotation at origin may take.
func (l Layout) ResizeLimit(kind model.AnnotationKind, origin model.Point) Size {
	sz := l.Annotation(kind)
	maxW := math.Min(sz.Max.W, l.Width-l.Padding-origin.X)
	maxH := math.Min(sz.Max.H, l.Height-l.Padding-origin.Y)
	return Size{W: math.Max(maxW, sz.Min.W), H: math.Max(maxH, sz.Min.H)}
}

func (l Layout) ClampSize(kind model.AnnotationKind, origin model.Point, want Size) Size {
	sz := l.Annotation(kind)
	limit := l.ResizeLimit(kind, origin)
	return Size{
		W: Clamp(want.W, sz.Min.W, limit.W),
		H: Clamp(want.H, sz.Min.H, limit.H),
	}
}

func Clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func RectAt(p model.Point, s Size) model.Rect {
	return model.Rect{X: p.X, Y: p.Y, W: s.W, H: s.H}
}
