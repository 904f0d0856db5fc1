package workspace

import (
	"math"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
)

// Interaction is the single active interaction mode. Exactly one value is current.
type Interaction interface {
	Name() string
}

type Idle struct{}

type SelectTarget string

const (
	SelectCanvas  SelectTarget = "canvas"
	SelectFiles   SelectTarget = "files"
	SelectEntries SelectTarget = "entries"
)

// Selecting is an in-progress marquee. Sidebar marquees live in the sidebar state;
// Marquee is only meaningful for SelectCanvas.
type Selecting struct {
	Target  SelectTarget
	Marquee selection.Marquee
}

type DragKind string

const (
	DragFile       DragKind = "file"
	DragMember     DragKind = "member"
	DragAnnotation DragKind = "annotation"
	DragSelection  DragKind = "selection"
)

type Dragging struct {
	Kind DragKind
	// Key is the pressed item; in a selection drag it anchors the delta.
	Key        model.ItemKey
	Press      model.Point
	Offset     model.Point
	Moved      bool
	Modifier   bool
	DropTarget string

	start map[model.ItemKey]model.Rect
}

type Resizing struct {
	Key    model.ItemKey
	Press  model.Point
	Origin model.Point
	Start  canvas.Size
}

type Renaming struct {
	GroupID string
	Draft   string
}

func (Idle) Name() string      { return "idle" }
func (Selecting) Name() string { return "selecting" }
func (Dragging) Name() string  { return "dragging" }
func (Resizing) Name() string  { return "resizing" }
func (Renaming) Name() string  { return "renaming" }

type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// PointerEvent is one pointer sample in canvas coordinates. DropGroup is the group id of a
// host-rendered drop target under the pointer (sidebar rows); canvas outlines are hit-tested
// by the engine.
type PointerEvent struct {
	Point     model.Point
	Button    Button
	Modifier  bool
	DropGroup string
}

// PointerDown starts a drag, resize or marquee. Only the primary button is handled.
func (e *Engine) PointerDown(ev PointerEvent) {
	if ev.Button != ButtonPrimary {
		return
	}
	e.endRename()
	e.abandonInteraction()
	items := e.canvasItems()

	if r, ok := e.resizeHandleAt(ev.Point, items); ok {
		e.suppress = r.Key
		e.mode = r
		e.changed()
		return
	}

	hit, ok := selection.HitTest(ev.Point, selectables(items))
	if !ok {
		e.selected = selection.KeySet{}
		e.active = ""
		e.mode = Selecting{Target: SelectCanvas, Marquee: selection.Marquee{Start: ev.Point, Current: ev.Point}}
		e.changed()
		return
	}

	e.suppress = hit.Key
	d := Dragging{
		Key:      hit.Key,
		Press:    ev.Point,
		Offset:   ev.Point.Sub(hit.Bounds.Origin()),
		Modifier: ev.Modifier,
	}
	if e.selected.Has(hit.Key) && len(e.selected) >= 2 {
		d.Kind = DragSelection
		d.start = map[model.ItemKey]model.Rect{}
		for _, it := range items {
			if e.selected.Has(it.Key) {
				d.start[it.Key] = it.Bounds
			}
		}
	} else {
		if !e.selected.Has(hit.Key) {
			e.selected = selection.KeySet{}
		}
		d.Kind = dragKindOf(hit.Key)
		d.start = map[model.ItemKey]model.Rect{hit.Key: hit.Bounds}
	}
	e.mode = d
	e.changed()
}

// BeginSidebarSelect starts a marquee over host-measured rows of one sidebar list.
func (e *Engine) BeginSidebarSelect(l selection.List, p model.Point, rows []selection.Selectable) {
	e.endRename()
	e.abandonInteraction()
	target := SelectFiles
	if l == selection.ListEntries {
		target = SelectEntries
	}
	e.sidebar.Begin(l, p, rows)
	e.mode = Selecting{Target: target}
	e.changed()
}

// abandonInteraction drops any pointer interaction in progress, including a sidebar
// marquee, and leaves the engine Idle. The current selection is kept.
func (e *Engine) abandonInteraction() {
	if m, ok := e.mode.(Selecting); ok && m.Target != SelectCanvas {
		e.sidebar.Commit()
	}
	e.mode = Idle{}
}

// PointerMove advances the current interaction.
func (e *Engine) PointerMove(ev PointerEvent) {
	switch m := e.mode.(type) {
	case Selecting:
		if m.Target == SelectCanvas {
			m.Marquee.Current = ev.Point
			e.selected = m.Marquee.Resolve(selectables(e.canvasItems()))
			e.mode = m
		} else {
			e.sidebar.Update(ev.Point)
		}
		e.changed()
	case Dragging:
		if !m.Moved && canvas.Distance(m.Press, ev.Point) < e.layout.DragThreshold {
			return
		}
		m.Moved = true
		m.Modifier = ev.Modifier
		e.applyDrag(m, ev.Point)
		m.DropTarget = ""
		if ev.Modifier {
			m.DropTarget = e.dropTargetAt(ev, m.draggedKeys())
		}
		e.mode = m
		e.changed()
	case Resizing:
		e.applyResize(m, ev.Point)
		e.changed()
	}
}

// PointerUp finishes the interaction and commits. A drag that never crossed the threshold
// is a click.
func (e *Engine) PointerUp(ev PointerEvent) {
	switch m := e.mode.(type) {
	case Selecting:
		if m.Target == SelectCanvas {
			m.Marquee.Current = ev.Point
			e.selected = m.Marquee.Resolve(selectables(e.canvasItems()))
		} else {
			e.sidebar.Update(ev.Point)
			e.sidebar.Commit()
		}
		e.mode = Idle{}
		e.changed()
	case Dragging:
		e.mode = Idle{}
		if !m.Moved && canvas.Distance(m.Press, ev.Point) < e.layout.DragThreshold {
			e.clickItem(m.Key)
			return
		}
		e.applyDrag(m, ev.Point)
		target := ""
		if ev.Modifier {
			target = e.dropTargetAt(ev, m.draggedKeys())
		}
		if target != "" {
			keys := m.draggedKeys()
			if err := e.groups.MoveItems(target, keys); err == nil {
				e.acknowledge(target, keys)
			}
		}
		e.commit()
	case Resizing:
		e.applyResize(m, ev.Point)
		e.mode = Idle{}
		e.commit()
	}
}

// PointerCancel aborts to Idle. Positions computed so far are kept.
func (e *Engine) PointerCancel() {
	switch e.mode.(type) {
	case Idle, Renaming:
		return
	case Selecting:
		e.abandonInteraction()
		e.changed()
	default:
		e.mode = Idle{}
		e.commit()
	}
}

// Click reports whether a host click event on key should be handled. The first click after
// a press on the same item is swallowed.
func (e *Engine) Click(key model.ItemKey) bool {
	if !e.suppress.IsZero() && e.suppress == key {
		e.suppress = model.ItemKey{}
		return false
	}
	e.suppress = model.ItemKey{}
	return true
}

func (e *Engine) clickItem(k model.ItemKey) {
	if k.Kind == model.KeyAnnotation {
		e.activate(k.ID)
		e.commit()
		return
	}
	e.changed()
}

func (e *Engine) applyDrag(d Dragging, p model.Point) {
	if d.Kind != DragSelection {
		start := d.start[d.Key]
		next := e.layout.Clamp(p.Sub(d.Offset), start.W, start.H)
		e.moveKey(d.Key, next)
		return
	}
	anchor, ok := d.start[d.Key]
	if !ok {
		return
	}
	target := e.layout.Clamp(p.Sub(d.Offset), anchor.W, anchor.H)
	want := target.Sub(anchor.Origin())

	loX, hiX := math.Inf(-1), math.Inf(1)
	loY, hiY := math.Inf(-1), math.Inf(1)
	for _, r := range d.start {
		ax, bx, ay, by := e.layout.DeltaRange(r)
		loX, hiX = math.Max(loX, ax), math.Min(hiX, bx)
		loY, hiY = math.Max(loY, ay), math.Min(hiY, by)
	}
	if loX > hiX || loY > hiY {
		return
	}
	delta := model.Point{X: canvas.Clamp(want.X, loX, hiX), Y: canvas.Clamp(want.Y, loY, hiY)}
	for k, r := range d.start {
		e.moveKey(k, r.Origin().Add(delta))
	}
}

func (e *Engine) applyResize(r Resizing, p model.Point) {
	i, ok := e.annotationIndex(r.Key.ID)
	if !ok {
		return
	}
	a := &e.annotations[i]
	delta := p.Sub(r.Press)
	want := canvas.Size{W: r.Start.W + delta.X, H: r.Start.H + delta.Y}
	sz := e.layout.ClampSize(a.Kind, r.Origin, want)
	a.Width, a.Height = sz.W, sz.H
}

func (e *Engine) moveKey(k model.ItemKey, p model.Point) {
	switch k.Kind {
	case model.KeyFile:
		e.filePlacements.Move(k.ID, p)
	case model.KeyMember:
		e.memberPlacements.Move(k.ID, p)
	case model.KeyAnnotation:
		if i, ok := e.annotationIndex(k.ID); ok {
			e.annotations[i].X, e.annotations[i].Y = p.X, p.Y
		}
	}
}

// resizeHandleAt checks the bottom-right hot corner of the active annotation.
func (e *Engine) resizeHandleAt(p model.Point, items []Item) (Resizing, bool) {
	if e.active == "" {
		return Resizing{}, false
	}
	key := model.AnnotationKey(e.active)
	for _, it := range items {
		if it.Key != key {
			continue
		}
		h := e.layout.ResizeHandle
		handle := model.Rect{X: it.Bounds.Right() - h, Y: it.Bounds.Bottom() - h, W: h, H: h}
		if !handle.Contains(p) {
			return Resizing{}, false
		}
		return Resizing{
			Key:    key,
			Press:  p,
			Origin: it.Bounds.Origin(),
			Start:  canvas.Size{W: it.Bounds.W, H: it.Bounds.H},
		}, true
	}
	return Resizing{}, false
}

// BeginResize starts a resize of an annotation without a handle hit. The annotation is
// activated first.
func (e *Engine) BeginResize(id string, p model.Point) bool {
	if _, ok := e.annotationIndex(id); !ok {
		return false
	}
	e.endRename()
	e.abandonInteraction()
	e.activate(id)
	for _, it := range e.canvasItems() {
		if it.Key == model.AnnotationKey(id) {
			e.mode = Resizing{Key: it.Key, Press: p, Origin: it.Bounds.Origin(), Start: canvas.Size{W: it.Bounds.W, H: it.Bounds.H}}
			e.changed()
			return true
		}
	}
	return false
}

// dropTargetAt returns the group under the pointer that would accept keys. Groups already
// holding every dragged key are skipped.
func (e *Engine) dropTargetAt(ev PointerEvent, keys []model.ItemKey) string {
	accepts := func(id string) bool {
		g, ok := e.groups.Get(id)
		if !ok {
			return false
		}
		for _, k := range keys {
			if !g.Has(k) {
				return true
			}
		}
		return false
	}
	if ev.DropGroup != "" {
		if accepts(ev.DropGroup) {
			return ev.DropGroup
		}
		return ""
	}
	outlines := e.groupOutlines(e.canvasItems())
	for i := len(outlines) - 1; i >= 0; i-- {
		o := outlines[i]
		if o.Bounds.Contains(ev.Point) && accepts(o.GroupID) {
			return o.GroupID
		}
	}
	return ""
}

func (e *Engine) acknowledge(groupID string, keys []model.ItemKey) {
	g, _ := e.groups.Get(groupID)
	e.ack = &DropAck{
		GroupID: groupID,
		Name:    g.Name,
		Count:   len(keys),
		Until:   e.now().Add(e.layout.DropAckDuration),
	}
}

func (d Dragging) draggedKeys() []model.ItemKey {
	if d.Kind != DragSelection {
		return []model.ItemKey{d.Key}
	}
	keys := make([]model.ItemKey, 0, len(d.start))
	for k := range d.start {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

func dragKindOf(k model.ItemKey) DragKind {
	switch k.Kind {
	case model.KeyMember:
		return DragMember
	case model.KeyAnnotation:
		return DragAnnotation
	default:
		return DragFile
	}
}
