package workspace

import (
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/folder"
	"github.com/seong-yoon-choi/onbure-sub000/internal/grouping"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
	"github.com/seong-yoon-choi/onbure-sub000/internal/placement"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
)

// Drop is a sidebar-to-canvas drop of one or more sources.
type Drop struct {
	Kind      model.SourceKind
	SourceIDs []string
	Point     model.Point
	Modifier  bool
	// Group is the host-reported drop target; without it the canvas outline under Point is used.
	Group string
}

// DropOnCanvas places every source of d. A single source lands with its top-left at Point;
// several are laid out on the group grid centred on Point. Colliding sources become copies.
func (e *Engine) DropOnCanvas(d Drop) ([]model.ItemKey, error) {
	ids := make([]string, 0, len(d.SourceIDs))
	for _, id := range d.SourceIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, placement.ExtractSourceID(id))
		}
	}
	if len(ids) == 0 {
		return nil, mutate.ValidationError{Field: "sources", Reason: "nothing to drop"}
	}
	reg, err := e.registry(d.Kind)
	if err != nil {
		return nil, err
	}
	sizes := make([]canvas.Size, len(ids))
	for i, id := range ids {
		sz, err := e.sourceSize(d.Kind, id)
		if err != nil {
			return nil, err
		}
		sizes[i] = sz
	}

	points := []model.Point{d.Point}
	if len(ids) > 1 {
		points = grouping.GridLayout(sizes, d.Point, e.layout.GridGap, e.layout.GridColumns)
	}
	keys := make([]model.ItemKey, len(ids))
	for i, id := range ids {
		p := e.layout.Clamp(points[i], sizes[i].W, sizes[i].H)
		keys[i] = reg.Place(id, p).Key()
	}

	if d.Modifier {
		target := d.Group
		if target == "" {
			target = e.dropTargetAt(PointerEvent{Point: d.Point, Modifier: true}, keys)
		}
		if target != "" {
			if err := e.groups.MoveItems(target, keys); err != nil {
				return nil, mutate.NotFoundError{Kind: "group", ID: target}
			}
			e.acknowledge(target, keys)
		}
	}
	e.commit()
	return keys, nil
}

func (e *Engine) registry(kind model.SourceKind) (*placement.Registry, error) {
	switch kind {
	case model.SourceFile:
		return e.filePlacements, nil
	case model.SourceMember:
		return e.memberPlacements, nil
	}
	return nil, mutate.ValidationError{Field: "kind", Reason: "expected file or member, got " + string(kind)}
}

// sourceSize validates a source against the cache and returns its canvas footprint.
// Before the first sync every id is accepted.
func (e *Engine) sourceSize(kind model.SourceKind, id string) (canvas.Size, error) {
	if kind == model.SourceMember {
		m, ok := e.member(id)
		if !ok && e.sourcesLoaded {
			return canvas.Size{}, mutate.NotFoundError{Kind: "member", ID: id}
		}
		name := m.Name
		if name == "" {
			name = id
		}
		return e.layout.MemberSize(name), nil
	}
	f, ok := e.file(id)
	if !ok && e.sourcesLoaded {
		return canvas.Size{}, mutate.NotFoundError{Kind: "file", ID: id}
	}
	if ok && folder.IsFolder(f) {
		return canvas.Size{}, mutate.ValidationError{Field: "sources", Reason: "folders cannot be placed on the canvas"}
	}
	return e.layout.File, nil
}

func (e *Engine) item(k model.ItemKey) (Item, bool) {
	for _, it := range e.canvasItems() {
		if it.Key == k {
			return it, true
		}
	}
	return Item{}, false
}

// MoveItem moves one visible canvas item so its top-left is at p (clamped).
func (e *Engine) MoveItem(k model.ItemKey, p model.Point) (model.Point, error) {
	it, ok := e.item(k)
	if !ok {
		return model.Point{}, mutate.NotFoundError{Kind: "item", ID: k.String()}
	}
	next := e.layout.Clamp(p, it.Bounds.W, it.Bounds.H)
	e.moveKey(k, next)
	e.commit()
	return next, nil
}

// RemoveItem takes a placement off the canvas, or deletes an annotation. Its key leaves
// every group and hidden set.
func (e *Engine) RemoveItem(k model.ItemKey) error {
	switch k.Kind {
	case model.KeyAnnotation:
		return e.DeleteAnnotation(k.ID)
	case model.KeyFile, model.KeyMember:
		kind, _ := k.SourceKind()
		reg, _ := e.registry(kind)
		if !reg.Remove(k.ID) {
			return mutate.NotFoundError{Kind: "placement", ID: k.ID}
		}
	default:
		return mutate.ValidationError{Field: "key", Reason: "unknown kind " + string(k.Kind)}
	}
	e.groups.Forget([]model.ItemKey{k})
	e.commit()
	return nil
}

// Select replaces (or extends, when additive) the canvas selection. Keys that are not
// visible canvas items are ignored.
func (e *Engine) Select(keys []model.ItemKey, additive bool) []model.ItemKey {
	live := map[model.ItemKey]bool{}
	for _, it := range e.canvasItems() {
		live[it.Key] = true
	}
	next := selection.KeySet{}
	if additive {
		next = e.selected.Clone()
	}
	for _, k := range keys {
		if live[k] {
			next.Add(k)
		}
	}
	e.selected = next
	e.changed()
	return e.selected.Sorted()
}

// SelectRect resolves a marquee in one step.
func (e *Engine) SelectRect(a, b model.Point) []model.ItemKey {
	m := selection.Marquee{Start: a, Current: b}
	e.selected = m.Resolve(selectables(e.canvasItems()))
	e.changed()
	return e.selected.Sorted()
}

func (e *Engine) SelectAll() []model.ItemKey {
	next := selection.KeySet{}
	for _, it := range e.canvasItems() {
		next.Add(it.Key)
	}
	e.selected = next
	e.changed()
	return e.selected.Sorted()
}

func (e *Engine) ClearSelection() {
	if len(e.selected) == 0 {
		return
	}
	e.selected = selection.KeySet{}
	e.changed()
}

func (e *Engine) SetSidebarTab(t selection.Tab) {
	if e.sidebar.SetTab(t) {
		e.changed()
	}
}

// ToggleSidebarRow flips one row of a sidebar list, as a ctrl-click would.
func (e *Engine) ToggleSidebarRow(l selection.List, k model.ItemKey) {
	e.sidebar.Toggle(l, k)
	e.prune()
	e.changed()
}

func (e *Engine) ToggleFolder(id string) (bool, error) {
	if !folder.FolderSet(e.files)[id] {
		return false, mutate.NotFoundError{Kind: "folder", ID: id}
	}
	open := e.openFolders.Toggle(id)
	e.changed()
	return open, nil
}

// HideItems hides single items from the canvas without touching their groups.
func (e *Engine) HideItems(keys []model.ItemKey) {
	e.groups.HideItems(keys)
	e.commit()
}

func (e *Engine) ShowItems(keys []model.ItemKey) {
	e.groups.ShowItems(keys)
	e.commit()
}
