package workspace

import (
	"errors"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/folder"
	"github.com/seong-yoon-choi/onbure-sub000/internal/grouping"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
	"github.com/seong-yoon-choi/onbure-sub000/internal/placement"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
)

func groupErr(id string, err error) error {
	var nf grouping.NotFoundError
	switch {
	case errors.As(err, &nf):
		return mutate.NotFoundError{Kind: "group", ID: id}
	case errors.Is(err, grouping.ErrEmptyName):
		return mutate.ValidationError{Field: "name", Reason: "empty"}
	}
	return err
}

func (e *Engine) knownKeys(keys []model.ItemKey) ([]model.ItemKey, error) {
	if len(keys) == 0 {
		return nil, mutate.ValidationError{Field: "items", Reason: "nothing selected"}
	}
	out := make([]model.ItemKey, 0, len(keys))
	for _, k := range keys {
		if !e.keyKnown(k) {
			return nil, mutate.NotFoundError{Kind: "item", ID: k.String()}
		}
		out = append(out, k)
	}
	return out, nil
}

// CreateGroup groups keys under a fresh GroupN name, taking them out of any other group.
func (e *Engine) CreateGroup(keys []model.ItemKey) (model.Group, error) {
	keys, err := e.knownKeys(keys)
	if err != nil {
		return model.Group{}, err
	}
	g := e.groups.Create(keys, e.now())
	e.commit()
	return g, nil
}

// GroupSelection groups the canvas selection, falling back to the selected sidebar entries.
func (e *Engine) GroupSelection() (model.Group, error) {
	keys := e.selected.Sorted()
	if len(keys) == 0 {
		keys = e.sidebar.Selected(selection.ListEntries).Sorted()
	}
	return e.CreateGroup(keys)
}

func (e *Engine) MoveToGroup(groupID string, keys []model.ItemKey) error {
	keys, err := e.knownKeys(keys)
	if err != nil {
		return err
	}
	if err := e.groups.MoveItems(groupID, keys); err != nil {
		return groupErr(groupID, err)
	}
	e.commit()
	return nil
}

// AddSourcesToGroup adds sidebar sources to a group without placing them. An empty groupID
// creates a new group. Each source joins under its plain source key.
func (e *Engine) AddSourcesToGroup(groupID string, kind model.SourceKind, sourceIDs []string) (model.Group, error) {
	var keys []model.ItemKey
	for _, id := range sourceIDs {
		id = placement.ExtractSourceID(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, err := e.sourceSize(kind, id); err != nil {
			return model.Group{}, err
		}
		if kind == model.SourceMember {
			keys = append(keys, model.MemberKey(id))
		} else {
			keys = append(keys, model.FileKey(id))
		}
	}
	if groupID == "" {
		return e.CreateGroup(keys)
	}
	if err := e.MoveToGroup(groupID, keys); err != nil {
		return model.Group{}, err
	}
	g, _ := e.groups.Get(groupID)
	return g, nil
}

// ReorderGroup moves source before or after target inside one group.
func (e *Engine) ReorderGroup(groupID string, source, target model.ItemKey, pos grouping.Position) (bool, error) {
	if _, ok := e.groups.Get(groupID); !ok {
		return false, mutate.NotFoundError{Kind: "group", ID: groupID}
	}
	if !e.groups.Reorder(groupID, source, target, pos) {
		return false, nil
	}
	e.commit()
	return true, nil
}

func (e *Engine) RenameGroup(groupID, name string) error {
	if err := e.groups.Rename(groupID, name); err != nil {
		return groupErr(groupID, err)
	}
	if r, ok := e.mode.(Renaming); ok && r.GroupID == groupID {
		e.mode = Idle{}
	}
	e.commit()
	return nil
}

// BeginRename enters inline rename of a group with its current name as draft.
func (e *Engine) BeginRename(groupID string) error {
	g, ok := e.groups.Get(groupID)
	if !ok {
		return mutate.NotFoundError{Kind: "group", ID: groupID}
	}
	e.endRename()
	e.abandonInteraction()
	e.menu = ""
	e.mode = Renaming{GroupID: g.ID, Draft: g.Name}
	e.changed()
	return nil
}

func (e *Engine) UpdateRename(draft string) {
	r, ok := e.mode.(Renaming)
	if !ok {
		return
	}
	r.Draft = draft
	e.mode = r
	e.changed()
}

// CommitRename applies the draft. An empty draft is a validation error and keeps renaming.
func (e *Engine) CommitRename() error {
	r, ok := e.mode.(Renaming)
	if !ok {
		return nil
	}
	return e.RenameGroup(r.GroupID, r.Draft)
}

func (e *Engine) CancelRename() {
	if _, ok := e.mode.(Renaming); !ok {
		return
	}
	e.mode = Idle{}
	e.changed()
}

// endRename leaves rename mode, keeping a non-empty draft.
func (e *Engine) endRename() {
	r, ok := e.mode.(Renaming)
	if !ok {
		return
	}
	e.mode = Idle{}
	if strings.TrimSpace(r.Draft) != "" {
		if err := e.groups.Rename(r.GroupID, r.Draft); err == nil {
			e.commit()
		}
	}
}

// DeleteGroup removes the group. Its items stay on the canvas ungrouped.
func (e *Engine) DeleteGroup(groupID string) error {
	if !e.groups.Delete(groupID) {
		return mutate.NotFoundError{Kind: "group", ID: groupID}
	}
	if r, ok := e.mode.(Renaming); ok && r.GroupID == groupID {
		e.mode = Idle{}
	}
	if e.hover == groupID {
		e.hover = ""
	}
	if e.menu == groupID {
		e.menu = ""
	}
	if e.ack != nil && e.ack.GroupID == groupID {
		e.ack = nil
	}
	e.commit()
	return nil
}

func (e *Engine) HideGroup(groupID string) error {
	if err := e.groups.Hide(groupID); err != nil {
		return groupErr(groupID, err)
	}
	e.commit()
	return nil
}

func (e *Engine) ShowGroup(groupID string) error {
	if err := e.groups.Show(groupID); err != nil {
		return groupErr(groupID, err)
	}
	e.commit()
	return nil
}

// Ungroup takes keys out of every group.
func (e *Engine) Ungroup(keys []model.ItemKey) error {
	if len(keys) == 0 {
		return mutate.ValidationError{Field: "items", Reason: "nothing selected"}
	}
	if e.groups.RemoveItems(keys) {
		e.commit()
	}
	return nil
}

// PlaceGroupOnCanvas lays every resolvable member out on a grid centred on anchor,
// placing sidebar-only entries, un-hides the group and selects what was placed.
func (e *Engine) PlaceGroupOnCanvas(groupID string, anchor model.Point) ([]model.ItemKey, error) {
	g, ok := e.groups.Get(groupID)
	if !ok {
		return nil, mutate.NotFoundError{Kind: "group", ID: groupID}
	}
	if len(g.ItemKeys) == 0 {
		return nil, mutate.ValidationError{Field: "group", Reason: "group has no items"}
	}

	var keys []model.ItemKey
	var sizes []canvas.Size
	for _, k := range g.ItemKeys {
		sz, ok := e.ensurePlaced(k, anchor)
		if !ok {
			continue
		}
		keys = append(keys, k)
		sizes = append(sizes, sz)
	}
	_ = e.groups.Show(groupID)
	e.groups.ShowItems(keys)

	points := grouping.GridLayout(sizes, anchor, e.layout.GridGap, e.layout.GridColumns)
	for i, k := range keys {
		e.moveKey(k, e.layout.Clamp(points[i], sizes[i].W, sizes[i].H))
	}
	e.selected = selection.NewKeySet(keys...)
	e.commit()
	return keys, nil
}

// ensurePlaced makes k a canvas item if its source still exists and returns its footprint.
func (e *Engine) ensurePlaced(k model.ItemKey, at model.Point) (canvas.Size, bool) {
	switch k.Kind {
	case model.KeyAnnotation:
		i, ok := e.annotationIndex(k.ID)
		if !ok || e.annotations[i].Kind != model.AnnotationKindFor(e.scope.Mode) {
			return canvas.Size{}, false
		}
		return e.layout.AnnotationSize(e.annotations[i], e.annotations[i].ID == e.active), true
	case model.KeyFile:
		src := placement.ExtractSourceID(k.ID)
		f, known := e.file(src)
		if known && folder.IsFolder(f) {
			return canvas.Size{}, false
		}
		if _, placed := e.filePlacements.Get(k.ID); !placed {
			if !known && e.sourcesLoaded {
				return canvas.Size{}, false
			}
			e.filePlacements.Restore(model.Placement{ID: k.ID, SourceID: src, X: at.X, Y: at.Y})
		}
		return e.layout.File, true
	case model.KeyMember:
		src := placement.ExtractSourceID(k.ID)
		m, known := e.member(src)
		if _, placed := e.memberPlacements.Get(k.ID); !placed {
			if !known && e.sourcesLoaded {
				return canvas.Size{}, false
			}
			e.memberPlacements.Restore(model.Placement{ID: k.ID, SourceID: src, X: at.X, Y: at.Y})
		}
		name := m.Name
		if name == "" {
			name = src
		}
		return e.layout.MemberSize(name), true
	}
	return canvas.Size{}, false
}

func (e *Engine) OpenGroupMenu(groupID string) error {
	if _, ok := e.groups.Get(groupID); !ok {
		return mutate.NotFoundError{Kind: "group", ID: groupID}
	}
	e.menu = groupID
	e.changed()
	return nil
}

func (e *Engine) CloseGroupMenu() {
	if e.menu == "" {
		return
	}
	e.menu = ""
	e.changed()
}

// HoverGroup marks the group under the pointer; "" clears it.
func (e *Engine) HoverGroup(groupID string) {
	if groupID != "" {
		if _, ok := e.groups.Get(groupID); !ok {
			groupID = ""
		}
	}
	if e.hover == groupID {
		return
	}
	e.hover = groupID
	e.changed()
}
