package workspace

import (
	"sort"
	"time"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/folder"
	"github.com/seong-yoon-choi/onbure-sub000/internal/grouping"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/perm"
	"github.com/seong-yoon-choi/onbure-sub000/internal/placement"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
)

// View is the render model of one scope. It is recomputed from engine state on request
// and never cached.
type View struct {
	Scope       model.Scope `json:"scope"`
	Revision    int         `json:"revision"`
	Interaction string      `json:"interaction"`

	Canvas  CanvasView  `json:"canvas"`
	Sidebar SidebarView `json:"sidebar"`

	Renaming *RenameView `json:"renaming,omitempty"`
	Notice   *Notice     `json:"notice,omitempty"`

	Identity       perm.Identity  `json:"identity"`
	CanManageRoles bool           `json:"canManageRoles"`
	Members        []model.Member `json:"members"`
	ShareTargets   []model.Member `json:"shareTargets"`
}

type CanvasView struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`

	Items      []Item          `json:"items"`
	Groups     []Outline       `json:"groups"`
	Selected   []model.ItemKey `json:"selected"`
	Marquee    *model.Rect     `json:"marquee,omitempty"`
	DropTarget string          `json:"dropTarget,omitempty"`
	Ack        *DropAck        `json:"ack,omitempty"`
}

// Item is one selectable canvas item with its live bounds.
type Item struct {
	Key      model.ItemKey `json:"key"`
	SourceID string        `json:"sourceId,omitempty"`
	Label    string        `json:"label"`
	Bounds   model.Rect    `json:"bounds"`
	Selected bool          `json:"selected,omitempty"`
	GroupID  string        `json:"groupId,omitempty"`
	Copy     bool          `json:"copy,omitempty"`
	Active   bool          `json:"active,omitempty"`
	Text     string        `json:"text,omitempty"`
	Author   string        `json:"author,omitempty"`
}

type Outline struct {
	GroupID    string     `json:"groupId"`
	Name       string     `json:"name"`
	Bounds     model.Rect `json:"bounds"`
	Hover      bool       `json:"hover,omitempty"`
	DropTarget bool       `json:"dropTarget,omitempty"`
}

type SidebarView struct {
	Tab             selection.Tab   `json:"tab"`
	Files           folder.Tree     `json:"files"`
	Groups          []GroupEntry    `json:"groups"`
	SelectedFiles   []model.ItemKey `json:"selectedFiles"`
	SelectedEntries []model.ItemKey `json:"selectedEntries"`
	Marquee         *SidebarMarquee `json:"marquee,omitempty"`
}

type SidebarMarquee struct {
	List selection.List `json:"list"`
	Rect model.Rect     `json:"rect"`
}

type GroupEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Hidden   bool    `json:"hidden,omitempty"`
	OnCanvas bool    `json:"onCanvas"`
	MenuOpen bool    `json:"menuOpen,omitempty"`
	Hover    bool    `json:"hover,omitempty"`
	Entries  []Entry `json:"entries"`
}

// Entry is one resolvable member of a group as listed in the sidebar.
type Entry struct {
	Key      model.ItemKey `json:"key"`
	Label    string        `json:"label"`
	OnCanvas bool          `json:"onCanvas"`
	Selected bool          `json:"selected,omitempty"`
}

type RenameView struct {
	GroupID string `json:"groupId"`
	Draft   string `json:"draft"`
}

// inputs is the read-only state derive works from.
type inputs struct {
	scope       model.Scope
	layout      canvas.Layout
	now         time.Time
	rev         int
	mode        Interaction
	files       []model.File
	members     []model.Member
	identity    perm.Identity
	filePl      []model.Placement
	memberPl    []model.Placement
	annotations []model.Annotation
	active      string
	groups      []model.Group
	hiddenGrp   map[string]bool
	hiddenItems map[model.ItemKey]bool
	selected    selection.KeySet
	sidebar     *selection.Sidebar
	openFolders folder.OpenSet
	hover       string
	menu        string
	notice      *Notice
	ack         *DropAck
}

func (e *Engine) inputs() inputs {
	in := inputs{
		scope:       e.scope,
		layout:      e.layout,
		now:         e.now(),
		rev:         e.rev,
		mode:        e.mode,
		files:       e.files,
		members:     e.members,
		identity:    e.identity,
		filePl:      e.filePlacements.All(),
		memberPl:    e.memberPlacements.All(),
		annotations: e.annotations,
		active:      e.active,
		groups:      e.groups.Groups(),
		hiddenGrp:   map[string]bool{},
		hiddenItems: map[model.ItemKey]bool{},
		selected:    e.selected,
		sidebar:     e.sidebar,
		openFolders: e.openFolders,
		hover:       e.hover,
		menu:        e.menu,
		notice:      e.notice,
		ack:         e.ack,
	}
	for _, id := range e.groups.HiddenGroups() {
		in.hiddenGrp[id] = true
	}
	for _, k := range e.groups.HiddenItems() {
		in.hiddenItems[k] = true
	}
	return in
}

// View derives the current render model.
func (e *Engine) View() View { return derive(e.inputs()) }

func (e *Engine) canvasItems() []Item { return resolveItems(e.inputs()) }

func (e *Engine) groupOutlines(items []Item) []Outline {
	in := e.inputs()
	return outlines(in, items)
}

func derive(in inputs) View {
	items := resolveItems(in)
	groupOf := map[model.ItemKey]string{}
	for _, g := range in.groups {
		for _, k := range g.ItemKeys {
			groupOf[k] = g.ID
		}
	}
	for i := range items {
		items[i].Selected = in.selected.Has(items[i].Key)
		items[i].GroupID = groupOf[items[i].Key]
	}

	v := View{
		Scope:       in.scope,
		Revision:    in.rev,
		Interaction: in.mode.Name(),
		Canvas: CanvasView{
			Width:    in.layout.Width,
			Height:   in.layout.Height,
			Padding:  in.layout.Padding,
			Items:    items,
			Groups:   outlines(in, items),
			Selected: in.selected.Sorted(),
		},
		Notice:         in.notice,
		Identity:       in.identity,
		CanManageRoles: perm.CanManageRoles(in.identity),
		Members:        nonNil(append([]model.Member(nil), in.members...)),
		ShareTargets:   nonNil(perm.ShareTargets(in.identity, in.members)),
	}
	switch m := in.mode.(type) {
	case Selecting:
		if m.Target == SelectCanvas {
			r := m.Marquee.Rect()
			v.Canvas.Marquee = &r
		}
	case Dragging:
		v.Canvas.DropTarget = m.DropTarget
	case Renaming:
		v.Renaming = &RenameView{GroupID: m.GroupID, Draft: m.Draft}
	}
	for i := range v.Canvas.Groups {
		v.Canvas.Groups[i].DropTarget = v.Canvas.Groups[i].GroupID == v.Canvas.DropTarget && v.Canvas.DropTarget != ""
	}
	if in.ack != nil && in.now.Before(in.ack.Until) {
		ack := *in.ack
		v.Canvas.Ack = &ack
	}
	v.Sidebar = sidebarView(in, items)
	return v
}

// resolveItems lists every visible canvas item: file placements, member placements and
// annotations of the mode's kind, in paint order.
func resolveItems(in inputs) []Item {
	titles := map[string]string{}
	for _, f := range in.files {
		titles[f.ID] = f.Title
	}
	names := map[string]string{}
	for _, m := range in.members {
		names[m.UserID] = m.Name
	}

	out := make([]Item, 0, len(in.filePl)+len(in.memberPl)+len(in.annotations))
	for _, pl := range in.filePl {
		k := pl.Key()
		if in.hiddenItems[k] {
			continue
		}
		label := titles[pl.SourceID]
		if label == "" {
			label = pl.SourceID
		}
		out = append(out, Item{
			Key:      k,
			SourceID: pl.SourceID,
			Label:    label,
			Bounds:   canvas.RectAt(pl.Pos(), in.layout.File),
			Copy:     placement.IsCopy(pl.ID),
		})
	}
	for _, pl := range in.memberPl {
		k := pl.Key()
		if in.hiddenItems[k] {
			continue
		}
		label := names[pl.SourceID]
		if label == "" {
			label = pl.SourceID
		}
		out = append(out, Item{
			Key:      k,
			SourceID: pl.SourceID,
			Label:    label,
			Bounds:   canvas.RectAt(pl.Pos(), in.layout.MemberSize(label)),
			Copy:     placement.IsCopy(pl.ID),
		})
	}
	kind := model.AnnotationKindFor(in.scope.Mode)
	for _, a := range in.annotations {
		k := a.Key()
		if a.Kind != kind || in.hiddenItems[k] {
			continue
		}
		active := a.ID == in.active
		out = append(out, Item{
			Key:    k,
			Label:  a.Title,
			Bounds: canvas.RectAt(model.Point{X: a.X, Y: a.Y}, in.layout.AnnotationSize(a, active)),
			Active: active,
			Text:   a.Text,
			Author: a.AuthorName,
		})
	}
	return out
}

func selectables(items []Item) []selection.Selectable {
	out := make([]selection.Selectable, len(items))
	for i, it := range items {
		out[i] = selection.Selectable{Key: it.Key, Bounds: it.Bounds}
	}
	return out
}

// outlines computes the padded bounding box of each visible group's resolvable members.
func outlines(in inputs, items []Item) []Outline {
	bounds := make(map[model.ItemKey]model.Rect, len(items))
	for _, it := range items {
		bounds[it.Key] = it.Bounds
	}
	var out []Outline
	for _, g := range in.groups {
		if in.hiddenGrp[g.ID] {
			continue
		}
		var rects []model.Rect
		for _, k := range g.ItemKeys {
			if r, ok := bounds[k]; ok {
				rects = append(rects, r)
			}
		}
		r, ok := grouping.Outline(rects, in.layout.GroupPadding)
		if !ok {
			continue
		}
		out = append(out, Outline{GroupID: g.ID, Name: g.Name, Bounds: r, Hover: g.ID == in.hover})
	}
	return nonNil(out)
}

func sidebarView(in inputs, items []Item) SidebarView {
	onCanvas := map[model.ItemKey]bool{}
	for _, it := range items {
		onCanvas[it.Key] = true
	}
	files := map[string]model.File{}
	for _, f := range in.files {
		files[f.ID] = f
	}
	members := map[string]model.Member{}
	for _, m := range in.members {
		members[m.UserID] = m
	}
	annotations := map[string]model.Annotation{}
	for _, a := range in.annotations {
		annotations[a.ID] = a
	}
	entriesSel := in.sidebar.Selected(selection.ListEntries)

	sv := SidebarView{
		Tab:             in.sidebar.Tab(),
		Files:           folder.Build(in.files, in.openFolders),
		Groups:          []GroupEntry{},
		SelectedFiles:   in.sidebar.Selected(selection.ListFiles).Sorted(),
		SelectedEntries: entriesSel.Sorted(),
	}
	for _, g := range in.groups {
		ge := GroupEntry{
			ID:       g.ID,
			Name:     g.Name,
			Hidden:   in.hiddenGrp[g.ID],
			MenuOpen: g.ID == in.menu,
			Hover:    g.ID == in.hover,
			Entries:  []Entry{},
		}
		for _, k := range g.ItemKeys {
			label, ok := entryLabel(k, files, members, annotations)
			if !ok {
				continue
			}
			en := Entry{Key: k, Label: label, OnCanvas: onCanvas[k], Selected: entriesSel.Has(k)}
			ge.OnCanvas = ge.OnCanvas || en.OnCanvas
			ge.Entries = append(ge.Entries, en)
		}
		sv.Groups = append(sv.Groups, ge)
	}
	if l, r, ok := in.sidebar.Active(); ok {
		sv.Marquee = &SidebarMarquee{List: l, Rect: r}
	}
	return sv
}

// entryLabel resolves a grouped key against the live caches. Keys of sources not yet
// loaded fall back to their source id.
func entryLabel(k model.ItemKey, files map[string]model.File, members map[string]model.Member, annotations map[string]model.Annotation) (string, bool) {
	switch k.Kind {
	case model.KeyFile:
		src := placement.ExtractSourceID(k.ID)
		if f, ok := files[src]; ok {
			return f.Title, true
		}
		return src, len(files) == 0
	case model.KeyMember:
		src := placement.ExtractSourceID(k.ID)
		if m, ok := members[src]; ok {
			return m.Name, true
		}
		return src, len(members) == 0
	case model.KeyAnnotation:
		a, ok := annotations[k.ID]
		return a.Title, ok
	}
	return "", false
}

func sortKeys(keys []model.ItemKey) {
	sort.Slice(keys, func(i, j int) bool { return model.ItemKeyLess(keys[i], keys[j]) })
}
