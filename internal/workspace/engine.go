// Package workspace is the spatial workspace engine: it owns placements, annotations,
// groups, selection and the pointer interaction of one (team, mode, viewer) scope, and
// mirrors every committed change to the scoped key-value store.
//
// The engine is single-threaded. Hosts serialise calls (the web host holds a mutex).
package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/folder"
	"github.com/seong-yoon-choi/onbure-sub000/internal/grouping"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
	"github.com/seong-yoon-choi/onbure-sub000/internal/perm"
	"github.com/seong-yoon-choi/onbure-sub000/internal/placement"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
)

type Options struct {
	Scope  model.Scope
	Layout canvas.Layout
	KV     store.KV

	// Service is optional; without it sources are supplied through SyncSources.
	Service mutate.DataService

	// Debounce is the persistence write window. Zero writes only on Flush.
	Debounce time.Duration
	Logger   zerolog.Logger

	Now   func() time.Time
	NewID func(prefix string) string

	// OnCommit runs after every committed change (hosts use it to push views).
	OnCommit func()
}

type Engine struct {
	scope  model.Scope
	layout canvas.Layout
	log    zerolog.Logger
	now    func() time.Time
	newID  func(prefix string) string

	kv       store.KV
	writer   *store.Debouncer
	svc      mutate.DataService
	onCommit func()

	files         []model.File
	members       []model.Member
	sourcesLoaded bool
	identity      perm.Identity

	filePlacements   *placement.Registry
	memberPlacements *placement.Registry
	annotations      []model.Annotation
	groups           *grouping.Set

	selected    selection.KeySet
	sidebar     *selection.Sidebar
	openFolders folder.OpenSet

	active   string // expanded annotation id
	mode     Interaction
	suppress model.ItemKey
	hover    string // hovered group id
	menu     string // group id whose entry menu is open
	notice   *Notice
	ack      *DropAck
	rev      int
}

func New(ctx context.Context, opts Options) (*Engine, error) {
	if err := opts.Scope.Validate(); err != nil {
		return nil, err
	}
	if opts.KV == nil {
		opts.KV = store.NewMemoryKV()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = store.NewID
	}
	e := &Engine{
		scope:    opts.Scope,
		layout:   opts.Layout.Normalize(),
		log:      opts.Logger,
		now:      opts.Now,
		newID:    opts.NewID,
		kv:       opts.KV,
		svc:      opts.Service,
		onCommit: opts.OnCommit,
		writer:   store.NewDebouncer(opts.KV, opts.Debounce, opts.Logger),
		identity: perm.Identity{ViewerID: opts.Scope.ViewerID},
	}
	e.reset()
	if err := e.load(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) reset() {
	e.filePlacements = placement.NewRegistry(model.SourceFile)
	e.memberPlacements = placement.NewRegistry(model.SourceMember)
	e.annotations = nil
	e.groups = grouping.NewSet(func() string { return e.newID("grp") })
	e.selected = selection.KeySet{}
	e.sidebar = selection.NewSidebar()
	e.openFolders = folder.OpenSet{}
	e.active = ""
	e.mode = Idle{}
	e.suppress = model.ItemKey{}
	e.hover = ""
	e.menu = ""
	e.notice = nil
	e.ack = nil
}

func (e *Engine) Scope() model.Scope { return e.scope }
func (e *Engine) Layout() canvas.Layout { return e.layout }
func (e *Engine) Identity() perm.Identity { return e.identity }
func (e *Engine) Files() []model.File { return append([]model.File(nil), e.files...) }
func (e *Engine) Members() []model.Member { return append([]model.Member(nil), e.members...) }
func (e *Engine) Interaction() Interaction { return e.mode }
func (e *Engine) Selected() []model.ItemKey { return e.selected.Sorted() }
func (e *Engine) Groups() []model.Group { return e.groups.Groups() }
func (e *Engine) Revision() int { return e.rev }
func (e *Engine) Sidebar() *selection.Sidebar { return e.sidebar }
func (e *Engine) ActiveAnnotation() string { return e.active }
func (e *Engine) FilePlacements() []model.Placement {
	return e.filePlacements.All()
}
func (e *Engine) MemberPlacements() []model.Placement {
	return e.memberPlacements.All()
}
func (e *Engine) Annotations() []model.Annotation {
	return append([]model.Annotation(nil), e.annotations...)
}

// SwitchScope flushes pending writes, abandons every interaction and transient UI state,
// and loads the state universe of next.
func (e *Engine) SwitchScope(ctx context.Context, next model.Scope) error {
	if err := next.Validate(); err != nil {
		return err
	}
	if err := e.Flush(ctx); err != nil {
		e.log.Error().Err(err).Str("scope", e.scope.String()).Msg("flush before scope switch")
	}
	prev := e.scope
	e.scope = next
	e.reset()
	e.files, e.members, e.sourcesLoaded = nil, nil, false
	e.identity = perm.Identity{ViewerID: next.ViewerID}
	if err := e.load(ctx); err != nil {
		return err
	}
	e.log.Info().Str("from", prev.String()).Str("to", next.String()).Msg("scope switched")
	if e.svc != nil {
		return e.Refresh(ctx)
	}
	e.changed()
	return nil
}

// Refresh silently refetches files and members from the data service and garbage-collects
// placements of sources that disappeared. A failure leaves the current cache in place.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.svc == nil {
		return nil
	}
	files, err := e.svc.ListFiles(ctx, e.scope)
	if err != nil {
		err = mutate.RemoteError{Op: "list files", Err: err}
		e.fail(err)
		return err
	}
	members, err := e.svc.ListMembers(ctx, e.scope.TeamID)
	if err != nil {
		err = mutate.RemoteError{Op: "list members", Err: err}
		e.fail(err)
		return err
	}
	e.SyncSources(files, members)
	return nil
}

// SyncSources replaces the source cache. Placements, group entries and hidden keys whose
// source is gone are dropped.
func (e *Engine) SyncSources(files []model.File, members []model.Member) {
	e.files = append([]model.File(nil), files...)
	e.members = append([]model.Member(nil), members...)
	e.sourcesLoaded = true
	e.identity = perm.Resolve(e.scope.ViewerID, e.members)

	liveFiles := map[string]bool{}
	for _, f := range e.files {
		if !folder.IsFolder(f) {
			liveFiles[f.ID] = true
		}
	}
	liveMembers := map[string]bool{}
	for _, m := range e.members {
		liveMembers[m.UserID] = true
	}

	removed := 0
	var dead []model.ItemKey
	for _, id := range e.filePlacements.Prune(liveFiles) {
		dead = append(dead, model.FileKey(id))
	}
	for _, id := range e.memberPlacements.Prune(liveMembers) {
		dead = append(dead, model.MemberKey(id))
	}
	removed += len(dead)
	dead = append(dead, e.orphanedKeys()...)
	changed := e.groups.Forget(dead)
	if len(dead) > 0 {
		changed = true
	}
	e.openFolders.Prune(folder.FolderSet(e.files))
	if e.reclamp() {
		changed = true
	}
	if removed > 0 {
		e.log.Debug().Int("placements", removed).Msg("pruned placements of removed sources")
	}
	if changed {
		e.commit()
		return
	}
	e.prune()
	e.changed()
}

// reclamp pulls every placement and annotation back inside the canvas using its current
// footprint. Member cards grow with their name and layouts may change between sessions.
func (e *Engine) reclamp() bool {
	moved := false
	refit := func(r *placement.Registry, size func(model.Placement) canvas.Size) {
		for _, pl := range r.All() {
			sz := size(pl)
			next := e.layout.Clamp(pl.Pos(), sz.W, sz.H)
			if next != pl.Pos() {
				r.Move(pl.ID, next)
				moved = true
			}
		}
	}
	refit(e.filePlacements, func(model.Placement) canvas.Size { return e.layout.File })
	refit(e.memberPlacements, func(pl model.Placement) canvas.Size {
		name := pl.SourceID
		if m, ok := e.member(pl.SourceID); ok && m.Name != "" {
			name = m.Name
		}
		return e.layout.MemberSize(name)
	})
	for i := range e.annotations {
		a := &e.annotations[i]
		sz := e.layout.AnnotationSize(*a, a.ID == e.active)
		at := model.Point{X: a.X, Y: a.Y}
		if next := e.layout.Clamp(at, sz.W, sz.H); next != at {
			a.X, a.Y = next.X, next.Y
			moved = true
		}
	}
	return moved
}

// orphanedKeys lists grouped or hidden keys whose source or annotation no longer exists.
func (e *Engine) orphanedKeys() []model.ItemKey {
	var out []model.ItemKey
	seen := map[model.ItemKey]bool{}
	check := func(k model.ItemKey) {
		if seen[k] {
			return
		}
		seen[k] = true
		if !e.keyKnown(k) {
			out = append(out, k)
		}
	}
	for _, g := range e.groups.Groups() {
		for _, k := range g.ItemKeys {
			check(k)
		}
	}
	for _, k := range e.groups.HiddenItems() {
		check(k)
	}
	return out
}

// keyKnown reports whether k still refers to something: a placement, a live source
// (sidebar-only group entries) or an annotation.
func (e *Engine) keyKnown(k model.ItemKey) bool {
	switch k.Kind {
	case model.KeyAnnotation:
		_, ok := e.annotationIndex(k.ID)
		return ok
	case model.KeyFile:
		if _, ok := e.filePlacements.Get(k.ID); ok {
			return true
		}
		if !e.sourcesLoaded {
			return true
		}
		_, ok := e.file(placement.ExtractSourceID(k.ID))
		return ok
	case model.KeyMember:
		if _, ok := e.memberPlacements.Get(k.ID); ok {
			return true
		}
		if !e.sourcesLoaded {
			return true
		}
		_, ok := e.member(placement.ExtractSourceID(k.ID))
		return ok
	}
	return false
}

func (e *Engine) file(id string) (model.File, bool) {
	for _, f := range e.files {
		if f.ID == id {
			return f, true
		}
	}
	return model.File{}, false
}

func (e *Engine) member(userID string) (model.Member, bool) {
	for _, m := range e.members {
		if m.UserID == userID {
			return m, true
		}
	}
	return model.Member{}, false
}

func (e *Engine) annotationIndex(id string) (int, bool) {
	for i := range e.annotations {
		if e.annotations[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Flush writes pending state now.
func (e *Engine) Flush(ctx context.Context) error {
	return e.writer.Flush(ctx)
}

// Close flushes and leaves the engine idle.
func (e *Engine) Close(ctx context.Context) error {
	e.abandonInteraction()
	return e.Flush(ctx)
}

// changed bumps the revision for hosts without scheduling a write.
func (e *Engine) changed() {
	e.rev++
	if e.onCommit != nil {
		e.onCommit()
	}
}

// commit prunes derived state, schedules every slice for persistence and notifies hosts.
func (e *Engine) commit() {
	e.prune()
	for slice, raw := range e.encodeAll() {
		e.writer.Schedule(store.ScopeKey(e.scope, slice), raw)
	}
	e.changed()
}

// prune drops selected keys that no longer resolve to a selectable canvas item.
func (e *Engine) prune() {
	live := map[model.ItemKey]bool{}
	for _, it := range e.canvasItems() {
		live[it.Key] = true
	}
	e.selected.Prune(func(k model.ItemKey) bool { return live[k] })
	e.sidebar.Prune(func(l selection.List, k model.ItemKey) bool {
		if l == selection.ListFiles {
			_, ok := e.file(k.ID)
			return ok
		}
		_, ok := e.groups.GroupOf(k)
		return ok
	})
	if e.active != "" {
		if _, ok := e.annotationIndex(e.active); !ok {
			e.active = ""
		}
	}
	if e.hover != "" {
		if _, ok := e.groups.Get(e.hover); !ok {
			e.hover = ""
		}
	}
	if e.menu != "" {
		if _, ok := e.groups.Get(e.menu); !ok {
			e.menu = ""
		}
	}
}

func (e *Engine) fail(err error) {
	e.notice = noticeFor(err)
	e.log.Warn().Err(err).Str("scope", e.scope.String()).Msg("workspace operation failed")
	e.changed()
}

func (e *Engine) String() string {
	return fmt.Sprintf("workspace(%s)", e.scope)
}
