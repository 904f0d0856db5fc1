package workspace

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
)

var (
	personal = model.Scope{TeamID: "t1", Mode: model.ModePersonal, ViewerID: "u1"}
	team     = model.Scope{TeamID: "t1", Mode: model.ModeTeam, ViewerID: "u1"}
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	*Engine
	kv    *store.MemoryKV
	clock *fakeClock
}

type option func(*Options)

func withLayout(l canvas.Layout) option { return func(o *Options) { o.Layout = l } }
func withKV(kv store.KV) option         { return func(o *Options) { o.KV = kv } }

func newHarness(t *testing.T, scope model.Scope, opts ...option) *harness {
	t.Helper()
	kv := store.NewMemoryKV()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	n := 0
	o := Options{
		Scope:  scope,
		Layout: canvas.DefaultLayout(),
		KV:     kv,
		Logger: zerolog.Nop(),
		Now:    clock.Now,
		NewID: func(prefix string) string {
			n++
			return fmt.Sprintf("%s-%d", prefix, n)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	e, err := New(context.Background(), o)
	require.NoError(t, err)
	h := &harness{Engine: e, clock: clock}
	if m, ok := o.KV.(*store.MemoryKV); ok {
		h.kv = m
	}
	return h
}

func sampleFiles(ids ...string) []model.File {
	out := make([]model.File, len(ids))
	for i, id := range ids {
		out[i] = model.File{ID: id, TeamID: "t1", Mode: model.ModePersonal, OwnerID: "u1", Title: id + ".md"}
	}
	return out
}

var sampleMembers = []model.Member{
	{TeamID: "t1", UserID: "u1", Name: "Ada", Role: model.RoleOwner},
	{TeamID: "t1", UserID: "u2", Name: "Bo", Role: model.RoleMember},
}

func (h *harness) place(t *testing.T, id string, p model.Point) model.ItemKey {
	t.Helper()
	keys, err := h.DropOnCanvas(Drop{Kind: model.SourceFile, SourceIDs: []string{id}, Point: p})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	return keys[0]
}

func (h *harness) bounds(t *testing.T, k model.ItemKey) model.Rect {
	t.Helper()
	it, ok := h.item(k)
	require.True(t, ok, "item %s not on canvas", k)
	return it.Bounds
}

func center(r model.Rect) model.Point { return model.Point{X: r.X + r.W/2, Y: r.Y + r.H/2} }

func TestNew_RejectsInvalidScope(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Options{Scope: model.Scope{TeamID: "t1", Mode: model.ModeTeam}})
	require.Error(t, err)
}

func TestDropOnCanvas_ClampsToBounds(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("f1"), sampleMembers)

	in := h.place(t, "f1", model.Point{X: 500, Y: 500})
	assert.Equal(t, model.Point{X: 500, Y: 500}, h.bounds(t, in).Origin())

	out := h.place(t, "f1", model.Point{X: 990, Y: 790})
	assert.NotEqual(t, in, out)
	assert.Equal(t, model.Point{X: 872, Y: 688}, h.bounds(t, out).Origin())
}

func TestDropOnCanvas_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	files := append(sampleFiles("f1"), model.File{ID: "d1", OwnerID: "u1", Title: "[folder] Docs"})
	h.SyncSources(files, sampleMembers)

	_, err := h.DropOnCanvas(Drop{Kind: model.SourceFile})
	assert.Error(t, err)
	_, err = h.DropOnCanvas(Drop{Kind: model.SourceFile, SourceIDs: []string{"d1"}})
	assert.ErrorContains(t, err, "folders cannot be placed")
	_, err = h.DropOnCanvas(Drop{Kind: model.SourceFile, SourceIDs: []string{"ghost"}})
	assert.ErrorContains(t, err, "not found")
	assert.Empty(t, h.FilePlacements())
}

func TestDropOnCanvas_SeveralUseGrid(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("f1", "f2"), sampleMembers)

	keys, err := h.DropOnCanvas(Drop{Kind: model.SourceFile, SourceIDs: []string{"f1", "f2"}, Point: model.Point{X: 500, Y: 400}})
	require.NoError(t, err)
	require.Len(t, keys, 2)
	// Two 112x96 cells with a 24px gap centred on the anchor.
	assert.Equal(t, model.Point{X: 376, Y: 352}, h.bounds(t, keys[0]).Origin())
	assert.Equal(t, model.Point{X: 512, Y: 352}, h.bounds(t, keys[1]).Origin())
}

func TestPlacementIdentity(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("f1"), sampleMembers)
	a := h.place(t, "f1", model.Point{X: 100, Y: 100})
	b := h.place(t, "f1", model.Point{X: 400, Y: 100})
	require.NotEqual(t, a, b)

	require.NoError(t, h.RemoveItem(b))
	assert.Equal(t, model.Point{X: 100, Y: 100}, h.bounds(t, a).Origin())
	_, ok := h.item(b)
	assert.False(t, ok)
}

func TestSwitchScope_IsolatesState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("f1"), sampleMembers)
	k := h.place(t, "f1", model.Point{X: 100, Y: 100})
	_, err := h.CreateGroup([]model.ItemKey{k})
	require.NoError(t, err)

	// A drag in flight is abandoned by the switch.
	h.PointerDown(PointerEvent{Point: center(h.bounds(t, k))})
	require.IsType(t, Dragging{}, h.Interaction())

	require.NoError(t, h.SwitchScope(ctx, team))
	assert.IsType(t, Idle{}, h.Interaction())
	assert.Empty(t, h.FilePlacements())
	assert.Empty(t, h.Groups())

	require.NoError(t, h.SwitchScope(ctx, personal))
	require.Len(t, h.FilePlacements(), 1)
	assert.Len(t, h.Groups(), 1)
}

func TestSyncSources_GarbageCollects(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("f1", "f2"), sampleMembers)
	f1 := h.place(t, "f1", model.Point{X: 100, Y: 100})
	f2 := h.place(t, "f2", model.Point{X: 300, Y: 100})
	g, err := h.CreateGroup([]model.ItemKey{f1, f2})
	require.NoError(t, err)
	h.HideItems([]model.ItemKey{f1})
	h.Select([]model.ItemKey{f2}, false)

	h.SyncSources(sampleFiles("f2"), sampleMembers)

	require.Len(t, h.FilePlacements(), 1)
	got, _ := h.groups.Get(g.ID)
	assert.Equal(t, []model.ItemKey{f2}, got.ItemKeys)
	assert.False(t, h.groups.ItemHidden(f1))
	assert.Equal(t, []model.ItemKey{f2}, h.Selected())
}

func TestMoveItem_Clamps(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("f1"), sampleMembers)
	k := h.place(t, "f1", model.Point{X: 100, Y: 100})

	p, err := h.MoveItem(k, model.Point{X: -50, Y: 5000})
	require.NoError(t, err)
	assert.Equal(t, model.Point{X: 16, Y: 688}, p)

	_, err = h.MoveItem(model.FileKey("nope"), model.Point{})
	assert.Error(t, err)
}

func TestMemberWidthFollowsName(t *testing.T) {
	t.Parallel()

	h := newHarness(t, team)
	h.SyncSources(nil, sampleMembers)
	keys, err := h.DropOnCanvas(Drop{Kind: model.SourceMember, SourceIDs: []string{"u2"}, Point: model.Point{X: 100, Y: 100}})
	require.NoError(t, err)
	b := h.bounds(t, keys[0])
	assert.Equal(t, h.Layout().MemberWidth("Bo"), b.W)
	assert.Equal(t, "Bo", h.View().Canvas.Items[0].Label)
}
