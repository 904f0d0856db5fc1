package workspace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seong-yoon-choi/onbure-sub000/internal/grouping"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
)

func TestReorderGroup(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("a", "x", "b", "y"), sampleMembers)
	var keys []model.ItemKey
	for _, id := range []string{"a", "x", "b", "y"} {
		keys = append(keys, model.FileKey(id))
	}
	g, err := h.CreateGroup(keys)
	require.NoError(t, err)

	changed, err := h.ReorderGroup(g.ID, model.FileKey("x"), model.FileKey("y"), grouping.Before)
	require.NoError(t, err)
	assert.True(t, changed)
	got, _ := h.groups.Get(g.ID)
	assert.Equal(t, []model.ItemKey{model.FileKey("a"), model.FileKey("b"), model.FileKey("x"), model.FileKey("y")}, got.ItemKeys)

	changed, err = h.ReorderGroup(g.ID, model.FileKey("x"), model.FileKey("x"), grouping.After)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = h.ReorderGroup("grp-missing", keys[0], keys[1], grouping.After)
	var nf mutate.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestCreateGroup_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("a"), sampleMembers)

	_, err := h.CreateGroup(nil)
	var ve mutate.ValidationError
	require.True(t, errors.As(err, &ve))

	_, err = h.CreateGroup([]model.ItemKey{model.FileKey("ghost")})
	var nf mutate.NotFoundError
	require.True(t, errors.As(err, &nf))

	g1, err := h.CreateGroup([]model.ItemKey{model.FileKey("a")})
	require.NoError(t, err)
	assert.Equal(t, "Group1", g1.Name)
	require.NoError(t, h.RenameGroup(g1.ID, "group2"))
	g2, err := h.CreateGroup([]model.ItemKey{model.FileKey("a")})
	require.NoError(t, err)
	assert.Equal(t, "Group1", g2.Name)

	err = h.RenameGroup(g2.ID, "  ")
	require.True(t, errors.As(err, &ve))
}

func TestSingleMembershipAcrossOperations(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("a", "b", "c"), sampleMembers)
	a, b, c := model.FileKey("a"), model.FileKey("b"), model.FileKey("c")

	g1, err := h.CreateGroup([]model.ItemKey{a, b})
	require.NoError(t, err)
	g2, err := h.CreateGroup([]model.ItemKey{b, c})
	require.NoError(t, err)
	require.NoError(t, h.MoveToGroup(g1.ID, []model.ItemKey{c, a}))

	seen := map[model.ItemKey]string{}
	for _, g := range h.Groups() {
		for _, k := range g.ItemKeys {
			prev, dup := seen[k]
			require.False(t, dup, "%s in %s and %s", k, prev, g.ID)
			seen[k] = g.ID
		}
	}
	assert.Equal(t, g1.ID, seen[a])
	assert.Equal(t, g2.ID, seen[b])
	assert.Equal(t, g1.ID, seen[c])
}

func TestDeleteGroupClearsTransientState(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("a"), sampleMembers)
	k := h.place(t, "a", model.Point{X: 100, Y: 100})
	g, err := h.CreateGroup([]model.ItemKey{k})
	require.NoError(t, err)

	h.HoverGroup(g.ID)
	require.NoError(t, h.OpenGroupMenu(g.ID))
	require.NoError(t, h.BeginRename(g.ID))
	h.UpdateRename("Draft")
	require.NoError(t, h.DeleteGroup(g.ID))

	v := h.View()
	assert.IsType(t, Idle{}, h.Interaction())
	assert.Nil(t, v.Renaming)
	assert.Empty(t, v.Sidebar.Groups)
	require.Len(t, v.Canvas.Items, 1, "members stay on the canvas")
	assert.Empty(t, v.Canvas.Items[0].GroupID)
	assert.Error(t, h.DeleteGroup(g.ID))
}

func TestRenameInteraction(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("a"), sampleMembers)
	g, err := h.CreateGroup([]model.ItemKey{model.FileKey("a")})
	require.NoError(t, err)

	require.NoError(t, h.BeginRename(g.ID))
	h.UpdateRename("")
	require.Error(t, h.CommitRename())
	assert.IsType(t, Renaming{}, h.Interaction(), "an empty draft keeps the editor open")

	h.UpdateRename("Specs")
	// Pressing the canvas ends rename and keeps the draft.
	h.PointerDown(PointerEvent{Point: model.Point{X: 900, Y: 700}})
	h.PointerUp(PointerEvent{Point: model.Point{X: 900, Y: 700}})
	got, _ := h.groups.Get(g.ID)
	assert.Equal(t, "Specs", got.Name)

	require.NoError(t, h.BeginRename(g.ID))
	h.UpdateRename("Other")
	h.CancelRename()
	got, _ = h.groups.Get(g.ID)
	assert.Equal(t, "Specs", got.Name)
}

func TestHideAndPlaceGroup(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("f1", "f2"), sampleMembers)
	placed := h.place(t, "f1", model.Point{X: 100, Y: 100})
	g, err := h.AddSourcesToGroup("", model.SourceFile, []string{"f2"})
	require.NoError(t, err)
	require.NoError(t, h.MoveToGroup(g.ID, []model.ItemKey{placed}))

	require.NoError(t, h.HideGroup(g.ID))
	v := h.View()
	assert.Empty(t, v.Canvas.Items)
	assert.Empty(t, v.Canvas.Groups)
	require.Len(t, v.Sidebar.Groups, 1)
	assert.True(t, v.Sidebar.Groups[0].Hidden)
	assert.Len(t, v.Sidebar.Groups[0].Entries, 2, "hidden members stay listed")

	keys, err := h.PlaceGroupOnCanvas(g.ID, model.Point{X: 500, Y: 400})
	require.NoError(t, err)
	assert.Equal(t, []model.ItemKey{model.FileKey("f2"), placed}, keys)
	assert.Equal(t, model.Point{X: 376, Y: 352}, h.bounds(t, model.FileKey("f2")).Origin())
	assert.Equal(t, model.Point{X: 512, Y: 352}, h.bounds(t, placed).Origin())
	assert.ElementsMatch(t, keys, h.Selected())

	v = h.View()
	assert.False(t, v.Sidebar.Groups[0].Hidden)
	assert.True(t, v.Sidebar.Groups[0].OnCanvas)
	require.Len(t, v.Canvas.Groups, 1)
}

func TestMoveIntoHiddenGroupHidesItems(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("f1", "f2"), sampleMembers)
	placed := h.place(t, "f1", model.Point{X: 100, Y: 100})
	g, err := h.AddSourcesToGroup("", model.SourceFile, []string{"f2"})
	require.NoError(t, err)
	require.NoError(t, h.HideGroup(g.ID))

	require.NoError(t, h.MoveToGroup(g.ID, []model.ItemKey{placed}))
	v := h.View()
	assert.Empty(t, v.Canvas.Items)
	assert.Empty(t, v.Canvas.Groups)
	assert.Len(t, v.Sidebar.Groups[0].Entries, 2)
}

func TestUngroupKeepsItemsOnCanvas(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("a", "b"), sampleMembers)
	a := h.place(t, "a", model.Point{X: 100, Y: 100})
	b := h.place(t, "b", model.Point{X: 300, Y: 100})
	g, err := h.CreateGroup([]model.ItemKey{a, b})
	require.NoError(t, err)

	require.NoError(t, h.Ungroup([]model.ItemKey{a}))
	got, _ := h.groups.Get(g.ID)
	assert.Equal(t, []model.ItemKey{b}, got.ItemKeys)
	assert.Len(t, h.View().Canvas.Items, 2)
	assert.Error(t, h.Ungroup(nil))
}
