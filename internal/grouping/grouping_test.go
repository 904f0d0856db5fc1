package grouping

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSet() *Set {
	n := 0
	return NewSet(func() string {
		n++
		return fmt.Sprintf("grp-%d", n)
	})
}

var (
	kA = model.FileKey("a")
	kB = model.FileKey("b")
	kC = model.MemberKey("c")
	kD = model.AnnotationKey("d")
)

func TestCreate_AutoNamesSkipUsedNames(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	g1 := s.Create([]model.ItemKey{kA}, time.Now())
	assert.Equal(t, "Group1", g1.Name)

	g2 := s.Create(nil, time.Now())
	require.NoError(t, s.Rename(g2.ID, " group 3 "))

	g3 := s.Create(nil, time.Now())
	assert.Equal(t, "Group2", g3.Name)
	g4 := s.Create(nil, time.Now())
	assert.Equal(t, "Group4", g4.Name, "\"group 3\" blocks Group3 case/space-insensitively")
}

func TestCreate_StealsKeysFromOtherGroups(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	g1 := s.Create([]model.ItemKey{kA, kB}, time.Now())
	g2 := s.Create([]model.ItemKey{kB, kC, kB}, time.Now())

	got1, _ := s.Get(g1.ID)
	got2, _ := s.Get(g2.ID)
	assert.Equal(t, []model.ItemKey{kA}, got1.ItemKeys)
	assert.Equal(t, []model.ItemKey{kB, kC}, got2.ItemKeys)
}

func TestMoveItems(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	g1 := s.Create([]model.ItemKey{kA, kB}, time.Now())
	g2 := s.Create([]model.ItemKey{kC}, time.Now())

	require.NoError(t, s.MoveItems(g2.ID, []model.ItemKey{kA, kC}))
	got1, _ := s.Get(g1.ID)
	got2, _ := s.Get(g2.ID)
	assert.Equal(t, []model.ItemKey{kB}, got1.ItemKeys)
	// kC was removed from the target first, then re-appended after kA.
	assert.Equal(t, []model.ItemKey{kA, kC}, got2.ItemKeys)

	var nf NotFoundError
	assert.ErrorAs(t, s.MoveItems("nope", []model.ItemKey{kA}), &nf)
}

func TestMoveItemsFollowsTargetVisibility(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	g1 := s.Create([]model.ItemKey{kA}, time.Now())
	g2 := s.Create([]model.ItemKey{kB}, time.Now())
	require.NoError(t, s.Hide(g2.ID))

	require.NoError(t, s.MoveItems(g2.ID, []model.ItemKey{kA, kC}))
	assert.True(t, s.ItemHidden(kA))
	assert.True(t, s.ItemHidden(kC))

	require.NoError(t, s.MoveItems(g1.ID, []model.ItemKey{kA}))
	assert.False(t, s.ItemHidden(kA))
	assert.True(t, s.ItemHidden(kB))
}

func TestSingleMembershipProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	keys := []model.ItemKey{kA, kB, kC, kD, model.FileKey("e"), model.FileKey("f")}
	s := newTestSet()
	for i := 0; i < 500; i++ {
		pick := func() []model.ItemKey {
			var out []model.ItemKey
			for _, k := range keys {
				if rng.Intn(3) == 0 {
					out = append(out, k)
				}
			}
			return out
		}
		groups := s.Groups()
		if len(groups) == 0 || rng.Intn(3) == 0 {
			s.Create(pick(), time.Now())
			continue
		}
		target := groups[rng.Intn(len(groups))]
		require.NoError(t, s.MoveItems(target.ID, pick()))

		seen := map[model.ItemKey]string{}
		for _, g := range s.Groups() {
			local := map[model.ItemKey]bool{}
			for _, k := range g.ItemKeys {
				require.False(t, local[k], "duplicate %s in %s", k, g.ID)
				local[k] = true
				other, dup := seen[k]
				require.False(t, dup, "%s in both %s and %s", k, other, g.ID)
				seen[k] = g.ID
			}
		}
	}
}

func TestReorder(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	g := s.Create([]model.ItemKey{kA, kB, kC, kD}, time.Now())
	other := s.Create([]model.ItemKey{model.FileKey("x")}, time.Now())

	assert.True(t, s.Reorder(g.ID, kD, kB, Before))
	got, _ := s.Get(g.ID)
	assert.Equal(t, []model.ItemKey{kA, kD, kB, kC}, got.ItemKeys)

	assert.True(t, s.Reorder(g.ID, kA, kC, After))
	got, _ = s.Get(g.ID)
	assert.Equal(t, []model.ItemKey{kD, kB, kC, kA}, got.ItemKeys)

	// Already in place.
	assert.False(t, s.Reorder(g.ID, kD, kB, Before))
	// Same key, foreign key, wrong group.
	assert.False(t, s.Reorder(g.ID, kA, kA, Before))
	assert.False(t, s.Reorder(g.ID, model.FileKey("x"), kA, Before))
	assert.False(t, s.Reorder(other.ID, kA, model.FileKey("x"), Before))
	got, _ = s.Get(g.ID)
	assert.Equal(t, []model.ItemKey{kD, kB, kC, kA}, got.ItemKeys)
}

func TestRename(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	g := s.Create(nil, time.Now())
	assert.ErrorIs(t, s.Rename(g.ID, "   "), ErrEmptyName)
	require.NoError(t, s.Rename(g.ID, " Team "))
	got, _ := s.Get(g.ID)
	assert.Equal(t, "Team", got.Name)
}

func TestHideShow(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	g := s.Create([]model.ItemKey{kA, kB}, time.Now())
	require.NoError(t, s.Hide(g.ID))
	assert.True(t, s.GroupHidden(g.ID))
	assert.True(t, s.ItemHidden(kA))
	assert.True(t, s.ItemHidden(kB))
	got, _ := s.Get(g.ID)
	assert.Len(t, got.ItemKeys, 2, "hidden members stay grouped")

	require.NoError(t, s.Show(g.ID))
	assert.False(t, s.GroupHidden(g.ID))
	assert.Empty(t, s.HiddenItems())
}

func TestDeleteKeepsOthers(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	g1 := s.Create([]model.ItemKey{kA}, time.Now())
	g2 := s.Create([]model.ItemKey{kB}, time.Now())
	require.NoError(t, s.Hide(g1.ID))

	assert.True(t, s.Delete(g1.ID))
	assert.False(t, s.Delete(g1.ID))
	assert.Empty(t, s.HiddenGroups())
	_, owned := s.GroupOf(kA)
	assert.False(t, owned)
	id, owned := s.GroupOf(kB)
	assert.True(t, owned)
	assert.Equal(t, g2.ID, id)
}

func TestForget(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	g := s.Create([]model.ItemKey{kA, kB}, time.Now())
	require.NoError(t, s.Hide(g.ID))
	assert.True(t, s.Forget([]model.ItemKey{kA}))
	got, _ := s.Get(g.ID)
	assert.Equal(t, []model.ItemKey{kB}, got.ItemKeys)
	assert.Equal(t, []model.ItemKey{kB}, s.HiddenItems())
}

func TestLoadRepairsDuplicateMembership(t *testing.T) {
	t.Parallel()

	s := newTestSet()
	s.Load([]model.Group{
		{ID: "g1", Name: "One", ItemKeys: []model.ItemKey{kA, kB, kA}},
		{ID: "g2", Name: "Two", ItemKeys: []model.ItemKey{kB, kC}},
		{ID: "g1", Name: "Dup"},
	}, []string{"g2", "ghost"}, []model.ItemKey{kC})

	groups := s.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, []model.ItemKey{kA, kB}, groups[0].ItemKeys)
	assert.Equal(t, []model.ItemKey{kC}, groups[1].ItemKeys)
	assert.Equal(t, []string{"g2"}, s.HiddenGroups())
}

func TestGridLayout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, GridColumns(0, 4))
	assert.Equal(t, 1, GridColumns(1, 4))
	assert.Equal(t, 2, GridColumns(4, 4))
	assert.Equal(t, 3, GridColumns(5, 4))
	assert.Equal(t, 4, GridColumns(25, 4))

	sizes := []canvas.Size{{W: 100, H: 50}, {W: 100, H: 50}, {W: 100, H: 50}, {W: 100, H: 50}}
	pts := GridLayout(sizes, model.Point{X: 500, Y: 400}, 20, 4)
	require.Len(t, pts, 4)
	// 2×2 grid, total 220×120 centred on the anchor.
	assert.Equal(t, model.Point{X: 390, Y: 340}, pts[0])
	assert.Equal(t, model.Point{X: 510, Y: 340}, pts[1])
	assert.Equal(t, model.Point{X: 390, Y: 410}, pts[2])
	assert.Equal(t, model.Point{X: 510, Y: 410}, pts[3])
}

func TestOutline(t *testing.T) {
	t.Parallel()

	r, ok := Outline([]model.Rect{{X: 50, Y: 50, W: 100, H: 50}, {X: 200, Y: 50, W: 100, H: 50}}, 14)
	require.True(t, ok)
	assert.Equal(t, model.Rect{X: 36, Y: 36, W: 278, H: 78}, r)

	_, ok = Outline(nil, 14)
	assert.False(t, ok)
}
