package placement

import (
	"fmt"
	"testing"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSourceID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "f1", ExtractSourceID("f1"))
	assert.Equal(t, "f1", ExtractSourceID("f1"+separator+"abc"))
	assert.Equal(t, "f1", ExtractSourceID(CreatePlacementID("f1")))
	// Copy of a copy still points at the source.
	assert.Equal(t, "f1", ExtractSourceID(CreatePlacementID(CreatePlacementID("f1"))))
}

func TestCreatePlacementIDIsUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := CreatePlacementID("f1")
		require.False(t, seen[id], "duplicate id %s", id)
		require.True(t, IsCopy(id))
		seen[id] = true
	}
}

func TestRegistry_PlaceTwiceYieldsDistinctKeys(t *testing.T) {
	t.Parallel()

	r := NewRegistry(model.SourceFile)
	a := r.Place("f1", model.Point{X: 10, Y: 10})
	b := r.Place("f1", model.Point{X: 200, Y: 200})

	assert.Equal(t, "f1", a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, "f1", b.SourceID)
	assert.Len(t, r.BySource("f1"), 2)

	// Removing one copy leaves the other untouched.
	require.True(t, r.Remove(b.ID))
	got, ok := r.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, model.Point{X: 10, Y: 10}, got.Pos())
}

func TestRegistry_PlaceAfterOriginalRemovedReusesSourceID(t *testing.T) {
	t.Parallel()

	r := NewRegistry(model.SourceMember)
	a := r.Place("u1", model.Point{})
	b := r.Place("u1", model.Point{})
	require.True(t, r.Remove(a.ID))

	c := r.Place("u1", model.Point{})
	assert.Equal(t, "u1", c.ID)
	_, ok := r.Get(b.ID)
	assert.True(t, ok)
}

func TestRegistry_GeneratedIDCollisionRetries(t *testing.T) {
	t.Parallel()

	r := NewRegistry(model.SourceFile)
	n := 0
	r.newID = func(src string) string {
		n++
		if n <= 2 {
			return src + separator + "same"
		}
		return fmt.Sprintf("%s%s%d", src, separator, n)
	}
	r.Place("f1", model.Point{})
	second := r.Place("f1", model.Point{})
	third := r.Place("f1", model.Point{})
	assert.Equal(t, "f1"+separator+"same", second.ID)
	assert.Equal(t, "f1"+separator+"3", third.ID)
}

func TestRegistry_Prune(t *testing.T) {
	t.Parallel()

	r := NewRegistry(model.SourceFile)
	r.Place("f1", model.Point{})
	copyID := r.Place("f1", model.Point{}).ID
	r.Place("f2", model.Point{})

	removed := r.Prune(map[string]bool{"f2": true})
	assert.ElementsMatch(t, []string{"f1", copyID}, removed)
	assert.Equal(t, 1, r.Len())
	_, ok := r.Get("f2")
	assert.True(t, ok)
}

func TestRegistry_Restore(t *testing.T) {
	t.Parallel()

	r := NewRegistry(model.SourceFile)
	assert.True(t, r.Restore(model.Placement{ID: "f1" + separator + "x", X: 5, Y: 6}))
	assert.False(t, r.Restore(model.Placement{ID: "f1" + separator + "x"}))
	assert.False(t, r.Restore(model.Placement{ID: "  "}))

	got, ok := r.Get("f1" + separator + "x")
	require.True(t, ok)
	assert.Equal(t, "f1", got.SourceID)
	assert.Equal(t, model.SourceFile, got.Kind)
}

func TestRegistry_MoveUnknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry(model.SourceFile)
	assert.False(t, r.Move("nope", model.Point{}))
	assert.False(t, r.Remove("nope"))
}
