package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
)

func populated(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, personal)
	h.SyncSources(sampleFiles("a", "b"), sampleMembers)
	a := h.place(t, "a", model.Point{X: 100, Y: 100})
	h.place(t, "a", model.Point{X: 300, Y: 120})
	_, err := h.DropOnCanvas(Drop{Kind: model.SourceMember, SourceIDs: []string{"u2"}, Point: model.Point{X: 500, Y: 500}})
	require.NoError(t, err)
	ann, err := h.AddAnnotation(model.Point{X: 600, Y: 100}, "todo", "- [ ] ship")
	require.NoError(t, err)
	g, err := h.CreateGroup([]model.ItemKey{a, ann.Key()})
	require.NoError(t, err)
	_, err = h.AddSourcesToGroup(g.ID, model.SourceFile, []string{"b"})
	require.NoError(t, err)
	require.NoError(t, h.HideGroup(g.ID))
	return h
}

func TestSnapshot_RoundTripIsStable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := populated(t)
	first := h.encodeAll()
	require.NoError(t, h.Flush(ctx))
	for slice, raw := range first {
		got, ok, err := h.kv.Get(ctx, store.ScopeKey(personal, slice))
		require.NoError(t, err)
		require.True(t, ok, slice)
		assert.Equal(t, string(raw), string(got))
	}

	reopened := newHarness(t, personal, withKV(h.kv))
	second := reopened.encodeAll()
	for slice := range first {
		assert.Equal(t, string(first[slice]), string(second[slice]), slice)
	}
	assert.Equal(t, h.FilePlacements(), reopened.FilePlacements())
	assert.Equal(t, h.Groups(), reopened.Groups())
}

func TestSnapshot_UnchangedStateIsNotRewritten(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := populated(t)
	require.NoError(t, h.Flush(ctx))

	reopened := newHarness(t, personal, withKV(h.kv))
	reopened.SyncSources(sampleFiles("a", "b"), sampleMembers)
	assert.Zero(t, reopened.writer.Pending(), "loading and re-syncing the same sources writes nothing")
}

func TestSnapshot_CorruptSlicesLoadEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := store.NewMemoryKV()
	for slice, raw := range map[store.Slice]string{
		store.SlicePositions:   `{"files":[{"id":`,
		store.SliceAnnotations: `[]`,
		store.SliceGroups:      `{"groups":[{"id":"g1","itemKeys":["nonsense"]}]}`,
		store.SliceHidden:      `not json`,
	} {
		require.NoError(t, kv.Set(ctx, store.ScopeKey(personal, slice), []byte(raw)))
	}

	h := newHarness(t, personal, withKV(kv))
	assert.Empty(t, h.FilePlacements())
	assert.Empty(t, h.Annotations())
	assert.Empty(t, h.Groups())

	// The engine stays usable and overwrites the bad payloads on the next commit.
	h.SyncSources(sampleFiles("a"), sampleMembers)
	h.place(t, "a", model.Point{X: 100, Y: 100})
	require.NoError(t, h.Flush(ctx))
	raw, ok, err := kv.Get(ctx, store.ScopeKey(personal, store.SlicePositions))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"id":"a"`)
}

func TestSnapshot_SQLiteBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := store.Store{Dir: t.TempDir()}.OpenSQLite(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	kv := store.NewSQLiteKV(db)

	h := newHarness(t, team, withKV(kv))
	h.SyncSources(sampleFiles("a"), sampleMembers)
	h.place(t, "a", model.Point{X: 200, Y: 200})
	require.NoError(t, h.Close(ctx))

	again := newHarness(t, team, withKV(kv))
	require.Len(t, again.FilePlacements(), 1)
	other := newHarness(t, model.Scope{TeamID: "t1", Mode: model.ModeTeam, ViewerID: "u2"}, withKV(kv))
	assert.Empty(t, other.FilePlacements(), "viewers do not share layouts")
}
