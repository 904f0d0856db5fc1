package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
)

const snapshotVersion = 1

type positionsSlice struct {
	Version int               `json:"version"`
	Files   []model.Placement `json:"files"`
	Members []model.Placement `json:"members"`
}

type annotationsSlice struct {
	Version     int                `json:"version"`
	Annotations []model.Annotation `json:"annotations"`
}

type groupsSlice struct {
	Version int           `json:"version"`
	Groups  []model.Group `json:"groups"`
}

type hiddenSlice struct {
	Version int             `json:"version"`
	Groups  []string        `json:"groups"`
	Items   []model.ItemKey `json:"items"`
}

// encodeAll serialises every slice. Output is deterministic for a given state.
func (e *Engine) encodeAll() map[store.Slice][]byte {
	groups := e.groups.Groups()
	for i := range groups {
		if groups[i].ItemKeys == nil {
			groups[i].ItemKeys = []model.ItemKey{}
		}
	}
	slices := map[store.Slice]any{
		store.SlicePositions: positionsSlice{
			Version: snapshotVersion,
			Files:   nonNil(e.filePlacements.All()),
			Members: nonNil(e.memberPlacements.All()),
		},
		store.SliceAnnotations: annotationsSlice{
			Version:     snapshotVersion,
			Annotations: nonNil(e.Annotations()),
		},
		store.SliceGroups: groupsSlice{Version: snapshotVersion, Groups: nonNil(groups)},
		store.SliceHidden: hiddenSlice{
			Version: snapshotVersion,
			Groups:  nonNil(e.groups.HiddenGroups()),
			Items:   nonNil(e.groups.HiddenItems()),
		},
	}
	out := make(map[store.Slice][]byte, len(slices))
	for slice, v := range slices {
		b, err := json.Marshal(v)
		if err != nil {
			// Zero item keys refuse to marshal; they never survive Load or grouping calls.
			e.log.Error().Err(err).Str("slice", string(slice)).Msg("encode workspace state")
			continue
		}
		out[slice] = b
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// load reads every slice of the current scope. Unparseable payloads load as empty.
func (e *Engine) load(ctx context.Context) error {
	raw := map[store.Slice][]byte{}
	for _, slice := range store.Slices() {
		key := store.ScopeKey(e.scope, slice)
		b, ok, err := e.kv.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
		if !ok {
			continue
		}
		e.writer.Seen(key, b)
		raw[slice] = b
	}

	var pos positionsSlice
	e.decode(store.SlicePositions, raw, &pos)
	for _, pl := range pos.Files {
		e.filePlacements.Restore(pl)
	}
	for _, pl := range pos.Members {
		e.memberPlacements.Restore(pl)
	}

	var ann annotationsSlice
	e.decode(store.SliceAnnotations, raw, &ann)
	seen := map[string]bool{}
	for _, a := range ann.Annotations {
		a.ID = strings.TrimSpace(a.ID)
		if a.ID == "" || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		if a.Kind != model.AnnotationComment && a.Kind != model.AnnotationMemo {
			a.Kind = model.AnnotationKindFor(e.scope.Mode)
		}
		e.annotations = append(e.annotations, a)
	}

	var grp groupsSlice
	e.decode(store.SliceGroups, raw, &grp)
	var hid hiddenSlice
	e.decode(store.SliceHidden, raw, &hid)
	e.groups.Load(grp.Groups, hid.Groups, hid.Items)
	if e.reclamp() {
		e.log.Debug().Str("scope", e.scope.String()).Msg("refitted restored positions to the canvas")
	}

	e.log.Debug().
		Str("scope", e.scope.String()).
		Int("files", e.filePlacements.Len()).
		Int("members", e.memberPlacements.Len()).
		Int("annotations", len(e.annotations)).
		Int("groups", len(grp.Groups)).
		Msg("workspace state loaded")
	return nil
}

// decode unmarshals one slice into v. A corrupt payload leaves v at its zero value.
func (e *Engine) decode(slice store.Slice, raw map[store.Slice][]byte, v any) {
	b, ok := raw[slice]
	if !ok || len(strings.TrimSpace(string(b))) == 0 {
		return
	}
	if err := json.Unmarshal(b, v); err != nil {
		e.log.Debug().Err(err).Str("scope", e.scope.String()).Str("slice", string(slice)).Msg("ignoring corrupt workspace state")
		resetTo(v)
	}
}

func resetTo(v any) {
	switch p := v.(type) {
	case *positionsSlice:
		*p = positionsSlice{}
	case *annotationsSlice:
		*p = annotationsSlice{}
	case *groupsSlice:
		*p = groupsSlice{}
	case *hiddenSlice:
		*p = hiddenSlice{}
	}
}
