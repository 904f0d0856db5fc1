// Package placement separates source entities (files, members) from their spatial
// occurrences on the canvas. A source may be placed several times; every placement has
// its own id and therefore its own item key.
package placement

import (
	"strings"

	"github.com/google/uuid"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

const separator = "::copy::"

// ExtractSourceID recovers the source id of a placement id.
func ExtractSourceID(placementID string) string {
	if i := strings.Index(placementID, separator); i >= 0 {
		return placementID[:i]
	}
	return placementID
}

// CreatePlacementID returns a fresh placement id for another copy of sourceID.
func CreatePlacementID(sourceID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return ExtractSourceID(sourceID) + separator + suffix
}

func IsCopy(placementID string) bool {
	return strings.Contains(placementID, separator)
}

// Registry holds the placements of one source kind in insertion order.
type Registry struct {
	kind  model.SourceKind
	items []model.Placement
	index map[string]int

	// newID is swapped in tests for deterministic ids.
	newID func(sourceID string) string
}

func NewRegistry(kind model.SourceKind) *Registry {
	return &Registry{kind: kind, index: map[string]int{}, newID: CreatePlacementID}
}

func (r *Registry) Kind() model.SourceKind { return r.kind }

func (r *Registry) Len() int { return len(r.items) }

// Place adds a placement of sourceID at p. The placement id is the source id unless
// that id is already taken, in which case a composite copy id is generated.
func (r *Registry) Place(sourceID string, p model.Point) model.Placement {
	sourceID = ExtractSourceID(strings.TrimSpace(sourceID))
	id := sourceID
	if _, taken := r.index[id]; taken {
		id = r.newID(sourceID)
		for {
			if _, taken := r.index[id]; !taken {
				break
			}
			id = r.newID(sourceID)
		}
	}
	pl := model.Placement{ID: id, SourceID: sourceID, Kind: r.kind, X: p.X, Y: p.Y}
	r.index[id] = len(r.items)
	r.items = append(r.items, pl)
	return pl
}

// Restore inserts a previously persisted placement as-is. Duplicates are dropped.
func (r *Registry) Restore(pl model.Placement) bool {
	id := strings.TrimSpace(pl.ID)
	if id == "" {
		return false
	}
	if _, taken := r.index[id]; taken {
		return false
	}
	pl.ID = id
	pl.Kind = r.kind
	if strings.TrimSpace(pl.SourceID) == "" {
		pl.SourceID = ExtractSourceID(id)
	}
	r.index[id] = len(r.items)
	r.items = append(r.items, pl)
	return true
}

func (r *Registry) Get(id string) (model.Placement, bool) {
	i, ok := r.index[id]
	if !ok {
		return model.Placement{}, false
	}
	return r.items[i], true
}

func (r *Registry) Move(id string, p model.Point) bool {
	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.items[i].X = p.X
	r.items[i].Y = p.Y
	return true
}

func (r *Registry) Remove(id string) bool {
	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	r.reindex()
	return true
}

// All returns a copy of the placements in insertion order.
func (r *Registry) All() []model.Placement {
	return append([]model.Placement(nil), r.items...)
}

func (r *Registry) BySource(sourceID string) []model.Placement {
	var out []model.Placement
	for _, pl := range r.items {
		if pl.SourceID == sourceID {
			out = append(out, pl)
		}
	}
	return out
}

// Prune drops placements whose source is no longer live and returns the removed ids.
func (r *Registry) Prune(live map[string]bool) []string {
	var removed []string
	kept := r.items[:0]
	for _, pl := range r.items {
		if live[pl.SourceID] {
			kept = append(kept, pl)
			continue
		}
		removed = append(removed, pl.ID)
	}
	r.items = kept
	if len(removed) > 0 {
		r.reindex()
	}
	return removed
}

func (r *Registry) Reset() {
	r.items = nil
	r.index = map[string]int{}
}

func (r *Registry) reindex() {
	r.index = make(map[string]int, len(r.items))
	for i, pl := range r.items {
		r.index[pl.ID] = i
	}
}
