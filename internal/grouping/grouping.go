// Package grouping maintains named groups of canvas item keys.
//
// A key belongs to at most one group. Every operation that adds keys to a group first
// removes them from all groups, so the invariant holds after any sequence of calls.
package grouping

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

var ErrEmptyName = errors.New("group name is empty")

type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string { return fmt.Sprintf("group not found: %s", e.ID) }

type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	default:
		return "", fmt.Errorf("invalid position: %q (expected before|after)", s)
	}
}

// Set is the ordered collection of groups of one scope plus the canvas hide state.
type Set struct {
	groups       []model.Group
	hiddenGroups map[string]bool
	hiddenItems  map[model.ItemKey]bool

	newID func() string
}

func NewSet(newID func() string) *Set {
	return &Set{
		hiddenGroups: map[string]bool{},
		hiddenItems:  map[model.ItemKey]bool{},
		newID:        newID,
	}
}

// Load replaces the contents with persisted state, repairing duplicate memberships
// (first group wins) so the single-membership invariant holds for stale payloads too.
func (s *Set) Load(groups []model.Group, hiddenGroups []string, hiddenItems []model.ItemKey) {
	s.groups = nil
	s.hiddenGroups = map[string]bool{}
	s.hiddenItems = map[model.ItemKey]bool{}
	owner := map[model.ItemKey]bool{}
	ids := map[string]bool{}
	for _, g := range groups {
		g.ID = strings.TrimSpace(g.ID)
		if g.ID == "" || ids[g.ID] {
			continue
		}
		ids[g.ID] = true
		keys := make([]model.ItemKey, 0, len(g.ItemKeys))
		for _, k := range g.ItemKeys {
			if k.IsZero() || owner[k] {
				continue
			}
			owner[k] = true
			keys = append(keys, k)
		}
		g.ItemKeys = keys
		s.groups = append(s.groups, g)
	}
	for _, id := range hiddenGroups {
		if ids[id] {
			s.hiddenGroups[id] = true
		}
	}
	for _, k := range hiddenItems {
		if !k.IsZero() {
			s.hiddenItems[k] = true
		}
	}
}

// Groups returns copies of the groups in creation order.
func (s *Set) Groups() []model.Group {
	out := make([]model.Group, len(s.groups))
	for i, g := range s.groups {
		g.ItemKeys = append([]model.ItemKey(nil), g.ItemKeys...)
		out[i] = g
	}
	return out
}

func (s *Set) Get(id string) (model.Group, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Group{}, false
	}
	g := s.groups[i]
	g.ItemKeys = append([]model.ItemKey(nil), g.ItemKeys...)
	return g, true
}

// GroupOf returns the id of the group holding k.
func (s *Set) GroupOf(k model.ItemKey) (string, bool) {
	for _, g := range s.groups {
		if g.Has(k) {
			return g.ID, true
		}
	}
	return "", false
}

// Create allocates a new auto-named group holding keys in the given order.
func (s *Set) Create(keys []model.ItemKey, now time.Time) model.Group {
	keys = dedupe(keys)
	s.detach(keys)
	g := model.Group{
		ID:        s.newID(),
		Name:      s.NextName(),
		ItemKeys:  keys,
		CreatedAt: now.UTC(),
	}
	s.groups = append(s.groups, g)
	return g
}

// NextName returns the first GroupN name not already used.
func (s *Set) NextName() string {
	used := map[string]bool{}
	for _, g := range s.groups {
		used[normalizeName(g.Name)] = true
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("Group%d", n)
		if !used[normalizeName(name)] {
			return name
		}
	}
}

// MoveItems moves keys into the group, appending those not already there. Moved keys take
// on the target's visibility: they are hidden with a hidden group and leave the hidden set
// when they come out of one.
func (s *Set) MoveItems(groupID string, keys []model.ItemKey) error {
	i := s.indexOf(groupID)
	if i < 0 {
		return NotFoundError{ID: groupID}
	}
	keys = dedupe(keys)
	hidden := s.hiddenGroups[groupID]
	for _, k := range keys {
		switch from, ok := s.GroupOf(k); {
		case hidden:
			s.hiddenItems[k] = true
		case ok && s.hiddenGroups[from]:
			delete(s.hiddenItems, k)
		}
	}
	s.detach(keys)
	g := &s.groups[i]
	for _, k := range keys {
		if !g.Has(k) {
			g.ItemKeys = append(g.ItemKeys, k)
		}
	}
	return nil
}

// Reorder moves source next to target within one group. It reports false when the
// move does not apply (unknown group, keys not both members, or source == target).
func (s *Set) Reorder(groupID string, source, target model.ItemKey, pos Position) bool {
	i := s.indexOf(groupID)
	if i < 0 || source == target {
		return false
	}
	g := &s.groups[i]
	if !g.Has(source) || !g.Has(target) {
		return false
	}
	rest := make([]model.ItemKey, 0, len(g.ItemKeys))
	for _, k := range g.ItemKeys {
		if k != source {
			rest = append(rest, k)
		}
	}
	out := make([]model.ItemKey, 0, len(g.ItemKeys))
	for _, k := range rest {
		if k == target && pos == Before {
			out = append(out, source)
		}
		out = append(out, k)
		if k == target && pos == After {
			out = append(out, source)
		}
	}
	changed := false
	for j := range out {
		if out[j] != g.ItemKeys[j] {
			changed = true
			break
		}
	}
	g.ItemKeys = out
	return changed
}

func (s *Set) Rename(groupID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	i := s.indexOf(groupID)
	if i < 0 {
		return NotFoundError{ID: groupID}
	}
	s.groups[i].Name = name
	return nil
}

func (s *Set) Delete(groupID string) bool {
	i := s.indexOf(groupID)
	if i < 0 {
		return false
	}
	s.groups = append(s.groups[:i], s.groups[i+1:]...)
	delete(s.hiddenGroups, groupID)
	return true
}

// RemoveItems takes keys out of every group. Hidden flags are left alone.
func (s *Set) RemoveItems(keys []model.ItemKey) bool {
	return s.detach(keys)
}

// Forget removes keys from every group and from the hidden-item set. Used when the
// underlying items cease to exist.
func (s *Set) Forget(keys []model.ItemKey) bool {
	changed := s.detach(keys)
	for _, k := range keys {
		if s.hiddenItems[k] {
			delete(s.hiddenItems, k)
			changed = true
		}
	}
	return changed
}

// Hide excludes the group and its members from the canvas. Members stay grouped.
func (s *Set) Hide(groupID string) error {
	i := s.indexOf(groupID)
	if i < 0 {
		return NotFoundError{ID: groupID}
	}
	s.hiddenGroups[groupID] = true
	for _, k := range s.groups[i].ItemKeys {
		s.hiddenItems[k] = true
	}
	return nil
}

// Show reverses Hide, un-hiding the members as well.
func (s *Set) Show(groupID string) error {
	i := s.indexOf(groupID)
	if i < 0 {
		return NotFoundError{ID: groupID}
	}
	delete(s.hiddenGroups, groupID)
	for _, k := range s.groups[i].ItemKeys {
		delete(s.hiddenItems, k)
	}
	return nil
}

func (s *Set) HideItems(keys []model.ItemKey) {
	for _, k := range keys {
		s.hiddenItems[k] = true
	}
}

func (s *Set) ShowItems(keys []model.ItemKey) {
	for _, k := range keys {
		delete(s.hiddenItems, k)
	}
}

func (s *Set) GroupHidden(id string) bool { return s.hiddenGroups[id] }

func (s *Set) ItemHidden(k model.ItemKey) bool { return s.hiddenItems[k] }

func (s *Set) HiddenGroups() []string {
	out := make([]string, 0, len(s.hiddenGroups))
	for _, g := range s.groups {
		if s.hiddenGroups[g.ID] {
			out = append(out, g.ID)
		}
	}
	return out
}

func (s *Set) HiddenItems() []model.ItemKey {
	out := make([]model.ItemKey, 0, len(s.hiddenItems))
	for k := range s.hiddenItems {
		out = append(out, k)
	}
	sortKeys(out)
	return out
}

func (s *Set) indexOf(id string) int {
	for i := range s.groups {
		if s.groups[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Set) detach(keys []model.ItemKey) bool {
	if len(keys) == 0 {
		return false
	}
	drop := map[model.ItemKey]bool{}
	for _, k := range keys {
		drop[k] = true
	}
	changed := false
	for i := range s.groups {
		g := &s.groups[i]
		kept := g.ItemKeys[:0]
		for _, k := range g.ItemKeys {
			if drop[k] {
				changed = true
				continue
			}
			kept = append(kept, k)
		}
		g.ItemKeys = kept
	}
	return changed
}

func dedupe(keys []model.ItemKey) []model.ItemKey {
	seen := map[model.ItemKey]bool{}
	out := make([]model.ItemKey, 0, len(keys))
	for _, k := range keys {
		if k.IsZero() || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
