package selection

import (
	"fmt"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

type Tab string

const (
	TabFiles  Tab = "files"
	TabGroups Tab = "groups"
)

func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "files", "":
		return TabFiles, nil
	case "groups":
		return TabGroups, nil
	default:
		return "", fmt.Errorf("invalid sidebar tab: %q (expected files|groups)", s)
	}
}

// List names one of the two independently selectable sidebar lists.
type List string

const (
	ListFiles   List = "files"
	ListEntries List = "entries"
)

// Sidebar holds the selection state of the files list and the group-entries list.
// At most one of the two sets is non-empty at any time.
type Sidebar struct {
	tab     Tab
	files   KeySet
	entries KeySet
	marquee *sidebarMarquee
}

type sidebarMarquee struct {
	list List
	m    Marquee
	rows []Selectable
}

func NewSidebar() *Sidebar {
	return &Sidebar{tab: TabFiles, files: KeySet{}, entries: KeySet{}}
}

func (s *Sidebar) Tab() Tab { return s.tab }

// SetTab switches the active tab; both selections are cleared on a change.
func (s *Sidebar) SetTab(t Tab) bool {
	if t == s.tab {
		return false
	}
	s.tab = t
	s.Clear()
	return true
}

func (s *Sidebar) Clear() {
	s.files = KeySet{}
	s.entries = KeySet{}
	s.marquee = nil
}

func (s *Sidebar) Selected(l List) KeySet {
	if l == ListEntries {
		return s.entries
	}
	return s.files
}

// Begin starts a rectangle over the host-measured rows of list l.
func (s *Sidebar) Begin(l List, p model.Point, rows []Selectable) {
	s.marquee = &sidebarMarquee{list: l, m: Marquee{Start: p, Current: p}, rows: rows}
	s.set(l, KeySet{})
}

func (s *Sidebar) Update(p model.Point) bool {
	if s.marquee == nil {
		return false
	}
	s.marquee.m.Current = p
	s.set(s.marquee.list, s.marquee.m.Resolve(s.marquee.rows))
	return true
}

func (s *Sidebar) Commit() bool {
	if s.marquee == nil {
		return false
	}
	s.marquee = nil
	return true
}

func (s *Sidebar) Active() (List, model.Rect, bool) {
	if s.marquee == nil {
		return "", model.Rect{}, false
	}
	return s.marquee.list, s.marquee.m.Rect(), true
}

// Toggle flips one row, as a ctrl-click would.
func (s *Sidebar) Toggle(l List, k model.ItemKey) {
	cur := s.Selected(l).Clone()
	if cur.Has(k) {
		cur.Remove(k)
	} else {
		cur.Add(k)
	}
	s.set(l, cur)
}

func (s *Sidebar) Set(l List, keys KeySet) { s.set(l, keys.Clone()) }

func (s *Sidebar) set(l List, keys KeySet) {
	if l == ListEntries {
		s.entries = keys
		if len(keys) > 0 {
			s.files = KeySet{}
		}
		return
	}
	s.files = keys
	if len(keys) > 0 {
		s.entries = KeySet{}
	}
}

func (s *Sidebar) Prune(live func(List, model.ItemKey) bool) bool {
	a := s.files.Prune(func(k model.ItemKey) bool { return live(ListFiles, k) })
	b := s.entries.Prune(func(k model.ItemKey) bool { return live(ListEntries, k) })
	return a || b
}
