package store

import (
	"strings"
	"testing"
)

func TestNewRandomID_StableLength(t *testing.T) {
	id, err := newRandomID("grp")
	if err != nil {
		t.Fatalf("newRandomID: %v", err)
	}
	if !strings.HasPrefix(id, "grp-") {
		t.Fatalf("expected grp prefix, got %q", id)
	}
	suffix := strings.TrimPrefix(id, "grp-")
	if got, want := len(suffix), 8; got != want {
		t.Fatalf("expected id suffix len %d, got %d (%q)", want, got, suffix)
	}
}

func TestIDGen_Unique(t *testing.T) {
	gen := IDGen("ann")
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := gen()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
