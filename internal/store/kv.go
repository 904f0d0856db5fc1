package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

// KV is the persistence port for scoped workspace state. Values are opaque bytes.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Slice string

const (
	SlicePositions   Slice = "positions"
	SliceAnnotations Slice = "annotations"
	SliceGroups      Slice = "groups"
	SliceHidden      Slice = "hidden"
)

func Slices() []Slice {
	return []Slice{SlicePositions, SliceAnnotations, SliceGroups, SliceHidden}
}

// ScopeKey returns workspace/<team>/<mode>/<viewer>/<slice>.
// Path separators inside ids are escaped so distinct scopes never collide.
func ScopeKey(scope model.Scope, slice Slice) string {
	return strings.Join([]string{
		"workspace",
		escapeSegment(scope.TeamID),
		escapeSegment(string(scope.Mode)),
		escapeSegment(scope.ViewerID),
		string(slice),
	}, "/")
}

var segmentEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

func escapeSegment(s string) string {
	return segmentEscaper.Replace(strings.TrimSpace(s))
}

// MemoryKV keeps values in process memory.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: map[string][]byte{}}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.values))
	for k := range m.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
