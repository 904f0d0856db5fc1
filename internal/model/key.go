package model

import (
	"fmt"
	"strings"
)

type KeyKind string

const (
	KeyFile       KeyKind = "file"
	KeyMember     KeyKind = "member"
	KeyAnnotation KeyKind = "annotation"
)

// ItemKey identifies a selectable, groupable unit on the canvas.
// File and member keys carry a placement id, never a bare source id.
type ItemKey struct {
	Kind KeyKind
	ID   string
}

func FileKey(placementID string) ItemKey   { return ItemKey{Kind: KeyFile, ID: placementID} }
func MemberKey(placementID string) ItemKey { return ItemKey{Kind: KeyMember, ID: placementID} }
func AnnotationKey(id string) ItemKey      { return ItemKey{Kind: KeyAnnotation, ID: id} }

func (k ItemKey) IsZero() bool { return k.Kind == "" && k.ID == "" }

func (k ItemKey) String() string { return string(k.Kind) + ":" + k.ID }

// SourceKind maps placement keys to their source kind. ok is false for annotations.
func (k ItemKey) SourceKind() (SourceKind, bool) {
	switch k.Kind {
	case KeyFile:
		return SourceFile, true
	case KeyMember:
		return SourceMember, true
	default:
		return "", false
	}
}

func ParseItemKey(s string) (ItemKey, error) {
	s = strings.TrimSpace(s)
	kind, id, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(id) == "" {
		return ItemKey{}, fmt.Errorf("invalid item key: %q (expected kind:id)", s)
	}
	switch KeyKind(kind) {
	case KeyFile, KeyMember, KeyAnnotation:
		return ItemKey{Kind: KeyKind(kind), ID: id}, nil
	default:
		return ItemKey{}, fmt.Errorf("invalid item key kind: %q (expected file|member|annotation)", kind)
	}
}

func (k ItemKey) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return nil, fmt.Errorf("marshal empty item key")
	}
	return []byte(k.String()), nil
}

func (k *ItemKey) UnmarshalText(b []byte) error {
	parsed, err := ParseItemKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ItemKeyLess(a, b ItemKey) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}
