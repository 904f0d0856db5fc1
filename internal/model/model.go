package model

import (
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModePersonal Mode = "personal"
	ModeTeam     Mode = "team"
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "personal", "":
		return ModePersonal, nil
	case "team":
		return ModeTeam, nil
	default:
		return "", fmt.Errorf("invalid mode: %q (expected personal|team)", s)
	}
}

// Scope partitions every piece of workspace state.
// Two scopes that differ in any field never share positions, groups or annotations.
type Scope struct {
	TeamID   string `json:"teamId"`
	Mode     Mode   `json:"mode"`
	ViewerID string `json:"viewerId"`
}

func (s Scope) Validate() error {
	if strings.TrimSpace(s.TeamID) == "" {
		return fmt.Errorf("scope: missing team")
	}
	if strings.TrimSpace(s.ViewerID) == "" {
		return fmt.Errorf("scope: missing viewer")
	}
	if s.Mode != ModePersonal && s.Mode != ModeTeam {
		return fmt.Errorf("scope: invalid mode %q", s.Mode)
	}
	return nil
}

func (s Scope) String() string {
	return s.TeamID + "/" + string(s.Mode) + "/" + s.ViewerID
}

type SourceKind string

const (
	SourceFile   SourceKind = "file"
	SourceMember SourceKind = "member"
)

type AnnotationKind string

const (
	AnnotationComment AnnotationKind = "comment"
	AnnotationMemo    AnnotationKind = "memo"
)

// AnnotationKindFor returns the annotation kind shown on the canvas in a mode.
func AnnotationKindFor(m Mode) AnnotationKind {
	if m == ModeTeam {
		return AnnotationComment
	}
	return AnnotationMemo
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner, nil
	case "admin":
		return RoleAdmin, nil
	case "member":
		return RoleMember, nil
	default:
		return "", fmt.Errorf("invalid role: %q (expected owner|admin|member)", s)
	}
}

// File is a source entity owned by the data service.
// Folders are files too; see internal/folder.
type File struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Mode      Mode      `json:"mode"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	FolderID  string    `json:"folderId,omitempty"`
	MimeType  string    `json:"mimeType,omitempty"`
	SizeBytes int64     `json:"sizeBytes,omitempty"`
	Sha256Hex string    `json:"sha256,omitempty"`
	Path      string    `json:"path,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Member struct {
	UserID string `json:"userId"`
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

type Share struct {
	ID        string    `json:"id"`
	FileID    string    `json:"fileId"`
	FromID    string    `json:"fromUserId"`
	ToID      string    `json:"toUserId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Placement is one spatial occurrence of a source entity on the canvas.
type Placement struct {
	ID       string     `json:"id"`
	SourceID string     `json:"sourceId"`
	Kind     SourceKind `json:"kind"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
}

func (p Placement) Key() ItemKey {
	if p.Kind == SourceMember {
		return MemberKey(p.ID)
	}
	return FileKey(p.ID)
}

func (p Placement) Pos() Point { return Point{X: p.X, Y: p.Y} }

type Annotation struct {
	ID         string         `json:"id"`
	Kind       AnnotationKind `json:"kind"`
	Title      string         `json:"title"`
	AuthorID   string         `json:"authorId"`
	AuthorName string         `json:"authorName"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Text       string         `json:"text"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (a Annotation) Key() ItemKey { return AnnotationKey(a.ID) }

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ItemKeys  []ItemKey `json:"itemKeys"`
	CreatedAt time.Time `json:"createdAt"`
}

func (g Group) Has(k ItemKey) bool {
	for _, x := range g.ItemKeys {
		if x == k {
			return true
		}
	}
	return false
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }
func (r Rect) Origin() Point   { return Point{X: r.X, Y: r.Y} }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}
