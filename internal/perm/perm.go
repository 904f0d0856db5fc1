package perm

import (
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

// Identity is the viewer as resolved against a team's member list.
// Role is empty when the viewer is not a member.
type Identity struct {
	ViewerID string     `json:"viewerId"`
	Role     model.Role `json:"role,omitempty"`
}

func Resolve(viewerID string, members []model.Member) Identity {
	viewerID = strings.TrimSpace(viewerID)
	id := Identity{ViewerID: viewerID}
	for _, m := range members {
		if m.UserID == viewerID {
			id.Role = m.Role
			break
		}
	}
	return id
}

func (id Identity) IsMember() bool { return id.Role != "" }

// CanManageRoles reports whether the viewer may open role management at all.
func CanManageRoles(id Identity) bool {
	return id.Role == model.RoleOwner || id.Role == model.RoleAdmin
}

// CanChangeRole enforces role management rules:
// - only owners and admins manage roles
// - nobody changes their own role
// - the owner's role is fixed and nobody is promoted to owner
func CanChangeRole(id Identity, target model.Member, next model.Role) bool {
	if !CanManageRoles(id) {
		return false
	}
	if target.UserID == id.ViewerID {
		return false
	}
	if target.Role == model.RoleOwner || next == model.RoleOwner {
		return false
	}
	return true
}

// CanEditFile: the file owner can always edit. In team mode owners and admins can also
// edit files of other members.
func CanEditFile(id Identity, f model.File) bool {
	if strings.TrimSpace(id.ViewerID) == "" {
		return false
	}
	if f.OwnerID == id.ViewerID {
		return true
	}
	if f.Mode == model.ModeTeam {
		return id.Role == model.RoleOwner || id.Role == model.RoleAdmin
	}
	return false
}

// ShareTargets lists the members a file can be sent to (everyone but the viewer).
func ShareTargets(id Identity, members []model.Member) []model.Member {
	out := make([]model.Member, 0, len(members))
	for _, m := range members {
		if m.UserID == id.ViewerID {
			continue
		}
		out = append(out, m)
	}
	return out
}
