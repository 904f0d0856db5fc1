package mutate

import (
	"context"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/perm"
)

type MemberResult struct {
	Member  model.Member
	Changed bool
}

func SetMemberRole(ctx context.Context, svc DataService, id perm.Identity, members []model.Member, userID string, role model.Role) (MemberResult, error) {
	userID = strings.TrimSpace(userID)
	target, ok := findMember(members, userID)
	if !ok {
		return MemberResult{}, NotFoundError{Kind: "member", ID: userID}
	}
	if _, err := model.ParseRole(string(role)); err != nil {
		return MemberResult{}, ValidationError{Field: "role", Reason: err.Error()}
	}
	if !perm.CanChangeRole(id, target, role) {
		return MemberResult{}, ForbiddenError{Action: "change role of " + userID, ViewerID: id.ViewerID}
	}
	if target.Role == role {
		return MemberResult{Member: target}, nil
	}
	m, err := svc.SetMemberRole(ctx, target.TeamID, target.UserID, role)
	if err != nil {
		return MemberResult{}, remote("set member role", "member", userID, err)
	}
	return MemberResult{Member: m, Changed: true}, nil
}
