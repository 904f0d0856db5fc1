package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

func newMembersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "members",
		Aliases: []string{"member"},
		Short:   "Team member commands",
	}
	cmd.AddCommand(newMembersListCmd(app))
	cmd.AddCommand(newMembersAddCmd(app))
	cmd.AddCommand(newMembersRoleCmd(app))
	return cmd
}

func newMembersListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List team members with the viewer's identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				v := s.Eng.View()
				return map[string]any{
					"identity":       v.Identity,
					"canManageRoles": v.CanManageRoles,
					"members":        v.Members,
					"shareTargets":   v.ShareTargets,
				}, nil
			})
		},
	}
	return cmd
}

// add writes straight to the local directory; membership is not a workspace intent.
func newMembersAddCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <user-id>",
		Short: "Add a member to the team (local directory only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) (any, error) {
				if !s.Eng.Identity().IsMember() {
					return nil, mutate.ForbiddenError{Action: "add members", ViewerID: s.Eng.Scope().ViewerID}
				}
				m, err := s.Dir.UpsertMember(ctx, model.Member{
					TeamID: s.Eng.Scope().TeamID,
					UserID: strings.TrimSpace(args[0]),
					Name:   firstNonEmpty(name, args[0]),
					Role:   model.RoleMember,
				})
				if err != nil {
					return nil, err
				}
				return m, s.Eng.Refresh(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func newMembersRoleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role <user-id> <owner|admin|member>",
		Short: "Change a member's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := model.ParseRole(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(ctx context.Context, s *session) (any, error) {
				res, err := s.Eng.Dispatch(ctx, workspace.Intent{Kind: workspace.IntentChangeRole, UserID: args[0], Role: role})
				if err != nil {
					return nil, err
				}
				return res.Member, nil
			})
		},
	}
	return cmd
}
