package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/grouping"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

func newGroupsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Group commands",
	}
	cmd.AddCommand(newGroupsListCmd(app))
	cmd.AddCommand(newGroupsGetCmd(app))
	cmd.AddCommand(newGroupsCreateCmd(app))
	cmd.AddCommand(newGroupsMoveCmd(app))
	cmd.AddCommand(newGroupsReorderCmd(app))
	cmd.AddCommand(newGroupsRenameCmd(app))
	cmd.AddCommand(newGroupsIDCmd(app, "delete", "deleted", "Delete a group (its items stay on the canvas)", (*workspace.Engine).DeleteGroup))
	cmd.AddCommand(newGroupsIDCmd(app, "hide", "hidden", "Hide a group and its items from the canvas", (*workspace.Engine).HideGroup))
	cmd.AddCommand(newGroupsIDCmd(app, "show", "shown", "Show a hidden group on the canvas again", (*workspace.Engine).ShowGroup))
	cmd.AddCommand(newGroupsPlaceCmd(app))
	cmd.AddCommand(newGroupsUngroupCmd(app))
	return cmd
}

func groupEntry(v workspace.View, id string) (workspace.GroupEntry, error) {
	for _, g := range v.Sidebar.Groups {
		if g.ID == id {
			return g, nil
		}
	}
	return workspace.GroupEntry{}, mutate.NotFoundError{Kind: "group", ID: id}
}

func newGroupsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List groups in order, with their entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				return s.Eng.View().Sidebar.Groups, nil
			})
		},
	}
	return cmd
}

func newGroupsGetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <group-id>",
		Short: "Show one group with its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				return groupEntry(s.Eng.View(), args[0])
			})
		},
	}
	return cmd
}

func newGroupsCreateCmd(app *App) *cobra.Command {
	var files []string
	var members []string
	var name string

	cmd := &cobra.Command{
		Use:   "create [item-key...]",
		Short: "Create a group from canvas items (or --files/--members source ids)",
		Example: `  onbure groups create file:file-abc member:u2
  onbure groups create --files file-abc,file-def --name Specs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				var g model.Group
				var err error
				switch {
				case len(keys) > 0:
					g, err = s.Eng.CreateGroup(keys)
				case len(splitIDs(files)) > 0:
					g, err = s.Eng.AddSourcesToGroup("", model.SourceFile, splitIDs(files))
				case len(splitIDs(members)) > 0:
					g, err = s.Eng.AddSourcesToGroup("", model.SourceMember, splitIDs(members))
				default:
					err = mutate.ValidationError{Field: "items", Reason: "empty"}
				}
				if err != nil {
					return nil, err
				}
				// Sources of the other kind join the new group too.
				if len(keys) == 0 && len(splitIDs(files)) > 0 && len(splitIDs(members)) > 0 {
					if g, err = s.Eng.AddSourcesToGroup(g.ID, model.SourceMember, splitIDs(members)); err != nil {
						return nil, err
					}
				}
				if name != "" {
					if err := s.Eng.RenameGroup(g.ID, name); err != nil {
						return nil, err
					}
				}
				return groupEntry(s.Eng.View(), g.ID)
			})
		},
	}

	cmd.Flags().StringSliceVar(&files, "files", nil, "File ids to group")
	cmd.Flags().StringSliceVar(&members, "members", nil, "Member user ids to group")
	cmd.Flags().StringVar(&name, "name", "", "Group name (default: next GroupN)")
	return cmd
}

func newGroupsMoveCmd(app *App) *cobra.Command {
	var files []string
	var members []string

	cmd := &cobra.Command{
		Use:   "move <group-id> [item-key...]",
		Short: "Move items (or --files/--members sources) into a group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args[1:])
			if err != nil {
				return writeErr(cmd, err)
			}
			id := args[0]
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				if len(keys) > 0 {
					if err := s.Eng.MoveToGroup(id, keys); err != nil {
						return nil, err
					}
				}
				if fs := splitIDs(files); len(fs) > 0 {
					if _, err := s.Eng.AddSourcesToGroup(id, model.SourceFile, fs); err != nil {
						return nil, err
					}
				}
				if ms := splitIDs(members); len(ms) > 0 {
					if _, err := s.Eng.AddSourcesToGroup(id, model.SourceMember, ms); err != nil {
						return nil, err
					}
				}
				return groupEntry(s.Eng.View(), id)
			})
		},
	}

	cmd.Flags().StringSliceVar(&files, "files", nil, "File ids to add")
	cmd.Flags().StringSliceVar(&members, "members", nil, "Member user ids to add")
	return cmd
}

func newGroupsReorderCmd(app *App) *cobra.Command {
	var before string
	var after string

	cmd := &cobra.Command{
		Use:   "reorder <group-id> <item-key>",
		Short: "Move an entry before or after another entry of the same group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := model.ParseItemKey(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			pos, ref := grouping.Before, before
			if after != "" {
				pos, ref = grouping.After, after
			}
			if (before == "") == (after == "") {
				return writeErr(cmd, mutate.ValidationError{Field: "position", Reason: "pass exactly one of --before/--after"})
			}
			tgt, err := model.ParseItemKey(ref)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				changed, err := s.Eng.ReorderGroup(args[0], src, tgt, pos)
				if err != nil {
					return nil, err
				}
				g, err := groupEntry(s.Eng.View(), args[0])
				if err != nil {
					return nil, err
				}
				return map[string]any{"changed": changed, "group": g}, nil
			})
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "Item key to move before")
	cmd.Flags().StringVar(&after, "after", "", "Item key to move after")
	return cmd
}

func newGroupsRenameCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <group-id> <name>",
		Short: "Rename a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				if err := s.Eng.RenameGroup(args[0], args[1]); err != nil {
					return nil, err
				}
				return groupEntry(s.Eng.View(), args[0])
			})
		},
	}
	return cmd
}

func newGroupsIDCmd(app *App, use, done, short string, op func(*workspace.Engine, string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <group-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				if err := op(s.Eng, args[0]); err != nil {
					return nil, err
				}
				return map[string]any{"id": args[0], done: true}, nil
			})
		},
	}
	return cmd
}

func newGroupsPlaceCmd(app *App) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "place <group-id>",
		Short: "Lay a group's items out on the canvas around --at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(at)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				keys, err := s.Eng.PlaceGroupOnCanvas(args[0], p)
				if err != nil {
					return nil, err
				}
				return droppedItems(s.Eng.View(), keys), nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "500,400", "Anchor point x,y")
	return cmd
}

func newGroupsUngroupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ungroup <item-key>...",
		Short: "Remove items from their groups",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				if err := s.Eng.Ungroup(keys); err != nil {
					return nil, err
				}
				return map[string]any{"ungrouped": keys}, nil
			})
		},
	}
	return cmd
}
