package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

func newCanvasCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canvas",
		Short: "Canvas placement commands",
	}
	cmd.AddCommand(newCanvasShowCmd(app))
	cmd.AddCommand(newCanvasDropCmd(app, "place", "Place sources on the canvas (alias of drop without a modifier)"))
	cmd.AddCommand(newCanvasDropCmd(app, "drop", "Drop sources on the canvas; --modifier groups them"))
	cmd.AddCommand(newCanvasMoveCmd(app))
	cmd.AddCommand(newCanvasRemoveCmd(app))
	cmd.AddCommand(newCanvasSelectCmd(app))
	cmd.AddCommand(newCanvasDragCmd(app))
	return cmd
}

func newCanvasShowCmd(app *App) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the canvas (items and group outlines)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				v := s.Eng.View()
				if full {
					return v, nil
				}
				return v.Canvas, nil
			})
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Include sidebar, identity and members")
	return cmd
}

func newCanvasDropCmd(app *App, use, short string) *cobra.Command {
	var kind string
	var ids []string
	var at string
	var modifier bool
	var group string

	cmd := &cobra.Command{
		Use:   use + " [source-id...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseSourceKind(kind)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := parsePoint(at)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				keys, err := s.Eng.DropOnCanvas(workspace.Drop{
					Kind:      k,
					SourceIDs: splitIDs(append(ids, args...)),
					Point:     p,
					Modifier:  modifier || group != "",
					Group:     group,
				})
				if err != nil {
					return nil, err
				}
				return droppedItems(s.Eng.View(), keys), nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "file", "Source kind (file|member)")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Source ids (comma-separated)")
	cmd.Flags().StringVar(&at, "at", "0,0", "Drop point x,y in canvas pixels")
	if use == "drop" {
		cmd.Flags().BoolVar(&modifier, "modifier", false, "Hold the grouping modifier (group into the outline under --at)")
		cmd.Flags().StringVar(&group, "group", "", "Group id to drop into (implies --modifier)")
	}
	return cmd
}

func droppedItems(v workspace.View, keys []model.ItemKey) map[string]any {
	items := make([]workspace.Item, 0, len(keys))
	for _, k := range keys {
		if it, ok := findItem(v, k); ok {
			items = append(items, it)
		}
	}
	return map[string]any{"items": items, "ack": v.Canvas.Ack}
}

func newCanvasMoveCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "move <item-key>",
		Short: "Move an item so its top-left is at --to (clamped to the canvas)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := model.ParseItemKey(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := parsePoint(to)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				got, err := s.Eng.MoveItem(k, p)
				if err != nil {
					return nil, err
				}
				return map[string]any{"key": k, "x": got.X, "y": got.Y}, nil
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target x,y")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newCanvasRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <item-key>...",
		Short: "Remove items from the canvas (sources are untouched)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				for _, k := range keys {
					if err := s.Eng.RemoveItem(k); err != nil {
						return nil, err
					}
				}
				return map[string]any{"removed": keys}, nil
			})
		},
	}
	return cmd
}

func newCanvasSelectCmd(app *App) *cobra.Command {
	var rect []string
	var all bool

	cmd := &cobra.Command{
		Use:   "select [item-key...]",
		Short: "Resolve a selection (keys, --rect a,b or --all) against the current canvas",
		Example: `  onbure canvas select --rect 0,0 --rect 400,300
  onbure canvas select --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return writeErr(cmd, err)
			}
			var corners []model.Point
			for _, r := range rect {
				p, err := parsePoint(r)
				if err != nil {
					return writeErr(cmd, err)
				}
				corners = append(corners, p)
			}
			if len(corners) != 0 && len(corners) != 2 {
				return writeErr(cmd, mutate.ValidationError{Field: "rect", Reason: "pass --rect twice (two corners)"})
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				switch {
				case all:
					return s.Eng.SelectAll(), nil
				case len(corners) == 2:
					return s.Eng.SelectRect(corners[0], corners[1]), nil
				default:
					return s.Eng.Select(keys, false), nil
				}
			})
		},
	}

	cmd.Flags().StringArrayVar(&rect, "rect", nil, "Marquee corner x,y (pass twice)")
	cmd.Flags().BoolVar(&all, "all", false, "Select every canvas item")
	return cmd
}

func newCanvasDragCmd(app *App) *cobra.Command {
	var to string
	var with []string
	var modifier bool
	var group string

	cmd := &cobra.Command{
		Use:   "drag <item-key>",
		Short: "Drag an item (and --with items) so the pressed item's top-left ends at --to",
		Long: `Simulates a pointer press on the item, a move and a release.

Items passed with --with are selected first and move rigidly with the pressed item.
With --modifier (or --group) the release drops every dragged item into the group
outline under the pointer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := model.ParseItemKey(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			target, err := parsePoint(to)
			if err != nil {
				return writeErr(cmd, err)
			}
			others, err := parseKeys(with)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				return drag(s.Eng, k, others, target, modifier || group != "", group)
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target top-left x,y of the pressed item")
	cmd.Flags().StringSliceVar(&with, "with", nil, "Further item keys dragged along")
	cmd.Flags().BoolVar(&modifier, "modifier", false, "Hold the grouping modifier")
	cmd.Flags().StringVar(&group, "group", "", "Drop target group id (implies --modifier)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func drag(eng *workspace.Engine, k model.ItemKey, others []model.ItemKey, target model.Point, modifier bool, group string) (any, error) {
	it, ok := findItem(eng.View(), k)
	if !ok {
		return nil, mutate.NotFoundError{Kind: "item", ID: k.String()}
	}
	if len(others) > 0 {
		eng.Select(append([]model.ItemKey{k}, others...), false)
	}
	grip := model.Point{X: it.Bounds.W / 2, Y: it.Bounds.H / 2}
	press := it.Bounds.Origin().Add(grip)
	release := target.Add(grip)

	eng.PointerDown(workspace.PointerEvent{Point: press})
	if _, ok := eng.Interaction().(workspace.Dragging); !ok {
		eng.PointerCancel()
		return nil, fmt.Errorf("item %s cannot be dragged", k)
	}
	ev := workspace.PointerEvent{Point: release, Modifier: modifier, DropGroup: group}
	eng.PointerMove(ev)
	eng.PointerUp(ev)

	v := eng.View()
	keys := append([]model.ItemKey{k}, others...)
	return droppedItems(v, keys), nil
}
