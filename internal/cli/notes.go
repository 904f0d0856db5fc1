package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

// Notes are the canvas annotations: comments in team mode, memos in personal mode.
func newNotesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notes",
		Aliases: []string{"note", "annotations"},
		Short:   "Annotation commands (comments in team mode, memos in personal mode)",
	}
	cmd.AddCommand(newNotesListCmd(app))
	cmd.AddCommand(newNotesAddCmd(app))
	cmd.AddCommand(newNotesEditCmd(app))
	cmd.AddCommand(newNotesDeleteCmd(app))
	cmd.AddCommand(newNotesResizeCmd(app))
	return cmd
}

func newNotesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List annotations of the current scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				return s.Eng.Annotations(), nil
			})
		},
	}
	return cmd
}

func newNotesAddCmd(app *App) *cobra.Command {
	var at string
	var title string
	var text string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an annotation at --at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(at)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				return s.Eng.AddAnnotation(p, title, text)
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Top-left x,y")
	cmd.Flags().StringVar(&title, "title", "", "Title (default: Comment/Memo)")
	cmd.Flags().StringVar(&text, "text", "", "Body text (markdown)")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newNotesEditCmd(app *App) *cobra.Command {
	var title string
	var text string

	cmd := &cobra.Command{
		Use:   "edit <annotation-id>",
		Short: "Edit an annotation's title or text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit workspace.AnnotationEdit
			if cmd.Flags().Changed("title") {
				edit.Title = &title
			}
			if cmd.Flags().Changed("text") {
				edit.Text = &text
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				return s.Eng.EditAnnotation(args[0], edit)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&text, "text", "", "New body text")
	return cmd
}

func newNotesDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <annotation-id>",
		Short: "Delete an annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				if err := s.Eng.DeleteAnnotation(args[0]); err != nil {
					return nil, err
				}
				return map[string]any{"id": args[0], "deleted": true}, nil
			})
		},
	}
	return cmd
}

func newNotesResizeCmd(app *App) *cobra.Command {
	var size string

	cmd := &cobra.Command{
		Use:   "resize <annotation-id>",
		Short: "Set the expanded size (clamped to the kind's limits and the canvas)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sz, err := parseSize(size)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				got, err := s.Eng.ResizeAnnotation(args[0], sz)
				if err != nil {
					return nil, err
				}
				return map[string]any{"id": args[0], "size": got}, nil
			})
		},
	}

	cmd.Flags().StringVar(&size, "size", "", "Size WxH, e.g. 520x480")
	_ = cmd.MarkFlagRequired("size")
	return cmd
}
