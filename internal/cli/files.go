package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/folder"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

func newFilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"file"},
		Short:   "File commands (through the data service)",
	}
	cmd.AddCommand(newFilesListCmd(app))
	cmd.AddCommand(newFilesCreateCmd(app))
	cmd.AddCommand(newFilesRenameCmd(app))
	cmd.AddCommand(newFilesMoveCmd(app))
	cmd.AddCommand(newFilesUploadCmd(app))
	cmd.AddCommand(newFilesShareCmd(app))
	cmd.AddCommand(newFilesDeleteCmd(app))
	return cmd
}

func newFilesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files visible in the current scope (folders excluded)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				out := make([]model.File, 0)
				for _, f := range s.Eng.Files() {
					if !folder.IsFolder(f) {
						out = append(out, f)
					}
				}
				return out, nil
			})
		},
	}
	return cmd
}

func newFilesCreateCmd(app *App) *cobra.Command {
	var title string
	var folderID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) (any, error) {
				return s.Eng.CreateFile(ctx, title, folderID)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "File title")
	cmd.Flags().StringVar(&folderID, "folder", "", "Folder id")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newFilesRenameCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <file-id> <title>",
		Short: "Rename a file or folder (owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) (any, error) {
				return s.Eng.RenameFile(ctx, args[0], args[1])
			})
		},
	}
	return cmd
}

func newFilesMoveCmd(app *App) *cobra.Command {
	var folderID string

	cmd := &cobra.Command{
		Use:   "move <file-id>",
		Short: "Move a file into --folder (empty for the root)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) (any, error) {
				return s.Eng.MoveFileToFolder(ctx, args[0], folderID)
			})
		},
	}

	cmd.Flags().StringVar(&folderID, "folder", "", "Target folder id (empty: root)")
	return cmd
}

func newFilesUploadCmd(app *App) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a local file into the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) (any, error) {
				return s.Eng.UploadFile(ctx, args[0], title)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title (default: file name)")
	return cmd
}

func newFilesShareCmd(app *App) *cobra.Command {
	var to string
	var resend bool

	cmd := &cobra.Command{
		Use:   "share <file-id>",
		Short: "Share a file with a team member",
		Long: `Share a file with a team member.

Sharing a file the member already received fails with a conflict; pass --resend
to send it again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) (any, error) {
				res, err := s.Eng.Dispatch(ctx, workspace.Intent{
					Kind:   workspace.IntentShareFile,
					FileID: args[0],
					UserID: to,
					Resend: resend,
				})
				if err != nil {
					return nil, err
				}
				return res.Share, nil
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient user id")
	cmd.Flags().BoolVar(&resend, "resend", false, "Send again if already shared")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newFilesDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <file-id>",
		Short: "Delete a file (owner only); its canvas items go with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) (any, error) {
				if _, err := s.Eng.Dispatch(ctx, workspace.Intent{Kind: workspace.IntentDeleteFile, FileID: args[0]}); err != nil {
					return nil, err
				}
				return map[string]any{"id": args[0], "deleted": true}, nil
			})
		},
	}
	return cmd
}

func newFoldersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "folders",
		Aliases: []string{"folder"},
		Short:   "Folder commands",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the folder tree (folders with children, then root files)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(_ context.Context, s *session) (any, error) {
				return s.Eng.View().Sidebar.Files, nil
			})
		},
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *session) (any, error) {
				return s.Eng.CreateFolder(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(list, create)
	return cmd
}
