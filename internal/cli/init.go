package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
)

func newInitCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize local storage and seed the viewer as team owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			scope, err := resolveScope(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			s := store.Store{Dir: dir}
			db, err := s.OpenSQLite(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			d := store.NewDirectory(db, dir)
			members, err := d.ListMembers(ctx, scope.TeamID)
			if err != nil {
				return writeErr(cmd, err)
			}
			var me *model.Member
			for i := range members {
				if members[i].UserID == scope.ViewerID {
					me = &members[i]
				}
			}
			// The first viewer of an empty team owns it; later viewers join as members.
			if me == nil {
				role := model.RoleMember
				if len(members) == 0 {
					role = model.RoleOwner
				}
				m, err := d.UpsertMember(ctx, model.Member{
					TeamID: scope.TeamID,
					UserID: scope.ViewerID,
					Name:   firstNonEmpty(strings.TrimSpace(name), scope.ViewerID),
					Role:   role,
				})
				if err != nil {
					return writeErr(cmd, err)
				}
				me = &m
			}

			// Remember the scope when none is configured yet.
			cfg := app.config()
			if cfg.Team == "" || cfg.Viewer == "" {
				cfg.Team, cfg.Viewer, cfg.Mode = scope.TeamID, scope.ViewerID, string(scope.Mode)
				if app.Dir != "" && cfg.Dir == "" {
					cfg.Dir = dir
				}
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":        dir,
					"sqlitePath": filepath.Join(dir, "index.sqlite"),
					"scope":      scope,
					"member":     me,
				},
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the viewer (default: viewer id)")
	return cmd
}

func newUseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use",
		Short: "Remember the current scope (--team, --mode, --viewer, --dir) in the config",
		Example: strings.TrimSpace(`
  onbure use --team acme --mode team
  onbure use --viewer u2
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.config()
			if v := strings.TrimSpace(app.Team); v != "" {
				cfg.Team = v
			}
			if v := strings.TrimSpace(app.Viewer); v != "" {
				cfg.Viewer = v
			}
			if v := strings.TrimSpace(app.Mode); v != "" {
				m, err := model.ParseMode(v)
				if err != nil {
					return writeErr(cmd, err)
				}
				cfg.Mode = string(m)
			}
			if v := strings.TrimSpace(app.Dir); v != "" {
				abs, err := filepath.Abs(v)
				if err != nil {
					return writeErr(cmd, err)
				}
				cfg.Dir = abs
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			scope, err := resolveScope(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"scope": scope, "dir": cfg.Dir}})
		},
	}
	return cmd
}
