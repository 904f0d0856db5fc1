package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/format"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
)

type App struct {
	Dir        string
	Team       string
	Mode       string
	Viewer     string
	PrettyJSON bool
	Format     string
	LogLevel   string

	cfg *store.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "onbure",
		Short:        "Onbure spatial workspace (canvas, groups, folders)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  onbure

  # Seed a workspace and remember the scope
  onbure init --team acme --viewer u1 --name Ada

  # Scriptable commands
  onbure canvas show
  onbure canvas drop --kind file --ids file-abc --at 500,400
  onbure groups list

  # Direct group lookup (shortcut for: onbure groups get <group-id>)
  onbure grp-k3x9
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("ONBURE_DIR", ""), "Workspace store dir (default: config dir, then nearest .onbure)")
	cmd.PersistentFlags().StringVar(&app.Team, "team", envOr("ONBURE_TEAM", ""), "Team id (default: config)")
	cmd.PersistentFlags().StringVar(&app.Mode, "mode", envOr("ONBURE_MODE", ""), "Workspace mode (personal|team)")
	cmd.PersistentFlags().StringVar(&app.Viewer, "viewer", envOr("ONBURE_VIEWER", ""), "Viewer user id (default: config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("ONBURE_FORMAT", "json"), "Output format (json|yaml|edn)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("ONBURE_LOG_LEVEL", ""), "Log level on stderr (debug|info|warn|error)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newUseCmd(app))
	cmd.AddCommand(newCanvasCmd(app))
	cmd.AddCommand(newGroupsCmd(app))
	cmd.AddCommand(newNotesCmd(app))
	cmd.AddCommand(newFilesCmd(app))
	cmd.AddCommand(newFoldersCmd(app))
	cmd.AddCommand(newMembersCmd(app))
	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// config loads the user config once per invocation. A broken file reads as empty.
func (app *App) config() *store.Config {
	if app.cfg != nil {
		return app.cfg
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		cfg = &store.Config{}
	}
	app.cfg = cfg
	return cfg
}

// resolveDir picks the store dir: --dir / ONBURE_DIR, then config, then the
// nearest .onbure directory (or ./.onbure).
func resolveDir(app *App) (string, error) {
	if app.Dir != "" {
		return app.Dir, nil
	}
	if d := strings.TrimSpace(app.config().Dir); d != "" {
		app.Dir = d
		return d, nil
	}
	d, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	app.Dir = d
	return d, nil
}

// resolveScope applies flags > env > config > defaults. Mode defaults to personal;
// team and viewer have no default.
func resolveScope(app *App) (model.Scope, error) {
	cfg := app.config()
	team := firstNonEmpty(app.Team, cfg.Team)
	viewer := firstNonEmpty(app.Viewer, cfg.Viewer)
	mode, err := model.ParseMode(firstNonEmpty(app.Mode, cfg.Mode))
	if err != nil {
		return model.Scope{}, err
	}
	if team == "" || viewer == "" {
		return model.Scope{}, errors.New("no team/viewer; run `onbure init --team <id> --viewer <id>` or `onbure use ...` (or pass --team/--viewer)")
	}
	return model.Scope{TeamID: team, Mode: mode, ViewerID: viewer}, nil
}

func newLogger(app *App, w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if s := firstNonEmpty(app.LogLevel, app.config().LogLevel); s != "" {
		if l, err := zerolog.ParseLevel(s); err == nil {
			level = l
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
