package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/tui"
)

func newTUICmd(app *App) *cobra.Command {
	var refresh time.Duration
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive canvas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUIWith(cmd, app, refresh)
		},
	}
	cmd.Flags().DurationVar(&refresh, "refresh", 5*time.Second, "Silent file/member refetch interval")
	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	return runTUIWith(cmd, app, 0)
}

func runTUIWith(cmd *cobra.Command, app *App, refresh time.Duration) error {
	dir, err := resolveDir(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return writeErr(cmd, err)
	}
	// The alternate screen owns the terminal; logs go next to the store.
	logFile, err := os.OpenFile(filepath.Join(dir, "tui.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer logFile.Close()

	s, err := openSession(cmd, app, sessionOpts{Debounce: app.config().DebounceOrDefault(), LogTo: logFile})
	if err != nil {
		return writeErr(cmd, err)
	}
	ctx := cmd.Context()
	runErr := tui.Run(ctx, tui.Options{Engine: s.Eng, Store: s.Store, Refresh: refresh, Log: s.Log})
	if err := s.Close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return writeErr(cmd, runErr)
	}
	return nil
}
