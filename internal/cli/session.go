package cli

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

// session is one opened workspace: the SQLite handle, the local data service and
// an engine bound to the resolved scope.
type session struct {
	Store store.Store
	DB    *sql.DB
	Dir   *store.Directory
	Eng   *workspace.Engine
	Log   zerolog.Logger
}

type sessionOpts struct {
	// Debounce > 0 keeps the engine writing in the background (TUI/web).
	// One-shot commands leave it zero and flush on close.
	Debounce time.Duration
	OnCommit func()
	// LogTo overrides stderr as the log sink (the TUI owns the terminal).
	LogTo io.Writer
}

func openSession(cmd *cobra.Command, app *App, opts sessionOpts) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dir, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	scope, err := resolveScope(app)
	if err != nil {
		return nil, err
	}
	logTo := opts.LogTo
	if logTo == nil {
		logTo = cmd.ErrOrStderr()
	}
	log := newLogger(app, logTo)

	s := store.Store{Dir: dir}
	db, err := s.OpenSQLite(ctx)
	if err != nil {
		return nil, err
	}
	directory := store.NewDirectory(db, dir)
	cfg := app.config()
	kv, err := cfg.StateKV(dir, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	eng, err := workspace.New(ctx, workspace.Options{
		Scope:    scope,
		Layout:   cfg.ApplyLayout(canvas.DefaultLayout()),
		KV:       kv,
		Service:  directory,
		Debounce: opts.Debounce,
		Logger:   log,
		OnCommit: opts.OnCommit,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := eng.Refresh(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &session{Store: s, DB: db, Dir: directory, Eng: eng, Log: log}, nil
}

func (s *session) Close(ctx context.Context) error {
	err := s.Eng.Close(ctx)
	return errors.Join(err, s.DB.Close())
}

// withSession opens a session, runs fn and flushes the engine. fn's result is
// written inside the output envelope.
func withSession(cmd *cobra.Command, app *App, fn func(ctx context.Context, s *session) (any, error)) error {
	s, err := openSession(cmd, app, sessionOpts{})
	if err != nil {
		return writeErr(cmd, err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, runErr := fn(ctx, s)
	closeErr := s.Close(ctx)
	if runErr != nil {
		return writeErr(cmd, runErr)
	}
	if closeErr != nil {
		return writeErr(cmd, closeErr)
	}
	return writeOut(cmd, app, map[string]any{"data": out})
}

// findItem returns the current canvas item for k.
func findItem(v workspace.View, k model.ItemKey) (workspace.Item, bool) {
	for _, it := range v.Canvas.Items {
		if it.Key == k {
			return it, true
		}
	}
	return workspace.Item{}, false
}
