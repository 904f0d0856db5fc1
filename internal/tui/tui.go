// Package tui is the interactive terminal host for a workspace engine: a sidebar of files
// and groups, the canvas rasterised to cells, and a preview of the active annotation.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

type Options struct {
	Engine *workspace.Engine
	Store  store.Store

	// Refresh is the silent source refetch interval. Zero means five seconds.
	Refresh time.Duration
	Log     zerolog.Logger
}

// Run blocks until the user quits. The engine is flushed but not closed.
func Run(ctx context.Context, opts Options) error {
	if opts.Engine == nil {
		return errors.New("tui: engine is required")
	}
	applyThemePreference()
	applyColorProfilePreference()

	m := newAppModel(ctx, opts.Engine, opts.Store, opts.Log)
	if opts.Refresh > 0 {
		m.refreshEvery = opts.Refresh
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return opts.Engine.Flush(ctx)
}
