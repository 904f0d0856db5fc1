package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

const (
	tuiStateFileName = "tui_state.json"
	tuiStateVersion  = 2
)

// TUIState is the terminal UI state restored on relaunch. Panes are visible
// unless hidden, and the sidebar tab is remembered per scope. A missing or
// unreadable file loads as the zero state.
type TUIState struct {
	Version     int  `json:"version"`
	HideSidebar bool `json:"hideSidebar,omitempty"`
	HidePreview bool `json:"hidePreview,omitempty"`

	// Tabs maps Scope.String() to files|groups.
	Tabs map[string]string `json:"tabs,omitempty"`
}

func (st *TUIState) Tab(scope model.Scope) string {
	if st == nil {
		return ""
	}
	return st.Tabs[scope.String()]
}

func (st *TUIState) SetTab(scope model.Scope, tab string) {
	if tab = strings.TrimSpace(tab); tab == "" {
		delete(st.Tabs, scope.String())
		return
	}
	if st.Tabs == nil {
		st.Tabs = map[string]string{}
	}
	st.Tabs[scope.String()] = tab
}

func (s Store) tuiStatePath() string {
	return filepath.Join(s.Dir, tuiStateFileName)
}

func (s Store) LoadTUIState() (*TUIState, error) {
	def := &TUIState{Version: tuiStateVersion}
	if strings.TrimSpace(s.Dir) == "" {
		return def, nil
	}
	b, err := os.ReadFile(s.tuiStatePath())
	switch {
	case errors.Is(err, os.ErrNotExist):
		return def, nil
	case err != nil:
		return nil, err
	}
	var st TUIState
	// Older layouts carry no tabs; they load as the default.
	if json.Unmarshal(b, &st) != nil || st.Version != tuiStateVersion {
		return def, nil
	}
	return &st, nil
}

func (s Store) SaveTUIState(st *TUIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	st.Version = tuiStateVersion
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, "tui_state.*.tmp", s.tuiStatePath(), b, 0o644)
}
