package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

func TestTUIState_RoundTripPerScope(t *testing.T) {
	t.Parallel()
	s := Store{Dir: t.TempDir()}
	personal := model.Scope{TeamID: "t1", Mode: model.ModePersonal, ViewerID: "u1"}
	team := model.Scope{TeamID: "t1", Mode: model.ModeTeam, ViewerID: "u1"}

	st, err := s.LoadTUIState()
	require.NoError(t, err)
	assert.Equal(t, tuiStateVersion, st.Version)
	assert.False(t, st.HideSidebar)
	assert.Empty(t, st.Tab(personal))

	st.HidePreview = true
	st.SetTab(team, "groups")
	require.NoError(t, s.SaveTUIState(st))

	got, err := s.LoadTUIState()
	require.NoError(t, err)
	assert.True(t, got.HidePreview)
	assert.Equal(t, "groups", got.Tab(team))
	assert.Empty(t, got.Tab(personal))

	got.SetTab(team, "")
	assert.Empty(t, got.Tab(team))
}

func TestTUIState_CorruptOrOldLoadsDefault(t *testing.T) {
	t.Parallel()
	for name, body := range map[string]string{
		"corrupt": "{nope",
		"v1":      `{"version":1,"showSidebar":false}`,
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tuiStateFileName), []byte(body), 0o644))
			st, err := Store{Dir: dir}.LoadTUIState()
			require.NoError(t, err)
			assert.Equal(t, &TUIState{Version: tuiStateVersion}, st)
		})
	}
}
