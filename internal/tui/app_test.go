package tui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

// A 128x42 window leaves a 100x40 canvas pane, so one cell is 10x20 canvas pixels.
const (
	testWidth  = 128
	testHeight = 42
)

func newTestModel(t *testing.T) (appModel, *workspace.Engine) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Setenv("ONBURE_TUI_THEME", "dark")

	n := 0
	eng, err := workspace.New(context.Background(), workspace.Options{
		Scope:  model.Scope{TeamID: "t1", Mode: model.ModePersonal, ViewerID: "u1"},
		Layout: canvas.DefaultLayout(),
		KV:     store.NewMemoryKV(),
		Logger: zerolog.Nop(),
		NewID: func(prefix string) string {
			n++
			return fmt.Sprintf("%s-%d", prefix, n)
		},
	})
	require.NoError(t, err)
	eng.SyncSources([]model.File{
		{ID: "f1", TeamID: "t1", Mode: model.ModePersonal, OwnerID: "u1", Title: "plan.md"},
		{ID: "f2", TeamID: "t1", Mode: model.ModePersonal, OwnerID: "u1", Title: "notes.md"},
	}, []model.Member{{TeamID: "t1", UserID: "u1", Name: "Ada", Role: model.RoleOwner}})

	m := newAppModel(context.Background(), eng, store.Store{Dir: t.TempDir()}, zerolog.Nop())
	m = send(t, m, tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	return m, eng
}

func send(t *testing.T, m appModel, msgs ...tea.Msg) appModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(appModel)
		require.True(t, ok)
	}
	return m
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func itemFor(t *testing.T, eng *workspace.Engine, sourceID string) workspace.Item {
	t.Helper()
	for _, it := range eng.View().Canvas.Items {
		if it.SourceID == sourceID {
			return it
		}
	}
	t.Fatalf("no canvas item for %s", sourceID)
	return workspace.Item{}
}

func TestGeometry(t *testing.T) {
	geo := newGeometry(testWidth, testHeight, canvas.DefaultLayout(), true, false)
	assert.Equal(t, sidebarWidth, geo.sideW)
	assert.Equal(t, 100, geo.cols)
	assert.Equal(t, 40, geo.rows)
	assert.InDelta(t, 10, geo.sx, 1e-9)
	assert.InDelta(t, 20, geo.sy, 1e-9)

	assert.Equal(t, model.Point{X: 155, Y: 150}, geo.toCanvas(43, 8))
	// Outside the pane clamps to the nearest cell.
	assert.Equal(t, model.Point{X: 5, Y: 10}, geo.toCanvas(0, 0))

	x0, y0, x1, y1 := geo.toCells(model.Rect{X: 100, Y: 100, W: 112, H: 96})
	assert.Equal(t, []int{10, 5, 21, 9}, []int{x0, y0, x1, y1})

	narrow := newGeometry(40, 20, canvas.DefaultLayout(), true, true)
	assert.Zero(t, narrow.sideW)
	assert.Zero(t, narrow.previewW)
	assert.Equal(t, 40, narrow.cols)
}

func TestSidebarDragDropsFileOnCanvas(t *testing.T) {
	m, eng := newTestModel(t)

	// The first file row sits right under the tab strip.
	require.Len(t, m.rows, 2)
	first := m.rows[0].id
	require.Equal(t, rowFile, m.rows[0].kind)

	m = send(t, m, press(5, 2), motion(30, 5), release(43, 8))
	it := itemFor(t, eng, first)
	assert.Equal(t, 155.0, it.Bounds.X)
	assert.Equal(t, 150.0, it.Bounds.Y)
	assert.Contains(t, m.status, "placed 1")
}

func TestCanvasDragMovesItem(t *testing.T) {
	m, eng := newTestModel(t)
	_, err := eng.DropOnCanvas(workspace.Drop{Kind: model.SourceFile, SourceIDs: []string{"f1"}, Point: model.Point{X: 100, Y: 100}})
	require.NoError(t, err)

	m = send(t, m, press(43, 8), motion(60, 12), motion(73, 18), release(73, 18))
	it := itemFor(t, eng, "f1")
	assert.Equal(t, 400.0, it.Bounds.X)
	assert.Equal(t, 300.0, it.Bounds.Y)
	_, idle := eng.Interaction().(workspace.Idle)
	assert.True(t, idle)
	_ = m
}

func TestMarqueeThenGroup(t *testing.T) {
	m, eng := newTestModel(t)
	_, err := eng.DropOnCanvas(workspace.Drop{Kind: model.SourceFile, SourceIDs: []string{"f1"}, Point: model.Point{X: 100, Y: 100}})
	require.NoError(t, err)
	_, err = eng.DropOnCanvas(workspace.Drop{Kind: model.SourceFile, SourceIDs: []string{"f2"}, Point: model.Point{X: 300, Y: 100}})
	require.NoError(t, err)

	// Empty canvas at (55,30) to (495,290) encloses both items.
	m = send(t, m, press(33, 2), motion(50, 10), release(77, 15))
	require.Len(t, eng.Selected(), 2)

	m = send(t, m, runes("g"))
	groups := eng.Groups()
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].ItemKeys, 2)
	assert.Equal(t, groups[0].ID, m.focus)
	assert.False(t, m.statusErr)

	m = send(t, m, runes("u"))
	assert.Empty(t, eng.Groups()[0].ItemKeys)
}

func TestRenameFlow(t *testing.T) {
	m, eng := newTestModel(t)
	keys, err := eng.DropOnCanvas(workspace.Drop{Kind: model.SourceFile, SourceIDs: []string{"f1"}, Point: model.Point{X: 100, Y: 100}})
	require.NoError(t, err)
	g, err := eng.CreateGroup(keys)
	require.NoError(t, err)
	m.focus = g.ID

	m = send(t, m, runes("r"))
	require.Equal(t, inputRename, m.inputMode)
	assert.Equal(t, "renaming", eng.Interaction().Name())

	m = send(t, m, runes("2"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, inputNone, m.inputMode)
	assert.Equal(t, g.Name+"2", eng.Groups()[0].Name)

	m = send(t, m, runes("r"), tea.KeyMsg{Type: tea.KeyCtrlU}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, inputRename, m.inputMode, "empty name keeps the prompt open")
	assert.True(t, m.statusErr)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, inputNone, m.inputMode)
	assert.Equal(t, g.Name+"2", eng.Groups()[0].Name)
}

func TestNoteAddAndEdit(t *testing.T) {
	m, eng := newTestModel(t)

	m = send(t, m, runes("n"))
	require.Equal(t, inputNote, m.inputMode)
	require.Len(t, eng.Annotations(), 1)

	m = send(t, m, runes("ship it"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, inputNone, m.inputMode)
	a := eng.Annotations()[0]
	assert.Equal(t, "ship it", a.Text)
	assert.Equal(t, a.ID, eng.ActiveAnnotation())

	out := m.View()
	assert.Contains(t, out, "Memo")
	assert.Contains(t, out, "ship it")
}

func TestTabSwitchPersistsState(t *testing.T) {
	m, eng := newTestModel(t)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, selection.TabGroups, eng.Sidebar().Tab())

	st, err := m.store.LoadTUIState()
	require.NoError(t, err)
	assert.Equal(t, "groups", st.Tab(eng.Scope()))
	assert.False(t, st.HideSidebar)

	m = send(t, m, runes("s"))
	st, err = m.store.LoadTUIState()
	require.NoError(t, err)
	assert.True(t, st.HideSidebar)

	reopened := newAppModel(context.Background(), eng, m.store, zerolog.Nop())
	assert.False(t, reopened.showSidebar)
}

func TestEscClearsSelection(t *testing.T) {
	m, eng := newTestModel(t)
	_, err := eng.DropOnCanvas(workspace.Drop{Kind: model.SourceFile, SourceIDs: []string{"f1"}, Point: model.Point{X: 100, Y: 100}})
	require.NoError(t, err)

	m = send(t, m, runes("a"))
	require.Len(t, eng.Selected(), 1)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, eng.Selected())

	m = send(t, m, runes("q"))
	assert.True(t, m.quit)
}

func TestViewRendersPanes(t *testing.T) {
	m, eng := newTestModel(t)
	_, err := eng.DropOnCanvas(workspace.Drop{Kind: model.SourceFile, SourceIDs: []string{"f1"}, Point: model.Point{X: 100, Y: 100}})
	require.NoError(t, err)

	out := m.View()
	assert.Contains(t, out, "onbure")
	assert.Contains(t, out, "t1 · personal · u1")
	assert.Contains(t, out, "Files")
	assert.Contains(t, out, "notes.md")
	assert.Contains(t, out, "┌")
	assert.Len(t, splitLines(out), testHeight)
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
