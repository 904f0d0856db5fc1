package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

const defaultRefreshEvery = 5 * time.Second

type refreshTickMsg struct{}

type inputMode int

const (
	inputNone inputMode = iota
	inputRename
	inputNote
)

// sourceDrag is a press on a sidebar file row that may end as a drop on the canvas.
type sourceDrag struct {
	ids []string
}

// sidebarSelect is a shift-drag marquee over the sidebar rows.
type sidebarSelect struct {
	list selection.List
}

type appModel struct {
	ctx   context.Context
	eng   *workspace.Engine
	store store.Store
	log   zerolog.Logger

	width  int
	height int

	showSidebar  bool
	showPreview  bool
	refreshEvery time.Duration

	rows  []sidebarRow
	focus string // focused group id in the groups tab

	drag      *sourceDrag
	sideSel   *sidebarSelect
	lastPoint model.Point

	input     textinput.Model
	inputMode inputMode
	noteID    string

	status    string
	statusErr bool
	quit      bool
}

func newAppModel(ctx context.Context, eng *workspace.Engine, s store.Store, log zerolog.Logger) appModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := appModel{
		ctx:          ctx,
		eng:          eng,
		store:        s,
		log:          log,
		showSidebar:  true,
		showPreview:  true,
		refreshEvery: defaultRefreshEvery,
		input:        ti,
		lastPoint:    model.Point{X: eng.Layout().Width / 2, Y: eng.Layout().Height / 2},
	}
	if st, err := s.LoadTUIState(); err == nil {
		if tab, err := selection.ParseTab(st.Tab(eng.Scope())); err == nil {
			eng.SetSidebarTab(tab)
		}
		m.showSidebar = !st.HideSidebar
		m.showPreview = !st.HidePreview
	}
	m.rows = sidebarRows(eng.View().Sidebar)
	return m
}

func (m appModel) Init() tea.Cmd { return m.tickRefresh() }

func (m appModel) tickRefresh() tea.Cmd {
	return tea.Tick(m.refreshEvery, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m appModel) geometry() geometry {
	_, active := m.activeItem()
	return newGeometry(m.width, m.height, m.eng.Layout(), m.showSidebar, m.showPreview && active)
}

func (m appModel) activeItem() (workspace.Item, bool) {
	id := m.eng.ActiveAnnotation()
	if id == "" {
		return workspace.Item{}, false
	}
	for _, it := range m.eng.View().Canvas.Items {
		if it.Key == model.AnnotationKey(id) {
			return it, true
		}
	}
	return workspace.Item{}, false
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case refreshTickMsg:
		// Silent: failures surface as a notice, the cached sources stay.
		if _, ok := m.eng.Interaction().(workspace.Idle); ok {
			_ = m.eng.Refresh(m.ctx)
			m.rows = sidebarRows(m.eng.View().Sidebar)
		}
		return m, m.tickRefresh()

	case tea.MouseMsg:
		m = m.updateMouse(msg)
		m.rows = sidebarRows(m.eng.View().Sidebar)
		return m, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.updateKey(msg)
		m.rows = sidebarRows(m.eng.View().Sidebar)
		if m.quit {
			return m, tea.Quit
		}
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateMouse(msg tea.MouseMsg) appModel {
	geo := m.geometry()
	p := geo.toCanvas(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m
		}
		m.setStatus("")
		if geo.inSidebar(msg.X, msg.Y) {
			return m.pressSidebar(msg, geo)
		}
		if geo.inCanvas(msg.X, msg.Y) {
			m.lastPoint = p
			m.eng.PointerDown(workspace.PointerEvent{Point: p, Modifier: msg.Ctrl})
		}

	case tea.MouseActionMotion:
		switch {
		case m.sideSel != nil:
			m.eng.PointerMove(workspace.PointerEvent{Point: sidebarPoint(msg, geo)})
		case m.drag != nil:
		default:
			m.eng.PointerMove(m.pointerEvent(msg, geo, p))
		}

	case tea.MouseActionRelease:
		switch {
		case m.sideSel != nil:
			m.eng.PointerUp(workspace.PointerEvent{Point: sidebarPoint(msg, geo)})
			m.sideSel = nil
		case m.drag != nil:
			drag := m.drag
			m.drag = nil
			if !geo.inCanvas(msg.X, msg.Y) {
				return m
			}
			m.lastPoint = p
			keys, err := m.eng.DropOnCanvas(workspace.Drop{
				Kind:      model.SourceFile,
				SourceIDs: drag.ids,
				Point:     p,
				Modifier:  msg.Ctrl,
				Group:     m.dropGroupAt(msg, geo),
			})
			if m.report(err) {
				m.setStatus(fmt.Sprintf("placed %d item(s)", len(keys)))
			}
		default:
			m.eng.PointerUp(m.pointerEvent(msg, geo, p))
		}
	}
	return m
}

// pointerEvent carries the ctrl modifier and, over a sidebar group header, the drop group.
func (m appModel) pointerEvent(msg tea.MouseMsg, geo geometry, p model.Point) workspace.PointerEvent {
	return workspace.PointerEvent{Point: p, Modifier: msg.Ctrl, DropGroup: m.dropGroupAt(msg, geo)}
}

func (m appModel) dropGroupAt(msg tea.MouseMsg, geo geometry) string {
	if !msg.Ctrl || !geo.inSidebar(msg.X, msg.Y) {
		return ""
	}
	if r, ok := m.rowAt(msg.Y, geo); ok && r.groupID != "" {
		return r.groupID
	}
	return ""
}

func (m appModel) rowAt(y int, geo geometry) (sidebarRow, bool) {
	i := y - geo.canvasY - 1
	if i < 0 || i >= len(m.rows) {
		return sidebarRow{}, false
	}
	return m.rows[i], true
}

func sidebarPoint(msg tea.MouseMsg, geo geometry) model.Point {
	return model.Point{X: float64(msg.X) + 0.5, Y: float64(msg.Y-geo.canvasY-1) + 0.5}
}

func (m appModel) pressSidebar(msg tea.MouseMsg, geo geometry) appModel {
	if msg.Y == geo.canvasY {
		// Tab strip: " Files " then " Groups ".
		tab := selection.TabFiles
		if msg.X >= len(" Files ") {
			tab = selection.TabGroups
		}
		m.eng.SetSidebarTab(tab)
		m.saveState()
		return m
	}
	r, ok := m.rowAt(msg.Y, geo)
	if msg.Shift {
		list := selection.ListFiles
		if m.eng.Sidebar().Tab() == selection.TabGroups {
			list = selection.ListEntries
		}
		rows := make([]selection.Selectable, 0, len(m.rows))
		for i, row := range m.rows {
			if row.list() == list && !row.key.IsZero() {
				rows = append(rows, selection.Selectable{Key: row.key, Bounds: rowRect(i, geo.sideW)})
			}
		}
		m.sideSel = &sidebarSelect{list: list}
		m.eng.BeginSidebarSelect(list, sidebarPoint(msg, geo), rows)
		return m
	}
	if !ok {
		return m
	}
	switch r.kind {
	case rowFolder:
		_, _ = m.eng.ToggleFolder(r.id)
	case rowFile:
		if msg.Ctrl {
			m.eng.ToggleSidebarRow(selection.ListFiles, r.key)
			return m
		}
		ids := []string{r.id}
		if r.selected {
			ids = ids[:0]
			for _, k := range m.eng.Sidebar().Selected(selection.ListFiles).Sorted() {
				ids = append(ids, k.ID)
			}
		}
		m.drag = &sourceDrag{ids: ids}
	case rowGroup:
		m.focus = r.id
		m.eng.HoverGroup(r.id)
	case rowEntry:
		m.eng.ToggleSidebarRow(selection.ListEntries, r.key)
	}
	return m
}

func (m appModel) saveState() {
	st, err := m.store.LoadTUIState()
	if err != nil {
		st = &store.TUIState{}
	}
	st.HideSidebar = !m.showSidebar
	st.HidePreview = !m.showPreview
	st.SetTab(m.eng.Scope(), string(m.eng.Sidebar().Tab()))
	if err := m.store.SaveTUIState(st); err != nil {
		m.log.Debug().Err(err).Msg("save tui state")
	}
}

func (m appModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	v := m.eng.View()
	geo := m.geometry()

	var panes []string
	if geo.sideW > 0 {
		panes = append(panes, renderSidebar(v.Sidebar, m.rows, m.focus, geo.sideW, geo.rows))
	}
	panes = append(panes, normalizePane(renderCanvas(v.Canvas, geo), geo.cols, geo.rows))
	if geo.previewW > 0 {
		panes = append(panes, m.renderPreview(geo))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panes...)

	return strings.Join([]string{
		normalizePane(m.renderHeader(v), m.width, 1),
		body,
		normalizePane(m.renderFooter(v), m.width, 1),
	}, "\n")
}

func (m appModel) renderHeader(v workspace.View) string {
	mode := string(v.Scope.Mode)
	parts := []string{
		styleHeader().Render("onbure"),
		styleMuted().Render(fmt.Sprintf("%s · %s · %s", v.Scope.TeamID, mode, v.Scope.ViewerID)),
		styleMuted().Render(v.Interaction),
	}
	if n := len(v.Canvas.Selected); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if ack := v.Canvas.Ack; ack != nil {
		parts = append(parts, styleNotice("").Render(fmt.Sprintf("+%d → %s", ack.Count, ack.Name)))
	}
	return strings.Join(parts, "  ")
}

func (m appModel) renderFooter(v workspace.View) string {
	if m.inputMode != inputNone {
		label := "rename: "
		if m.inputMode == inputNote {
			label = "note: "
		}
		return label + m.input.View()
	}
	if n := v.Notice; n != nil {
		msg := n.Message
		if n.Retry != nil {
			msg += " (y: resend)"
		}
		return styleNotice(string(n.Kind)).Render(msg)
	}
	if m.status != "" {
		kind := ""
		if m.statusErr {
			kind = "error"
		}
		return styleNotice(kind).Render(m.status)
	}
	return styleMuted().Render("tab sidebar · g group · u ungroup · h/H hide/show · p place · r rename · n note · e edit · x remove · m mode · q quit")
}

func (m appModel) renderPreview(geo geometry) string {
	it, ok := m.activeItem()
	if !ok {
		return normalizePane("", geo.previewW, geo.rows)
	}
	body := styleHeader().Render(truncate(it.Label, geo.previewW-2))
	if it.Author != "" {
		body += "\n" + styleMuted().Render(truncate(it.Author, geo.previewW-2))
	}
	if md := renderMarkdown(it.Text, geo.previewW-2); md != "" {
		body += "\n\n" + md
	}
	pane := normalizePane(body, geo.previewW-1, geo.rows)
	lines := strings.Split(pane, "\n")
	for i := range lines {
		lines[i] = styleMuted().Render("│") + lines[i]
	}
	return strings.Join(lines, "\n")
}
