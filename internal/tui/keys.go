package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

func (m appModel) updateKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	if m.inputMode != inputNone {
		return m.updateInput(msg)
	}
	m.status, m.statusErr = "", false

	switch msg.String() {
	case "ctrl+c", "q":
		m.quit = true

	case "esc":
		switch {
		case m.drag != nil || m.sideSel != nil:
			m.drag, m.sideSel = nil, nil
			m.eng.PointerCancel()
		case m.eng.Interaction().Name() != "idle":
			m.eng.PointerCancel()
		case m.eng.Notice() != nil:
			m.eng.DismissNotice()
		default:
			m.eng.ClearSelection()
			m.eng.Deactivate()
			m.eng.CloseGroupMenu()
		}

	case "tab":
		next := selection.TabGroups
		if m.eng.Sidebar().Tab() == selection.TabGroups {
			next = selection.TabFiles
		}
		m.eng.SetSidebarTab(next)
		m.saveState()

	case "s":
		m.showSidebar = !m.showSidebar
		m.saveState()

	case "v":
		m.showPreview = !m.showPreview
		m.saveState()

	case "j", "down":
		m.focus = m.stepFocus(1)
		m.eng.HoverGroup(m.focus)

	case "k", "up":
		m.focus = m.stepFocus(-1)
		m.eng.HoverGroup(m.focus)

	case "a":
		m.eng.SelectAll()

	case "g":
		g, err := m.eng.GroupSelection()
		if m.report(err) {
			m.focus = g.ID
			m.setStatus(fmt.Sprintf("grouped %d item(s) as %s", len(g.ItemKeys), g.Name))
		}

	case "u":
		m.report(m.eng.Ungroup(m.eng.Selected()))

	case "h":
		m.report(m.eng.HideGroup(m.focus))

	case "H":
		m.report(m.eng.ShowGroup(m.focus))

	case "p":
		keys, err := m.eng.PlaceGroupOnCanvas(m.focus, m.lastPoint)
		if m.report(err) {
			m.setStatus(fmt.Sprintf("placed %d item(s)", len(keys)))
		}

	case "D":
		m.report(m.eng.DeleteGroup(m.focus))

	case "r":
		if !m.report(m.eng.BeginRename(m.focus)) {
			break
		}
		if rv := m.eng.View().Renaming; rv != nil {
			m.input.SetValue(rv.Draft)
			m.input.CursorEnd()
		}
		m.inputMode = inputRename
		return m, m.input.Focus()

	case "n":
		a, err := m.eng.AddAnnotation(m.lastPoint, "", "")
		if !m.report(err) {
			break
		}
		return m.editNote(a.ID, "")

	case "e", "enter":
		if id := m.eng.ActiveAnnotation(); id != "" {
			return m.editNote(id, m.annotationText(id))
		}
		if sel := m.eng.Selected(); len(sel) == 1 && sel[0].Kind == model.KeyAnnotation {
			m.report(m.eng.Activate(sel[0].ID))
		}

	case "x", "delete", "backspace":
		for _, k := range m.eng.Selected() {
			var err error
			if k.Kind == model.KeyAnnotation {
				err = m.eng.DeleteAnnotation(k.ID)
			} else {
				err = m.eng.RemoveItem(k)
			}
			if !m.report(err) {
				break
			}
		}

	case "m":
		next := m.eng.Scope()
		if next.Mode == model.ModeTeam {
			next.Mode = model.ModePersonal
		} else {
			next.Mode = model.ModeTeam
		}
		if m.report(m.eng.SwitchScope(m.ctx, next)) {
			m.focus = ""
			m.setStatus("switched to " + string(next.Mode))
		}

	case "ctrl+r":
		if m.report(m.eng.Refresh(m.ctx)) {
			m.setStatus("refreshed")
		}

	case "y":
		n := m.eng.Notice()
		if n == nil || n.Retry == nil {
			break
		}
		retry := *n.Retry
		m.eng.DismissNotice()
		if _, err := m.eng.Dispatch(m.ctx, retry); m.report(err) {
			m.setStatus("sent again")
		}
	}
	return m, nil
}

func (m appModel) updateInput(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.inputMode == inputRename {
			m.eng.CancelRename()
		}
		return m.closeInput(), nil

	case tea.KeyEnter:
		val := m.input.Value()
		switch m.inputMode {
		case inputRename:
			m.eng.UpdateRename(val)
			if !m.report(m.eng.CommitRename()) {
				// Empty name: stay in rename mode.
				return m, nil
			}
		case inputNote:
			_, err := m.eng.EditAnnotation(m.noteID, workspace.AnnotationEdit{Text: &val})
			m.report(err)
		}
		return m.closeInput(), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.inputMode == inputRename {
		m.eng.UpdateRename(m.input.Value())
	}
	return m, cmd
}

func (m appModel) editNote(id, text string) (appModel, tea.Cmd) {
	m.noteID = id
	m.inputMode = inputNote
	m.input.SetValue(text)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m appModel) closeInput() appModel {
	m.inputMode = inputNone
	m.noteID = ""
	m.input.Blur()
	m.input.SetValue("")
	return m
}

func (m appModel) annotationText(id string) string {
	for _, a := range m.eng.Annotations() {
		if a.ID == id {
			return a.Text
		}
	}
	return ""
}

// stepFocus moves the group focus by delta through the sidebar's group order, wrapping.
func (m appModel) stepFocus(delta int) string {
	groups := m.eng.View().Sidebar.Groups
	if len(groups) == 0 {
		return ""
	}
	cur := -1
	for i, g := range groups {
		if g.ID == m.focus {
			cur = i
			break
		}
	}
	if cur < 0 {
		if delta < 0 {
			return groups[len(groups)-1].ID
		}
		return groups[0].ID
	}
	return groups[(cur+delta+len(groups))%len(groups)].ID
}

// report shows err in the footer and returns whether the operation succeeded.
func (m *appModel) report(err error) bool {
	if err == nil {
		return true
	}
	m.status, m.statusErr = err.Error(), true
	return false
}

func (m *appModel) setStatus(s string) {
	m.status, m.statusErr = s, false
}
