package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/seong-yoon-choi/onbure-sub000/internal/folder"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

type rowKind int

const (
	rowFolder rowKind = iota
	rowFile
	rowGroup
	rowEntry
)

// sidebarRow is one rendered sidebar line below the tab strip.
type sidebarRow struct {
	kind     rowKind
	text     string
	id       string // folder, file or group id
	key      model.ItemKey
	groupID  string
	selected bool
	dim      bool
}

func (r sidebarRow) list() selection.List {
	if r.kind == rowEntry {
		return selection.ListEntries
	}
	return selection.ListFiles
}

func sidebarRows(sv workspace.SidebarView) []sidebarRow {
	var rows []sidebarRow
	if sv.Tab == selection.TabGroups {
		sel := keySet(sv.SelectedEntries)
		for _, g := range sv.Groups {
			text := fmt.Sprintf("■ %s (%d)", g.Name, len(g.Entries))
			if g.Hidden {
				text += " hidden"
			}
			rows = append(rows, sidebarRow{kind: rowGroup, text: text, id: g.ID, groupID: g.ID, dim: g.Hidden})
			for _, en := range g.Entries {
				mark := "  "
				if en.OnCanvas {
					mark = "• "
				}
				rows = append(rows, sidebarRow{
					kind:     rowEntry,
					text:     "  " + mark + en.Label,
					key:      en.Key,
					groupID:  g.ID,
					selected: sel[en.Key],
				})
			}
		}
		return rows
	}

	sel := keySet(sv.SelectedFiles)
	fileRow := func(f model.File, indent string) sidebarRow {
		k := model.FileKey(f.ID)
		return sidebarRow{kind: rowFile, text: indent + f.Title, id: f.ID, key: k, selected: sel[k]}
	}
	for _, fd := range sv.Files.Folders {
		arrow := "▸ "
		if fd.Open {
			arrow = "▾ "
		}
		rows = append(rows, sidebarRow{kind: rowFolder, text: arrow + fd.Name + "/", id: fd.File.ID})
		if fd.Open {
			for _, f := range fd.Children {
				rows = append(rows, fileRow(f, "    "))
			}
		}
	}
	for _, f := range sv.Files.Root {
		if folder.IsFolder(f) {
			continue
		}
		rows = append(rows, fileRow(f, "  "))
	}
	return rows
}

func keySet(keys []model.ItemKey) map[model.ItemKey]bool {
	out := make(map[model.ItemKey]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out
}

// rowRect is the sidebar marquee hit box of row i, in cell units.
func rowRect(i, width int) model.Rect {
	return model.Rect{X: 0, Y: float64(i), W: float64(width), H: 1}
}

func renderSidebar(sv workspace.SidebarView, rows []sidebarRow, focus string, width, height int) string {
	files, groups := styleTabInactive(), styleTabInactive()
	if sv.Tab == selection.TabGroups {
		groups = styleTabActive()
	} else {
		files = styleTabActive()
	}
	lines := []string{files.Render("Files") + groups.Render("Groups")}

	for _, r := range rows {
		text := truncate(r.text, width-1)
		switch {
		case r.selected:
			text = styleSelected().Render(text)
		case r.kind == rowGroup && r.id == focus:
			text = styleSelected().Inherit(styleGroup()).Render(text)
		case r.kind == rowGroup:
			st := styleGroup()
			if r.dim {
				st = st.Faint(true)
			}
			text = st.Render(text)
		case r.kind == rowFolder:
			text = styleHeader().Render(text)
		}
		lines = append(lines, text)
	}
	if len(rows) == 0 {
		empty := "no files"
		if sv.Tab == selection.TabGroups {
			empty = "no groups"
		}
		lines = append(lines, styleMuted().Render("  "+empty))
	}
	border := lipgloss.NewStyle().Foreground(colorMuted)
	pane := normalizePane(strings.Join(lines, "\n"), width-1, height)
	out := strings.Split(pane, "\n")
	for i := range out {
		out[i] += border.Render("│")
	}
	return strings.Join(out, "\n")
}
