package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"kmlgen/internal/edit"
	"kmlgen/internal/route"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		l := m.layout()
		m.l.SetSize(l.mapW-4, l.mapH-2)
		m.syncListTop()
		return m, nil
	case commitDueMsg:
		if p, ok := m.buf.Due(msg.seq); ok {
			m.commit(p)
		}
		return m, nil
	case catalogProgressMsg:
		if msg.gen != m.importGen || !m.importing {
			return m, nil
		}
		m.importDone, m.importTotal = msg.done, msg.total
		m.status = fmt.Sprintf("catalog import: %s / %s rows (Esc cancels)", humanize.Comma(int64(msg.done)), humanize.Comma(int64(msg.total)))
		return m, waitProgress(m.progress)
	case catalogBuiltMsg:
		if msg.gen != m.importGen {
			return m, nil
		}
		m.finishCatalogImport(msg)
		return m, nil
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.KeyMsg:
		var (
			next tea.Model
			cmd  tea.Cmd
		)
		switch m.mode {
		case modeEdit:
			next, cmd = m.updateEdit(msg)
		case modeFiles:
			next, cmd = m.updateFiles(msg)
		case modePaste:
			next, cmd = m.updatePaste(msg)
		case modeCatalog:
			next, cmd = m.updateCatalog(msg)
		case modeHistory:
			m.mode = modeNormal
			next = m
		default:
			next, cmd = m.updateKeys(msg)
		}
		nm := next.(Model)
		nm.syncListTop()
		return nm, cmd
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.flushEdit()
		if m.cancelImport != nil {
			m.cancelImport()
		}
		return m, tea.Quit
	case "esc":
		m.cancelCatalogImport()
	case "j":
		m.moveSelection(1)
	case "k":
		m.moveSelection(-1)
	case "J", "K":
		delta := 1
		if msg.String() == "K" {
			delta = -1
		}
		if id := m.app.ActiveID(); id != route.None {
			m.report("move", m.app.MoveBy(id, delta), "")
		}
	case "a":
		return m, m.startEdit(edit.Target{Field: edit.FieldName, WaypointID: m.app.Trailing().ID})
	case "e", "enter":
		id := m.app.ActiveID()
		if id == route.None {
			id = m.app.Trailing().ID
		}
		return m, m.startEdit(edit.Target{Field: edit.FieldName, WaypointID: id})
	case "c":
		if id := m.app.ActiveID(); id != route.None {
			return m, m.startEdit(edit.Target{Field: edit.FieldCoords, WaypointID: id})
		}
		m.status = "select a waypoint first"
	case "n":
		return m, m.startEdit(edit.Target{Field: edit.FieldMapName})
	case "x", "delete":
		if id := m.app.ActiveID(); id != route.None {
			m.report("remove", m.app.Remove(id), "removed")
		}
	case "C":
		if id := m.app.ActiveID(); id != route.None {
			m.report("coords", m.app.ClearCoords(id), "coordinates cleared")
		}
	case "D":
		m.report("clear", m.app.Clear(), "route cleared (u to undo)")
		m.resetView()
	case "s":
		m.report("sort", m.app.SortFrom(), "sorted by nearest neighbour")
	case "S":
		m.report("sort", m.app.SortAlongImport(), "sorted along imported line")
	case "u", "ctrl+z":
		if err := m.app.Undo(); err != nil {
			m.fail("undo", err)
		} else {
			m.status = fmt.Sprintf("undone (%d left)", m.app.HistoryLen())
		}
	case "E":
		res, err := m.app.Export(context.Background())
		if err != nil {
			m.fail("export", err)
		} else {
			m.status = fmt.Sprintf("exported %d points to %s", res.Points, res.Path)
		}
	case "H":
		m.openHistory()
	case "o":
		m.mode = modeFiles
		m.refreshDir()
		l := m.layout()
		m.l.SetSize(l.mapW-4, l.mapH-2)
	case "p":
		m.mode = modePaste
		m.ta.SetValue("")
		m.status = "paste mode (" + m.importMode.String() + ")"
		return m, m.ta.Focus()
	case "w":
		m.mode = modeCatalog
		m.search.SetValue("")
		m.searching = false
		m.tbl.Focus()
		m.refreshCatalogTable()
		if m.app.Catalog().Len() == 0 {
			m.status = "catalog is empty: open a .csv or .xlsx with o"
		}
	case "t":
		theme, err := m.app.ToggleTheme(context.Background())
		m.st = newStyles(theme)
		m.report("theme", err, "theme: "+theme)
	case "L":
		m.showLabels = !m.showLabels
	case "+", "=":
		if m.zoom < 4096 {
			m.zoom *= 1.2
			m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
		}
	case "-", "_":
		if m.zoom > 0.05 {
			m.zoom /= 1.2
			m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
		}
	case "0":
		m.resetView()
	case "up":
		m.offsetY -= 1
	case "down":
		m.offsetY += 1
	case "left":
		m.offsetX -= 2
	case "right":
		m.offsetX += 2
	case "h", "?":
		m.helpVisible = !m.helpVisible
	}
	return m, nil
}

func (m Model) updatePaste(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.ta.Blur()
		return m, nil
	case "enter":
		doc := m.ta.Value()
		if doc == "" {
			m.status = "paste: empty"
			return m, nil
		}
		if err := m.app.ImportKML([]byte(doc), m.importMode); err != nil {
			m.fail("import", err)
			return m, nil
		}
		m.resetView()
		m.status = fmt.Sprintf("imported %q: %d points", m.app.MapName(), len(m.app.Placed()))
		m.mode = modeNormal
		m.ta.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

// report sets the status line from the outcome of an app operation.
func (m *Model) report(op string, err error, ok string) {
	if err != nil {
		m.fail(op, err)
		return
	}
	if ok != "" {
		m.status = ok
	}
}

func (m *Model) moveSelection(delta int) {
	wps := m.app.Waypoints()
	i := 0
	for j, w := range wps {
		if w.ID == m.app.ActiveID() {
			i = j + delta
			break
		}
	}
	i = min(max(i, 0), len(wps)-1)
	m.app.SetActive(wps[i].ID)
}

func (m *Model) resetView() {
	m.zoom = 1.0
	m.offsetX, m.offsetY = 0, 0
}

// syncListTop scrolls the route list so the active row stays visible.
func (m *Model) syncListTop() {
	h := m.layout().listH
	if h <= 0 {
		return
	}
	idx := 0
	for i, w := range m.app.Waypoints() {
		if w.ID == m.app.ActiveID() {
			idx = i
			break
		}
	}
	if idx < m.listTop {
		m.listTop = idx
	}
	if idx >= m.listTop+h {
		m.listTop = idx - h + 1
	}
	m.listTop = max(0, m.listTop)
}
