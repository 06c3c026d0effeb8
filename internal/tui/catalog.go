package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	table "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"kmlgen/internal/catalog"
	"kmlgen/internal/geom"
	"kmlgen/internal/logger"
)

// catalogRows caps how many entries the panel lists.
const catalogRows = 200

type catalogProgressMsg struct {
	gen         int
	done, total int
}

type catalogBuiltMsg struct {
	gen  int
	path string
	cat  *catalog.Catalog
	err  error
}

// startCatalogImport reads and builds the catalog off the UI loop. Progress comes
// back over a channel drained by a re-armed command; Esc cancels through the
// context and the partial catalog is thrown away.
func (m *Model) startCatalogImport(path string) tea.Cmd {
	if m.cancelImport != nil {
		m.cancelImport()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.importGen++
	gen := m.importGen
	ch := make(chan catalogProgressMsg, 1)
	m.cancelImport, m.progress = cancel, ch
	m.importing, m.importDone, m.importTotal = true, 0, 0
	m.status = "reading " + filepath.Base(path) + "…"
	logger.L().Info("catalog_import_start", "path", path)

	build := func() tea.Msg {
		defer close(ch)
		rows, err := geom.ReadTable(path)
		if err != nil {
			return catalogBuiltMsg{gen: gen, path: path, err: err}
		}
		c, err := catalog.Build(ctx, rows, catalog.BuildOptions{
			Progress: func(done, total int) {
				select {
				case ch <- catalogProgressMsg{gen: gen, done: done, total: total}:
				default:
				}
			},
		})
		return catalogBuiltMsg{gen: gen, path: path, cat: c, err: err}
	}
	return tea.Batch(build, waitProgress(ch))
}

func waitProgress(ch <-chan catalogProgressMsg) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return p
	}
}

func (m *Model) cancelCatalogImport() bool {
	if !m.importing || m.cancelImport == nil {
		return false
	}
	m.cancelImport()
	m.status = "canceling catalog import…"
	return true
}

func (m *Model) finishCatalogImport(msg catalogBuiltMsg) {
	m.importing = false
	if m.cancelImport != nil {
		m.cancelImport()
		m.cancelImport = nil
	}
	switch {
	case errors.Is(msg.err, context.Canceled):
		m.status = "catalog import canceled"
		return
	case msg.err != nil:
		m.fail("import", msg.err)
		return
	}
	if err := m.app.SetCatalog(msg.cat); err != nil {
		m.fail("catalog", err)
		return
	}
	m.status = fmt.Sprintf("catalog: %s entries from %s", humanize.Comma(int64(msg.cat.Len())), filepath.Base(msg.path))
	if m.mode == modeCatalog {
		m.refreshCatalogTable()
	}
}

// refreshCatalogTable shows search hits when there is a query and proximity
// suggestions otherwise.
func (m *Model) refreshCatalogTable() {
	q := m.search.Value()
	var (
		entries []catalog.Entry
		err     error
	)
	if q != "" {
		entries, err = m.app.SearchCatalog(q, catalogRows)
	} else {
		entries, err = m.app.Suggestions(catalogRows)
	}
	if err != nil {
		entries = nil
	}
	m.entries = entries

	var origin *catalog.Entry
	if placed := m.app.Placed(); len(placed) > 0 {
		last := placed[len(placed)-1]
		origin = &catalog.Entry{Lat: last.Lat, Lon: last.Lon}
	}
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		dist := ""
		if origin != nil {
			dist = humanize.SIWithDigits(geom.Distance(origin.Point(), e.Point()), 1, "m")
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			e.Name,
			strconv.FormatFloat(e.Lat, 'f', 5, 64),
			strconv.FormatFloat(e.Lon, 'f', 5, 64),
			dist,
		})
	}
	// clear rows before swapping columns so the table never renders a mismatch
	m.tbl.SetRows(nil)
	m.tbl.SetColumns([]table.Column{
		{Title: "#", Width: 4},
		{Title: "Name", Width: 24},
		{Title: "Lat", Width: 10},
		{Title: "Lon", Width: 10},
		{Title: "Dist", Width: 9},
	})
	m.tbl.SetRows(rows)
}

func (m *Model) selectedEntry() (catalog.Entry, bool) {
	i := m.tbl.Cursor()
	if i < 0 || i >= len(m.entries) {
		return catalog.Entry{}, false
	}
	return m.entries[i], true
}

func (m Model) updateCatalog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "esc", "enter":
			m.searching = false
			m.search.Blur()
			m.tbl.Focus()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.refreshCatalogTable()
		return m, cmd
	}
	switch msg.String() {
	case "esc", "w":
		if m.cancelCatalogImport() {
			return m, nil
		}
		m.mode = modeNormal
		return m, nil
	case "/":
		m.searching = true
		m.tbl.Blur()
		return m, m.search.Focus()
	case "enter":
		if e, ok := m.selectedEntry(); ok {
			w, err := m.app.QuickAdd(e)
			if err != nil {
				m.fail("quick add", err)
			} else {
				m.status = "added " + w.Name
			}
			m.refreshCatalogTable()
		}
		return m, nil
	case "i":
		if e, ok := m.selectedEntry(); ok {
			before := m.app.ActiveID()
			if _, err := m.app.InsertFromCatalog(e, before); err != nil {
				m.fail("insert", err)
			} else {
				m.status = "inserted " + e.Name
			}
			m.refreshCatalogTable()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}
