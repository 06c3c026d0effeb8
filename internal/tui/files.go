package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	routeExts = map[string]bool{".kml": true, ".geojson": true, ".json": true}
	tableExts = map[string]bool{".csv": true, ".xlsx": true, ".xlsm": true}
)

type fileItem struct {
	title, desc string
	path        string
	isDir       bool
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

// refreshDir lists importable files in cwd, with ".." and subdirectories first.
func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	items := []list.Item{fileItem{title: "../", path: filepath.Dir(m.cwd), isDir: true}}
	var files []list.Item
	for _, e := range entries {
		name := e.Name()
		p := filepath.Join(m.cwd, name)
		if e.IsDir() {
			if !strings.HasPrefix(name, ".") {
				items = append(items, fileItem{title: name + "/", path: p, isDir: true})
			}
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if routeExts[ext] || tableExts[ext] {
			files = append(files, fileItem{title: name, desc: ext, path: p})
		}
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].(fileItem).Title() < files[j].(fileItem).Title() })
	m.l.SetItems(append(items, files...))
	m.l.Title = fmt.Sprintf("Open (%s)", m.importMode)
	if len(files) == 0 {
		m.status = "no route or spreadsheet files in " + m.cwd
	}
}

// loadPath imports a route file synchronously, or starts a background catalog
// build for a spreadsheet.
func (m *Model) loadPath(p string) tea.Cmd {
	ext := strings.ToLower(filepath.Ext(p))
	switch {
	case routeExts[ext]:
		if err := m.app.ImportFile(p, m.importMode); err != nil {
			m.fail("import", err)
			return nil
		}
		m.resetView()
		m.status = fmt.Sprintf("imported %s: %d points, %d lines (%s)",
			filepath.Base(p), len(m.app.Placed()), len(m.app.Lines()), m.importMode)
		return nil
	case tableExts[ext]:
		return m.startCatalogImport(p)
	}
	m.status = "unsupported file: " + ext
	return nil
}

func (m Model) updateFiles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.l.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case "esc", "o":
		m.mode = modeNormal
		return m, nil
	case "m":
		m.importMode = (m.importMode + 1) % 3
		m.l.Title = fmt.Sprintf("Open (%s)", m.importMode)
		m.status = "import mode: " + m.importMode.String()
		return m, nil
	case "enter":
		it, ok := m.l.SelectedItem().(fileItem)
		if !ok {
			return m, nil
		}
		if it.isDir {
			m.cwd = it.path
			m.refreshDir()
			m.l.ResetSelected()
			return m, nil
		}
		m.mode = modeNormal
		return m, m.loadPath(it.path)
	}
	var cmd tea.Cmd
	m.l, cmd = m.l.Update(msg)
	return m, cmd
}
