package tui

import (
	"context"
	"os"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"kmlgen/internal/app"
	"kmlgen/internal/catalog"
	"kmlgen/internal/edit"
	"kmlgen/internal/storage"
)

type mode int

const (
	modeNormal mode = iota
	modeEdit
	modeFiles
	modePaste
	modeCatalog
	modeHistory
)

// doubleClickWindow is how close two clicks on the same marker must be to delete it.
const doubleClickWindow = 400 * time.Millisecond

type Model struct {
	app *app.App

	width  int
	height int

	helpVisible bool
	showLabels  bool
	mode        mode
	status      string
	st          styles

	zoom    float64
	offsetX int
	offsetY int

	// route list scroll position
	listTop int

	// text editing with debounced commits
	input      textinput.Model
	editTarget edit.Target
	buf        edit.Buffer
	hints      []catalog.Entry

	// file picker
	cwd        string
	l          list.Model
	importMode app.ImportMode

	// paste box
	ta textarea.Model

	// catalog panel and background import
	tbl          table.Model
	search       textinput.Model
	searching    bool
	entries      []catalog.Entry
	importing    bool
	importGen    int
	importDone   int
	importTotal  int
	cancelImport context.CancelFunc
	progress     chan catalogProgressMsg

	history []storage.ExportRecord

	// pointer state
	hovering    bool
	hoverID     int
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64
	drag        *dragPreview
	dragMoved   bool
	lastClickID int
	lastClickAt time.Time

	initCmd tea.Cmd
	now     func() time.Time
}

// New builds the UI around a hydrated controller. A non-empty openPath is imported
// (route files) or loaded into the catalog (spreadsheets) at startup.
func New(a *app.App, openPath string) Model {
	m := Model{
		app:         a,
		helpVisible: true,
		showLabels:  true,
		zoom:        1.0,
		status:      "kmlgen ready",
		st:          newStyles(a.Theme()),
		now:         time.Now,
	}
	m.cwd, _ = os.Getwd()

	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Open"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)

	m.ta = textarea.New()
	m.ta.Placeholder = "Paste KML here. Enter imports; Esc cancels."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)

	m.input = textinput.New()
	m.input.CharLimit = 256

	m.search = textinput.New()
	m.search.Placeholder = "search catalog"
	m.search.Prompt = "/ "

	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)

	if openPath != "" {
		m.initCmd = m.loadPath(openPath)
	}
	return m
}

func (m Model) Init() tea.Cmd { return m.initCmd }
