package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"kmlgen/internal/edit"
)

const (
	sidebarWidth = 36
	headerHeight = 1
	footerHeight = 2
	editorHeight = 4 // input line plus up to three catalog hints
)

type layout struct {
	contentW, contentH     int
	mapX, mapY, mapW, mapH int
	listY, listH           int // route rows inside the sidebar
}

func (m Model) layout() layout {
	contentH := max(4, m.height-headerHeight-footerHeight)
	contentW := max(10, m.width)
	l := layout{
		contentW: contentW,
		contentH: contentH,
		mapX:     sidebarWidth + 1,
		mapY:     headerHeight,
		mapW:     max(10, contentW-sidebarWidth-1),
		mapH:     contentH,
		listY:    headerHeight + 1,
		listH:    contentH - 1,
	}
	if m.mode == modeEdit {
		l.listH -= editorHeight
	}
	return l
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	l := m.layout()

	// Header
	name := m.app.MapName()
	if name == "" {
		name = "(unnamed map)"
	}
	title := m.st.title.Render(" kmlgen ─ " + name + " ")
	summary := fmt.Sprintf("%d pts  %s ", len(m.app.Placed()), humanize.SIWithDigits(m.app.TotalDistance(), 2, "m"))
	if m.importing && m.importTotal > 0 {
		summary = fmt.Sprintf("catalog %d%%  ", m.importDone*100/m.importTotal) + summary
	}
	gap := max(1, l.contentW-lipgloss.Width(title)-lipgloss.Width(summary))
	header := lipgloss.NewStyle().Width(l.contentW).Render(title + strings.Repeat(" ", gap) + m.st.dim.Render(summary))

	// Sidebar
	sidebar := lipgloss.NewStyle().Width(sidebarWidth).Height(l.contentH).Render(m.renderSidebar(l))

	// Map area, or the panel covering it
	var mapView string
	switch m.mode {
	case modeFiles:
		box := m.st.box.Width(l.mapW - 2).Render(m.l.View())
		mapView = lipgloss.Place(l.mapW, l.mapH, lipgloss.Center, lipgloss.Center, box)
	case modePaste:
		m.ta.SetWidth(l.mapW - 4)
		m.ta.SetHeight(min(l.mapH-2, 16))
		mapView = m.st.box.Render(m.ta.View())
	case modeCatalog:
		m.tbl.SetWidth(min(l.mapW-4, 64))
		m.tbl.SetHeight(max(3, min(l.mapH-5, 20)))
		inner := m.search.View() + "\n" + m.tbl.View()
		if len(m.entries) == 0 {
			inner = m.search.View() + "\n" + m.st.dim.Render("no matches")
		}
		box := m.st.box.Render(inner)
		mapView = lipgloss.Place(l.mapW, l.mapH, lipgloss.Center, lipgloss.Center, box)
	case modeHistory:
		box := m.st.box.Render(m.renderHistory(min(l.mapW-6, 60)))
		mapView = lipgloss.Place(l.mapW, l.mapH, lipgloss.Center, lipgloss.Center, box)
	default:
		o := m.app.Overlay()
		mapView = m.renderMap(o, m.viewport(o, l.mapW, l.mapH), m.drag)
	}
	mapView = lipgloss.NewStyle().Width(l.mapW).Height(l.mapH).MaxHeight(l.mapH).Render(mapView)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)

	// Footer: status with pointer position, then key help
	status := m.st.dim.Render(" " + m.status + " ")
	if strings.Contains(m.status, "error") {
		status = m.st.errStyle.Render(" " + m.status + " ")
	}
	coords := ""
	if m.hoverHasGeo {
		coords = m.st.dim.Render("  " + formatLonLat(m.hoverLon, m.hoverLat) + "  ")
	}
	spacer := strings.Repeat(" ", max(0, l.contentW-lipgloss.Width(status)-lipgloss.Width(coords)))
	footer := lipgloss.JoinVertical(lipgloss.Left, status+spacer+coords, m.renderHelp())

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return m.st.app.Width(l.contentW).Height(m.height).Render(ui)
}

func (m Model) renderSidebar(l layout) string {
	wps := m.app.Waypoints()
	cum := m.app.Cumulative()
	active := m.app.ActiveID()
	nameW := sidebarWidth - 2 - 3 - 1 - 1 - 9

	rows := []string{m.st.title.Render(fit(fmt.Sprintf("Route (%d)", len(wps)-1), sidebarWidth))}
	placed := 0
	for i, w := range wps {
		num, dist := "", ""
		if !w.Draft() {
			if placed > 0 {
				dist = humanize.SIWithDigits(cum[placed], 1, "m")
			}
			placed++
			num = strconv.Itoa(placed)
		}
		if i < m.listTop || i >= m.listTop+l.listH {
			continue
		}
		prefix := "  "
		if w.ID == active {
			prefix = "▸ "
		}
		var line string
		switch {
		case i == len(wps)-1 && w.Empty():
			line = prefix + m.st.dim.Render("+ new waypoint (a)")
		case w.Draft():
			line = prefix + fmt.Sprintf("%3s ", "·") + fit(w.Name, nameW) + " " + m.st.dim.Render(fit("draft", 9))
		default:
			line = prefix + fmt.Sprintf("%3s ", num) + fit(w.Name, nameW) + " " + fit(dist, 9)
		}
		if w.ID == active {
			line = m.st.selected.Render(line)
		}
		rows = append(rows, line)
	}
	if m.mode == modeEdit {
		for len(rows) < 1+l.listH {
			rows = append(rows, "")
		}
		rows = append(rows, m.renderEditor()...)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderEditor() []string {
	m.input.Width = sidebarWidth - lipgloss.Width(m.input.Prompt) - 2
	out := []string{m.input.View()}
	if m.editTarget.Field == edit.FieldName {
		for i, e := range m.hints {
			if i == editorHeight-1 {
				break
			}
			hint := "  " + e.Name
			if i == 0 {
				hint = "^n " + e.Name
			}
			out = append(out, m.st.dim.Render(fit(hint, sidebarWidth)))
		}
	}
	return out
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	var keys []string
	switch m.mode {
	case modeEdit:
		keys = []string{"Enter/Esc done", "Tab name/coords", "^n take match"}
	case modeFiles:
		keys = []string{"Enter open", "m mode: " + m.importMode.String(), "/ filter", "Esc close"}
	case modePaste:
		keys = []string{"Enter import", "Esc cancel"}
	case modeCatalog:
		keys = []string{"Enter quick add", "i insert before active", "/ search", "Esc close"}
	case modeHistory:
		keys = []string{"any key closes"}
	default:
		keys = []string{
			"j/k select", "J/K move", "a add", "e name", "c coords", "n map name",
			"x delete", "s sort", "S sort along line", "u undo", "o open", "p paste",
			"w catalog", "E export", "H history", "t theme", "↑↓←→ pan", "+/- zoom", "q quit",
		}
	}
	return m.st.dim.Render(fit(" "+strings.Join(keys, "  "), max(10, m.width)))
}

func formatLonLat(lon, lat float64) string {
	return fmt.Sprintf("lat=%.5f lon=%.5f", lat, lon)
}
