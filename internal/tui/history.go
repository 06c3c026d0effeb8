package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

func (m *Model) openHistory() {
	hist, err := m.app.ExportHistory(context.Background())
	if err != nil {
		m.fail("history", err)
		return
	}
	m.history = hist
	m.mode = modeHistory
}

func (m Model) renderHistory(maxW int) string {
	if len(m.history) == 0 {
		return m.st.dim.Render("no exports yet")
	}
	now := m.now()
	lines := []string{m.st.title.Render("Exports")}
	for _, r := range m.history {
		when := humanize.RelTime(time.UnixMilli(r.ID), now, "ago", "from now")
		lines = append(lines, fit(fmt.Sprintf("%-20s %3d pts  %s", fit(r.Name, 20), r.Points, when), maxW))
	}
	return strings.Join(lines, "\n")
}
