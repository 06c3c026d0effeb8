package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"kmlgen/internal/apperr"
	"kmlgen/internal/edit"
	"kmlgen/internal/logger"
)

// commitDueMsg fires when a field's quiet period after keystroke seq has elapsed.
type commitDueMsg struct{ seq uint64 }

func (m *Model) startEdit(t edit.Target) tea.Cmd {
	m.flushEdit()
	m.mode = modeEdit
	m.editTarget = t
	m.hints = nil
	switch t.Field {
	case edit.FieldMapName:
		m.input.Prompt = "map: "
		m.input.Placeholder = "map name"
		m.input.SetValue(m.app.MapName())
	case edit.FieldName:
		w, _ := m.app.Waypoint(t.WaypointID)
		m.input.Prompt = "name: "
		m.input.Placeholder = "waypoint name"
		m.input.SetValue(w.Name)
		m.app.SetActive(t.WaypointID)
	case edit.FieldCoords:
		w, _ := m.app.Waypoint(t.WaypointID)
		m.input.Prompt = "coords: "
		m.input.Placeholder = "lat/lon"
		m.input.SetValue(w.CoordsText())
		m.app.SetActive(t.WaypointID)
	}
	m.input.CursorEnd()
	return m.input.Focus()
}

// stopEdit commits whatever is pending, as on blur.
func (m *Model) stopEdit() {
	m.flushEdit()
	m.input.Blur()
	m.hints = nil
	m.mode = modeNormal
}

func (m *Model) flushEdit() {
	if p, ok := m.buf.Flush(); ok {
		m.commit(p)
	}
}

func (m *Model) commit(p edit.Pending) {
	if err := m.app.Commit(p); err != nil {
		m.fail(p.Field.String(), err)
		return
	}
	logger.L().Debug("ui_commit", "field", p.Field.String(), "waypoint", p.WaypointID)
}

// updateEdit handles keys while a text field has focus. Every change re-arms the
// field's quiet timer; only the last value in a burst reaches the store.
func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.stopEdit()
		return m, nil
	case "tab":
		if m.editTarget.Field == edit.FieldMapName {
			m.stopEdit()
			return m, nil
		}
		next := edit.FieldCoords
		if m.editTarget.Field == edit.FieldCoords {
			next = edit.FieldName
		}
		id := m.editTarget.WaypointID
		return m, m.startEdit(edit.Target{Field: next, WaypointID: id})
	case "ctrl+n":
		// take the best catalog match for the name being typed
		if m.editTarget.Field == edit.FieldName && len(m.hints) > 0 {
			m.input.SetValue(m.hints[0].Name)
			m.input.CursorEnd()
			return m, m.touch()
		}
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.touch())
}

func (m *Model) touch() tea.Cmd {
	val := m.input.Value()
	seq := m.buf.Touch(m.editTarget, val)
	if m.editTarget.Field == edit.FieldName {
		m.hints, _ = m.app.SearchCatalog(val, 5)
	}
	return tea.Tick(m.editTarget.Field.Delay(), func(time.Time) tea.Msg {
		return commitDueMsg{seq: seq}
	})
}

func (m *Model) fail(op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrEmptyHistory):
		m.status = "nothing to undo"
	case errors.Is(err, apperr.ErrLookupMiss):
		m.status = "no matches"
	default:
		m.status = op + " error: " + err.Error()
	}
	logger.L().Warn("ui_error", "op", op, "err", err)
}
