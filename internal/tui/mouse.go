package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"kmlgen/internal/mapsync"
)

// updateMouse hit-tests pointer events. On the map, press-motion-release on a
// marker is a drag (or a click when it did not move), and two clicks on the same
// marker within doubleClickWindow delete it. A press on empty map is a Click.
func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	l := m.layout()
	if msg.X < sidebarWidth {
		m.hovering, m.hoverHasGeo = false, false
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.mode == modeNormal {
			row := msg.Y - l.listY
			wps := m.app.Waypoints()
			if idx := m.listTop + row; row >= 0 && row < l.listH && idx < len(wps) {
				m.app.SetActive(wps[idx].ID)
			}
		}
		return m, nil
	}
	if m.mode != modeNormal && m.mode != modeEdit {
		// the map area is covered by a panel
		return m, nil
	}

	cx, cy := msg.X-l.mapX, msg.Y-l.mapY
	inMap := cx >= 0 && cx < l.mapW && cy >= 0 && cy < l.mapH
	o := m.app.Overlay()
	v := m.viewport(o, l.mapW, l.mapH)

	m.hovering, m.hoverHasGeo = false, false
	if inMap {
		if lon, lat, ok := v.lonLat(cx, cy); ok {
			m.hoverHasGeo, m.hoverLon, m.hoverLat = true, lon, lat
		}
		if mk, ok := markerAt(o, v, cx, cy); ok {
			m.hovering, m.hoverID = true, mk.ID
		}
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.zoom < 4096 {
			m.zoom *= 1.2
		}
		return m, nil
	case tea.MouseButtonWheelDown:
		if m.zoom > 0.05 {
			m.zoom /= 1.2
		}
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inMap {
			return m, nil
		}
		if m.mode == modeEdit {
			m.stopEdit()
		}
		if mk, ok := markerAt(o, v, cx, cy); ok {
			m.drag = &dragPreview{id: mk.ID, lon: mk.Lon, lat: mk.Lat}
			m.dragMoved = false
			return m, nil
		}
		if lon, lat, ok := v.lonLat(cx, cy); ok {
			m.gesture(mapsync.Click{Lon: lon, Lat: lat})
		}
	case tea.MouseActionMotion:
		if m.drag == nil || !inMap || !m.hoverHasGeo {
			return m, nil
		}
		if x, y := v.cell(m.drag.lon, m.drag.lat); x == cx && y == cy {
			return m, nil
		}
		m.drag = &dragPreview{id: m.drag.id, lon: m.hoverLon, lat: m.hoverLat}
		m.dragMoved = true
	case tea.MouseActionRelease:
		if m.drag == nil {
			return m, nil
		}
		d := *m.drag
		m.drag = nil
		if m.dragMoved {
			m.gesture(mapsync.DragEnd{ID: d.id, Lon: d.lon, Lat: d.lat})
			return m, nil
		}
		now := m.now()
		if d.id == m.lastClickID && now.Sub(m.lastClickAt) <= doubleClickWindow {
			m.lastClickID = 0
			m.gesture(mapsync.DoubleClick{ID: d.id})
			return m, nil
		}
		m.lastClickID, m.lastClickAt = d.id, now
		m.gesture(mapsync.MarkerClick{ID: d.id})
	}
	return m, nil
}

func (m *Model) gesture(g mapsync.Gesture) {
	active, hasActive := m.app.Waypoint(m.app.ActiveID())
	placesDraft := hasActive && active.Draft()
	if err := m.app.ApplyGesture(g); err != nil {
		m.fail("map", err)
		return
	}
	switch g := g.(type) {
	case mapsync.Click:
		if placesDraft {
			m.status = "placed at " + formatLonLat(g.Lon, g.Lat)
		} else {
			m.status = "select a waypoint without coordinates, then click the map"
		}
	case mapsync.DragEnd:
		m.status = "moved to " + formatLonLat(g.Lon, g.Lat)
	case mapsync.DoubleClick:
		m.status = "removed"
	case mapsync.MarkerClick:
		if w, ok := m.app.Waypoint(g.ID); ok {
			m.status = "selected " + w.Name
		}
	}
}
