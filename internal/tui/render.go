package tui

import (
	"strconv"
	"strings"

	"kmlgen/internal/geom"
	"kmlgen/internal/mapsync"
)

// worldBBox is the view before anything is placed, so a click can still pick a spot.
var worldBBox = geom.BBox{MinX: -180, MinY: -80, MaxX: 180, MaxY: 80}

// viewport maps lon/lat to the braille micro-grid of a w x h cell area, applying
// zoom around the centre and a pan offset in cells.
type viewport struct {
	bbox       geom.BBox
	zoom       float64
	offX, offY int
	w, h       int
}

func (m Model) viewport(o mapsync.Overlay, w, h int) viewport {
	bb := o.BBox
	if !bb.Valid() {
		bb = worldBBox
	}
	return viewport{bbox: bb, zoom: m.zoom, offX: m.offsetX, offY: m.offsetY, w: w, h: h}
}

func (v viewport) micro(lon, lat float64) (int, int) {
	nx := (lon - v.bbox.MinX) / (v.bbox.MaxX - v.bbox.MinX)
	ny := (lat - v.bbox.MinY) / (v.bbox.MaxY - v.bbox.MinY)
	zx := 0.5 + (nx-0.5)*v.zoom
	zy := 0.5 + (ny-0.5)*v.zoom
	sx := int(zx*float64(v.w*2-1)) + v.offX*2
	sy := int((1.0-zy)*float64(v.h*4-1)) + v.offY*4
	return sx, sy
}

func (v viewport) cell(lon, lat float64) (int, int) {
	mx, my := v.micro(lon, lat)
	return floorDiv(mx, 2), floorDiv(my, 4)
}

// lonLat is the inverse of cell, taken at the centre of the cell.
func (v viewport) lonLat(cx, cy int) (float64, float64, bool) {
	if v.w <= 1 || v.h <= 1 || !v.bbox.Valid() {
		return 0, 0, false
	}
	mx := float64(cx*2-v.offX*2) + 0.5
	my := float64(cy*4-v.offY*4) + 1.5
	zx := mx / float64(v.w*2-1)
	zy := 1.0 - my/float64(v.h*4-1)
	nx := 0.5 + (zx-0.5)/v.zoom
	ny := 0.5 + (zy-0.5)/v.zoom
	lon := v.bbox.MinX + nx*(v.bbox.MaxX-v.bbox.MinX)
	lat := v.bbox.MinY + ny*(v.bbox.MaxY-v.bbox.MinY)
	return lon, lat, true
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// markerAt returns the marker whose cell is nearest to (cx, cy), within one cell.
func markerAt(o mapsync.Overlay, v viewport, cx, cy int) (mapsync.Marker, bool) {
	best, found := 1<<31-1, false
	var hit mapsync.Marker
	for _, mk := range o.Markers {
		x, y := v.cell(mk.Lon, mk.Lat)
		dx, dy := abs(x-cx), abs(y-cy)
		if dx > 1 || dy > 1 {
			continue
		}
		// cells are about twice as tall as they are wide
		if d := dx*dx + 4*dy*dy; d < best {
			best, hit, found = d, mk, true
		}
	}
	return hit, found
}

const maxLabel = 16

type dragPreview struct {
	id       int
	lon, lat float64
}

// renderMap draws the route polyline solid, imported lines dashed and the markers
// as glyphs on top, each marker optionally followed by its label.
func (m Model) renderMap(o mapsync.Overlay, v viewport, drag *dragPreview) string {
	route := newBrailleBuf(v.w, v.h)
	lines := newBrailleBuf(v.w, v.h)
	drawPath := func(b *brailleBuf, pts [][2]float64, dash int) {
		for i := 1; i < len(pts); i++ {
			x0, y0 := v.micro(pts[i-1][0], pts[i-1][1])
			x1, y1 := v.micro(pts[i][0], pts[i][1])
			b.drawLineMicro(x0, y0, x1, y1, dash)
		}
	}
	if len(o.Polyline) > 0 {
		path := o.Polyline
		if drag != nil {
			path = make([][2]float64, len(o.Markers))
			for i, mk := range o.Markers {
				path[i] = [2]float64{mk.Lon, mk.Lat}
				if mk.ID == drag.id {
					path[i] = [2]float64{drag.lon, drag.lat}
				}
			}
		}
		drawPath(route, path, 0)
	}
	for _, ls := range o.Lines {
		drawPath(lines, ls, 4)
	}

	cells := make([][]string, v.h)
	for y := range cells {
		cells[y] = make([]string, v.w)
		for x := range cells[y] {
			switch {
			case route.has(x, y):
				route.m[y][x] |= lines.m[y][x]
				cells[y][x] = m.st.marker.Render(route.glyph(x, y))
			case lines.has(x, y):
				cells[y][x] = m.st.line.Render(lines.glyph(x, y))
			default:
				cells[y][x] = " "
			}
		}
	}
	put := func(x, y int, s string) {
		if y >= 0 && y < v.h && x >= 0 && x < v.w {
			cells[y][x] = s
		}
	}
	for i, mk := range o.Markers {
		lon, lat := mk.Lon, mk.Lat
		if drag != nil && mk.ID == drag.id {
			lon, lat = drag.lon, drag.lat
		}
		x, y := v.cell(lon, lat)
		glyph := m.st.marker.Render("●")
		switch {
		case mk.Active:
			glyph = m.st.active.Render("◉")
		case m.hovering && mk.ID == m.hoverID:
			glyph = m.st.hover.Render("◯")
		}
		put(x, y, glyph)
		if !m.showLabels {
			continue
		}
		label := strconv.Itoa(i + 1)
		if mk.Label != "" {
			label += " " + mk.Label
		}
		lr := []rune(label)
		if len(lr) > maxLabel {
			lr = append(lr[:maxLabel-1], '…')
		}
		for j, r := range lr {
			put(x+1+j, y, m.st.dim.Render(string(r)))
		}
	}

	rows := make([]string, v.h)
	for y := range cells {
		rows[y] = strings.Join(cells[y], "")
	}
	return strings.Join(rows, "\n")
}
