// Package mapsync projects the waypoint store onto map overlay primitives. The
// projection is a pure function of store state; the map keeps nothing of its own,
// and inbound gestures go back through the controller keyed by waypoint id.
package mapsync

import (
	"math"

	"kmlgen/internal/geom"
	"kmlgen/internal/route"
)

// minSpan keeps a single marker (or a tight cluster) from collapsing the viewport.
const minSpan = 0.01

type Marker struct {
	ID     int
	Label  string
	Lon    float64
	Lat    float64
	Active bool
}

type Overlay struct {
	Markers  []Marker
	Polyline [][2]float64   // route line through the markers, in order
	Lines    [][][2]float64 // imported line overlays
	BBox     geom.BBox
}

type State struct {
	Waypoints []route.Waypoint
	ActiveID  int
	Lines     [][][2]float64
	// RouteOverlay suppresses the route polyline while an imported route is shown.
	RouteOverlay bool
	ShowLines    bool
}

// Project builds the overlay: one marker per placed waypoint, the connecting
// polyline when there are two or more, and the imported lines when enabled.
func Project(s State) Overlay {
	var o Overlay
	first := true
	extend := func(lon, lat float64) {
		o.BBox.Extend(lon, lat, first)
		first = false
	}
	for _, w := range s.Waypoints {
		if w.Draft() {
			continue
		}
		o.Markers = append(o.Markers, Marker{ID: w.ID, Label: w.Name, Lon: w.Lon, Lat: w.Lat, Active: w.ID == s.ActiveID})
		extend(w.Lon, w.Lat)
	}
	if len(o.Markers) >= 2 && !s.RouteOverlay {
		o.Polyline = make([][2]float64, len(o.Markers))
		for i, m := range o.Markers {
			o.Polyline[i] = [2]float64{m.Lon, m.Lat}
		}
	}
	if s.ShowLines {
		for _, ls := range s.Lines {
			o.Lines = append(o.Lines, ls)
			for _, c := range ls {
				extend(c[0], c[1])
			}
		}
	}
	if first {
		return o
	}
	o.BBox = pad(o.BBox)
	return o
}

// pad widens the box by 10% per side and enforces a minimum span so the
// projection never divides by zero.
func pad(b geom.BBox) geom.BBox {
	w := math.Max(b.MaxX-b.MinX, minSpan)
	h := math.Max(b.MaxY-b.MinY, minSpan)
	cx, cy := (b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2
	w, h = w*1.2, h*1.2
	return geom.BBox{MinX: cx - w/2, MinY: cy - h/2, MaxX: cx + w/2, MaxY: cy + h/2}
}

// Gesture is an inbound map event.
type Gesture interface{ gesture() }

// Click is a click on empty map area.
type Click struct{ Lon, Lat float64 }

// MarkerClick selects the marker's waypoint.
type MarkerClick struct{ ID int }

// DragEnd moves the marker's waypoint to where it was dropped.
type DragEnd struct {
	ID       int
	Lon, Lat float64
}

// DoubleClick deletes the marker's waypoint.
type DoubleClick struct{ ID int }

func (Click) gesture()       {}
func (MarkerClick) gesture() {}
func (DragEnd) gesture()     {}
func (DoubleClick) gesture() {}
