// Package route holds the ordered waypoint list that is the single source of truth
// for the editor, plus the ordering helpers that operate on it.
package route

import (
	"fmt"
	"slices"
	"strings"

	"github.com/paulmach/orb"

	"kmlgen/internal/apperr"
	"kmlgen/internal/geom"
)

// None is the id meaning "no waypoint" (no selection, no anchor).
const None = 0

// End is the Reorder anchor meaning "after the last placed waypoint".
const End = -1

// DistanceFunc returns meters between two lon/lat points.
type DistanceFunc func(a, b orb.Point) float64

// Waypoint is a named point. Without coordinates it is a draft: it stays in the list
// but is skipped by export, distance totals and the map.
type Waypoint struct {
	ID        int
	Name      string
	Lat       float64
	Lon       float64
	HasCoords bool
}

func (w Waypoint) Draft() bool { return !w.HasCoords }

// Empty reports a draft with nothing typed into it yet.
func (w Waypoint) Empty() bool { return !w.HasCoords && strings.TrimSpace(w.Name) == "" }

func (w Waypoint) Point() orb.Point { return orb.Point{w.Lon, w.Lat} }

// CoordsText is the persisted "lat/lon" form, empty for drafts.
func (w Waypoint) CoordsText() string {
	if !w.HasCoords {
		return ""
	}
	return geom.FormatCoords(w.Lat, w.Lon)
}

// Store is the ordered waypoint list with the map name and the active selection.
// It always ends with exactly one empty draft row. Not safe for concurrent use.
type Store struct {
	mapName  string
	items    []Waypoint
	activeID int
	nextID   int
}

func NewStore() *Store {
	s := &Store{}
	s.normalize()
	return s
}

func (s *Store) MapName() string { return s.mapName }

func (s *Store) SetMapName(name string) { s.mapName = name }

func (s *Store) ActiveID() int { return s.activeID }

func (s *Store) Len() int { return len(s.items) }

// Waypoints returns a copy of the list in order, drafts included.
func (s *Store) Waypoints() []Waypoint { return slices.Clone(s.items) }

// Placed returns the non-draft waypoints in order.
func (s *Store) Placed() []Waypoint {
	out := make([]Waypoint, 0, len(s.items))
	for _, w := range s.items {
		if !w.Draft() {
			out = append(out, w)
		}
	}
	return out
}

func (s *Store) Get(id int) (Waypoint, bool) {
	i := s.index(id)
	if i < 0 {
		return Waypoint{}, false
	}
	return s.items[i], true
}

// Active returns the active waypoint, if any.
func (s *Store) Active() (Waypoint, bool) { return s.Get(s.activeID) }

// Trailing returns the trailing empty draft row.
func (s *Store) Trailing() Waypoint { return s.items[len(s.items)-1] }

// Add inserts a waypoint before the trailing draft. Empty or malformed coordinate
// text leaves it a draft.
func (s *Store) Add(name, coordsText string) Waypoint {
	w := Waypoint{ID: s.allocID(), Name: strings.TrimSpace(name)}
	if lat, lon, err := geom.ParseCoords(coordsText); err == nil {
		w.Lat, w.Lon, w.HasCoords = lat, lon, true
	}
	s.insertBeforeTrailing(w)
	return w
}

// AddAt inserts a waypoint with coordinates before beforeID (End or an unknown id
// appends before the trailing draft).
func (s *Store) AddAt(name string, lat, lon float64, beforeID int) Waypoint {
	w := Waypoint{ID: s.allocID(), Name: strings.TrimSpace(name), Lat: lat, Lon: lon, HasCoords: true}
	if i := s.index(beforeID); i >= 0 {
		s.items = slices.Insert(s.items, i, w)
		s.normalize()
		return w
	}
	s.insertBeforeTrailing(w)
	return w
}

// Remove deletes a waypoint. Unknown ids are a no-op, as is removing the trailing
// empty draft (including when it is the only row). Reports whether anything changed.
func (s *Store) Remove(id int) bool {
	i := s.index(id)
	if i < 0 || s.isTrailing(i) {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	if s.activeID == id {
		s.activeID = None
	}
	s.normalize()
	return true
}

// Reorder moves id in front of beforeID, or to the end of the list (ahead of the
// trailing draft) when beforeID is End. Ids never change.
func (s *Store) Reorder(id, beforeID int) bool {
	i := s.index(id)
	if i < 0 || id == beforeID || s.isTrailing(i) {
		return false
	}
	switch {
	case beforeID == End:
		if i == s.lastSlot() {
			return false
		}
	case s.index(beforeID) < 0:
		return false
	case s.index(beforeID) == i+1:
		return false
	}
	w := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	if beforeID == End {
		s.insertBeforeTrailing(w)
		return true
	}
	j := s.index(beforeID)
	s.items = slices.Insert(s.items, j, w)
	s.normalize()
	return true
}

// MoveBy shifts id delta positions, clamped to the placed part of the list.
func (s *Store) MoveBy(id, delta int) bool {
	i := s.index(id)
	if i < 0 || delta == 0 || s.isTrailing(i) {
		return false
	}
	last := len(s.items) - 2 // trailing draft stays last
	j := min(max(i+delta, 0), last)
	if j == i || j < 0 {
		return false
	}
	w := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	s.items = slices.Insert(s.items, j, w)
	s.normalize()
	return true
}

// SetActive selects id; None or an unknown id clears the selection.
func (s *Store) SetActive(id int) {
	if s.index(id) < 0 {
		s.activeID = None
		return
	}
	s.activeID = id
}

func (s *Store) SetName(id int, name string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items[i].Name = strings.TrimSpace(name)
	s.normalize()
	return true
}

func (s *Store) SetCoords(id int, lat, lon float64) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items[i].Lat, s.items[i].Lon, s.items[i].HasCoords = lat, lon, true
	s.normalize()
	return true
}

// ClearCoords turns id back into a draft.
func (s *Store) ClearCoords(id int) bool {
	i := s.index(id)
	if i < 0 || !s.items[i].HasCoords {
		return false
	}
	s.items[i].Lat, s.items[i].Lon, s.items[i].HasCoords = 0, 0, false
	s.normalize()
	return true
}

// SetCoordsText parses text and stores it; empty text turns the waypoint back into a
// draft. Malformed text is rejected with apperr.ErrValidation.
func (s *Store) SetCoordsText(id int, text string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: no waypoint %d", apperr.ErrValidation, id)
	}
	if strings.TrimSpace(text) == "" {
		s.ClearCoords(id)
		return nil
	}
	lat, lon, err := geom.ParseCoords(text)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	s.items[i].Lat, s.items[i].Lon, s.items[i].HasCoords = lat, lon, true
	s.normalize()
	return nil
}

// Replace swaps the whole list, assigning fresh ids. Incoming ids are ignored.
func (s *Store) Replace(mapName string, wps []Waypoint) {
	s.mapName = mapName
	s.items = s.items[:0]
	for _, w := range wps {
		w.ID = s.allocID()
		s.items = append(s.items, w)
	}
	s.activeID = None
	s.normalize()
}

// Clear drops every waypoint and the map name.
func (s *Store) Clear() { s.Replace("", nil) }

// Restore puts back a previously captured state verbatim, ids included.
func (s *Store) Restore(mapName string, wps []Waypoint, activeID int) {
	s.mapName = mapName
	s.items = slices.Clone(wps)
	for _, w := range s.items {
		if w.ID >= s.nextID {
			s.nextID = w.ID
		}
	}
	s.activeID = None
	s.normalize()
	s.SetActive(activeID)
}

// Order rewrites the list order to ids; ids not listed keep their relative order
// after the listed ones.
func (s *Store) Order(ids []int) {
	pos := make(map[int]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	slices.SortStableFunc(s.items, func(a, b Waypoint) int {
		pa, oka := pos[a.ID]
		pb, okb := pos[b.ID]
		switch {
		case oka && okb:
			return pa - pb
		case oka:
			return -1
		case okb:
			return 1
		}
		return 0
	})
	s.normalize()
}

// TotalDistanceMeters sums consecutive distances between placed waypoints.
func (s *Store) TotalDistanceMeters(dist DistanceFunc) float64 {
	return TotalDistance(s.Placed(), dist)
}

// Cumulative returns the running distance at each placed waypoint.
func (s *Store) Cumulative(dist DistanceFunc) []float64 {
	placed := s.Placed()
	out := make([]float64, len(placed))
	for i := 1; i < len(placed); i++ {
		out[i] = out[i-1] + dist(placed[i-1].Point(), placed[i].Point())
	}
	return out
}

// TotalDistance sums consecutive distances; 0 for fewer than two points.
func TotalDistance(wps []Waypoint, dist DistanceFunc) float64 {
	var total float64
	for i := 1; i < len(wps); i++ {
		total += dist(wps[i-1].Point(), wps[i].Point())
	}
	return total
}

func (s *Store) allocID() int {
	s.nextID++
	return s.nextID
}

func (s *Store) index(id int) int {
	if id == None {
		return -1
	}
	return slices.IndexFunc(s.items, func(w Waypoint) bool { return w.ID == id })
}

func (s *Store) isTrailing(i int) bool {
	return i == len(s.items)-1 && s.items[i].Empty()
}

// lastSlot is the index End moves a waypoint to.
func (s *Store) lastSlot() int {
	n := len(s.items)
	if n > 0 && s.items[n-1].Empty() {
		return n - 2
	}
	return n - 1
}

func (s *Store) insertBeforeTrailing(w Waypoint) {
	n := len(s.items)
	if n > 0 && s.items[n-1].Empty() {
		s.items = slices.Insert(s.items, n-1, w)
	} else {
		s.items = append(s.items, w)
	}
	s.normalize()
}

// normalize keeps exactly one empty draft at the end of the list.
func (s *Store) normalize() {
	n := len(s.items)
	for n > 1 && s.items[n-1].Empty() && s.items[n-2].Empty() {
		n--
	}
	if n < len(s.items) {
		if s.index(s.activeID) >= n {
			s.activeID = None
		}
		s.items = s.items[:n]
	}
	if n == 0 || !s.items[n-1].Empty() {
		s.items = append(s.items, Waypoint{ID: s.allocID()})
	}
}
