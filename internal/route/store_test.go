package route

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"kmlgen/internal/apperr"
	"kmlgen/internal/geom"
)

func TestNewStoreHasOneDraft(t *testing.T) {
	s := NewStore()
	if s.Len() != 1 || !s.Trailing().Empty() {
		t.Fatalf("Expected a single empty draft, got %+v", s.Waypoints())
	}
	if s.Remove(s.Trailing().ID) {
		t.Error("removing the sole empty draft must be refused")
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 row, got %d", s.Len())
	}
}

func TestAddKeepsTrailingDraft(t *testing.T) {
	s := NewStore()
	a := s.Add("A", "10/20")
	b := s.Add("B", "not coords")
	wps := s.Waypoints()
	if len(wps) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(wps))
	}
	if wps[0].ID != a.ID || wps[1].ID != b.ID || !wps[2].Empty() {
		t.Errorf("unexpected order %+v", wps)
	}
	if a.ID == b.ID || b.ID == wps[2].ID {
		t.Error("ids must be unique")
	}
	if !b.Draft() || a.Draft() {
		t.Error("malformed coords must yield a draft")
	}
	if got := len(s.Placed()); got != 1 {
		t.Errorf("Expected 1 placed waypoint, got %d", got)
	}
}

func TestTypingIntoTrailingDraftGrowsANewOne(t *testing.T) {
	s := NewStore()
	tr := s.Trailing()
	s.SetName(tr.ID, "typed")
	if s.Len() != 2 || !s.Trailing().Empty() || s.Trailing().ID == tr.ID {
		t.Errorf("Expected a fresh trailing draft, got %+v", s.Waypoints())
	}
	s.SetName(tr.ID, "")
	if s.Len() != 1 {
		t.Errorf("Expected trailing empty drafts to collapse, got %+v", s.Waypoints())
	}
}

func TestRemove(t *testing.T) {
	s := NewStore()
	a := s.Add("A", "1/1")
	s.SetActive(a.ID)
	if s.Remove(999) {
		t.Error("unknown id must be a no-op")
	}
	if !s.Remove(a.ID) {
		t.Fatal("Expected removal")
	}
	if s.ActiveID() != None {
		t.Error("removing the active waypoint must clear the selection")
	}
	if s.Len() != 1 {
		t.Errorf("Expected only the draft left, got %d rows", s.Len())
	}
}

func TestReorder(t *testing.T) {
	s := NewStore()
	a := s.Add("A", "1/1")
	b := s.Add("B", "2/2")
	c := s.Add("C", "3/3")
	if !s.Reorder(c.ID, a.ID) {
		t.Fatal("reorder failed")
	}
	assertOrder(t, s.Placed(), c.ID, a.ID, b.ID)
	s.Reorder(c.ID, End)
	assertOrder(t, s.Placed(), a.ID, b.ID, c.ID)
	if !s.Trailing().Empty() {
		t.Error("trailing draft must stay last")
	}
	if s.Reorder(c.ID, End) || s.Reorder(a.ID, b.ID) {
		t.Error("reorder to the current position must report no change")
	}
	assertOrder(t, s.Placed(), a.ID, b.ID, c.ID)
	if s.Reorder(a.ID, 12345) {
		t.Error("unknown anchor must be rejected")
	}
	s.MoveBy(a.ID, 5)
	assertOrder(t, s.Placed(), b.ID, c.ID, a.ID)
	s.MoveBy(a.ID, -1)
	assertOrder(t, s.Placed(), b.ID, a.ID, c.ID)
}

func TestSetActive(t *testing.T) {
	s := NewStore()
	a := s.Add("A", "1/1")
	b := s.Add("B", "2/2")
	s.SetActive(a.ID)
	s.SetActive(b.ID)
	if s.ActiveID() != b.ID {
		t.Errorf("Expected %d active, got %d", b.ID, s.ActiveID())
	}
	s.SetActive(777)
	if s.ActiveID() != None {
		t.Error("unknown id must clear the selection")
	}
}

func TestSetCoordsText(t *testing.T) {
	s := NewStore()
	a := s.Add("A", "")
	if err := s.SetCoordsText(a.ID, "garbage"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
	if err := s.SetCoordsText(a.ID, "55.5, 37.5"); err != nil {
		t.Fatal(err)
	}
	w, _ := s.Get(a.ID)
	if !w.HasCoords || w.Lat != 55.5 || w.Lon != 37.5 || w.CoordsText() != "55.5/37.5" {
		t.Errorf("unexpected %+v", w)
	}
	_ = s.SetCoordsText(a.ID, "")
	w, _ = s.Get(a.ID)
	if !w.Draft() {
		t.Error("clearing the text must turn the waypoint back into a draft")
	}
}

// flat is a planar stand-in for the great-circle oracle so expected totals are exact.
func flat(a, b orb.Point) float64 { return math.Hypot(a[0]-b[0], a[1]-b[1]) }

func TestTotalDistance(t *testing.T) {
	dist := DistanceFunc(flat)
	s := NewStore()
	if s.TotalDistanceMeters(dist) != 0 {
		t.Error("empty route must be 0")
	}
	s.Add("A", "0/0")
	if s.TotalDistanceMeters(dist) != 0 {
		t.Error("single waypoint must be 0")
	}
	s.Add("draft", "")
	s.Add("B", "0/3")
	if got := s.TotalDistanceMeters(dist); got != 3 {
		t.Errorf("Expected 3, got %v", got)
	}
	c := s.Add("C", "4/3")
	if got := s.TotalDistanceMeters(dist); got != 7 {
		t.Errorf("Expected 7, got %v", got)
	}
	s.Reorder(c.ID, s.Placed()[1].ID)
	// A(0,0) -> C(lon 3, lat 4) -> B(lon 3, lat 0): 5 + 4
	if got := s.TotalDistanceMeters(dist); got != 9 {
		t.Errorf("order matters: expected 9, got %v", got)
	}
	cum := s.Cumulative(dist)
	if len(cum) != 3 || cum[0] != 0 || cum[1] != 5 || cum[2] != 9 {
		t.Errorf("unexpected cumulative %v", cum)
	}
}

func TestTotalDistanceTwoPointsMatchesOracle(t *testing.T) {
	s := NewStore()
	a := s.Add("A", "55.75/37.61")
	b := s.Add("B", "55.76/37.63")
	want := geom.Distance(a.Point(), b.Point())
	if got := s.TotalDistanceMeters(geom.Distance); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestReplaceAndRestore(t *testing.T) {
	s := NewStore()
	a := s.Add("A", "1/1")
	saved := s.Waypoints()
	s.SetActive(a.ID)
	s.Replace("new", []Waypoint{{ID: a.ID, Name: "X", Lat: 5, Lon: 5, HasCoords: true}})
	if s.MapName() != "new" || s.Placed()[0].ID == a.ID {
		t.Errorf("Replace must assign fresh ids, got %+v", s.Placed())
	}
	if s.ActiveID() != None {
		t.Error("Replace must clear the selection")
	}
	s.Restore("old", saved, a.ID)
	if s.MapName() != "old" || s.ActiveID() != a.ID || len(s.Waypoints()) != len(saved) {
		t.Errorf("Restore mismatch: %+v", s.Waypoints())
	}
	n := s.Add("N", "")
	for _, w := range saved {
		if w.ID == n.ID {
			t.Error("ids allocated after Restore must not collide")
		}
	}
}

func assertOrder(t *testing.T, wps []Waypoint, ids ...int) {
	t.Helper()
	if len(wps) != len(ids) {
		t.Fatalf("Expected %d waypoints, got %d", len(ids), len(wps))
	}
	for i, id := range ids {
		if wps[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d (%+v)", i, id, wps[i].ID, wps)
		}
	}
}
