package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"kmlgen/internal/apperr"
	"kmlgen/internal/catalog"
	"kmlgen/internal/edit"
	"kmlgen/internal/geom"
	"kmlgen/internal/mapsync"
	"kmlgen/internal/route"
	"kmlgen/internal/storage"
)

type recordingEcho struct {
	names []string
	docs  [][]byte
}

func (r *recordingEcho) Send(name string, kml []byte) {
	r.names = append(r.names, name)
	r.docs = append(r.docs, kml)
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "state.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestApp(t *testing.T) (*App, *storage.DB, *recordingEcho) {
	t.Helper()
	db := openDB(t)
	echo := &recordingEcho{}
	a := New(Options{
		DB:     db,
		Echo:   echo,
		OutDir: t.TempDir(),
		Now:    func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	return a, db, echo
}

func names(wps []route.Waypoint) []string {
	var out []string
	for _, w := range wps {
		out = append(out, w.Name)
	}
	return out
}

func mustAdd(t *testing.T, a *App, name, coords string) route.Waypoint {
	t.Helper()
	w, err := a.AddWaypoint(name, coords)
	if err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return w
}

func TestHydrateRoundTrip(t *testing.T) {
	a, db, _ := newTestApp(t)
	mustAdd(t, a, "A", "55.75/37.61")
	mustAdd(t, a, "Draft", "")
	if err := a.SetMapName("Trip"); err != nil {
		t.Fatal(err)
	}

	b := New(Options{DB: db})
	if err := b.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.MapName() != "Trip" {
		t.Errorf("Expected map name Trip, got %q", b.MapName())
	}
	wps := b.Waypoints()
	if got := names(wps); !slices.Equal(got, []string{"A", "Draft", ""}) {
		t.Fatalf("Expected [A Draft <trailing>], got %q", got)
	}
	if !wps[0].HasCoords || wps[0].Lat != 55.75 || wps[0].Lon != 37.61 {
		t.Errorf("unexpected first waypoint %+v", wps[0])
	}
	if !wps[1].Draft() {
		t.Errorf("Expected named draft to stay a draft")
	}
	if b.HistoryLen() != 0 {
		t.Errorf("Expected hydrate to leave history empty, got %d", b.HistoryLen())
	}
}

func TestUndoWalksBackEveryStep(t *testing.T) {
	a, _, _ := newTestApp(t)
	var states [][]route.Waypoint
	var mapNames []string
	var actives []int
	step := func(fn func() error) {
		t.Helper()
		states = append(states, a.Waypoints())
		mapNames = append(mapNames, a.MapName())
		actives = append(actives, a.ActiveID())
		if err := fn(); err != nil {
			t.Fatal(err)
		}
	}
	var b route.Waypoint
	step(func() error { _, err := a.AddWaypoint("A", "0/0"); return err })
	step(func() error {
		var err error
		b, err = a.AddWaypoint("B", "0/1")
		return err
	})
	step(func() error { _, err := a.AddWaypoint("C", "0/2"); return err })
	step(func() error { return a.SetMapName("Trip") })
	step(func() error { return a.Reorder(b.ID, route.End) })
	step(func() error { return a.Commit(edit.Pending{Target: edit.Target{Field: edit.FieldName, WaypointID: b.ID}, Value: "B2"}) })
	a.SetActive(b.ID)
	step(func() error { return a.Remove(b.ID) })
	if a.ActiveID() == b.ID {
		t.Fatalf("Expected removal to clear the selection")
	}

	for k := len(states) - 1; k >= 0; k-- {
		if err := a.Undo(); err != nil {
			t.Fatalf("undo %d: %v", k, err)
		}
		if got := a.Waypoints(); !slices.Equal(got, states[k]) {
			t.Errorf("after undo to step %d: Expected %v, got %v", k, states[k], got)
		}
		if a.MapName() != mapNames[k] {
			t.Errorf("after undo to step %d: Expected map name %q, got %q", k, mapNames[k], a.MapName())
		}
		if a.ActiveID() != actives[k] {
			t.Errorf("after undo to step %d: Expected active %d, got %d", k, actives[k], a.ActiveID())
		}
	}
	if err := a.Undo(); !errors.Is(err, apperr.ErrEmptyHistory) {
		t.Errorf("Expected ErrEmptyHistory, got %v", err)
	}
}

func TestNoOpsLeaveHistoryAlone(t *testing.T) {
	a, _, _ := newTestApp(t)
	w := mustAdd(t, a, "A", "1/1")
	b := mustAdd(t, a, "B", "2/2")
	base := a.HistoryLen()

	_ = a.Remove(999)
	_ = a.Remove(a.Trailing().ID)
	_ = a.SetMapName("")
	a.SetActive(w.ID)
	_ = a.ApplyGesture(mapsync.MarkerClick{ID: w.ID})
	_ = a.Commit(edit.Pending{Target: edit.Target{Field: edit.FieldName, WaypointID: w.ID}, Value: " A "})
	_ = a.Reorder(w.ID, b.ID)
	_ = a.Reorder(b.ID, route.End)
	_ = a.MoveBy(w.ID, -1)

	if a.HistoryLen() != base {
		t.Errorf("Expected history %d, got %d", base, a.HistoryLen())
	}
	if a.ActiveID() != w.ID {
		t.Errorf("Expected %d active, got %d", w.ID, a.ActiveID())
	}
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	a := New(Options{HistoryCap: 3})
	for _, n := range []string{"A", "B", "C", "D", "E"} {
		mustAdd(t, a, n, "1/1")
	}
	for i := 0; i < 3; i++ {
		if err := a.Undo(); err != nil {
			t.Fatalf("undo %d: %v", i, err)
		}
	}
	if got := names(a.Placed()); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("Expected [A B], got %q", got)
	}
	if err := a.Undo(); !errors.Is(err, apperr.ErrEmptyHistory) {
		t.Errorf("Expected ErrEmptyHistory, got %v", err)
	}
}

func TestCommitCoords(t *testing.T) {
	a, _, _ := newTestApp(t)
	w := mustAdd(t, a, "A", "")
	base := a.HistoryLen()

	err := a.Commit(edit.Pending{Target: edit.Target{Field: edit.FieldCoords, WaypointID: w.ID}, Value: "north"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
	if a.HistoryLen() != base {
		t.Errorf("Expected rejected edit to leave history alone")
	}

	if err := a.Commit(edit.Pending{Target: edit.Target{Field: edit.FieldCoords, WaypointID: w.ID}, Value: "55,5 37,25"}); err != nil {
		t.Fatal(err)
	}
	got, _ := a.Waypoint(w.ID)
	if !got.HasCoords || got.Lat != 55.5 || got.Lon != 37.25 {
		t.Errorf("unexpected %+v", got)
	}
	if a.HistoryLen() != base+1 {
		t.Errorf("Expected one snapshot per commit, got %d", a.HistoryLen()-base)
	}
}

func TestCommitNameFillsFromCatalog(t *testing.T) {
	a, _, _ := newTestApp(t)
	if err := a.SetCatalog(catalog.New([]catalog.Entry{{Name: "Well 7", Lat: 10, Lon: 20}})); err != nil {
		t.Fatal(err)
	}
	trailing := a.Trailing()
	if err := a.Commit(edit.Pending{Target: edit.Target{Field: edit.FieldName, WaypointID: trailing.ID}, Value: "well 7"}); err != nil {
		t.Fatal(err)
	}
	w, _ := a.Waypoint(trailing.ID)
	if !w.HasCoords || w.Lat != 10 || w.Lon != 20 {
		t.Errorf("Expected coords from catalog, got %+v", w)
	}
	if a.Trailing().ID == trailing.ID {
		t.Errorf("Expected a new trailing draft once the old one was filled")
	}
}

func TestGestures(t *testing.T) {
	a, _, _ := newTestApp(t)
	p := mustAdd(t, a, "P", "1/1")
	d := mustAdd(t, a, "D", "")

	if err := a.ApplyGesture(mapsync.Click{Lon: 5, Lat: 6}); err != nil {
		t.Fatal(err)
	}
	if w, _ := a.Waypoint(d.ID); w.HasCoords {
		t.Errorf("Expected click without an active draft to be ignored")
	}

	a.SetActive(d.ID)
	base := a.HistoryLen()
	if err := a.ApplyGesture(mapsync.Click{Lon: 5, Lat: 6}); err != nil {
		t.Fatal(err)
	}
	if w, _ := a.Waypoint(d.ID); !w.HasCoords || w.Lon != 5 || w.Lat != 6 {
		t.Errorf("Expected click to place the active draft, got %+v", w)
	}

	a.SetActive(p.ID)
	if err := a.ApplyGesture(mapsync.Click{Lon: 9, Lat: 9}); err != nil {
		t.Fatal(err)
	}
	if w, _ := a.Waypoint(p.ID); w.Lon != 1 {
		t.Errorf("Expected click with a placed active waypoint to be ignored")
	}

	if err := a.ApplyGesture(mapsync.DragEnd{ID: p.ID, Lon: 2, Lat: 3}); err != nil {
		t.Fatal(err)
	}
	if w, _ := a.Waypoint(p.ID); w.Lon != 2 || w.Lat != 3 {
		t.Errorf("Expected drag to move, got %+v", w)
	}

	if err := a.ApplyGesture(mapsync.DoubleClick{ID: p.ID}); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.Waypoint(p.ID); ok {
		t.Errorf("Expected double click to delete")
	}
	if a.HistoryLen() != base+3 {
		t.Errorf("Expected 3 snapshots, got %d", a.HistoryLen()-base)
	}
	if err := a.Undo(); err != nil {
		t.Fatal(err)
	}
	if w, ok := a.Waypoint(p.ID); !ok || w.Lon != 2 {
		t.Errorf("Expected undo to bring back the moved waypoint, got %+v %v", w, ok)
	}
}

func TestSortFromActive(t *testing.T) {
	a, _, _ := newTestApp(t)
	mustAdd(t, a, "A", "0/0")
	mustAdd(t, a, "far", "0/3.5")
	mustAdd(t, a, "near", "0/1")
	c := mustAdd(t, a, "C", "0/2")

	a.SetActive(c.ID)
	if err := a.SortFrom(); err != nil {
		t.Fatal(err)
	}
	if got := names(a.Placed()); !slices.Equal(got, []string{"C", "near", "A", "far"}) {
		t.Errorf("Expected [C near A far], got %q", got)
	}
}

const lineKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document><name>Track</name>
<Placemark><name>B - 100 м</name><Point><coordinates>2,0</coordinates></Point></Placemark>
<Placemark><name>A</name><Point><coordinates>0,0</coordinates></Point></Placemark>
<Placemark><name>road</name><LineString><coordinates>0,0 1,0 2,0</coordinates></LineString></Placemark>
</Document></kml>`

func TestImportModes(t *testing.T) {
	a, _, _ := newTestApp(t)
	if err := a.ImportKML([]byte(lineKML), ImportPoints); err != nil {
		t.Fatal(err)
	}
	if a.MapName() != "Track" || !slices.Equal(names(a.Placed()), []string{"B", "A"}) {
		t.Fatalf("unexpected import %q %q", a.MapName(), names(a.Placed()))
	}
	o := a.Overlay()
	if len(o.Lines) != 0 || len(o.Polyline) != 2 {
		t.Errorf("points mode: Expected route polyline only, got %+v", o)
	}
	if err := a.SortAlongImport(); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected ErrValidation without lines, got %v", err)
	}

	if err := a.ImportKML([]byte(lineKML), ImportAsRoute); err != nil {
		t.Fatal(err)
	}
	o = a.Overlay()
	if len(o.Lines) != 1 || o.Polyline != nil {
		t.Errorf("route mode: Expected imported line instead of polyline, got %+v", o)
	}
	if err := a.SortAlongImport(); err != nil {
		t.Fatal(err)
	}
	if got := names(a.Placed()); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("Expected [A B] along the line, got %q", got)
	}
}

func TestImportFailureChangesNothing(t *testing.T) {
	a, _, _ := newTestApp(t)
	mustAdd(t, a, "keep", "1/1")
	base := a.HistoryLen()
	if err := a.ImportKML([]byte("<kml><Document>"), ImportPoints); !errors.Is(err, apperr.ErrParse) {
		t.Fatalf("Expected ErrParse, got %v", err)
	}
	if err := a.ImportFile(filepath.Join(t.TempDir(), "x.gpx"), ImportPoints); err == nil {
		t.Errorf("Expected error for missing file")
	}
	if a.HistoryLen() != base || !slices.Equal(names(a.Placed()), []string{"keep"}) {
		t.Errorf("Expected store untouched")
	}
}

func TestImportFileGeoJSON(t *testing.T) {
	a, _, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "r.geojson")
	doc := `{"type":"FeatureCollection","name":"G","features":[
	{"type":"Feature","properties":{"name":"P1"},"geometry":{"type":"Point","coordinates":[3,4]}}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := a.ImportFile(path, ImportWithLines); err != nil {
		t.Fatal(err)
	}
	if a.MapName() != "G" || !slices.Equal(names(a.Placed()), []string{"P1"}) {
		t.Errorf("unexpected %q %q", a.MapName(), names(a.Placed()))
	}
}

func TestExport(t *testing.T) {
	a, db, echo := newTestApp(t)
	if _, err := a.Export(context.Background()); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected ErrValidation for empty route, got %v", err)
	}
	mustAdd(t, a, "A", "0/0")
	mustAdd(t, a, "B", "0/0.001")
	mustAdd(t, a, "draft", "")
	if _, err := a.Export(context.Background()); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected ErrValidation for missing map name, got %v", err)
	}
	if err := a.SetMapName("My/Trip"); err != nil {
		t.Fatal(err)
	}

	res, err := a.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(res.Path) != "My_Trip.kml" || res.Points != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "B - 111 м") || strings.Contains(string(data), "draft") {
		t.Errorf("unexpected document:\n%s", data)
	}
	back, err := geom.DecodeKML(data)
	if err != nil || back.MapName != "My/Trip" || len(back.Points) != 2 {
		t.Errorf("Expected export to decode back, got %+v %v", back, err)
	}

	hist, err := db.ExportHistory(context.Background())
	if err != nil || len(hist) != 1 {
		t.Fatalf("Expected 1 history record, got %v %v", hist, err)
	}
	if hist[0].Name != "My/Trip" || hist[0].Points != 2 || hist[0].Timestamp != "2024-05-01 12:00:00" {
		t.Errorf("unexpected record %+v", hist[0])
	}
	if len(echo.names) != 1 || echo.names[0] != "My/Trip" {
		t.Errorf("Expected one echo upload, got %v", echo.names)
	}
}

func TestQuickAddAndSuggestions(t *testing.T) {
	a, _, _ := newTestApp(t)
	if _, err := a.Suggestions(5); !errors.Is(err, apperr.ErrLookupMiss) {
		t.Errorf("Expected ErrLookupMiss without catalog, got %v", err)
	}
	c := catalog.New([]catalog.Entry{
		{Name: "Far", Lat: 0, Lon: 10},
		{Name: "Near", Lat: 0, Lon: 1},
		{Name: "Here", Lat: 0, Lon: 0},
	})
	if err := a.SetCatalog(c); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, a, "here", "0/0")

	got, err := a.Suggestions(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Near" || got[1].Name != "Far" {
		t.Errorf("Expected [Near Far], got %+v", got)
	}

	draft := mustAdd(t, a, "pending", "")
	a.SetActive(draft.ID)
	w, err := a.QuickAdd(got[0])
	if err != nil {
		t.Fatal(err)
	}
	if w.ID != draft.ID || w.Name != "Near" || !w.HasCoords {
		t.Errorf("Expected the active draft to be filled, got %+v", w)
	}

	a.SetActive(route.None)
	w, err = a.QuickAdd(got[1])
	if err != nil {
		t.Fatal(err)
	}
	placed := a.Placed()
	if placed[len(placed)-1].ID != w.ID {
		t.Errorf("Expected quick add to append, got %q", names(placed))
	}

	first := placed[0]
	ins, err := a.InsertFromCatalog(catalog.Entry{Name: "Dropped", Lat: 1, Lon: 1}, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Placed()[0].ID != ins.ID {
		t.Errorf("Expected dropped entry in front, got %q", names(a.Placed()))
	}
}

func TestCatalogUndoAndPersistence(t *testing.T) {
	a, db, _ := newTestApp(t)
	c := catalog.New([]catalog.Entry{{Name: "W", Lat: 1, Lon: 2}})
	if err := a.SetCatalog(c); err != nil {
		t.Fatal(err)
	}
	if entries, _ := db.LoadCatalog(context.Background()); len(entries) != 1 {
		t.Errorf("Expected catalog to be persisted, got %v", entries)
	}
	if err := a.Undo(); err != nil {
		t.Fatal(err)
	}
	if a.Catalog() != nil {
		t.Errorf("Expected undo to drop the catalog")
	}
	if entries, _ := db.LoadCatalog(context.Background()); len(entries) != 0 {
		t.Errorf("Expected persisted catalog to be cleared, got %v", entries)
	}
}

func TestClearAndTheme(t *testing.T) {
	a, db, _ := newTestApp(t)
	mustAdd(t, a, "A", "1/1")
	_ = a.SetMapName("M")
	if err := a.Clear(); err != nil {
		t.Fatal(err)
	}
	if a.MapName() != "" || len(a.Waypoints()) != 1 {
		t.Errorf("Expected empty route, got %q %v", a.MapName(), a.Waypoints())
	}

	th, err := a.ToggleTheme(context.Background())
	if err != nil || th != ThemeLight {
		t.Fatalf("Expected light, got %q %v", th, err)
	}
	b := New(Options{DB: db})
	if err := b.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.Theme() != ThemeLight {
		t.Errorf("Expected persisted theme, got %q", b.Theme())
	}
}
