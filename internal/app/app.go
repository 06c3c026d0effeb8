// Package app is the controller: it owns the waypoint store, the catalog, the
// imported lines and the undo history, and it is the only place that mutates them.
// Every user-visible mutation takes a snapshot first and writes through to storage
// afterwards. App is not safe for concurrent use; the UI loop owns it.
package app

import (
	"context"
	"fmt"
	"time"

	"kmlgen/internal/catalog"
	"kmlgen/internal/geom"
	"kmlgen/internal/history"
	"kmlgen/internal/logger"
	"kmlgen/internal/mapsync"
	"kmlgen/internal/route"
	"kmlgen/internal/storage"
)

// Persister is the local store the controller writes through to. *storage.DB
// implements it.
type Persister interface {
	LoadState(ctx context.Context) (storage.State, error)
	SaveState(ctx context.Context, s storage.State) error
	LoadCatalog(ctx context.Context) ([]catalog.Entry, error)
	SaveCatalog(ctx context.Context, entries []catalog.Entry) error
	AppendExport(ctx context.Context, rec storage.ExportRecord) error
	ExportHistory(ctx context.Context) ([]storage.ExportRecord, error)
	Theme(ctx context.Context) (string, error)
	SaveTheme(ctx context.Context, theme string) error
}

// Echoer receives a copy of every exported document. *echo.Client implements it.
type Echoer interface {
	Send(name string, kml []byte)
}

// Snapshot is the state captured before a mutation and restored by Undo.
type Snapshot struct {
	MapName      string
	Waypoints    []route.Waypoint
	ActiveID     int
	Catalog      *catalog.Catalog
	Lines        [][][2]float64
	ShowLines    bool
	RouteOverlay bool
}

type Options struct {
	DB         Persister          // nil disables persistence
	Echo       Echoer             // nil disables the upload
	OutDir     string             // where Export writes; "." when empty
	Distance   route.DistanceFunc // geom.Distance when nil
	HistoryCap int                // history.DefaultCap when <= 0
	Now        func() time.Time
}

type App struct {
	store        *route.Store
	cat          *catalog.Catalog
	lines        [][][2]float64
	showLines    bool
	routeOverlay bool
	theme        string

	hist   *history.Stack[Snapshot]
	db     Persister
	echo   Echoer
	outDir string
	dist   route.DistanceFunc
	now    func() time.Time
}

func New(opts Options) *App {
	a := &App{
		store:  route.NewStore(),
		hist:   history.New[Snapshot](opts.HistoryCap),
		db:     opts.DB,
		echo:   opts.Echo,
		outDir: opts.OutDir,
		dist:   opts.Distance,
		now:    opts.Now,
		theme:  ThemeDark,
	}
	if a.outDir == "" {
		a.outDir = "."
	}
	if a.dist == nil {
		a.dist = geom.Distance
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Hydrate loads the persisted route, catalog and theme. Stored coordinates that no
// longer parse leave the waypoint a draft. Loading never touches the history.
func (a *App) Hydrate(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	st, err := a.db.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	wps := make([]route.Waypoint, 0, len(st.Waypoints))
	for _, sw := range st.Waypoints {
		w := route.Waypoint{Name: sw.Name}
		if lat, lon, err := geom.ParseCoords(sw.Coords); err == nil {
			w.Lat, w.Lon, w.HasCoords = lat, lon, true
		}
		wps = append(wps, w)
	}
	a.store.Replace(st.MapName, wps)

	entries, err := a.db.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(entries) > 0 {
		a.cat = catalog.New(entries)
	}
	if th, err := a.db.Theme(ctx); err == nil && th != "" {
		a.theme = th
	}
	logger.L().Info("app_hydrated", "map", st.MapName, "waypoints", len(wps), "catalog", a.cat.Len())
	return nil
}

func (a *App) capture() Snapshot {
	return Snapshot{
		MapName:      a.store.MapName(),
		Waypoints:    a.store.Waypoints(),
		ActiveID:     a.store.ActiveID(),
		Catalog:      a.cat,
		Lines:        a.lines,
		ShowLines:    a.showLines,
		RouteOverlay: a.routeOverlay,
	}
}

// mutate snapshots, applies fn and persists. fn reports whether anything changed;
// a no-op leaves the history untouched.
func (a *App) mutate(action string, fn func() bool) error {
	snap := a.capture()
	if !fn() {
		return nil
	}
	a.hist.Push(snap)
	logger.L().Debug("app_mutation", "action", action, "history", a.hist.Len())
	return a.persist()
}

// persist writes the route through to storage. Drafts with a name are kept with
// empty coords; empty drafts are not stored.
func (a *App) persist() error {
	if a.db == nil {
		return nil
	}
	st := storage.State{MapName: a.store.MapName()}
	for _, w := range a.store.Waypoints() {
		if w.Empty() {
			continue
		}
		st.Waypoints = append(st.Waypoints, storage.StoredWaypoint{Name: w.Name, Coords: w.CoordsText()})
	}
	if err := a.db.SaveState(context.Background(), st); err != nil {
		logger.L().Error("persist_failed", "err", err)
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (a *App) persistCatalog() error {
	if a.db == nil {
		return nil
	}
	if err := a.db.SaveCatalog(context.Background(), a.cat.Entries()); err != nil {
		logger.L().Error("persist_catalog_failed", "err", err)
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// Undo restores the most recent snapshot. An empty history is apperr.ErrEmptyHistory.
func (a *App) Undo() error {
	snap, err := a.hist.Pop()
	if err != nil {
		return err
	}
	catChanged := snap.Catalog != a.cat
	a.store.Restore(snap.MapName, snap.Waypoints, snap.ActiveID)
	a.cat = snap.Catalog
	a.lines, a.showLines, a.routeOverlay = snap.Lines, snap.ShowLines, snap.RouteOverlay
	logger.L().Info("app_undo", "history", a.hist.Len())
	if err := a.persist(); err != nil {
		return err
	}
	if catChanged {
		return a.persistCatalog()
	}
	return nil
}

func (a *App) HistoryLen() int { return a.hist.Len() }

func (a *App) MapName() string { return a.store.MapName() }

func (a *App) Waypoints() []route.Waypoint { return a.store.Waypoints() }

func (a *App) Placed() []route.Waypoint { return a.store.Placed() }

func (a *App) Waypoint(id int) (route.Waypoint, bool) { return a.store.Get(id) }

func (a *App) ActiveID() int { return a.store.ActiveID() }

// Trailing is the empty draft row at the end of the list.
func (a *App) Trailing() route.Waypoint { return a.store.Trailing() }

func (a *App) Catalog() *catalog.Catalog { return a.cat }

func (a *App) Lines() [][][2]float64 { return a.lines }

func (a *App) ShowLines() bool { return a.showLines }

func (a *App) RouteOverlay() bool { return a.routeOverlay }

// TotalDistance is the route length in meters over placed waypoints.
func (a *App) TotalDistance() float64 { return a.store.TotalDistanceMeters(a.dist) }

// Cumulative is the running distance at each placed waypoint.
func (a *App) Cumulative() []float64 { return a.store.Cumulative(a.dist) }

// Overlay projects the current state for the map.
func (a *App) Overlay() mapsync.Overlay {
	return mapsync.Project(mapsync.State{
		Waypoints:    a.store.Waypoints(),
		ActiveID:     a.store.ActiveID(),
		Lines:        a.lines,
		RouteOverlay: a.routeOverlay,
		ShowLines:    a.showLines,
	})
}

// SetActive changes the selection only; it is neither undoable nor persisted.
func (a *App) SetActive(id int) { a.store.SetActive(id) }
