package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"kmlgen/internal/apperr"
	"kmlgen/internal/catalog"
	"kmlgen/internal/geom"
	"kmlgen/internal/logger"
	"kmlgen/internal/route"
	"kmlgen/internal/storage"
)

// ImportMode says what to do with the lines of an imported document.
type ImportMode int

const (
	// ImportPoints keeps the points only.
	ImportPoints ImportMode = iota
	// ImportWithLines draws the imported lines next to the route.
	ImportWithLines
	// ImportAsRoute draws the imported lines in place of the route polyline.
	ImportAsRoute
)

func (m ImportMode) String() string {
	switch m {
	case ImportWithLines:
		return "with lines"
	case ImportAsRoute:
		return "as route"
	}
	return "points"
}

// Import replaces the route with the decoded document as one undoable step.
func (a *App) Import(d geom.Data, mode ImportMode) error {
	wps := make([]route.Waypoint, 0, len(d.Points))
	for _, p := range d.Points {
		wps = append(wps, route.Waypoint{Name: p.Name, Lat: p.Lat, Lon: p.Lon, HasCoords: true})
	}
	err := a.mutate("import", func() bool {
		a.store.Replace(d.MapName, wps)
		a.lines = nil
		if mode != ImportPoints {
			a.lines = d.Lines
		}
		a.showLines = mode != ImportPoints && len(d.Lines) > 0
		a.routeOverlay = mode == ImportAsRoute && len(d.Lines) > 0
		return true
	})
	logger.L().Info("app_import", "map", d.MapName, "points", len(d.Points), "lines", len(d.Lines), "mode", mode.String())
	return err
}

// ImportKML decodes a KML document; on a parse failure nothing changes.
func (a *App) ImportKML(data []byte, mode ImportMode) error {
	d, err := geom.DecodeKML(data)
	if err != nil {
		return err
	}
	return a.Import(d, mode)
}

func (a *App) ImportGeoJSON(data []byte, mode ImportMode) error {
	d, err := geom.DecodeGeoJSON(data)
	if err != nil {
		return err
	}
	return a.Import(d, mode)
}

// ImportFile picks the decoder from the file extension (.kml, .geojson, .json).
func (a *App) ImportFile(path string, mode ImportMode) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".kml":
		return a.ImportKML(data, mode)
	case ".geojson", ".json":
		return a.ImportGeoJSON(data, mode)
	default:
		return fmt.Errorf("%w: unsupported route file %q", apperr.ErrParse, ext)
	}
}

// SetCatalog swaps in a freshly built catalog as one undoable step.
func (a *App) SetCatalog(c *catalog.Catalog) error {
	if c == a.cat {
		return nil
	}
	if err := a.mutate("catalog", func() bool {
		a.cat = c
		return true
	}); err != nil {
		return err
	}
	return a.persistCatalog()
}

// SearchCatalog ranks catalog names containing query; see catalog.Search.
func (a *App) SearchCatalog(query string, limit int) ([]catalog.Entry, error) {
	return a.cat.Search(query, limit)
}

// Suggestions ranks catalog entries by distance from the last placed waypoint,
// leaving out names already on the route.
func (a *App) Suggestions(limit int) ([]catalog.Entry, error) {
	if a.cat.Len() == 0 {
		return nil, apperr.ErrLookupMiss
	}
	var origin *orb.Point
	var names []string
	for _, w := range a.store.Waypoints() {
		if w.Name != "" {
			names = append(names, w.Name)
		}
		if !w.Draft() {
			p := w.Point()
			origin = &p
		}
	}
	return a.cat.Suggest(origin, names, limit, a.dist)
}

// QuickAdd puts a catalog entry on the route. An active draft is filled in place;
// otherwise the entry is appended before the trailing draft.
func (a *App) QuickAdd(e catalog.Entry) (route.Waypoint, error) {
	if w, ok := a.store.Active(); ok && w.Draft() {
		id := w.ID
		err := a.mutate("quick_add", func() bool {
			a.store.SetName(id, e.Name)
			a.store.SetCoords(id, e.Lat, e.Lon)
			return true
		})
		w, _ = a.store.Get(id)
		return w, err
	}
	return a.InsertFromCatalog(e, route.End)
}

// InsertFromCatalog inserts e in front of beforeID, as when an entry is dropped onto
// the list.
func (a *App) InsertFromCatalog(e catalog.Entry, beforeID int) (route.Waypoint, error) {
	var w route.Waypoint
	err := a.mutate("insert_catalog", func() bool {
		w = a.store.AddAt(e.Name, e.Lat, e.Lon, beforeID)
		return true
	})
	return w, err
}

// ExportResult describes a written KML file.
type ExportResult struct {
	Path   string
	Points int
	KML    []byte
}

// Export writes the placed waypoints to <outDir>/<map name>.kml, logs the export and
// hands a copy to the echo uploader. An empty map name or a route without placed
// waypoints is an apperr.ErrValidation and writes nothing.
func (a *App) Export(ctx context.Context) (ExportResult, error) {
	name := strings.TrimSpace(a.store.MapName())
	if name == "" {
		return ExportResult{}, fmt.Errorf("%w: map name is empty", apperr.ErrValidation)
	}
	placed := a.store.Placed()
	if len(placed) == 0 {
		return ExportResult{}, fmt.Errorf("%w: no waypoints with coordinates", apperr.ErrValidation)
	}
	pts := make([]geom.Point, len(placed))
	for i, w := range placed {
		pts[i] = geom.Point{Name: w.Name, Lat: w.Lat, Lon: w.Lon}
	}
	data, err := geom.EncodeKMLBytes(name, pts)
	if err != nil {
		return ExportResult{}, err
	}
	if err := os.MkdirAll(a.outDir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("create out dir: %w", err)
	}
	path := filepath.Join(a.outDir, geom.FileName(name)+".kml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("write %s: %w", path, err)
	}
	logger.L().Info("app_export", "path", path, "points", len(pts), "bytes", len(data))

	if a.db != nil {
		now := a.now()
		rec := storage.ExportRecord{
			ID:        now.UnixMilli(),
			Name:      name,
			Points:    len(pts),
			Timestamp: now.Format(time.DateTime),
		}
		if err := a.db.AppendExport(ctx, rec); err != nil {
			logger.L().Warn("export_history_failed", "err", err)
		}
	}
	if a.echo != nil {
		a.echo.Send(name, data)
	}
	return ExportResult{Path: path, Points: len(pts), KML: data}, nil
}

// ExportHistory lists past exports, newest first.
func (a *App) ExportHistory(ctx context.Context) ([]storage.ExportRecord, error) {
	if a.db == nil {
		return nil, nil
	}
	return a.db.ExportHistory(ctx)
}

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

func (a *App) Theme() string { return a.theme }

// ToggleTheme flips between dark and light and saves the preference.
func (a *App) ToggleTheme(ctx context.Context) (string, error) {
	if a.theme == ThemeLight {
		a.theme = ThemeDark
	} else {
		a.theme = ThemeLight
	}
	if a.db == nil {
		return a.theme, nil
	}
	return a.theme, a.db.SaveTheme(ctx, a.theme)
}
