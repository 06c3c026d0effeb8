// Package catalog is the read-only lookup table of candidate points (wells, sites)
// imported from a spreadsheet. It backs name autocomplete and quick-add suggestions.
package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/paulmach/orb"

	"kmlgen/internal/apperr"
	"kmlgen/internal/geom"
	"kmlgen/internal/logger"
)

// DefaultBatchSize is how many rows Build processes between cancellation checks.
const DefaultBatchSize = 500

var (
	nameKeys = []string{"название", "name"}
	latKeys  = []string{"lat", "latitude"}
	lonKeys  = []string{"lon", "long", "longitude"}
)

type Entry struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

func (e Entry) Point() orb.Point { return orb.Point{e.Lon, e.Lat} }

// Catalog is immutable once built, so it can be shared between snapshots.
type Catalog struct {
	entries []Entry
}

// New wraps already validated entries (e.g. hydrated from storage).
func New(entries []Entry) *Catalog {
	return &Catalog{entries: slices.Clone(entries)}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return slices.Clone(c.entries)
}

type BuildOptions struct {
	BatchSize int
	// Progress is called after each batch with rows processed so far and the total
	// number of data rows.
	Progress func(done, total int)
}

// Build parses spreadsheet rows (header first). Columns are matched
// case-insensitively by substring; a missing column or an empty sheet is an
// apperr.ErrParse. Rows without a name or numeric lat/lon are dropped. ctx is
// checked between batches; on cancellation the partial result is discarded and
// ctx.Err() is returned.
func Build(ctx context.Context, rows [][]string, opts BuildOptions) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", apperr.ErrParse)
	}
	idxName, idxLat, idxLon, err := matchColumns(rows[0])
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no data rows", apperr.ErrParse)
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	data := rows[1:]
	entries := make([]Entry, 0, len(data))
	for start := 0; start < len(data); start += batch {
		if err := ctx.Err(); err != nil {
			logger.L().Info("catalog_build_canceled", "done", start, "total", len(data))
			return nil, err
		}
		end := min(start+batch, len(data))
		for _, row := range data[start:end] {
			if e, ok := parseRow(row, idxName, idxLat, idxLon); ok {
				entries = append(entries, e)
			}
		}
		if opts.Progress != nil {
			opts.Progress(end, len(data))
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no valid rows in %d", apperr.ErrParse, len(data))
	}
	logger.L().Debug("catalog_build_ok", "rows", len(data), "entries", len(entries))
	return &Catalog{entries: entries}, nil
}

func matchColumns(header []string) (name, lat, lon int, err error) {
	claimed := map[int]bool{}
	find := func(keys []string) int {
		for i, h := range header {
			if claimed[i] {
				continue
			}
			lh := strings.ToLower(strings.TrimSpace(h))
			for _, k := range keys {
				if strings.Contains(lh, k) {
					claimed[i] = true
					return i
				}
			}
		}
		return -1
	}
	name, lat, lon = find(nameKeys), find(latKeys), find(lonKeys)
	var missing []string
	if name < 0 {
		missing = append(missing, "name")
	}
	if lat < 0 {
		missing = append(missing, "latitude")
	}
	if lon < 0 {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: columns not found: %s", apperr.ErrParse, strings.Join(missing, ", "))
	}
	return name, lat, lon, nil
}

func parseRow(row []string, iName, iLat, iLon int) (Entry, bool) {
	if iName >= len(row) || iLat >= len(row) || iLon >= len(row) {
		return Entry{}, false
	}
	name := strings.TrimSpace(row[iName])
	if name == "" {
		return Entry{}, false
	}
	lat, err1 := geom.ParseNumber(row[iLat])
	lon, err2 := geom.ParseNumber(row[iLon])
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Entry{}, false
	}
	return Entry{Name: name, Lat: lat, Lon: lon}, true
}

type match struct {
	e         Entry
	exact     bool
	prefix    bool
	pos       int
	remaining int
}

// Search returns entries whose name contains query (case-insensitive), best first:
// exact matches, then prefix matches, then by match position, then by the shortest
// remainder. limit <= 0 means no limit.
func (c *Catalog) Search(query string, limit int) ([]Entry, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || c.Len() == 0 {
		return nil, apperr.ErrLookupMiss
	}
	qLen := utf8.RuneCountInString(q)
	var ms []match
	for _, e := range c.entries {
		ln := strings.ToLower(e.Name)
		i := strings.Index(ln, q)
		if i < 0 {
			continue
		}
		pos := utf8.RuneCountInString(ln[:i])
		ms = append(ms, match{
			e:         e,
			exact:     ln == q,
			prefix:    pos == 0,
			pos:       pos,
			remaining: utf8.RuneCountInString(ln) - qLen,
		})
	}
	if len(ms) == 0 {
		return nil, apperr.ErrLookupMiss
	}
	slices.SortStableFunc(ms, func(a, b match) int {
		if a.exact != b.exact {
			return boolFirst(a.exact)
		}
		if a.prefix != b.prefix {
			return boolFirst(a.prefix)
		}
		return cmp.Or(cmp.Compare(a.pos, b.pos), cmp.Compare(a.remaining, b.remaining), strings.Compare(a.e.Name, b.e.Name))
	})
	out := make([]Entry, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.e)
	}
	return clip(out, limit), nil
}

func boolFirst(a bool) int {
	if a {
		return -1
	}
	return 1
}

// Suggest ranks entries by distance from origin (nearest first) for quick-add,
// skipping names already on the route (case-insensitive). With a nil origin the
// catalog order is kept.
func (c *Catalog) Suggest(origin *orb.Point, exclude []string, limit int, dist func(a, b orb.Point) float64) ([]Entry, error) {
	skip := make(map[string]bool, len(exclude))
	for _, n := range exclude {
		skip[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var out []Entry
	for _, e := range c.Entries() {
		if !skip[strings.ToLower(e.Name)] {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, apperr.ErrLookupMiss
	}
	if origin != nil {
		o := *origin
		slices.SortStableFunc(out, func(a, b Entry) int {
			return cmp.Compare(dist(o, a.Point()), dist(o, b.Point()))
		})
	}
	return clip(out, limit), nil
}

// Lookup finds an entry by exact name, ignoring case.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	name = strings.TrimSpace(name)
	if c == nil || name == "" {
		return Entry{}, false
	}
	for _, e := range c.entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

func clip(es []Entry, limit int) []Entry {
	if limit > 0 && len(es) > limit {
		return es[:limit]
	}
	return es
}
