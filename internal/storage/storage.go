// Package storage is the local persistence adapter: a sqlite key/value table
// holding the map name, the waypoint list, the catalog, the theme preference and
// a capped log of past exports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"kmlgen/internal/catalog"
	"kmlgen/internal/logger"
)

const (
	keyMapName       = "mapName"
	keyWaypoints     = "waypoints"
	keyCatalog       = "catalog"
	keyTheme         = "theme"
	keyExportHistory = "exportHistory"
)

// MaxExportHistory caps the export log; older records fall off the end.
const MaxExportHistory = 50

// StoredWaypoint is the persisted row form; Coords is "lat/lon" or empty for drafts.
type StoredWaypoint struct {
	Name   string `json:"name"`
	Coords string `json:"coords"`
}

type State struct {
	MapName   string
	Waypoints []StoredWaypoint
}

type ExportRecord struct {
	ID        int64  `json:"id"` // unix millis at export time
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Timestamp string `json:"timestamp"`
}

type DB struct {
	db *sql.DB
}

// Open creates (if needed) and opens the sqlite file at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	logger.L().Debug("storage_open_ok", "path", path)
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func set(ctx context.Context, x execer, key, value string) error {
	_, err := x.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (d *DB) getJSON(ctx context.Context, key string, v any) error {
	raw, ok, err := d.get(ctx, key)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, x execer, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return set(ctx, x, key, string(b))
}

// SaveState writes the map name and waypoint list in one transaction.
func (d *DB) SaveState(ctx context.Context, s State) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := set(ctx, tx, keyMapName, s.MapName); err != nil {
		return err
	}
	wps := s.Waypoints
	if wps == nil {
		wps = []StoredWaypoint{}
	}
	if err := setJSON(ctx, tx, keyWaypoints, wps); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadState returns the saved state; a fresh database yields the zero State.
func (d *DB) LoadState(ctx context.Context) (State, error) {
	var s State
	name, _, err := d.get(ctx, keyMapName)
	if err != nil {
		return State{}, err
	}
	s.MapName = name
	if err := d.getJSON(ctx, keyWaypoints, &s.Waypoints); err != nil {
		return State{}, err
	}
	return s, nil
}

func (d *DB) SaveCatalog(ctx context.Context, entries []catalog.Entry) error {
	if entries == nil {
		entries = []catalog.Entry{}
	}
	return setJSON(ctx, d.db, keyCatalog, entries)
}

func (d *DB) LoadCatalog(ctx context.Context) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	if err := d.getJSON(ctx, keyCatalog, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *DB) SaveTheme(ctx context.Context, theme string) error {
	return set(ctx, d.db, keyTheme, theme)
}

// Theme returns the saved theme, or "" if none was saved.
func (d *DB) Theme(ctx context.Context) (string, error) {
	v, _, err := d.get(ctx, keyTheme)
	return v, err
}

// AppendExport prepends rec to the export log, keeping the newest MaxExportHistory.
func (d *DB) AppendExport(ctx context.Context, rec ExportRecord) error {
	hist, err := d.ExportHistory(ctx)
	if err != nil {
		return err
	}
	hist = append([]ExportRecord{rec}, hist...)
	if len(hist) > MaxExportHistory {
		hist = hist[:MaxExportHistory]
	}
	return setJSON(ctx, d.db, keyExportHistory, hist)
}

// ExportHistory returns the export log, newest first.
func (d *DB) ExportHistory(ctx context.Context) ([]ExportRecord, error) {
	var hist []ExportRecord
	if err := d.getJSON(ctx, keyExportHistory, &hist); err != nil {
		return nil, err
	}
	return hist, nil
}
