package app

import (
	"fmt"
	"strings"

	"kmlgen/internal/apperr"
	"kmlgen/internal/edit"
	"kmlgen/internal/route"
)

// AddWaypoint inserts a waypoint before the trailing draft. Coordinates that do not
// parse leave it a draft.
func (a *App) AddWaypoint(name, coords string) (route.Waypoint, error) {
	var w route.Waypoint
	err := a.mutate("add", func() bool {
		w = a.store.Add(name, coords)
		return true
	})
	return w, err
}

func (a *App) Remove(id int) error {
	return a.mutate("remove", func() bool { return a.store.Remove(id) })
}

// Reorder moves id in front of beforeID (route.End for the end of the list).
func (a *App) Reorder(id, beforeID int) error {
	return a.mutate("reorder", func() bool { return a.store.Reorder(id, beforeID) })
}

func (a *App) MoveBy(id, delta int) error {
	return a.mutate("move", func() bool { return a.store.MoveBy(id, delta) })
}

func (a *App) SetMapName(name string) error {
	name = strings.TrimSpace(name)
	if name == a.store.MapName() {
		return nil
	}
	return a.mutate("map_name", func() bool {
		a.store.SetMapName(name)
		return true
	})
}

// Commit applies a debounced text edit as one undoable step. A name that exactly
// matches a catalog entry fills in the coordinates of a draft. Malformed
// coordinates are rejected with apperr.ErrValidation and change nothing.
func (a *App) Commit(p edit.Pending) error {
	switch p.Field {
	case edit.FieldMapName:
		return a.SetMapName(p.Value)
	case edit.FieldName:
		return a.setName(p.WaypointID, p.Value)
	case edit.FieldCoords:
		return a.setCoordsText(p.WaypointID, p.Value)
	}
	return fmt.Errorf("%w: unknown field %v", apperr.ErrValidation, p.Field)
}

func (a *App) setName(id int, name string) error {
	w, ok := a.store.Get(id)
	if !ok {
		return nil
	}
	name = strings.TrimSpace(name)
	e, hit := a.cat.Lookup(name)
	fill := hit && w.Draft()
	if name == w.Name && !fill {
		return nil
	}
	return a.mutate("name", func() bool {
		a.store.SetName(id, name)
		if fill {
			a.store.SetCoords(id, e.Lat, e.Lon)
		}
		return true
	})
}

func (a *App) setCoordsText(id int, text string) error {
	w, ok := a.store.Get(id)
	if !ok {
		return nil
	}
	if strings.TrimSpace(text) == w.CoordsText() {
		return nil
	}
	var err error
	mErr := a.mutate("coords", func() bool {
		err = a.store.SetCoordsText(id, text)
		return err == nil
	})
	if err != nil {
		return err
	}
	return mErr
}

// ClearCoords turns id back into a draft.
func (a *App) ClearCoords(id int) error {
	return a.mutate("clear_coords", func() bool { return a.store.ClearCoords(id) })
}

// SortFrom reorders the placed waypoints by greedy nearest neighbour, starting at
// the active waypoint when it is placed and at the first one otherwise. Named
// drafts end up after the sorted points.
func (a *App) SortFrom() error {
	placed := a.store.Placed()
	if len(placed) < 2 {
		return nil
	}
	start := placed[0].ID
	if w, ok := a.store.Active(); ok && !w.Draft() {
		start = w.ID
	}
	return a.applyOrder("sort", route.SortFrom(start, placed, a.dist))
}

// SortAlongImport orders placed waypoints along the imported lines, in the order
// they were imported. Without imported lines it is an apperr.ErrValidation.
func (a *App) SortAlongImport() error {
	if len(a.lines) == 0 {
		return fmt.Errorf("%w: no imported line to sort along", apperr.ErrValidation)
	}
	var track [][2]float64
	for _, ls := range a.lines {
		track = append(track, ls...)
	}
	placed := a.store.Placed()
	if len(placed) < 2 {
		return nil
	}
	return a.applyOrder("sort_along_line", route.OrderAlongLine(placed, track, a.dist))
}

func (a *App) applyOrder(action string, ordered []route.Waypoint) error {
	ids := make([]int, len(ordered))
	for i, w := range ordered {
		ids[i] = w.ID
	}
	before := a.store.Placed()
	same := true
	for i, w := range before {
		if ids[i] != w.ID {
			same = false
			break
		}
	}
	if same {
		return nil
	}
	return a.mutate(action, func() bool {
		a.store.Order(ids)
		return true
	})
}

// Clear empties the route, the map name and the imported lines. The catalog stays.
func (a *App) Clear() error {
	if a.store.Len() == 1 && a.store.MapName() == "" && len(a.lines) == 0 {
		return nil
	}
	return a.mutate("clear", func() bool {
		a.store.Clear()
		a.lines, a.showLines, a.routeOverlay = nil, false, false
		return true
	})
}
