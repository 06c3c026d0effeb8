package app

import (
	"fmt"

	"kmlgen/internal/apperr"
	"kmlgen/internal/mapsync"
)

// ApplyGesture routes a map event into the store. A click on empty map sets the
// coordinates of the active waypoint when it is a draft and is ignored otherwise.
// Marker clicks only select; drags and double-clicks are undoable mutations.
func (a *App) ApplyGesture(g mapsync.Gesture) error {
	switch g := g.(type) {
	case mapsync.Click:
		w, ok := a.store.Active()
		if !ok || !w.Draft() {
			return nil
		}
		return a.mutate("map_click", func() bool { return a.store.SetCoords(w.ID, g.Lat, g.Lon) })
	case mapsync.MarkerClick:
		a.store.SetActive(g.ID)
		return nil
	case mapsync.DragEnd:
		w, ok := a.store.Get(g.ID)
		if !ok || w.Draft() {
			return nil
		}
		return a.mutate("map_drag", func() bool { return a.store.SetCoords(g.ID, g.Lat, g.Lon) })
	case mapsync.DoubleClick:
		return a.mutate("map_delete", func() bool { return a.store.Remove(g.ID) })
	}
	return fmt.Errorf("%w: unknown gesture %T", apperr.ErrValidation, g)
}
