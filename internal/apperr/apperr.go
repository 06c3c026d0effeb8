// Package apperr holds the failure kinds surfaced to the user. Callers wrap them with
// context and match with errors.Is.
package apperr

import "errors"

var (
	// ErrParse marks malformed KML, GeoJSON or spreadsheet input. No state is mutated.
	ErrParse = errors.New("parse failure")
	// ErrValidation marks rejected user input: empty map name, nothing to export,
	// unparseable coordinates.
	ErrValidation = errors.New("validation failure")
	// ErrEmptyHistory is returned by undo with nothing to restore.
	ErrEmptyHistory = errors.New("nothing to undo")
	// ErrLookupMiss is returned by catalog queries that find nothing.
	ErrLookupMiss = errors.New("no matches")
)
