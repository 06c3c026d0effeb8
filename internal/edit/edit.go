// Package edit models text inputs that commit on quiescence: each keystroke
// replaces the pending value, and the value is flushed to the store only when no
// newer keystroke arrived within the field's delay, or when the input loses focus.
package edit

import "time"

const (
	NameDelay    = 300 * time.Millisecond
	CoordsDelay  = 500 * time.Millisecond
	MapNameDelay = 500 * time.Millisecond
)

type Field int

const (
	FieldName Field = iota
	FieldCoords
	FieldMapName
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldCoords:
		return "coords"
	case FieldMapName:
		return "map name"
	}
	return "unknown"
}

// Delay is the quiescence window for f.
func (f Field) Delay() time.Duration {
	if f == FieldName {
		return NameDelay
	}
	return CoordsDelay
}

// Target identifies what a pending value belongs to. WaypointID is unused for
// FieldMapName.
type Target struct {
	Field      Field
	WaypointID int
}

type Pending struct {
	Target
	Value string
}

// Buffer holds at most one pending edit. Not safe for concurrent use; the UI loop
// owns it.
type Buffer struct {
	pending Pending
	has     bool
	seq     uint64
}

// Touch records the latest value for target and returns its sequence number. A
// touch for a different target replaces the previous pending edit; callers flush
// first if they want to keep it.
func (b *Buffer) Touch(target Target, value string) uint64 {
	b.seq++
	b.pending = Pending{Target: target, Value: value}
	b.has = true
	return b.seq
}

// Due flushes the pending edit if seq is still the latest touch, meaning the
// quiescence window elapsed without another keystroke.
func (b *Buffer) Due(seq uint64) (Pending, bool) {
	if !b.has || seq != b.seq {
		return Pending{}, false
	}
	return b.Flush()
}

// Flush returns and clears the pending edit regardless of timing (blur, enter).
func (b *Buffer) Flush() (Pending, bool) {
	if !b.has {
		return Pending{}, false
	}
	p := b.pending
	b.pending, b.has = Pending{}, false
	return p, true
}

// Discard drops the pending edit.
func (b *Buffer) Discard() {
	b.pending, b.has = Pending{}, false
}

func (b *Buffer) Pending() (Pending, bool) { return b.pending, b.has }
