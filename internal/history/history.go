// Package history is the undo stack: a fixed-capacity ring of snapshots where the
// oldest entry is evicted on overflow.
package history

import "kmlgen/internal/apperr"

// DefaultCap is enough to walk back through a working session's typical mistakes.
const DefaultCap = 100

// Stack is a LIFO ring buffer. The zero value is unusable; use New.
type Stack[T any] struct {
	buf  []T
	head int // index of the next write
	n    int
}

func New[T any](capacity int) *Stack[T] {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Stack[T]{buf: make([]T, capacity)}
}

// Push records s, evicting the oldest snapshot when full.
func (h *Stack[T]) Push(s T) {
	h.buf[h.head] = s
	h.head = (h.head + 1) % len(h.buf)
	if h.n < len(h.buf) {
		h.n++
	}
}

// Pop removes and returns the most recent snapshot, or apperr.ErrEmptyHistory.
func (h *Stack[T]) Pop() (T, error) {
	var zero T
	if h.n == 0 {
		return zero, apperr.ErrEmptyHistory
	}
	h.head = (h.head - 1 + len(h.buf)) % len(h.buf)
	s := h.buf[h.head]
	h.buf[h.head] = zero
	h.n--
	return s, nil
}

func (h *Stack[T]) Len() int { return h.n }

func (h *Stack[T]) Cap() int { return len(h.buf) }

// Reset drops every snapshot.
func (h *Stack[T]) Reset() {
	clear(h.buf)
	h.head, h.n = 0, 0
}
