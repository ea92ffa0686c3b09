package session

import (
	"time"

	"github.com/prepdeck/coach-engine/internal/signals"
)

// #region state

// State is the per-session mutable record consulted and updated on every tick.
// Mutated only under the store's per-session lock.
type State struct {
	ID             string
	CurrentStateID string // empty until the first tick selects a state
	EnteredStateAt time.Time
	CreatedAt      time.Time

	// LastVector is the previous tick's normalized vector, kept for the
	// carry-forward gap-fill policy. Valid only when HasVector is set.
	LastVector signals.MetricVector
	HasVector  bool

	History *History
}

// Snapshot is a read-only view of a session taken under its lock. It carries
// plain values only, so holding one never races with later ticks.
type Snapshot struct {
	ID             string
	CurrentStateID string
	EnteredStateAt time.Time
	CreatedAt      time.Time
	HistoryLen     int
}

// #endregion state

// #region history

// History is a fixed-capacity ring buffer of MetricVectors, most-recent-last.
// Eviction is O(1): the head index advances and the oldest slot is overwritten.
type History struct {
	buf   []signals.MetricVector
	head  int // index of the oldest entry
	count int
}

// NewHistory creates a ring buffer holding at most capacity vectors.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]signals.MetricVector, capacity)}
}

// Append adds v, evicting the oldest entry when full.
func (h *History) Append(v signals.MetricVector) {
	if h.count < len(h.buf) {
		h.buf[(h.head+h.count)%len(h.buf)] = v
		h.count++
		return
	}
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
}

// Len returns the number of stored vectors.
func (h *History) Len() int {
	return h.count
}

// Cap returns the fixed capacity.
func (h *History) Cap() int {
	return len(h.buf)
}

// Items returns the stored vectors ordered oldest-first.
func (h *History) Items() []signals.MetricVector {
	out := make([]signals.MetricVector, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}

// #endregion history
