// Package feedback implements the comparison-feedback table consulted by the
// mutation engine's ConstFeedbackOverwrite/Insert operators: a bounded,
// lock-free table that a single fuzz-target-instrumentation producer writes
// to and any number of mutation-engine consumers read from concurrently.
package feedback

import (
	"sync/atomic"
)

// entry is one slot in the table: a captured comparison operand, trimmed to
// at most maxEntryLen bytes.
type entry struct {
	val [maxEntryLen]byte
	len atomic.Uint32 // 0 means "slot empty"
}

// maxEntryLen bounds a single captured operand; wider comparisons are
// truncated rather than rejected, matching the engine's own "clamp, never
// fail" error-handling stance (spec §7).
const maxEntryLen = 32

// Table is a fixed-capacity ring of comparison operands. Add is meant to be
// called from instrumentation inserted into (or wrapping) the fuzz target;
// Snapshot is meant to be called from mutation workers via
// internal/mutate.FeedbackSource. Add writes the payload before publishing
// its length with a release store, and Snapshot reads the length with an
// acquire load before copying the bytes, so a freshly filled slot is never
// read with a length ahead of its payload. A Snapshot that races an Add
// reusing the same slot may still copy a mix of old and new bytes; no lock
// guards against that.
type Table struct {
	entries []entry
	next    atomic.Uint64
}

// New builds a Table with room for capacity entries. capacity is clamped to
// at least 1.
func New(capacity int) *Table {
	if capacity < 1 {
		capacity = 1
	}

	return &Table{entries: make([]entry, capacity)}
}

// Add records one comparison operand, overwriting the oldest slot once the
// table is full (a ring, not a set: repeated hot comparisons simply keep
// refreshing their slot).
func (t *Table) Add(val []byte) {
	if len(val) == 0 {
		return
	}

	idx := t.next.Add(1) % uint64(len(t.entries))
	e := &t.entries[idx]

	// Publish order matters: zero the length first so a concurrent
	// Snapshot never reads a new length paired with stale bytes, write
	// the payload, then publish the real length last.
	e.len.Store(0)

	n := copy(e.val[:], val)

	e.len.Store(uint32(n))
}

// Snapshot returns a defensive copy of every currently non-empty entry. The
// returned slices are owned by the caller and never aliased to the table's
// internal storage.
func (t *Table) Snapshot() [][]byte {
	out := make([][]byte, 0, len(t.entries))

	for i := range t.entries {
		e := &t.entries[i]

		n := e.len.Load()
		if n == 0 {
			continue
		}

		if int(n) > maxEntryLen {
			n = maxEntryLen
		}

		cp := make([]byte, n)
		copy(cp, e.val[:n])
		out = append(out, cp)
	}

	return out
}

// Len reports the table's fixed capacity.
func (t *Table) Len() int { return len(t.entries) }
