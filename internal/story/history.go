package story

import "sync"

// History is a linear, branch-discarding undo/redo log of story snapshots.
// The log is never empty and the cursor always points at a valid entry; the
// view layer must derive everything it renders from Current().
type History struct {
	mu      sync.RWMutex
	entries []Snapshot
	cursor  int
}

// NewHistory creates a history seeded with an initial snapshot.
func NewHistory(initial Snapshot) *History {
	return &History{
		entries: []Snapshot{initial.Clone()},
		cursor:  0,
	}
}

// Commit truncates any redo branch after the cursor, appends the snapshot and
// advances the cursor to it. Commit is the only operation that changes the
// length of the log.
func (h *History) Commit(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.cursor+1], s.Clone())
	h.cursor = len(h.entries) - 1
}

// Undo moves the cursor one step back. A no-op at the start of the log.
func (h *History) Undo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor == 0 {
		return false
	}
	h.cursor--
	return true
}

// Redo moves the cursor one step forward. A no-op at the end of the log.
func (h *History) Redo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor >= len(h.entries)-1 {
		return false
	}
	h.cursor++
	return true
}

// Current returns the snapshot at the cursor. Always defined.
func (h *History) Current() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entries[h.cursor].Clone()
}

// Len returns the number of snapshots in the log.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Cursor returns the current cursor index.
func (h *History) Cursor() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cursor
}

// Entries returns a copy of the full log, oldest first. Used by save/load.
func (h *History) Entries() []Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Snapshot, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Clone()
	}
	return out
}

// Restore replaces the log and cursor wholesale, clamping the cursor into
// range. An empty slice leaves the history unchanged.
func (h *History) Restore(entries []Snapshot, cursor int) {
	if len(entries) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = make([]Snapshot, len(entries))
	for i, e := range entries {
		h.entries[i] = e.Clone()
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(h.entries)-1 {
		cursor = len(h.entries) - 1
	}
	h.cursor = cursor
}
