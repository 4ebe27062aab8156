package nav

import "sync"

// History abstracts the browser history stack. State carries the page key so
// a pop event can re-derive its target without consulting the path.
type History interface {
	// Push adds a new entry.
	Push(path, state string)
	// Replace overwrites the current entry.
	Replace(path, state string)
	// Path returns the current entry's path, or "" when empty.
	Path() string
}

type historyEntry struct {
	path  string
	state string
}

// MemoryHistory is an in-memory History with back/forward support, used in
// tests and headless embeddings.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []historyEntry
	idx     int
}

// NewMemoryHistory returns a history with a single root entry.
func NewMemoryHistory(path string) *MemoryHistory {
	return &MemoryHistory{entries: []historyEntry{{path: path}}}
}

// Push truncates any forward entries and appends a new one.
func (h *MemoryHistory) Push(path, state string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.idx+1], historyEntry{path: path, state: state})
	h.idx = len(h.entries) - 1
}

// Replace overwrites the current entry.
func (h *MemoryHistory) Replace(path, state string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.idx] = historyEntry{path: path, state: state}
}

// Path returns the current entry's path.
func (h *MemoryHistory) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.idx].path
}

// Back moves one entry back, returning the entry's path and state. The
// second return is false when already at the oldest entry.
func (h *MemoryHistory) Back() (path, state string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx == 0 {
		return "", "", false
	}
	h.idx--
	e := h.entries[h.idx]
	return e.path, e.state, true
}

// Len returns the number of history entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
