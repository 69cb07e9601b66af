package nav

import "sync"

// MemoryHistory is an in-process History for tests and headless use. It
// records the entry stack and whether the current entry's query was
// stripped, standing in for the browser address bar.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []Screen
	query   string
}

// NewMemoryHistory starts with a single Home entry, mirroring the initial
// pushState the platform performs at session start.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{entries: []Screen{ScreenHome}}
}

func (h *MemoryHistory) Push(screen Screen) {
	h.mu.Lock()
	h.entries = append(h.entries, screen)
	h.mu.Unlock()
}

func (h *MemoryHistory) StripQuery() {
	h.mu.Lock()
	h.query = ""
	h.mu.Unlock()
}

// SetQuery simulates the platform arriving on a URL with query
// parameters (e.g. the payment gateway's return redirect).
func (h *MemoryHistory) SetQuery(q string) {
	h.mu.Lock()
	h.query = q
	h.mu.Unlock()
}

// Query returns the current entry's query string.
func (h *MemoryHistory) Query() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.query
}

// Entries returns a copy of the history stack.
func (h *MemoryHistory) Entries() []Screen {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Screen, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of history entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
