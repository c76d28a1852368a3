package serverlog

import (
	"sync"
	"time"
)

// Entry is one line kept in a History.
type Entry struct {
	Time   time.Time `json:"time"`
	Source Source    `json:"source"`
	Level  string    `json:"level"`
	Text   string    `json:"text"`
}

// History is a fixed-size ring of the most recent lines from both streams.
// It is a LineHandler, safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	head    int
	count   int
	now     func() time.Time
}

// NewHistory creates a history holding up to size lines.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{
		entries: make([]Entry, size),
		now:     time.Now,
	}
}

// HandleLine records line, overwriting the oldest entry when full.
func (h *History) HandleLine(line Line) {
	entry := Entry{
		Time:   h.now(),
		Source: line.Source,
		Level:  line.Severity().String(),
		Text:   line.Raw,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = entry
	h.head = (h.head + 1) % len(h.entries)
	if h.count < len(h.entries) {
		h.count++
	}
}

// Lines returns up to limit of the newest entries, oldest first.
// A limit of zero or less returns everything held.
func (h *History) Lines(limit int) []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := h.count
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil
	}

	size := len(h.entries)
	start := (h.head - n + size) % size
	result := make([]Entry, n)
	for i := range n {
		result[i] = h.entries[(start+i)%size]
	}
	return result
}

// Count returns the number of entries held.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
