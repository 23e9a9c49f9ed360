package memory

import (
	"context"
	"sync"

	"github.com/aretw0/arvis/pkg/domain"
)

// DefaultCapacity is the number of entries kept when no capacity is given.
const DefaultCapacity = 100

// History implements ports.HistoryStore as a fixed-size ring buffer.
// Safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	next    int
	size    int
}

// NewHistory creates a history keeping at most capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{entries: make([]domain.HistoryEntry, capacity)}
}

// Push records the entry, overwriting the oldest one when full.
func (h *History) Push(ctx context.Context, entry domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = entry
	h.next = (h.next + 1) % len(h.entries)
	if h.size < len(h.entries) {
		h.size++
	}
	return nil
}

// List returns the newest entries first.
func (h *History) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > h.size {
		limit = h.size
	}
	out := make([]domain.HistoryEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (h.next - i + len(h.entries)) % len(h.entries)
		out = append(out, h.entries[idx])
	}
	return out, nil
}

// Clear drops every entry.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.entries)
	h.next, h.size = 0, 0
	return nil
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}
