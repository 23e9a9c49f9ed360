package ports

import (
	"context"

	"github.com/aretw0/arvis/pkg/domain"
)

// HistoryStore persists the inputs that started interactions, newest first.
type HistoryStore interface {
	// Push records an entry. Stores may drop the oldest entries past their capacity.
	Push(ctx context.Context, entry domain.HistoryEntry) error

	// List returns at most limit entries, newest first. A limit <= 0 means all.
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
