package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
)

// MockHistory is a slice-backed HistoryStore used to check the contract suite itself.
type MockHistory struct {
	entries []domain.HistoryEntry
}

func (m *MockHistory) Push(ctx context.Context, entry domain.HistoryEntry) error {
	m.entries = append([]domain.HistoryEntry{entry}, m.entries...)
	return nil
}

func (m *MockHistory) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	return append([]domain.HistoryEntry(nil), m.entries[:limit]...), nil
}

func (m *MockHistory) Clear(ctx context.Context) error {
	m.entries = nil
	return nil
}

func TestHistoryStoreContract_Mock(t *testing.T) {
	ports.RunHistoryStoreContract(t, &MockHistory{})
}
