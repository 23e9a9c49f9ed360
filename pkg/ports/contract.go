package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arvis/pkg/domain"
)

// RunHistoryStoreContract runs a suite of tests to verify that a HistoryStore implementation
// adheres to the defined interface contract. The store must start empty and hold at least 3 entries.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	entry := func(i int) domain.HistoryEntry {
		return domain.HistoryEntry{
			ID:       fmt.Sprintf("entry-%d", i),
			BundleID: "@contract.test",
			Input:    fmt.Sprintf("input %d", i),
			Time:     base.Add(time.Duration(i) * time.Second),
		}
	}

	t.Run("Push and List newest first", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		for i := 1; i <= 3; i++ {
			require.NoError(t, store.Push(ctx, entry(i)), "Push should not return error")
		}

		got, err := store.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "entry-3", got[0].ID)
		assert.Equal(t, "entry-1", got[2].ID)
		assert.Equal(t, "input 3", got[0].Input)
		assert.True(t, got[0].Time.Equal(entry(3).Time))
	})

	t.Run("List respects limit", func(t *testing.T) {
		got, err := store.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "entry-3", got[0].ID)
		assert.Equal(t, "entry-2", got[1].ID)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		got, err := store.List(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
