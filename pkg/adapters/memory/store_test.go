package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arvis/pkg/adapters/memory"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
)

func TestHistory_Contract(t *testing.T) {
	ports.RunHistoryStoreContract(t, memory.NewHistory(10))
}

func TestHistory_DropsOldestPastCapacity(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHistory(3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, h.Push(ctx, domain.HistoryEntry{ID: fmt.Sprint(i)}))
	}

	got, err := h.List(ctx, 0)
	require.NoError(t, err)
	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"5", "4", "3"}, ids)
	assert.Equal(t, 3, h.Len())
}

func TestHistory_DefaultCapacity(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHistory(0)
	for i := 0; i < memory.DefaultCapacity+5; i++ {
		require.NoError(t, h.Push(ctx, domain.HistoryEntry{ID: fmt.Sprint(i)}))
	}
	assert.Equal(t, memory.DefaultCapacity, h.Len())
}

func TestHistory_ConcurrentPush(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHistory(50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = h.Push(ctx, domain.HistoryEntry{ID: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()

	got, err := h.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}
