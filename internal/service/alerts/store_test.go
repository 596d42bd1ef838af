package alerts

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AcknowledgeAndReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Acknowledge(ctx, "tent1_co"))
	require.NoError(t, store.Acknowledge(ctx, "tent2_smoke"))
	require.NoError(t, store.Acknowledge(ctx, "tent1_co"), "re-acknowledging is a no-op")
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Reset(ctx))
	assert.Zero(t, store.Len())

	// A second reset is idempotent.
	require.NoError(t, store.Reset(ctx))
	assert.Zero(t, store.Len())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Acknowledge(ctx, string(rune('a'+n)))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, store.Len())

	require.NoError(t, store.Reset(ctx))
	assert.Zero(t, store.Len())
}
