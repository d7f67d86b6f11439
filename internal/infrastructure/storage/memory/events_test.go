package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wucy1/ProDocuX/internal/domain/learning"
	learningtypes "github.com/wucy1/ProDocuX/pkg/types/learning"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

func newScoredEvent(t *testing.T, workID string, i int) *learning.Event {
	t.Helper()
	event, err := learning.NewEvent(workID, "cosmetic-msds", learningtypes.SourceJSON, []record.Diff{
		{Path: fmt.Sprintf("field_%d", i), Kind: record.DiffModified, Original: "a", Corrected: "b"},
	})
	require.NoError(t, err)
	return event
}

func TestEventStoreAppendAndListOrder(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, newScoredEvent(t, "work-1", i)))
	}
	require.NoError(t, store.Append(ctx, newScoredEvent(t, "work-2", 9)))

	events, err := store.ListByWork(ctx, "work-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, fmt.Sprintf("field_%d", i), e.Diffs[0].Path)
	}
}

func TestEventStoreListIsACopy(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, newScoredEvent(t, "work-1", 0)))

	first, err := store.ListByWork(ctx, "work-1")
	require.NoError(t, err)
	first[0] = nil

	again, err := store.ListByWork(ctx, "work-1")
	require.NoError(t, err)
	require.NotNil(t, again[0])
}

func TestEventStoreClearWork(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, newScoredEvent(t, "work-1", 0)))
	require.NoError(t, store.Append(ctx, newScoredEvent(t, "work-2", 0)))

	require.NoError(t, store.ClearWork(ctx, "work-1"))

	events, err := store.ListByWork(ctx, "work-1")
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = store.ListByWork(ctx, "work-2")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
