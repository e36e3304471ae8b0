package dedupe

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkProcessedFirstCallWins(t *testing.T) {
	d := NewMemoryDeduper()
	ctx := context.Background()

	first, err := d.MarkProcessed(ctx, "p1", "d1", "NA1_1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.MarkProcessed(ctx, "p1", "d1", "NA1_1")
	require.NoError(t, err)
	assert.False(t, again)

	// Different match or player is a fresh mark
	other, err := d.MarkProcessed(ctx, "p1", "d1", "NA1_2")
	require.NoError(t, err)
	assert.True(t, other)

	other, err = d.MarkProcessed(ctx, "p2", "d1", "NA1_1")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestMarkProcessedScopedToDispatch(t *testing.T) {
	d := NewMemoryDeduper()
	ctx := context.Background()

	first, err := d.MarkProcessed(ctx, "p1", "d1", "NA1_1")
	require.NoError(t, err)
	assert.True(t, first)

	// A later dispatch run of the same player and match starts clean
	fresh, err := d.MarkProcessed(ctx, "p1", "d2", "NA1_1")
	require.NoError(t, err)
	assert.True(t, fresh)

	again, err := d.MarkProcessed(ctx, "p1", "d2", "NA1_1")
	require.NoError(t, err)
	assert.False(t, again)
}

func TestUnmarkProcessedReopensTheMark(t *testing.T) {
	d := NewMemoryDeduper()
	ctx := context.Background()

	first, err := d.MarkProcessed(ctx, "p1", "d1", "NA1_1")
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, d.UnmarkProcessed(ctx, "p1", "d1", "NA1_1"))

	first, err = d.MarkProcessed(ctx, "p1", "d1", "NA1_1")
	require.NoError(t, err)
	assert.True(t, first, "an unmarked match must be claimable again")
}

func TestMarkProcessedConcurrent(t *testing.T) {
	d := NewMemoryDeduper()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := d.MarkProcessed(ctx, "p1", "d1", "NA1_1")
			require.NoError(t, err)
			if first {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestAggregationClaimLifecycle(t *testing.T) {
	d := NewMemoryDeduper()
	ctx := context.Background()

	claimed, err := d.ClaimAggregation(ctx, "p1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = d.ClaimAggregation(ctx, "p1", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, d.ReleaseAggregation(ctx, "p1"))

	claimed, err = d.ClaimAggregation(ctx, "p1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}
