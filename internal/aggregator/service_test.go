package aggregator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewindlabs/rewind/internal/blob"
	"github.com/rewindlabs/rewind/internal/dedupe"
	"github.com/rewindlabs/rewind/internal/domain"
	"github.com/rewindlabs/rewind/internal/repository/memory"
)

func seedPlayer(t *testing.T, repo *memory.PlayerRepo, puuid string, matchIDs []string) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), &domain.Player{
		PUUID:        puuid,
		Region:       "na1",
		Status:       domain.PlayerStatusProcessing,
		MatchIDs:     matchIDs,
		TotalMatches: len(matchIDs),
		QueuedAt:     time.Now(),
	}))
}

func seedRecord(t *testing.T, blobs blob.Store, r *domain.PlayerMatchStats) {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, blobs.Put(context.Background(), blob.PlayerMatchKey(r.PUUID, r.MatchID), data))
}

func newService(t *testing.T) (*Service, *memory.PlayerRepo, *blob.MemoryStore) {
	t.Helper()
	repo := memory.NewPlayerRepo()
	blobs := blob.NewMemoryStore()
	return NewService(repo, blobs, dedupe.NewMemoryDeduper()), repo, blobs
}

func TestAggregateFoldsStoredRecords(t *testing.T) {
	svc, repo, blobs := newService(t)
	ctx := context.Background()

	seedPlayer(t, repo, "p1", []string{"m1", "m2"})
	seedRecord(t, blobs, record("m1", true, 5, 2, 10))
	seedRecord(t, blobs, record("m2", false, 3, 8, 4))

	require.NoError(t, svc.Aggregate(ctx, "p1", false))

	agg, err := svc.GetAggregate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, agg.MatchCount)
	assert.Equal(t, 1, agg.Wins)
	assert.Equal(t, 1, agg.Losses)
	assert.Equal(t, domain.AggregateStatusDone, agg.Status)

	player, err := repo.GetByPUUID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerStatusComplete, player.Status)
	assert.NotNil(t, player.CompletedAt)
}

func TestAggregateIdempotent(t *testing.T) {
	svc, repo, blobs := newService(t)
	ctx := context.Background()

	seedPlayer(t, repo, "p1", []string{"m1"})
	seedRecord(t, blobs, record("m1", true, 5, 2, 10))

	require.NoError(t, svc.Aggregate(ctx, "p1", false))
	first, err := svc.GetAggregate(ctx, "p1")
	require.NoError(t, err)

	// Re-run with force; everything but the timestamp must match
	require.NoError(t, svc.Aggregate(ctx, "p1", true))
	second, err := svc.GetAggregate(ctx, "p1")
	require.NoError(t, err)

	first.UpdatedAt = second.UpdatedAt
	assert.Equal(t, first, second)
}

func TestAggregateSecondClaimSkips(t *testing.T) {
	svc, repo, blobs := newService(t)
	ctx := context.Background()

	seedPlayer(t, repo, "p1", []string{"m1"})
	seedRecord(t, blobs, record("m1", true, 5, 2, 10))

	require.NoError(t, svc.Aggregate(ctx, "p1", false))

	// Without force the claim is still held, so this is a no-op
	require.NoError(t, svc.Aggregate(ctx, "p1", false))
}

func TestAggregateSkipsMissingRecords(t *testing.T) {
	svc, repo, blobs := newService(t)
	ctx := context.Background()

	seedPlayer(t, repo, "p1", []string{"m1", "m2", "m3"})
	seedRecord(t, blobs, record("m1", true, 5, 2, 10))
	seedRecord(t, blobs, record("m3", false, 1, 5, 2))
	// m2 has no record: the player was not a participant

	require.NoError(t, svc.Aggregate(ctx, "p1", false))

	agg, err := svc.GetAggregate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, agg.MatchCount)
}

func TestAggregateUnknownPlayer(t *testing.T) {
	svc, _, _ := newService(t)

	err := svc.Aggregate(context.Background(), "ghost", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestCompleteEmpty(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	seedPlayer(t, repo, "p1", nil)

	require.NoError(t, svc.CompleteEmpty(ctx, "p1"))

	agg, err := svc.GetAggregate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, agg.MatchCount)
	assert.Equal(t, domain.AggregateStatusDone, agg.Status)

	player, err := repo.GetByPUUID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerStatusComplete, player.Status)
}

func TestGetAggregateNotReady(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.GetAggregate(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, IsNotReady(err))
}
