package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewindlabs/rewind/internal/counter"
	"github.com/rewindlabs/rewind/internal/domain"
	"github.com/rewindlabs/rewind/internal/repository/memory"
)

type fakeLister struct {
	ids   []string
	calls int
}

func (f *fakeLister) MatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error) {
	f.calls++
	if start >= len(f.ids) {
		return nil, nil
	}
	end := start + count
	if end > len(f.ids) {
		end = len(f.ids)
	}
	return f.ids[start:end], nil
}

type fakePublisher struct {
	published []*domain.MatchMessage
	failOn    map[string]bool
}

func (f *fakePublisher) Publish(ctx context.Context, msg *domain.MatchMessage) error {
	if f.failOn[msg.MatchID] {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, msg)
	return nil
}

type fakeCompleter struct {
	completed []string
}

func (f *fakeCompleter) CompleteEmpty(ctx context.Context, puuid string) error {
	f.completed = append(f.completed, puuid)
	return nil
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("NA1_%d", i)
	}
	return out
}

func newFixture(matchIDs []string) (*Dispatcher, *fakeLister, *memory.PlayerRepo, *counter.MemoryStore, *fakePublisher, *fakeCompleter) {
	lister := &fakeLister{ids: matchIDs}
	repo := memory.NewPlayerRepo()
	counters := counter.NewMemoryStore()
	pub := &fakePublisher{failOn: map[string]bool{}}
	comp := &fakeCompleter{}
	return New(lister, repo, counters, pub, comp), lister, repo, counters, pub, comp
}

func req() *domain.RefreshRequest {
	return &domain.RefreshRequest{SummonerName: "Faker", SummonerTagline: "KR1", Region: "kr"}
}

func TestDispatchFansOutAllMatches(t *testing.T) {
	d, _, repo, counters, pub, _ := newFixture(ids(3))
	ctx := context.Background()

	player, err := d.Dispatch(ctx, req(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 3, player.TotalMatches)
	assert.Equal(t, domain.PlayerStatusProcessing, player.Status)
	assert.Len(t, pub.published, 3)
	assert.Equal(t, "p1", pub.published[0].PUUID)
	assert.Equal(t, "kr", pub.published[0].Region)

	// Manifest persisted before enqueue
	stored, err := repo.GetByPUUID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, ids(3), stored.MatchIDs)

	_, total, err := counters.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestDispatchPaginates(t *testing.T) {
	// 250 ids: two full pages and a short third page
	d, lister, _, _, pub, _ := newFixture(ids(250))

	player, err := d.Dispatch(context.Background(), req(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 250, player.TotalMatches)
	assert.Len(t, pub.published, 250)
	assert.Equal(t, 3, lister.calls, "a short page must end pagination")
}

func TestDispatchExactPageBoundary(t *testing.T) {
	// 200 ids: the third page is empty and ends pagination
	d, lister, _, _, _, _ := newFixture(ids(200))

	player, err := d.Dispatch(context.Background(), req(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 200, player.TotalMatches)
	assert.Equal(t, 3, lister.calls)
}

func TestDispatchZeroMatchesCompletesImmediately(t *testing.T) {
	d, _, repo, _, pub, comp := newFixture(nil)
	ctx := context.Background()

	player, err := d.Dispatch(ctx, req(), "p1")
	require.NoError(t, err)

	assert.Equal(t, domain.PlayerStatusComplete, player.Status)
	assert.Empty(t, pub.published)
	assert.Equal(t, []string{"p1"}, comp.completed)

	stored, err := repo.GetByPUUID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TotalMatches)
}

func TestDispatchStampsFreshDispatchID(t *testing.T) {
	d, _, _, _, pub, _ := newFixture(ids(3))
	ctx := context.Background()

	_, err := d.Dispatch(ctx, req(), "p1")
	require.NoError(t, err)

	first := pub.published[0].DispatchID
	require.NotEmpty(t, first)
	for _, msg := range pub.published {
		assert.Equal(t, first, msg.DispatchID, "one run shares one dispatch id")
	}

	// A re-dispatch gets its own id, so workers' dedup marks from the
	// first run cannot swallow the redelivered matches
	_, err = d.Dispatch(ctx, req(), "p1")
	require.NoError(t, err)

	second := pub.published[3].DispatchID
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}

func TestDispatchEnqueueFailureIsNotFatal(t *testing.T) {
	d, _, _, counters, pub, _ := newFixture(ids(3))
	pub.failOn["NA1_1"] = true
	ctx := context.Background()

	player, err := d.Dispatch(ctx, req(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 3, player.TotalMatches)
	assert.Len(t, pub.published, 2)

	// The counter still tracks the full manifest
	_, total, err := counters.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
