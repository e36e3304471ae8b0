package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewindlabs/rewind/internal/domain"
)

func record(matchID string, won bool, k, d, a int) *domain.PlayerMatchStats {
	return &domain.PlayerMatchStats{
		MatchID:         matchID,
		PUUID:           "p1",
		DurationSeconds: 1800,
		Won:             won,
		Champion:        "Ahri",
		Position:        "MIDDLE",
		Kills:           k,
		Deaths:          d,
		Assists:         a,
		CS:              200,
		VisionScore:     20,
	}
}

func TestFoldEmpty(t *testing.T) {
	agg := Fold("p1", nil, time.Now())

	assert.Equal(t, domain.AggregateStatusDone, agg.Status)
	assert.Equal(t, 0, agg.MatchCount)
	assert.Equal(t, 0, agg.Wins)
	assert.Nil(t, agg.Best)
	assert.Nil(t, agg.Worst)
	assert.NotNil(t, agg.Champions)
	assert.Empty(t, agg.Champions)
	assert.Equal(t, 0.0, agg.Performance.CSPerMinute)
}

func TestFoldSums(t *testing.T) {
	records := []*domain.PlayerMatchStats{
		record("m1", true, 5, 2, 10),
		record("m2", false, 3, 8, 4),
		record("m3", true, 10, 0, 5),
	}
	records[0].FirstBlood = true
	records[1].EarlySurrender = true
	records[0].Pings.Danger = 3
	records[2].Pings.Danger = 2
	records[2].Pings.OnMyWay = 7

	agg := Fold("p1", records, time.Now())

	assert.Equal(t, 3, agg.MatchCount)
	assert.Equal(t, 2, agg.Wins)
	assert.Equal(t, 1, agg.Losses)
	assert.Equal(t, 18, agg.Kills)
	assert.Equal(t, 10, agg.Deaths)
	assert.Equal(t, 19, agg.Assists)
	assert.Equal(t, 600, agg.CS)
	assert.Equal(t, 1, agg.FirstBloods)
	assert.Equal(t, 1, agg.EarlySurrenders)
	assert.Equal(t, 5, agg.Pings.Danger)
	assert.Equal(t, 7, agg.Pings.OnMyWay)
	assert.Equal(t, 3, agg.Positions.Middle)
	assert.Equal(t, 0, agg.Positions.Top)
}

func TestFoldDeterministic(t *testing.T) {
	records := []*domain.PlayerMatchStats{
		record("m1", true, 5, 2, 10),
		record("m2", false, 3, 8, 4),
	}
	now := time.Unix(1700000000, 0)

	a := Fold("p1", records, now)
	b := Fold("p1", records, now)
	assert.Equal(t, a, b)
}

func TestFoldBestAndWorst(t *testing.T) {
	records := []*domain.PlayerMatchStats{
		record("m1", true, 3, 2, 0),  // win, kda 1.5
		record("m2", true, 6, 2, 0),  // win, kda 3.0
		record("m3", true, 4, 2, 0),  // win, kda 2.0
		record("m4", false, 2, 4, 0), // loss, kda 0.5
		record("m5", false, 1, 4, 0), // loss, kda 0.25
	}

	agg := Fold("p1", records, time.Now())

	require.NotNil(t, agg.Best)
	assert.Equal(t, "m2", agg.Best.MatchID)
	assert.Equal(t, 3.0, agg.Best.KDARatio)
	assert.Equal(t, "6/2/0", agg.Best.KDA)
	assert.True(t, agg.Best.Won)

	require.NotNil(t, agg.Worst)
	assert.Equal(t, "m5", agg.Worst.MatchID)
	assert.False(t, agg.Worst.Won)
}

func TestFoldHighlightTiesKeepFirst(t *testing.T) {
	records := []*domain.PlayerMatchStats{
		record("m1", true, 4, 2, 0),
		record("m2", true, 4, 2, 0),
	}

	agg := Fold("p1", records, time.Now())
	require.NotNil(t, agg.Best)
	assert.Equal(t, "m1", agg.Best.MatchID)
}

func TestFoldAllWinsHasNoWorst(t *testing.T) {
	agg := Fold("p1", []*domain.PlayerMatchStats{record("m1", true, 1, 1, 1)}, time.Now())
	assert.NotNil(t, agg.Best)
	assert.Nil(t, agg.Worst)
}

func TestFoldChampionStats(t *testing.T) {
	records := []*domain.PlayerMatchStats{
		record("m1", true, 5, 2, 10),
		record("m2", false, 3, 8, 4),
	}
	records[1].Champion = "Zed"

	agg := Fold("p1", records, time.Now())

	require.Len(t, agg.Champions, 2)
	ahri := agg.Champions["Ahri"]
	require.NotNil(t, ahri)
	assert.Equal(t, 1, ahri.Games)
	assert.Equal(t, 100.0, ahri.WinRate)
	assert.Equal(t, 5.0, ahri.AvgKills)

	zed := agg.Champions["Zed"]
	require.NotNil(t, zed)
	assert.Equal(t, 0.0, zed.WinRate)
}

func TestFoldWinRateOneDecimal(t *testing.T) {
	records := []*domain.PlayerMatchStats{
		record("m1", true, 1, 1, 1),
		record("m2", false, 1, 1, 1),
		record("m3", false, 1, 1, 1),
	}

	agg := Fold("p1", records, time.Now())
	assert.Equal(t, 33.3, agg.Champions["Ahri"].WinRate)
}

func TestKDARatio(t *testing.T) {
	tests := []struct {
		name    string
		k, d, a int
		want    float64
	}{
		{name: "normal", k: 6, d: 2, a: 4, want: 5.0},
		{name: "deathless", k: 3, d: 0, a: 4, want: 7.0},
		{name: "all zero", k: 0, d: 0, a: 0, want: 0.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KDARatio(tc.k, tc.d, tc.a))
		})
	}
}

func TestPerMinute(t *testing.T) {
	tests := []struct {
		name     string
		value    int
		duration int
		want     float64
	}{
		{name: "whole minutes", value: 180, duration: 600, want: 18.0},
		{name: "rounded to two decimals", value: 100, duration: 1800, want: 3.33},
		{name: "zero duration", value: 100, duration: 0, want: 0.0},
		{name: "zero value", value: 0, duration: 600, want: 0.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PerMinute(tc.value, tc.duration))
		})
	}
}
