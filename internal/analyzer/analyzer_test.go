package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewindlabs/rewind/internal/domain"
)

func samplePayload() []byte {
	return []byte(`{
		"metadata": {
			"matchId": "NA1_5000",
			"participants": ["puuid-a", "puuid-b"]
		},
		"info": {
			"gameCreation": 1700000000000,
			"gameDuration": 1800,
			"platformId": "NA1",
			"queueId": 420,
			"participants": [
				{
					"puuid": "puuid-a",
					"win": true,
					"championName": "Ahri",
					"teamPosition": "MIDDLE",
					"kills": 7,
					"deaths": 2,
					"assists": 9,
					"totalMinionsKilled": 180,
					"neutralMinionsKilled": 20,
					"visionScore": 25,
					"wardsPlaced": 11,
					"wardsKilled": 4,
					"gameEndedInEarlySurrender": false,
					"firstBloodKill": true,
					"dangerPings": 3,
					"onMyWayPings": 12
				},
				{
					"puuid": "puuid-b",
					"win": false,
					"championName": "Thresh",
					"teamPosition": "",
					"individualPosition": "UTILITY",
					"kills": 1,
					"deaths": 6,
					"assists": 14,
					"totalMinionsKilled": 30,
					"neutralMinionsKilled": 0,
					"visionScore": 60
				}
			]
		}
	}`)
}

func TestExtract(t *testing.T) {
	stats, err := Extract("puuid-a", samplePayload())
	require.NoError(t, err)

	assert.Equal(t, "NA1_5000", stats.MatchID)
	assert.Equal(t, "puuid-a", stats.PUUID)
	assert.Equal(t, int64(1700000000000), stats.GameCreation)
	assert.Equal(t, 1800, stats.DurationSeconds)
	assert.Equal(t, "NA1", stats.PlatformID)
	assert.Equal(t, 420, stats.QueueID)
	assert.True(t, stats.Won)
	assert.Equal(t, "Ahri", stats.Champion)
	assert.Equal(t, "MIDDLE", stats.Position)
	assert.Equal(t, 7, stats.Kills)
	assert.Equal(t, 2, stats.Deaths)
	assert.Equal(t, 9, stats.Assists)
	assert.Equal(t, 200, stats.CS, "cs includes neutral minions")
	assert.Equal(t, 25, stats.VisionScore)
	assert.True(t, stats.FirstBlood)
	assert.Equal(t, 3, stats.Pings.Danger)
	assert.Equal(t, 12, stats.Pings.OnMyWay)
	assert.Equal(t, 0, stats.Pings.Basic)
}

func TestExtractPositionFallback(t *testing.T) {
	stats, err := Extract("puuid-b", samplePayload())
	require.NoError(t, err)
	assert.Equal(t, "UTILITY", stats.Position)
}

func TestExtractParticipantNotFound(t *testing.T) {
	_, err := Extract("puuid-missing", samplePayload())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
}

func TestExtractDeterministic(t *testing.T) {
	a, err := Extract("puuid-a", samplePayload())
	require.NoError(t, err)
	b, err := Extract("puuid-a", samplePayload())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtractInvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "not json", raw: []byte("nope")},
		{name: "missing match id", raw: []byte(`{"metadata":{},"info":{}}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extract("puuid-a", tc.raw)
			require.Error(t, err)
		})
	}
}

func TestExtractIndex(t *testing.T) {
	entry, err := ExtractIndex(samplePayload())
	require.NoError(t, err)

	assert.Equal(t, "NA1_5000", entry.MatchID)
	assert.Equal(t, []string{"puuid-a", "puuid-b"}, entry.Participants)
	assert.Equal(t, "NA1", entry.PlatformID)
}

func ExampleExtract() {
	stats, _ := Extract("puuid-a", samplePayload())
	fmt.Println(stats.Champion, stats.Kills, stats.Deaths, stats.Assists)
	// Output: Ahri 7 2 9
}
