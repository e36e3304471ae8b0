// Package analyzer extracts one player's record from a raw match payload.
// Extraction is a pure function of (payload, puuid), so reprocessing the
// same match on redelivery produces an identical record.
package analyzer

import (
	"encoding/json"
	"fmt"

	"github.com/rewindlabs/rewind/internal/domain"
)

type matchPayload struct {
	Metadata struct {
		MatchID      string   `json:"matchId"`
		Participants []string `json:"participants"`
	} `json:"metadata"`
	Info struct {
		GameCreation int64         `json:"gameCreation"`
		GameDuration int           `json:"gameDuration"`
		PlatformID   string        `json:"platformId"`
		QueueID      int           `json:"queueId"`
		Participants []participant `json:"participants"`
	} `json:"info"`
}

type participant struct {
	PUUID              string `json:"puuid"`
	Win                bool   `json:"win"`
	ChampionName       string `json:"championName"`
	TeamPosition       string `json:"teamPosition"`
	IndividualPosition string `json:"individualPosition"`
	Kills              int    `json:"kills"`
	Deaths             int    `json:"deaths"`
	Assists            int    `json:"assists"`
	TotalMinionsKilled int    `json:"totalMinionsKilled"`
	NeutralMinions     int    `json:"neutralMinionsKilled"`
	VisionScore        int    `json:"visionScore"`
	WardsPlaced        int    `json:"wardsPlaced"`
	WardsKilled        int    `json:"wardsKilled"`
	EarlySurrender     bool   `json:"gameEndedInEarlySurrender"`
	FirstBloodKill     bool   `json:"firstBloodKill"`

	AllInPings         int `json:"allInPings"`
	AssistMePings      int `json:"assistMePings"`
	BasicPings         int `json:"basicPings"`
	CommandPings       int `json:"commandPings"`
	DangerPings        int `json:"dangerPings"`
	EnemyMissingPings  int `json:"enemyMissingPings"`
	EnemyVisionPings   int `json:"enemyVisionPings"`
	GetBackPings       int `json:"getBackPings"`
	HoldPings          int `json:"holdPings"`
	NeedVisionPings    int `json:"needVisionPings"`
	OnMyWayPings       int `json:"onMyWayPings"`
	PushPings          int `json:"pushPings"`
	VisionClearedPings int `json:"visionClearedPings"`
}

// Extract parses a raw match payload and pulls out the record for puuid.
// Returns domain.ErrParticipantNotFound when the player is not in the match.
func Extract(puuid string, raw []byte) (*domain.PlayerMatchStats, error) {
	var payload matchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse match payload: %w", err)
	}

	if payload.Metadata.MatchID == "" {
		return nil, fmt.Errorf("match payload has no match id")
	}

	for i := range payload.Info.Participants {
		p := &payload.Info.Participants[i]
		if p.PUUID != puuid {
			continue
		}

		return &domain.PlayerMatchStats{
			MatchID:         payload.Metadata.MatchID,
			PUUID:           puuid,
			GameCreation:    payload.Info.GameCreation,
			DurationSeconds: payload.Info.GameDuration,
			PlatformID:      payload.Info.PlatformID,
			QueueID:         payload.Info.QueueID,
			Won:             p.Win,
			Champion:        p.ChampionName,
			Position:        position(p),
			Kills:           p.Kills,
			Deaths:          p.Deaths,
			Assists:         p.Assists,
			CS:              p.TotalMinionsKilled + p.NeutralMinions,
			VisionScore:     p.VisionScore,
			WardsPlaced:     p.WardsPlaced,
			WardsKilled:     p.WardsKilled,
			EarlySurrender:  p.EarlySurrender,
			FirstBlood:      p.FirstBloodKill,
			Pings: domain.PingCounts{
				AllIn:         p.AllInPings,
				AssistMe:      p.AssistMePings,
				Basic:         p.BasicPings,
				Command:       p.CommandPings,
				Danger:        p.DangerPings,
				EnemyMissing:  p.EnemyMissingPings,
				EnemyVision:   p.EnemyVisionPings,
				GetBack:       p.GetBackPings,
				Hold:          p.HoldPings,
				NeedVision:    p.NeedVisionPings,
				OnMyWay:       p.OnMyWayPings,
				Push:          p.PushPings,
				VisionCleared: p.VisionClearedPings,
			},
		}, nil
	}

	return nil, fmt.Errorf("match %s: %w", payload.Metadata.MatchID, domain.ErrParticipantNotFound)
}

// ExtractIndex builds the participant index entry for a match payload
func ExtractIndex(raw []byte) (*domain.MatchIndexEntry, error) {
	var payload matchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse match payload: %w", err)
	}

	if payload.Metadata.MatchID == "" {
		return nil, fmt.Errorf("match payload has no match id")
	}

	return &domain.MatchIndexEntry{
		MatchID:      payload.Metadata.MatchID,
		Participants: payload.Metadata.Participants,
		PlatformID:   payload.Info.PlatformID,
		GameCreation: payload.Info.GameCreation,
	}, nil
}

// position prefers the team-assigned position and falls back to the
// individual one. ARAM and older payloads leave both empty.
func position(p *participant) string {
	if p.TeamPosition != "" {
		return p.TeamPosition
	}
	return p.IndividualPosition
}
