package domain

import (
	"time"
)

// PlayerStatus represents the processing status of a player's match history
type PlayerStatus string

const (
	PlayerStatusUnknown    PlayerStatus = "unknown"
	PlayerStatusQueued     PlayerStatus = "queued"
	PlayerStatusProcessing PlayerStatus = "processing"
	PlayerStatusComplete   PlayerStatus = "complete"
)

// IsTerminal returns true if no further pipeline work is expected
func (s PlayerStatus) IsTerminal() bool {
	return s == PlayerStatusComplete
}

// Player is the owner of a set of matches being aggregated.
// ProcessedCount is advanced only through the atomic counter store; the
// value on this row is a projection for the API, never the source of truth.
type Player struct {
	PUUID           string       `json:"puuid"`
	SummonerName    string       `json:"summoner_name"`
	SummonerTagline string       `json:"summoner_tagline"`
	Region          string       `json:"region"`
	Status          PlayerStatus `json:"status"`

	// Manifest: full list of match ids resolved at dispatch time.
	// Read-only after creation.
	MatchIDs     []string `json:"match_ids"`
	TotalMatches int      `json:"total_matches"`

	ProcessedCount int `json:"processed_count"`

	QueuedAt    time.Time  `json:"queued_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RefreshRequest is the request to dispatch processing for a player
type RefreshRequest struct {
	SummonerName    string `json:"summoner_name"`
	SummonerTagline string `json:"summoner_tagline"`
	Region          string `json:"region"`
}

// Validate checks required fields
func (r *RefreshRequest) Validate() error {
	if r.SummonerName == "" || r.SummonerTagline == "" {
		return ErrMissingRiotID
	}
	return nil
}

// PlayerStats contains pipeline-wide player counts by status
type PlayerStats struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Complete   int `json:"complete"`
}

// PlayerListParams are parameters for listing players
type PlayerListParams struct {
	Status *PlayerStatus
	Limit  int
	Offset int
}
