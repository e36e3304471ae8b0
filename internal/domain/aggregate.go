package domain

import "time"

// AggregateStatus marks whether an aggregate is complete.
// Downstream readers must tolerate "pending" and re-poll.
type AggregateStatus string

const (
	AggregateStatusPending AggregateStatus = "pending"
	AggregateStatusDone    AggregateStatus = "done"
)

// ChampionStats is the per-champion breakdown of a player's aggregate
type ChampionStats struct {
	Games           int `json:"games"`
	Wins            int `json:"wins"`
	Losses          int `json:"losses"`
	Kills           int `json:"kills"`
	Deaths          int `json:"deaths"`
	Assists         int `json:"assists"`
	CS              int `json:"cs"`
	VisionScore     int `json:"vision_score"`
	DurationSeconds int `json:"duration"`

	// Derived once totals are known
	WinRate         float64 `json:"win_rate"`
	AvgKills        float64 `json:"avg_kills"`
	AvgDeaths       float64 `json:"avg_deaths"`
	AvgAssists      float64 `json:"avg_assists"`
	AvgCS           float64 `json:"avg_cs"`
	AvgVisionScore  float64 `json:"avg_vision_score"`
	CSPerMinute     float64 `json:"cs_per_minute"`
	VisionPerMinute float64 `json:"vision_per_minute"`
}

// PositionCounts tracks games played per position
type PositionCounts struct {
	Top     int `json:"TOP"`
	Jungle  int `json:"JUNGLE"`
	Middle  int `json:"MIDDLE"`
	Bottom  int `json:"BOTTOM"`
	Utility int `json:"UTILITY"`
}

// PerformanceMetrics holds overall per-minute and per-game averages
type PerformanceMetrics struct {
	CSPerMinute            float64 `json:"cs_per_minute"`
	VisionPerMinute        float64 `json:"vision_per_minute"`
	AvgKills               float64 `json:"avg_kills"`
	AvgDeaths              float64 `json:"avg_deaths"`
	AvgAssists             float64 `json:"avg_assists"`
	AvgCS                  float64 `json:"avg_cs"`
	AvgVisionScore         float64 `json:"avg_vision_score"`
	AvgGameDurationMinutes float64 `json:"avg_game_duration"`
}

// MatchHighlight is the best or worst match by KDA ratio
type MatchHighlight struct {
	MatchID     string  `json:"match_id"`
	Champion    string  `json:"champion"`
	KDA         string  `json:"kda"`
	KDARatio    float64 `json:"kda_ratio"`
	CS          int     `json:"cs"`
	VisionScore int     `json:"vision_score"`
	Won         bool    `json:"won"`
}

// PlayerAggregate is the fold over all of a player's match records.
// Recomputing it from the same record set is deterministic and produces
// an identical value except for UpdatedAt.
type PlayerAggregate struct {
	PUUID  string          `json:"puuid"`
	Status AggregateStatus `json:"status"`

	MatchCount      int `json:"match_count"`
	Wins            int `json:"won"`
	Losses          int `json:"lost"`
	Kills           int `json:"kills"`
	Deaths          int `json:"deaths"`
	Assists         int `json:"assists"`
	CS              int `json:"cs"`
	VisionScore     int `json:"vision_score"`
	WardsPlaced     int `json:"wards_placed"`
	WardsKilled     int `json:"wards_killed"`
	EarlySurrenders int `json:"early_surrender"`
	FirstBloods     int `json:"first_blood"`
	DurationSeconds int `json:"match_duration"`

	Pings     PingCounts     `json:"pings"`
	Positions PositionCounts `json:"positions"`

	Champions   map[string]*ChampionStats `json:"champion_stats"`
	Performance PerformanceMetrics        `json:"performance_metrics"`

	Best  *MatchHighlight `json:"best_match"`
	Worst *MatchHighlight `json:"worst_match"`

	UpdatedAt time.Time `json:"last_updated"`
}

// EmptyAggregate returns a completed aggregate with all sums at zero.
// A player with no matches is done, not an error.
func EmptyAggregate(puuid string, now time.Time) *PlayerAggregate {
	return &PlayerAggregate{
		PUUID:     puuid,
		Status:    AggregateStatusDone,
		Champions: map[string]*ChampionStats{},
		UpdatedAt: now,
	}
}
