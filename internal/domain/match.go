package domain

// MatchMessage is one unit of work: one match to process for one player.
// It is the only shape the queue transports; adapters at the boundary
// (RabbitMQ, asynq, SQS) all normalize into this struct.
//
// DispatchID identifies the dispatch run that enqueued the message. Dedup
// marks are scoped to it, so a re-dispatch starts from a clean slate instead
// of colliding with marks left by an earlier run.
type MatchMessage struct {
	PUUID      string `json:"puuid"`
	MatchID    string `json:"match_id"`
	DispatchID string `json:"dispatch_id,omitempty"`
	Region     string `json:"region,omitempty"`
}

// PingCounts holds the per-category ping counters tracked per match
type PingCounts struct {
	AllIn         int `json:"allInPings"`
	AssistMe      int `json:"assistMePings"`
	Basic         int `json:"basicPings"`
	Command       int `json:"commandPings"`
	Danger        int `json:"dangerPings"`
	EnemyMissing  int `json:"enemyMissingPings"`
	EnemyVision   int `json:"enemyVisionPings"`
	GetBack       int `json:"getBackPings"`
	Hold          int `json:"holdPings"`
	NeedVision    int `json:"needVisionPings"`
	OnMyWay       int `json:"onMyWayPings"`
	Push          int `json:"pushPings"`
	VisionCleared int `json:"visionClearedPings"`
}

// Add accumulates another set of ping counts
func (p *PingCounts) Add(o PingCounts) {
	p.AllIn += o.AllIn
	p.AssistMe += o.AssistMe
	p.Basic += o.Basic
	p.Command += o.Command
	p.Danger += o.Danger
	p.EnemyMissing += o.EnemyMissing
	p.EnemyVision += o.EnemyVision
	p.GetBack += o.GetBack
	p.Hold += o.Hold
	p.NeedVision += o.NeedVision
	p.OnMyWay += o.OnMyWay
	p.Push += o.Push
	p.VisionCleared += o.VisionCleared
}

// PlayerMatchStats is the player-specific record extracted from one match.
// It is a deterministic function of (match payload, puuid) and therefore
// safe to recompute on duplicate delivery.
type PlayerMatchStats struct {
	MatchID         string     `json:"match_id"`
	PUUID           string     `json:"puuid"`
	GameCreation    int64      `json:"game_creation"`
	DurationSeconds int        `json:"game_duration"`
	PlatformID      string     `json:"platform_id"`
	QueueID         int        `json:"queue_id"`
	Won             bool       `json:"won"`
	Champion        string     `json:"champion"`
	Position        string     `json:"position"`
	Kills           int        `json:"kills"`
	Deaths          int        `json:"deaths"`
	Assists         int        `json:"assists"`
	CS              int        `json:"cs"`
	VisionScore     int        `json:"vision_score"`
	WardsPlaced     int        `json:"wards_placed"`
	WardsKilled     int        `json:"wards_killed"`
	EarlySurrender  bool       `json:"early_surrender"`
	FirstBlood      bool       `json:"first_blood"`
	Pings           PingCounts `json:"pings"`
}

// MatchIndexEntry records which players participated in a cached match
type MatchIndexEntry struct {
	MatchID      string   `json:"match_id"`
	Participants []string `json:"participants"`
	PlatformID   string   `json:"platform_id"`
	GameCreation int64    `json:"game_creation"`
}
