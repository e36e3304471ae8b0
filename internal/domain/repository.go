package domain

import "context"

// PlayerRepository defines the interface for player persistence.
// The row doubles as the manifest store: MatchIDs and TotalMatches are
// written once by the dispatcher before any match message is enqueued.
type PlayerRepository interface {
	// Upsert creates or replaces a player row
	Upsert(ctx context.Context, player *Player) error

	// GetByPUUID retrieves a player; returns nil, nil when absent
	GetByPUUID(ctx context.Context, puuid string) (*Player, error)

	// List retrieves players with optional filtering
	List(ctx context.Context, params PlayerListParams) ([]*Player, int, error)

	// UpdateStatus updates only the status of a player
	UpdateStatus(ctx context.Context, puuid string, status PlayerStatus) error

	// SetProcessedCount updates the projection of the durable counter
	SetProcessedCount(ctx context.Context, puuid string, processed int) error

	// MarkComplete sets status=complete and the completion timestamp
	MarkComplete(ctx context.Context, puuid string) error

	// GetStats retrieves player counts by status
	GetStats(ctx context.Context) (*PlayerStats, error)
}
