package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/rewindlabs/rewind/internal/domain"
)

// PlayerRepository implements domain.PlayerRepository for PostgreSQL
type PlayerRepository struct {
	db *sql.DB
}

// NewPlayerRepository creates a new PlayerRepository
func NewPlayerRepository(db *sql.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Upsert creates or replaces a player row, manifest included
func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	query := `
		INSERT INTO players (
			puuid, summoner_name, summoner_tagline, region, status,
			match_ids, total_matches, processed_count,
			queued_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (puuid) DO UPDATE SET
			summoner_name = EXCLUDED.summoner_name,
			summoner_tagline = EXCLUDED.summoner_tagline,
			region = EXCLUDED.region,
			status = EXCLUDED.status,
			match_ids = EXCLUDED.match_ids,
			total_matches = EXCLUDED.total_matches,
			processed_count = EXCLUDED.processed_count,
			queued_at = EXCLUDED.queued_at,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at`

	_, err := r.db.ExecContext(ctx, query,
		player.PUUID,
		player.SummonerName,
		player.SummonerTagline,
		player.Region,
		player.Status,
		pq.Array(player.MatchIDs),
		player.TotalMatches,
		player.ProcessedCount,
		player.QueuedAt,
		time.Now(),
		player.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player: %w", err)
	}

	return nil
}

// GetByPUUID retrieves a player; returns nil, nil when absent
func (r *PlayerRepository) GetByPUUID(ctx context.Context, puuid string) (*domain.Player, error) {
	query := `
		SELECT puuid, summoner_name, summoner_tagline, region, status,
			match_ids, total_matches, processed_count,
			queued_at, updated_at, completed_at
		FROM players
		WHERE puuid = $1`

	player, err := scanPlayer(r.db.QueryRowContext(ctx, query, puuid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

// List retrieves players with optional status filtering, newest first
func (r *PlayerRepository) List(ctx context.Context, params domain.PlayerListParams) ([]*domain.Player, int, error) {
	where := ""
	args := []interface{}{}
	if params.Status != nil {
		where = "WHERE status = $1"
		args = append(args, *params.Status)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM players " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count players: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT puuid, summoner_name, summoner_tagline, region, status,
			match_ids, total_matches, processed_count,
			queued_at, updated_at, completed_at
		FROM players %s
		ORDER BY queued_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, params.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*domain.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}

	return players, total, rows.Err()
}

// UpdateStatus updates only the status of a player
func (r *PlayerRepository) UpdateStatus(ctx context.Context, puuid string, status domain.PlayerStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE players SET status = $1, updated_at = now() WHERE puuid = $2",
		status, puuid)
	if err != nil {
		return fmt.Errorf("failed to update player status: %w", err)
	}
	return checkAffected(res)
}

// SetProcessedCount updates the projection of the durable counter
func (r *PlayerRepository) SetProcessedCount(ctx context.Context, puuid string, processed int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE players SET processed_count = $1, updated_at = now() WHERE puuid = $2",
		processed, puuid)
	if err != nil {
		return fmt.Errorf("failed to set processed count: %w", err)
	}
	return checkAffected(res)
}

// MarkComplete sets status=complete and the completion timestamp
func (r *PlayerRepository) MarkComplete(ctx context.Context, puuid string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE players SET status = $1, completed_at = now(), updated_at = now() WHERE puuid = $2`,
		domain.PlayerStatusComplete, puuid)
	if err != nil {
		return fmt.Errorf("failed to mark player complete: %w", err)
	}
	return checkAffected(res)
}

// GetStats retrieves player counts by status
func (r *PlayerRepository) GetStats(ctx context.Context) (*domain.PlayerStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'queued'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'complete')
		FROM players`

	stats := &domain.PlayerStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total, &stats.Queued, &stats.Processing, &stats.Complete)
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(row rowScanner) (*domain.Player, error) {
	var player domain.Player
	var matchIDs pq.StringArray
	var completedAt sql.NullTime

	err := row.Scan(
		&player.PUUID,
		&player.SummonerName,
		&player.SummonerTagline,
		&player.Region,
		&player.Status,
		&matchIDs,
		&player.TotalMatches,
		&player.ProcessedCount,
		&player.QueuedAt,
		&player.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	player.MatchIDs = matchIDs
	if completedAt.Valid {
		player.CompletedAt = &completedAt.Time
	}

	return &player, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}
