package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rewindlabs/rewind/internal/domain"
)

// PlayerRepository implements domain.PlayerRepository for SQLite.
// The match id manifest is stored as a JSON array in a TEXT column.
type PlayerRepository struct {
	db *sql.DB
}

// NewPlayerRepository creates a new PlayerRepository
func NewPlayerRepository(db *sql.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	matchIDs, err := json.Marshal(player.MatchIDs)
	if err != nil {
		return fmt.Errorf("failed to encode match ids: %w", err)
	}

	query := `
		INSERT INTO players (
			puuid, summoner_name, summoner_tagline, region, status,
			match_ids, total_matches, processed_count,
			queued_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (puuid) DO UPDATE SET
			summoner_name = excluded.summoner_name,
			summoner_tagline = excluded.summoner_tagline,
			region = excluded.region,
			status = excluded.status,
			match_ids = excluded.match_ids,
			total_matches = excluded.total_matches,
			processed_count = excluded.processed_count,
			queued_at = excluded.queued_at,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at`

	_, err = r.db.ExecContext(ctx, query,
		player.PUUID,
		player.SummonerName,
		player.SummonerTagline,
		player.Region,
		player.Status,
		string(matchIDs),
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

func (r *PlayerRepository) GetByPUUID(ctx context.Context, puuid string) (*domain.Player, error) {
	query := `
		SELECT puuid, summoner_name, summoner_tagline, region, status,
			match_ids, total_matches, processed_count,
			queued_at, updated_at, completed_at
		FROM players
		WHERE puuid = ?`

	player, err := scanPlayer(r.db.QueryRowContext(ctx, query, puuid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (r *PlayerRepository) List(ctx context.Context, params domain.PlayerListParams) ([]*domain.Player, int, error) {
	where := ""
	args := []interface{}{}
	if params.Status != nil {
		where = "WHERE status = ?"
		args = append(args, *params.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM players "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count players: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT puuid, summoner_name, summoner_tagline, region, status,
			match_ids, total_matches, processed_count,
			queued_at, updated_at, completed_at
		FROM players ` + where + `
		ORDER BY queued_at DESC
		LIMIT ? OFFSET ?`
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

func (r *PlayerRepository) UpdateStatus(ctx context.Context, puuid string, status domain.PlayerStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE players SET status = ?, updated_at = ? WHERE puuid = ?",
		status, time.Now(), puuid)
	if err != nil {
		return fmt.Errorf("failed to update player status: %w", err)
	}
	return checkAffected(res)
}

func (r *PlayerRepository) SetProcessedCount(ctx context.Context, puuid string, processed int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE players SET processed_count = ?, updated_at = ? WHERE puuid = ?",
		processed, time.Now(), puuid)
	if err != nil {
		return fmt.Errorf("failed to set processed count: %w", err)
	}
	return checkAffected(res)
}

func (r *PlayerRepository) MarkComplete(ctx context.Context, puuid string) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE players SET status = ?, completed_at = ?, updated_at = ? WHERE puuid = ?",
		domain.PlayerStatusComplete, now, now, puuid)
	if err != nil {
		return fmt.Errorf("failed to mark player complete: %w", err)
	}
	return checkAffected(res)
}

func (r *PlayerRepository) GetStats(ctx context.Context) (*domain.PlayerStats, error) {
	query := `
		SELECT
			COUNT(*),
			SUM(CASE WHEN status = 'queued' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'complete' THEN 1 ELSE 0 END)
		FROM players`

	stats := &domain.PlayerStats{}
	var queued, processing, complete sql.NullInt64
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total, &queued, &processing, &complete)
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}

	stats.Queued = int(queued.Int64)
	stats.Processing = int(processing.Int64)
	stats.Complete = int(complete.Int64)

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(row rowScanner) (*domain.Player, error) {
	var player domain.Player
	var matchIDs string
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

	if err := json.Unmarshal([]byte(matchIDs), &player.MatchIDs); err != nil {
		return nil, fmt.Errorf("failed to decode match ids: %w", err)
	}
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
