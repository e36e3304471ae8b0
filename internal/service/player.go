// Package service ties the API surface to the pipeline: account
// resolution, dispatch, status reads, and manual re-aggregation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rewindlabs/rewind/internal/counter"
	"github.com/rewindlabs/rewind/internal/dispatcher"
	"github.com/rewindlabs/rewind/internal/domain"
)

// AccountResolver turns a riot id into a puuid
type AccountResolver interface {
	AccountByRiotID(ctx context.Context, name, tagline string) (string, error)
}

// AggregateReader loads stored aggregates and recomputes them on demand
type AggregateReader interface {
	GetAggregate(ctx context.Context, puuid string) (*domain.PlayerAggregate, error)
	Aggregate(ctx context.Context, puuid string, force bool) error
}

// PlayerStatus is a player row joined with live counter progress and, once
// ready, the aggregate
type PlayerStatus struct {
	Player    *domain.Player          `json:"player"`
	Processed int                     `json:"processed"`
	Total     int                     `json:"total"`
	Aggregate *domain.PlayerAggregate `json:"aggregate,omitempty"`
}

// Ready reports whether the aggregate is available
func (s *PlayerStatus) Ready() bool {
	return s.Aggregate != nil
}

// PlayerService is the application service behind the HTTP API
type PlayerService struct {
	resolver   AccountResolver
	dispatcher *dispatcher.Dispatcher
	players    domain.PlayerRepository
	counters   counter.Store
	aggregates AggregateReader
}

// NewPlayerService creates a PlayerService
func NewPlayerService(
	resolver AccountResolver,
	d *dispatcher.Dispatcher,
	players domain.PlayerRepository,
	counters counter.Store,
	aggregates AggregateReader,
) *PlayerService {
	return &PlayerService{
		resolver:   resolver,
		dispatcher: d,
		players:    players,
		counters:   counters,
		aggregates: aggregates,
	}
}

// Refresh resolves the riot id and dispatches the player's full match
// history onto the queue
func (s *PlayerService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.Player, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	puuid, err := s.resolver.AccountByRiotID(ctx, req.SummonerName, req.SummonerTagline)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s#%s: %w", req.SummonerName, req.SummonerTagline, err)
	}

	log.Printf("[Service] refreshing %s#%s (%s)", req.SummonerName, req.SummonerTagline, puuid)

	return s.dispatcher.Dispatch(ctx, req, puuid)
}

// Status returns the player row with live progress from the counter store.
// The aggregate is attached once it is done; until then callers should poll.
func (s *PlayerService) Status(ctx context.Context, puuid string) (*PlayerStatus, error) {
	player, err := s.players.GetByPUUID(ctx, puuid)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", puuid, err)
	}
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}

	processed, total, err := s.counters.Get(ctx, puuid)
	if err != nil || total == 0 {
		// The counter may have expired after completion; fall back to
		// the projected row values.
		processed, total = player.ProcessedCount, player.TotalMatches
	}

	status := &PlayerStatus{
		Player:    player,
		Processed: processed,
		Total:     total,
	}

	agg, err := s.aggregates.GetAggregate(ctx, puuid)
	if err == nil {
		status.Aggregate = agg
	} else if !errors.Is(err, domain.ErrAggregateNotReady) {
		log.Printf("[Service] failed to load aggregate for %s: %v", puuid, err)
	}

	return status, nil
}

// Reaggregate recomputes the aggregate from the stored records
func (s *PlayerService) Reaggregate(ctx context.Context, puuid string) error {
	player, err := s.players.GetByPUUID(ctx, puuid)
	if err != nil {
		return fmt.Errorf("failed to load player %s: %w", puuid, err)
	}
	if player == nil {
		return domain.ErrPlayerNotFound
	}

	return s.aggregates.Aggregate(ctx, puuid, true)
}

// List returns players filtered by status
func (s *PlayerService) List(ctx context.Context, params domain.PlayerListParams) ([]*domain.Player, int, error) {
	return s.players.List(ctx, params)
}

// Stats returns pipeline-wide counts by status
func (s *PlayerService) Stats(ctx context.Context) (*domain.PlayerStats, error) {
	return s.players.GetStats(ctx)
}
