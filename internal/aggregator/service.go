package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rewindlabs/rewind/internal/blob"
	"github.com/rewindlabs/rewind/internal/dedupe"
	"github.com/rewindlabs/rewind/internal/domain"
)

const claimTTL = 2 * time.Minute

// Service runs the fold against stored match records and persists the
// result. Aggregate is safe to call more than once per player: the fold is
// deterministic and the write is a plain overwrite.
type Service struct {
	players domain.PlayerRepository
	blobs   blob.Store
	deduper dedupe.Deduper
	now     func() time.Time
}

// NewService creates an aggregation service
func NewService(players domain.PlayerRepository, blobs blob.Store, deduper dedupe.Deduper) *Service {
	return &Service{
		players: players,
		blobs:   blobs,
		deduper: deduper,
		now:     time.Now,
	}
}

// Aggregate folds all of a player's records and stores the aggregate.
// The claim only suppresses concurrent duplicate folds; when force is set
// (manual re-aggregation) the claim is taken over.
func (s *Service) Aggregate(ctx context.Context, puuid string, force bool) error {
	if force {
		if err := s.deduper.ReleaseAggregation(ctx, puuid); err != nil {
			return err
		}
	}

	claimed, err := s.deduper.ClaimAggregation(ctx, puuid, claimTTL)
	if err != nil {
		return err
	}
	if !claimed {
		log.Printf("[Aggregator] aggregation for %s already claimed, skipping", puuid)
		return nil
	}

	if err := s.aggregate(ctx, puuid); err != nil {
		// Free the claim so a retry or redelivered gate-crosser can run
		if relErr := s.deduper.ReleaseAggregation(ctx, puuid); relErr != nil {
			log.Printf("[Aggregator] failed to release claim for %s: %v", puuid, relErr)
		}
		return err
	}

	return nil
}

func (s *Service) aggregate(ctx context.Context, puuid string) error {
	player, err := s.players.GetByPUUID(ctx, puuid)
	if err != nil {
		return fmt.Errorf("failed to load player %s: %w", puuid, err)
	}
	if player == nil {
		return fmt.Errorf("aggregate for %s: %w", puuid, domain.ErrPlayerNotFound)
	}

	records := make([]*domain.PlayerMatchStats, 0, len(player.MatchIDs))
	for _, matchID := range player.MatchIDs {
		data, found, err := s.blobs.Get(ctx, blob.PlayerMatchKey(puuid, matchID))
		if err != nil {
			return fmt.Errorf("failed to load record %s for %s: %w", matchID, puuid, err)
		}
		if !found {
			// Match counted but produced no record, e.g. the player was
			// missing from the participant list. Fold what exists.
			log.Printf("[Aggregator] no record for match %s of %s, skipping", matchID, puuid)
			continue
		}

		var record domain.PlayerMatchStats
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to decode record %s for %s: %w", matchID, puuid, err)
		}
		records = append(records, &record)
	}

	agg := Fold(puuid, records, s.now())

	if err := s.putAggregate(ctx, agg); err != nil {
		return err
	}

	if err := s.players.MarkComplete(ctx, puuid); err != nil {
		return fmt.Errorf("failed to mark %s complete: %w", puuid, err)
	}

	log.Printf("[Aggregator] aggregated %d records for %s (%d wins, %d losses)",
		agg.MatchCount, puuid, agg.Wins, agg.Losses)

	return nil
}

// CompleteEmpty writes a done aggregate with zero sums for a player that
// has no matches to process
func (s *Service) CompleteEmpty(ctx context.Context, puuid string) error {
	if err := s.putAggregate(ctx, domain.EmptyAggregate(puuid, s.now())); err != nil {
		return err
	}
	if err := s.players.MarkComplete(ctx, puuid); err != nil {
		return fmt.Errorf("failed to mark %s complete: %w", puuid, err)
	}
	return nil
}

// GetAggregate loads the stored aggregate for a player. Returns
// domain.ErrAggregateNotReady while processing is still in flight.
func (s *Service) GetAggregate(ctx context.Context, puuid string) (*domain.PlayerAggregate, error) {
	data, found, err := s.blobs.Get(ctx, blob.AggregateKey(puuid))
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregate for %s: %w", puuid, err)
	}
	if !found {
		return nil, domain.ErrAggregateNotReady
	}

	var agg domain.PlayerAggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate for %s: %w", puuid, err)
	}

	if agg.Status != domain.AggregateStatusDone {
		return nil, domain.ErrAggregateNotReady
	}

	return &agg, nil
}

func (s *Service) putAggregate(ctx context.Context, agg *domain.PlayerAggregate) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to encode aggregate for %s: %w", agg.PUUID, err)
	}
	if err := s.blobs.Put(ctx, blob.AggregateKey(agg.PUUID), data); err != nil {
		return fmt.Errorf("failed to store aggregate for %s: %w", agg.PUUID, err)
	}
	return nil
}

// IsNotReady reports whether err means the aggregate is still pending
func IsNotReady(err error) bool {
	return errors.Is(err, domain.ErrAggregateNotReady)
}
