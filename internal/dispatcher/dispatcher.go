// Package dispatcher fans a player's match history out onto the queue.
// Ordering matters: the manifest row and the counter are durable before the
// first message is published, so no worker can ever observe a missing total.
package dispatcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rewindlabs/rewind/internal/counter"
	"github.com/rewindlabs/rewind/internal/domain"
	"github.com/rewindlabs/rewind/internal/riot"
)

// MatchLister pages through a player's match history
type MatchLister interface {
	MatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error)
}

// Publisher enqueues match messages for the worker pool
type Publisher interface {
	Publish(ctx context.Context, msg *domain.MatchMessage) error
}

// Completer finishes a player that has nothing to process
type Completer interface {
	CompleteEmpty(ctx context.Context, puuid string) error
}

// Dispatcher resolves a player's full match list and enqueues one message
// per match
type Dispatcher struct {
	lister    MatchLister
	players   domain.PlayerRepository
	counters  counter.Store
	publisher Publisher
	completer Completer
	pageSize  int
	maxPages  int
}

// New creates a Dispatcher
func New(
	lister MatchLister,
	players domain.PlayerRepository,
	counters counter.Store,
	publisher Publisher,
	completer Completer,
) *Dispatcher {
	return &Dispatcher{
		lister:    lister,
		players:   players,
		counters:  counters,
		publisher: publisher,
		completer: completer,
		pageSize:  riot.DefaultPageSize,
		maxPages:  100,
	}
}

// Dispatch lists all matches for the player, persists the manifest,
// initializes the counter, and fans the work out. Returns the created
// player row.
func (d *Dispatcher) Dispatch(ctx context.Context, req *domain.RefreshRequest, puuid string) (*domain.Player, error) {
	matchIDs, err := d.listAll(ctx, puuid)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for %s: %w", puuid, err)
	}

	player := &domain.Player{
		PUUID:           puuid,
		SummonerName:    req.SummonerName,
		SummonerTagline: req.SummonerTagline,
		Region:          req.Region,
		Status:          domain.PlayerStatusQueued,
		MatchIDs:        matchIDs,
		TotalMatches:    len(matchIDs),
		QueuedAt:        time.Now(),
	}

	// Manifest first, counter second, enqueue last. A worker that picks up
	// the very first message already sees a consistent total.
	if err := d.players.Upsert(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to persist player %s: %w", puuid, err)
	}

	if len(matchIDs) == 0 {
		if err := d.completer.CompleteEmpty(ctx, puuid); err != nil {
			return nil, fmt.Errorf("failed to complete empty player %s: %w", puuid, err)
		}
		player.Status = domain.PlayerStatusComplete
		log.Printf("[Dispatcher] %s has no ranked matches, completed immediately", puuid)
		return player, nil
	}

	if err := d.counters.Init(ctx, puuid, len(matchIDs)); err != nil {
		return nil, fmt.Errorf("failed to init counter for %s: %w", puuid, err)
	}

	// Fresh id per dispatch run: it scopes the workers' dedup marks, so a
	// re-dispatch counts every match again instead of seeing stale marks.
	dispatchID := uuid.NewString()

	enqueued := 0
	for _, matchID := range matchIDs {
		msg := &domain.MatchMessage{PUUID: puuid, MatchID: matchID, DispatchID: dispatchID, Region: req.Region}
		if err := d.publisher.Publish(ctx, msg); err != nil {
			// The queue will not deliver this match; the manifest keeps it
			// visible so a re-dispatch can pick it up.
			log.Printf("[Dispatcher] failed to enqueue %s for %s: %v", matchID, puuid, err)
			continue
		}
		enqueued++
	}

	if err := d.players.UpdateStatus(ctx, puuid, domain.PlayerStatusProcessing); err != nil {
		log.Printf("[Dispatcher] failed to set %s processing: %v", puuid, err)
	} else {
		player.Status = domain.PlayerStatusProcessing
	}

	log.Printf("[Dispatcher] dispatched %d/%d matches for %s", enqueued, len(matchIDs), puuid)

	return player, nil
}

// listAll pages through the match history until a short page
func (d *Dispatcher) listAll(ctx context.Context, puuid string) ([]string, error) {
	var all []string
	for page := 0; page < d.maxPages; page++ {
		ids, err := d.lister.MatchIDs(ctx, puuid, page*d.pageSize, d.pageSize)
		if err != nil {
			return nil, err
		}

		all = append(all, ids...)
		if len(ids) < d.pageSize {
			break
		}
	}
	return all, nil
}
