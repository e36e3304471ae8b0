// Package processor handles one match message end to end: fetch or reuse
// the payload, extract the player's record, advance the progress counter,
// and trigger aggregation when the last match lands.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/rewindlabs/rewind/internal/analyzer"
	"github.com/rewindlabs/rewind/internal/blob"
	"github.com/rewindlabs/rewind/internal/cache"
	"github.com/rewindlabs/rewind/internal/counter"
	"github.com/rewindlabs/rewind/internal/dedupe"
	"github.com/rewindlabs/rewind/internal/domain"
)

const (
	aggAttempts   = 3
	aggRetryDelay = 10 * time.Second
)

// Fetcher loads a raw match payload from the upstream API
type Fetcher interface {
	Match(ctx context.Context, matchID string) ([]byte, error)
}

// Aggregator is triggered once per player when the counter hits total
type Aggregator interface {
	Aggregate(ctx context.Context, puuid string, force bool) error
}

// Processor processes match messages. Safe for concurrent use; a pool of
// workers shares one instance.
type Processor struct {
	fetcher  Fetcher
	cache    *cache.ReadThrough
	blobs    blob.Store
	counters counter.Store
	deduper  dedupe.Deduper
	players  domain.PlayerRepository
	agg      Aggregator

	jitterMin time.Duration
	jitterMax time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a Processor
func New(
	fetcher Fetcher,
	readThrough *cache.ReadThrough,
	blobs blob.Store,
	counters counter.Store,
	deduper dedupe.Deduper,
	players domain.PlayerRepository,
	agg Aggregator,
) *Processor {
	return &Processor{
		fetcher:   fetcher,
		cache:     readThrough,
		blobs:     blobs,
		counters:  counters,
		deduper:   deduper,
		players:   players,
		agg:       agg,
		jitterMin: 100 * time.Millisecond,
		jitterMax: 500 * time.Millisecond,
		sleep:     sleepContext,
	}
}

// DisableJitter turns off the pre-fetch delay, used in tests
func (p *Processor) DisableJitter() {
	p.jitterMin, p.jitterMax = 0, 0
}

// Process handles one message. A returned error means the message must be
// redelivered; the counter was not advanced in that case.
func (p *Processor) Process(ctx context.Context, msg *domain.MatchMessage) error {
	if msg.PUUID == "" || msg.MatchID == "" {
		return fmt.Errorf("invalid message: puuid and match_id are required")
	}

	if err := p.jitter(ctx); err != nil {
		return err
	}

	payload, err := p.cache.Get(ctx, blob.MatchKey(msg.MatchID), func(ctx context.Context) ([]byte, error) {
		return p.fetcher.Match(ctx, msg.MatchID)
	})
	if err != nil {
		return fmt.Errorf("failed to obtain match %s: %w", msg.MatchID, err)
	}

	p.indexMatch(ctx, msg.MatchID, payload)

	if err := p.extractRecord(ctx, msg, payload); err != nil {
		return err
	}

	return p.advance(ctx, msg)
}

// extractRecord writes the player's record blob. A player missing from the
// participant list is a data integrity problem in the payload: it is logged
// and the match still counts as processed, otherwise the player would never
// reach completion.
func (p *Processor) extractRecord(ctx context.Context, msg *domain.MatchMessage, payload []byte) error {
	record, err := analyzer.Extract(msg.PUUID, payload)
	if err != nil {
		if errors.Is(err, domain.ErrParticipantNotFound) {
			log.Printf("[Processor] integrity: %s not in match %s, counting as processed", msg.PUUID, msg.MatchID)
			return nil
		}
		return fmt.Errorf("failed to extract record from %s: %w", msg.MatchID, err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", msg.MatchID, err)
	}

	if err := p.blobs.Put(ctx, blob.PlayerMatchKey(msg.PUUID, msg.MatchID), data); err != nil {
		return fmt.Errorf("failed to store record for %s: %w", msg.MatchID, err)
	}

	return nil
}

// advance marks the match processed and increments the counter exactly once
// per (player, dispatch, match). The caller that lands the increment on
// total owns triggering aggregation.
func (p *Processor) advance(ctx context.Context, msg *domain.MatchMessage) error {
	first, err := p.deduper.MarkProcessed(ctx, msg.PUUID, msg.DispatchID, msg.MatchID)
	if err != nil {
		return fmt.Errorf("failed to mark %s processed: %w", msg.MatchID, err)
	}
	if !first {
		log.Printf("[Processor] duplicate delivery of %s for %s, skipping count", msg.MatchID, msg.PUUID)
		return nil
	}

	processed, total, err := p.counters.AddProcessed(ctx, msg.PUUID, 1)
	if err != nil {
		// The mark landed but the count did not. Drop the mark so the
		// redelivery is not mistaken for a duplicate.
		if unmarkErr := p.deduper.UnmarkProcessed(ctx, msg.PUUID, msg.DispatchID, msg.MatchID); unmarkErr != nil {
			log.Printf("[Processor] failed to unmark %s for %s: %v", msg.MatchID, msg.PUUID, unmarkErr)
		}
		return fmt.Errorf("failed to advance counter for %s: %w", msg.PUUID, err)
	}

	if err := p.players.SetProcessedCount(ctx, msg.PUUID, processed); err != nil {
		// Projection only; the counter already advanced
		log.Printf("[Processor] failed to project processed count for %s: %v", msg.PUUID, err)
	}

	log.Printf("[Processor] %s: %d/%d matches processed", msg.PUUID, processed, total)

	if processed >= total && total > 0 {
		// The message is already done from the queue's point of view.
		// Aggregation continues even if the consumer is shutting down.
		go p.runAggregation(context.WithoutCancel(ctx), msg.PUUID)
	}

	return nil
}

// runAggregation fires the aggregator with bounded retries. Only one caller
// ever crosses the gate per dispatch, so a transient failure here has no
// other delivery to fall back on.
func (p *Processor) runAggregation(ctx context.Context, puuid string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	for attempt := 0; attempt < aggAttempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, aggRetryDelay); err != nil {
				return
			}
		}

		err := p.agg.Aggregate(ctx, puuid, false)
		if err == nil {
			return
		}
		log.Printf("[Processor] aggregation for %s failed (attempt %d/%d): %v", puuid, attempt+1, aggAttempts, err)
	}

	log.Printf("[Processor] giving up on aggregation for %s, re-aggregate manually", puuid)
}

// indexMatch records the participant list of the match. Failures are
// logged only; the index is an auxiliary lookup, not pipeline state.
func (p *Processor) indexMatch(ctx context.Context, matchID string, payload []byte) {
	key := blob.MatchIndexKey(matchID)
	if _, found, err := p.blobs.Get(ctx, key); err != nil || found {
		return
	}

	entry, err := analyzer.ExtractIndex(payload)
	if err != nil {
		log.Printf("[Processor] failed to index match %s: %v", matchID, err)
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[Processor] failed to encode index for %s: %v", matchID, err)
		return
	}

	if err := p.blobs.Put(ctx, key, data); err != nil {
		log.Printf("[Processor] failed to store index for %s: %v", matchID, err)
	}
}

// jitter spreads concurrent workers out so a burst of deliveries does not
// hit the upstream rate limit all at once
func (p *Processor) jitter(ctx context.Context) error {
	if p.jitterMax <= 0 {
		return nil
	}
	d := p.jitterMin + time.Duration(rand.Int63n(int64(p.jitterMax-p.jitterMin)+1))
	return p.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
