package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduper is an in-process Deduper for local runs and tests.
// TTLs are ignored; entries live until the process exits.
type MemoryDeduper struct {
	mu        sync.Mutex
	processed map[string]bool
	claims    map[string]bool
}

// NewMemoryDeduper creates an empty in-memory deduper
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{
		processed: make(map[string]bool),
		claims:    make(map[string]bool),
	}
}

func (d *MemoryDeduper) MarkProcessed(ctx context.Context, puuid, dispatchID, matchID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := puuid + ":" + dispatchID + ":" + matchID
	if d.processed[key] {
		return false, nil
	}
	d.processed[key] = true
	return true, nil
}

func (d *MemoryDeduper) UnmarkProcessed(ctx context.Context, puuid, dispatchID, matchID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.processed, puuid+":"+dispatchID+":"+matchID)
	return nil
}

func (d *MemoryDeduper) ClaimAggregation(ctx context.Context, puuid string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.claims[puuid] {
		return false, nil
	}
	d.claims[puuid] = true
	return true, nil
}

func (d *MemoryDeduper) ReleaseAggregation(ctx context.Context, puuid string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.claims, puuid)
	return nil
}
