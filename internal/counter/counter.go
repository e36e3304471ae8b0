// Package counter tracks per-player processing progress. The counter is the
// single source of truth for completion: the processor that observes
// processed == total owns triggering aggregation.
package counter

import "context"

// Store is a durable progress counter keyed by puuid. AddProcessed must be
// atomic so exactly one concurrent caller observes the boundary crossing.
type Store interface {
	// Init sets total and resets processed for a fresh dispatch
	Init(ctx context.Context, puuid string, total int) error

	// AddProcessed increments processed by delta and returns the new
	// processed value together with total
	AddProcessed(ctx context.Context, puuid string, delta int) (processed, total int, err error)

	// Get reads the current counters without modifying them
	Get(ctx context.Context, puuid string) (processed, total int, err error)
}
