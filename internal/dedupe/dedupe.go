// Package dedupe guards the two places where at-least-once delivery could
// corrupt state: the progress counter (a redelivered match must not count
// twice) and the aggregation trigger (two gate-crossers must not both fold).
package dedupe

import (
	"context"
	"time"
)

// Deduper issues first-time claims. Both claim operations are set-if-absent:
// the first caller wins, everyone after gets false.
type Deduper interface {
	// MarkProcessed records that matchID was counted for puuid within the
	// given dispatch run. Returns true only for the first call; marks from
	// other dispatch runs never collide.
	MarkProcessed(ctx context.Context, puuid, dispatchID, matchID string) (bool, error)

	// UnmarkProcessed drops a mark so a redelivery can count the match
	// after all. Used when the counter increment behind the mark failed.
	UnmarkProcessed(ctx context.Context, puuid, dispatchID, matchID string) error

	// ClaimAggregation takes the short-lived aggregation claim for puuid.
	// The claim is an optimization to avoid duplicate folds; the fold
	// itself is idempotent, so a lost claim is harmless.
	ClaimAggregation(ctx context.Context, puuid string, ttl time.Duration) (bool, error)

	// ReleaseAggregation drops the claim so a re-aggregation can run
	ReleaseAggregation(ctx context.Context, puuid string) error
}
