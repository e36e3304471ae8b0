package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const processedTTL = 7 * 24 * time.Hour

// RedisDeduper implements Deduper with SETNX
type RedisDeduper struct {
	client *redis.Client
}

// NewRedisDeduper creates a Redis-backed deduper
func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client}
}

func processedMarkKey(puuid, dispatchID, matchID string) string {
	return "rewind:processed:" + puuid + ":" + dispatchID + ":" + matchID
}

func aggregationClaimKey(puuid string) string {
	return "rewind:aggclaim:" + puuid
}

func (d *RedisDeduper) MarkProcessed(ctx context.Context, puuid, dispatchID, matchID string) (bool, error) {
	first, err := d.client.SetNX(ctx, processedMarkKey(puuid, dispatchID, matchID), 1, processedTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s processed for %s: %w", matchID, puuid, err)
	}
	return first, nil
}

func (d *RedisDeduper) UnmarkProcessed(ctx context.Context, puuid, dispatchID, matchID string) error {
	if err := d.client.Del(ctx, processedMarkKey(puuid, dispatchID, matchID)).Err(); err != nil {
		return fmt.Errorf("failed to unmark %s for %s: %w", matchID, puuid, err)
	}
	return nil
}

func (d *RedisDeduper) ClaimAggregation(ctx context.Context, puuid string, ttl time.Duration) (bool, error) {
	claimed, err := d.client.SetNX(ctx, aggregationClaimKey(puuid), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim aggregation for %s: %w", puuid, err)
	}
	return claimed, nil
}

func (d *RedisDeduper) ReleaseAggregation(ctx context.Context, puuid string) error {
	if err := d.client.Del(ctx, aggregationClaimKey(puuid)).Err(); err != nil {
		return fmt.Errorf("failed to release aggregation claim for %s: %w", puuid, err)
	}
	return nil
}
