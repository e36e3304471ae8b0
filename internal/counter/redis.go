package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const counterTTL = 7 * 24 * time.Hour

// RedisStore is the production counter backend
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed counter store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func processedKey(puuid string) string {
	return "rewind:counter:" + puuid + ":processed"
}

func totalKey(puuid string) string {
	return "rewind:counter:" + puuid + ":total"
}

// Init resets processed to zero and stores total. Called by the dispatcher
// before any message is enqueued, so total is immutable while workers run.
func (s *RedisStore) Init(ctx context.Context, puuid string, total int) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, processedKey(puuid), 0, counterTTL)
	pipe.Set(ctx, totalKey(puuid), total, counterTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to init counter for %s: %w", puuid, err)
	}
	return nil
}

// AddProcessed atomically increments processed and reads total in one
// transaction. total was written before any enqueue, so reading it after
// the increment is race-free.
func (s *RedisStore) AddProcessed(ctx context.Context, puuid string, delta int) (int, int, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.IncrBy(ctx, processedKey(puuid), int64(delta))
	get := pipe.Get(ctx, totalKey(puuid))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("failed to increment counter for %s: %w", puuid, err)
	}

	total, err := get.Int()
	if err == redis.Nil {
		return 0, 0, fmt.Errorf("counter for %s was never initialized", puuid)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read counter total for %s: %w", puuid, err)
	}

	return int(incr.Val()), total, nil
}

// Get reads the current counters
func (s *RedisStore) Get(ctx context.Context, puuid string) (int, int, error) {
	pipe := s.client.TxPipeline()
	proc := pipe.Get(ctx, processedKey(puuid))
	tot := pipe.Get(ctx, totalKey(puuid))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("failed to read counter for %s: %w", puuid, err)
	}

	processed, err := proc.Int()
	if err == redis.Nil {
		processed = 0
	} else if err != nil {
		return 0, 0, fmt.Errorf("failed to read processed count for %s: %w", puuid, err)
	}

	total, err := tot.Int()
	if err == redis.Nil {
		total = 0
	} else if err != nil {
		return 0, 0, fmt.Errorf("failed to read total count for %s: %w", puuid, err)
	}

	return processed, total, nil
}
