// Package queue is the Redis-based fallback transport using Asynq, for
// deployments without a RabbitMQ broker
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rewindlabs/rewind/internal/domain"
)

const (
	// Task types
	TypeMatchProcess = "match:process"

	QueueDefault = "default"
)

// Config holds Redis queue configuration
type Config struct {
	RedisURL  string
	RedisAddr string
	Password  string
	DB        int
}

// Queue is a Redis-based match queue
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redisOpt  asynq.RedisConnOpt
}

// New creates a new Queue
func New(cfg *Config) (*Queue, error) {
	var redisOpt asynq.RedisConnOpt

	if cfg.RedisURL != "" {
		opt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		redisOpt = opt
	} else if cfg.RedisAddr != "" {
		redisOpt = asynq.RedisClientOpt{
			Addr:         cfg.RedisAddr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}
	} else {
		return nil, fmt.Errorf("redis URL or address is required")
	}

	client := asynq.NewClient(redisOpt)
	inspector := asynq.NewInspector(redisOpt)

	return &Queue{
		client:    client,
		inspector: inspector,
		redisOpt:  redisOpt,
	}, nil
}

// Publish enqueues one match message
func (q *Queue) Publish(ctx context.Context, msg *domain.MatchMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeMatchProcess, data)

	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(10 * time.Minute),
		asynq.Retention(24 * time.Hour),
	}

	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Printf("queue: enqueued match %s for %s (task_id: %s)", msg.MatchID, msg.PUUID, info.ID)
	return nil
}

// GetRedisOpt returns the Redis client options for creating a server
func (q *Queue) GetRedisOpt() asynq.RedisConnOpt {
	return q.redisOpt
}

// GetQueueStats returns queue statistics
func (q *Queue) GetQueueStats(ctx context.Context) (*asynq.QueueInfo, error) {
	info, err := q.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue info: %w", err)
	}
	return info, nil
}

// Close closes the queue client
func (q *Queue) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}

// ParsePayload parses a match message from task data
func ParsePayload(data []byte) (*domain.MatchMessage, error) {
	var msg domain.MatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &msg, nil
}
