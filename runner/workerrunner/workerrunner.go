// Package workerrunner consumes the match queue and runs the processor.
// RabbitMQ is preferred when configured; otherwise the Redis queue is used.
package workerrunner

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/rewindlabs/rewind/internal/aggregator"
	"github.com/rewindlabs/rewind/internal/cache"
	"github.com/rewindlabs/rewind/internal/mq"
	"github.com/rewindlabs/rewind/internal/processor"
	"github.com/rewindlabs/rewind/internal/queue"
	"github.com/rewindlabs/rewind/runner"
	"github.com/rewindlabs/rewind/tlmt"
)

// WorkerRunner processes match messages from the queue
type WorkerRunner struct {
	cfg  *runner.Config
	db   *sql.DB
	proc *processor.Processor

	consumer mq.Consumer
	worker   *queue.Worker
}

// New creates a WorkerRunner
func New(cfg *runner.Config) (runner.Runner, error) {
	ctx := context.Background()

	players, db, err := runner.OpenPlayerRepository(ctx, cfg.Dsn)
	if err != nil {
		return nil, err
	}

	redisClient, err := runner.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	counters, deduper := runner.NewProgressStores(redisClient)

	blobs, err := runner.NewBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	readThrough, err := cache.NewReadThrough(blobs, cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	riotClient, err := runner.NewRiotClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	aggSvc := aggregator.NewService(players, blobs, deduper)
	proc := processor.New(riotClient, readThrough, blobs, counters, deduper, players, aggSvc)

	w := &WorkerRunner{cfg: cfg, db: db, proc: proc}

	switch {
	case cfg.RabbitMQURL != "":
		consumer, err := mq.NewConsumer(mq.ConsumerConfig{
			URL:        cfg.RabbitMQURL,
			Prefetch:   cfg.Concurrency,
			ConsumerID: cfg.WorkerID,
		})
		if err != nil {
			return nil, err
		}
		w.consumer = consumer
		log.Printf("worker %s consuming from RabbitMQ", cfg.WorkerID)

	case redisClient != nil:
		worker, err := queue.NewWorker(&queue.WorkerConfig{
			RedisURL:    cfg.RedisURL,
			RedisAddr:   cfg.RedisAddr,
			Password:    cfg.RedisPass,
			DB:          cfg.RedisDB,
			Concurrency: cfg.Concurrency,
		}, proc.Process)
		if err != nil {
			return nil, err
		}
		w.worker = worker
		log.Printf("worker %s consuming from the Redis queue", cfg.WorkerID)

	default:
		return nil, fmt.Errorf("worker mode requires -rabbitmq-url or a redis configuration")
	}

	return w, nil
}

// Run consumes the queue until the context ends
func (w *WorkerRunner) Run(ctx context.Context) error {
	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("workerrunner.Run", map[string]any{
		"worker_id": w.cfg.WorkerID,
	}))

	if w.consumer != nil {
		return w.consumer.Consume(ctx, w.proc.Process)
	}
	return w.worker.Run(ctx)
}

// Close cleans up resources
func (w *WorkerRunner) Close(_ context.Context) error {
	if w.consumer != nil {
		if err := w.consumer.Close(); err != nil {
			log.Printf("error closing consumer: %v", err)
		}
	}
	if w.worker != nil {
		w.worker.Shutdown()
	}
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}
