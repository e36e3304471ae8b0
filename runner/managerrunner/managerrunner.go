// Package managerrunner runs the API server and the dispatcher. Without a
// broker it also embeds a worker pool so a single binary covers local use.
package managerrunner

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewindlabs/rewind/internal/aggregator"
	"github.com/rewindlabs/rewind/internal/api"
	"github.com/rewindlabs/rewind/internal/api/handlers"
	"github.com/rewindlabs/rewind/internal/cache"
	"github.com/rewindlabs/rewind/internal/dispatcher"
	"github.com/rewindlabs/rewind/internal/domain"
	"github.com/rewindlabs/rewind/internal/mq"
	"github.com/rewindlabs/rewind/internal/processor"
	"github.com/rewindlabs/rewind/internal/queue"
	"github.com/rewindlabs/rewind/internal/service"
	"github.com/rewindlabs/rewind/runner"
	"github.com/rewindlabs/rewind/tlmt"
)

// ManagerRunner runs the API, the dispatcher, and optionally an embedded
// worker pool
type ManagerRunner struct {
	cfg       *runner.Config
	db        *sql.DB
	srv       *http.Server
	publisher dispatcher.Publisher
	closer    func() error

	// Embedded worker pool, only set when no broker is configured
	local *localQueue
	proc  *processor.Processor
}

// localQueue is the in-process transport used when neither RabbitMQ nor
// Redis is configured
type localQueue struct {
	ch chan *domain.MatchMessage
}

func (q *localQueue) Publish(ctx context.Context, msg *domain.MatchMessage) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// New creates a ManagerRunner
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

	riotClient, err := runner.NewRiotClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	aggSvc := aggregator.NewService(players, blobs, deduper)

	m := &ManagerRunner{cfg: cfg, db: db}

	switch {
	case cfg.RabbitMQURL != "":
		pub, err := mq.NewPublisher(mq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return nil, err
		}
		m.publisher = pub
		m.closer = pub.Close
		log.Println("publishing matches to RabbitMQ")

	case redisClient != nil:
		q, err := queue.New(&queue.Config{
			RedisURL:  cfg.RedisURL,
			RedisAddr: cfg.RedisAddr,
			Password:  cfg.RedisPass,
			DB:        cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		m.publisher = q
		m.closer = q.Close
		log.Println("publishing matches to the Redis queue")

	default:
		// Single-binary mode: dispatch straight into an embedded pool
		readThrough, err := cache.NewReadThrough(blobs, cfg.CacheSize)
		if err != nil {
			return nil, err
		}

		m.local = &localQueue{ch: make(chan *domain.MatchMessage, 1024)}
		m.publisher = m.local
		m.proc = processor.New(riotClient, readThrough, blobs, counters, deduper, players, aggSvc)
		log.Printf("no broker configured, processing matches in-process (%d workers)", cfg.Concurrency)
	}

	d := dispatcher.New(riotClient, players, counters, m.publisher, aggSvc)
	playerSvc := service.NewPlayerService(riotClient, d, players, counters, aggSvc)

	router := api.NewRouter(
		handlers.NewPlayerHandler(playerSvc),
		handlers.NewStatsHandler(playerSvc),
	)

	m.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.Setup(cfg.APIToken),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return m, nil
}

// Run starts the manager
func (m *ManagerRunner) Run(ctx context.Context) error {
	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("managerrunner.Run", nil))

	egroup, ctx := errgroup.WithContext(ctx)

	egroup.Go(func() error {
		return m.startServer(ctx)
	})

	if m.local != nil {
		for i := 0; i < m.cfg.Concurrency; i++ {
			egroup.Go(func() error {
				return m.runLocalWorker(ctx)
			})
		}
	}

	return egroup.Wait()
}

// Close cleans up resources
func (m *ManagerRunner) Close(_ context.Context) error {
	if m.closer != nil {
		if err := m.closer(); err != nil {
			log.Printf("error closing publisher: %v", err)
		}
	}
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *ManagerRunner) startServer(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("error shutting down server: %v", err)
		}
	}()

	log.Printf("manager API server starting on http://localhost%s", m.cfg.Addr)
	log.Printf("API endpoints available at /api/v1/")

	err := m.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// runLocalWorker drains the in-process queue. There is no redelivery here,
// so a failed match is logged and dropped; a re-dispatch picks it up.
func (m *ManagerRunner) runLocalWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.local.ch:
			if err := m.proc.Process(ctx, msg); err != nil {
				log.Printf("[Manager] failed to process match %s: %v", msg.MatchID, err)
			}
		}
	}
}
