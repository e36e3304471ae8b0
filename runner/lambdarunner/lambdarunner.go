// Package lambdarunner runs the processor as an AWS Lambda function fed by
// an SQS queue. Failed records are reported as partial batch failures so SQS
// redelivers only those.
package lambdarunner

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/rewindlabs/rewind/internal/aggregator"
	"github.com/rewindlabs/rewind/internal/cache"
	"github.com/rewindlabs/rewind/internal/domain"
	"github.com/rewindlabs/rewind/internal/processor"
	"github.com/rewindlabs/rewind/runner"
	"github.com/rewindlabs/rewind/tlmt"
)

// LambdaRunner adapts SQS event batches to the processor
type LambdaRunner struct {
	cfg  *runner.Config
	db   *sql.DB
	proc *processor.Processor
}

// New creates a LambdaRunner
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

	return &LambdaRunner{cfg: cfg, db: db, proc: proc}, nil
}

// Run hands control to the Lambda runtime
func (l *LambdaRunner) Run(ctx context.Context) error {
	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("lambdarunner.Run", nil))

	lambda.StartWithOptions(l.handleBatch, lambda.WithContext(ctx))

	return nil
}

// Close cleans up resources
func (l *LambdaRunner) Close(_ context.Context) error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// handleBatch processes one SQS batch. Malformed records are dropped rather
// than returned as failures, since redelivery cannot fix them.
func (l *LambdaRunner) handleBatch(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, record := range event.Records {
		var msg domain.MatchMessage
		if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
			log.Printf("[Lambda] dropping malformed record %s: %v", record.MessageId, err)
			continue
		}

		if err := l.proc.Process(ctx, &msg); err != nil {
			log.Printf("[Lambda] failed to process match %s: %v", msg.MatchID, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	if n := len(resp.BatchItemFailures); n > 0 {
		log.Printf("[Lambda] %d/%d records failed, reporting for redelivery", n, len(event.Records))
	}

	return resp, nil
}
