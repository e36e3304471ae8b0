package runner

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/redis/go-redis/v9"

	"github.com/rewindlabs/rewind/internal/blob"
	"github.com/rewindlabs/rewind/internal/counter"
	"github.com/rewindlabs/rewind/internal/dedupe"
	"github.com/rewindlabs/rewind/internal/domain"
	"github.com/rewindlabs/rewind/internal/repository/memory"
	"github.com/rewindlabs/rewind/internal/repository/postgres"
	"github.com/rewindlabs/rewind/internal/repository/sqlite"
	"github.com/rewindlabs/rewind/internal/riot"
	"github.com/rewindlabs/rewind/internal/secrets"
)

// OpenPlayerRepository opens the player store implied by the DSN: postgres
// URLs go to PostgreSQL, anything else is treated as a SQLite path, and an
// empty DSN keeps everything in memory.
func OpenPlayerRepository(ctx context.Context, dsn string) (domain.PlayerRepository, *sql.DB, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		db, err := postgres.OpenConnection(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Println("using PostgreSQL database")
		return postgres.NewPlayerRepository(db), db, nil

	case dsn != "":
		db, err := sqlite.OpenConnection(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		log.Printf("using SQLite database: %s", dsn)
		return sqlite.NewPlayerRepository(db), db, nil

	default:
		log.Println("no dsn configured, player state is in-memory")
		return memory.NewPlayerRepo(), nil, nil
	}
}

// NewRedisClient creates a Redis client from the config, or nil when Redis
// is not configured
func NewRedisClient(cfg *Config) (*redis.Client, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		return redis.NewClient(opt), nil
	}

	if cfg.RedisAddr != "" {
		return redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		}), nil
	}

	return nil, nil
}

// NewProgressStores returns the counter and deduper backends: Redis when
// available, in-process otherwise
func NewProgressStores(client *redis.Client) (counter.Store, dedupe.Deduper) {
	if client != nil {
		return counter.NewRedisStore(client), dedupe.NewRedisDeduper(client)
	}

	log.Println("no redis configured, progress counters are in-memory")
	return counter.NewMemoryStore(), dedupe.NewMemoryDeduper()
}

// NewBlobStore returns the S3-backed blob store, or an in-memory one when
// no bucket is configured
func NewBlobStore(ctx context.Context, cfg *Config) (blob.Store, error) {
	if cfg.S3Bucket == "" {
		log.Println("no s3 bucket configured, blobs are in-memory")
		return blob.NewMemoryStore(), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AwsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return blob.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket), nil
}

// NewRiotClient builds the Riot API client, loading the key from Secrets
// Manager when it was not passed directly
func NewRiotClient(ctx context.Context, cfg *Config) (*riot.Client, error) {
	apiKey := cfg.RiotAPIKey

	if apiKey == "" && cfg.RiotSecretARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AwsRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}

		provider := secrets.NewProvider(secretsmanager.NewFromConfig(awsCfg))
		apiKey, err = provider.APIKey(ctx, cfg.RiotSecretARN)
		if err != nil {
			return nil, err
		}
	}

	if apiKey == "" {
		return nil, fmt.Errorf("riot api key is required (-riot-api-key or -riot-secret-arn)")
	}

	return riot.NewClient(apiKey, cfg.RiotRegion,
		riot.WithRetry(cfg.FetchRetries, cfg.FetchBaseDelay),
	), nil
}
