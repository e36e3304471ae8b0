// Package sqlite implements the player repository on SQLite, used for
// local single-node runs
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rewindlabs/rewind/internal/migration"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// OpenConnection opens a SQLite database and applies migrations
func OpenConnection(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite handles one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := migration.Apply(ctx, db, migrations, "migrations"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
