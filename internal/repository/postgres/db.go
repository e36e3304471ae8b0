// Package postgres implements the player repository on PostgreSQL
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rewindlabs/rewind/internal/migration"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// OpenConnection opens a PostgreSQL connection and applies migrations
func OpenConnection(ctx context.Context, dsn string) (*sql.DB, error) {
	// Try to parse and re-encode the DSN to handle special characters in password
	parsedDSN, err := sanitizeDSN(dsn)
	if err != nil {
		parsedDSN = dsn
	}

	db, err := sql.Open("pgx", parsedDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := migration.Apply(ctx, db, migrations, "migrations"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// sanitizeDSN attempts to parse and properly encode the DSN
func sanitizeDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		// Assume it's already in key-value format, return as-is
		return dsn, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}

	if u.User != nil {
		password, hasPassword := u.User.Password()
		if hasPassword {
			u.User = url.UserPassword(u.User.Username(), password)
		}
	}

	return u.String(), nil
}
