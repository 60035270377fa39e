// Package store persists valuation snapshots to Postgres. The schema is a
// single JSONB blob per ticker plus an append-only run history:
//
//	CREATE TABLE IF NOT EXISTS valuation_snapshots (
//	  ticker TEXT PRIMARY KEY,
//	  run_id UUID,
//	  gold_price DOUBLE PRECISION,
//	  snapshot_json JSONB,
//	  updated_at TIMESTAMPTZ
//	);
//	CREATE TABLE IF NOT EXISTS valuation_runs (
//	  id UUID PRIMARY KEY,
//	  ticker TEXT,
//	  gold_price DOUBLE PRECISION,
//	  created_at TIMESTAMPTZ
//	);
package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the connection pool. An empty databaseURL falls back to
// the DATABASE_URL environment variable.
func InitDB(ctx context.Context, databaseURL string) error {
	var err error
	once.Do(func() {
		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
		if databaseURL == "" {
			err = fmt.Errorf("no database URL configured")
			return
		}

		config, parseErr := pgxpool.ParseConfig(databaseURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
	})
	return err
}

// GetPool returns the database connection pool.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
