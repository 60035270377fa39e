package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SnapshotRepo stores the latest valuation snapshot per ticker and appends
// each save to the run history.
type SnapshotRepo struct{}

// NewSnapshotRepo creates a new repository instance.
func NewSnapshotRepo() *SnapshotRepo {
	return &SnapshotRepo{}
}

// RunRecord is one row of the valuation run history.
type RunRecord struct {
	ID        uuid.UUID `json:"id"`
	Ticker    string    `json:"ticker"`
	GoldPrice float64   `json:"gold_price"`
	CreatedAt time.Time `json:"created_at"`
}

// Save upserts the snapshot for a ticker and records the run. snapshot may
// be any JSON-marshalable valuation result.
func (r *SnapshotRepo) Save(ctx context.Context, ticker string, goldPrice float64, snapshot interface{}) (uuid.UUID, error) {
	pool := GetPool()
	if pool == nil {
		return uuid.Nil, fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	runID := uuid.New()
	now := time.Now()

	query := `
		INSERT INTO valuation_snapshots (ticker, run_id, gold_price, snapshot_json, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			gold_price = EXCLUDED.gold_price,
			snapshot_json = EXCLUDED.snapshot_json,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := pool.Exec(ctx, query, ticker, runID, goldPrice, jsonData, now); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	history := `
		INSERT INTO valuation_runs (id, ticker, gold_price, created_at)
		VALUES ($1, $2, $3, $4);
	`
	if _, err := pool.Exec(ctx, history, runID, ticker, goldPrice, now); err != nil {
		return uuid.Nil, fmt.Errorf("failed to record run: %w", err)
	}
	return runID, nil
}

// Load retrieves the latest snapshot for a ticker into out.
func (r *SnapshotRepo) Load(ctx context.Context, ticker string, out interface{}) (time.Time, error) {
	pool := GetPool()
	if pool == nil {
		return time.Time{}, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT snapshot_json, updated_at FROM valuation_snapshots WHERE ticker = $1`

	var jsonData []byte
	var updatedAt time.Time
	err := pool.QueryRow(ctx, query, ticker).Scan(&jsonData, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return time.Time{}, fmt.Errorf("no snapshot found for ticker %s", ticker)
		}
		return time.Time{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := json.Unmarshal(jsonData, out); err != nil {
		return time.Time{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return updatedAt, nil
}

// History returns the most recent runs for a ticker, newest first.
func (r *SnapshotRepo) History(ctx context.Context, ticker string, limit int) ([]RunRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, ticker, gold_price, created_at
		FROM valuation_runs
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Ticker, &rec.GoldPrice, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
