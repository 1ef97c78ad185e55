// Package store persists the single most recent snapshot so a restart can
// serve last-known-good data before the first fetch completes. It keeps no
// history: each save overwrites the previous row.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunchwatch/lunchwatch/internal/refresh"
)

// ErrNotFound indicates that no snapshot has been persisted yet.
var ErrNotFound = errors.New("no cached snapshot")

// PgRepository implements the warm-start cache with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL warm-start repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Save overwrites the cached snapshot.
func (r *PgRepository) Save(ctx context.Context, snap *refresh.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO snapshot_cache (id, fetched_at, data)
		 VALUES (1, $1, $2::jsonb)
		 ON CONFLICT (id)
		 DO UPDATE SET fetched_at = $1, data = $2::jsonb`,
		snap.FetchedAt, data)
	if err != nil {
		return fmt.Errorf("saving cached snapshot: %w", err)
	}
	return nil
}

// Load returns the cached snapshot, or ErrNotFound if none was ever saved.
func (r *PgRepository) Load(ctx context.Context) (*refresh.Snapshot, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM snapshot_cache WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading cached snapshot: %w", err)
	}

	var snap refresh.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling cached snapshot: %w", err)
	}
	return &snap, nil
}
