package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTable = `
CREATE TABLE IF NOT EXISTS kv_records (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	version    BIGINT NOT NULL DEFAULT 1,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PG implements KV on a single Postgres table.
type PG struct {
	pool *pgxpool.Pool
}

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

// Init creates the backing table. Idempotent.
func (s *PG) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create kv_records: %w", err)
	}
	return nil
}

func (s *PG) Get(ctx context.Context, key string) ([]byte, int64, error) {
	var value []byte
	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT value, version FROM kv_records WHERE key = $1`, key,
	).Scan(&value, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", key, err)
	}
	return value, version, nil
}

// PutVersioned returns only after the row is committed, so a subsequent
// Get from any connection observes the write.
func (s *PG) PutVersioned(ctx context.Context, key string, value []byte, expect int64) error {
	if expect == 0 {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO kv_records (key, value) VALUES ($1, $2::jsonb)
			 ON CONFLICT (key) DO NOTHING`, key, value)
		if err != nil {
			return fmt.Errorf("insert %s: %w", key, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionMismatch
		}
		return nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE kv_records
		 SET value = $2::jsonb, version = version + 1, updated_at = now()
		 WHERE key = $1 AND version = $3`, key, value, expect)
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionMismatch
	}
	return nil
}
