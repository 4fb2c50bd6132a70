package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simplepos/simplepos/internal/shared"
)

// Postgres keeps records in a single table keyed by (collection, key)
// with a JSONB payload.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs the Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the records table when it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		key        TEXT NOT NULL,
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, key)
	)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM records WHERE collection=$1 AND key=$2`, collection, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("store: get %s/%s: %w", collection, key, err)
	}
	return data, nil
}

func (s *Postgres) GetAll(ctx context.Context, collection string) (map[string][]byte, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, data FROM records WHERE collection=$1`, collection)
	if err != nil {
		return nil, fmt.Errorf("store: get all %s: %w", collection, err)
	}
	defer rows.Close()

	records := make(map[string][]byte)
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", collection, err)
		}
		records[key] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: get all %s: %w", collection, err)
	}
	return records, nil
}

func (s *Postgres) Put(ctx context.Context, collection, key string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO records (collection, key, data, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (collection, key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		collection, key, data)
	if err != nil {
		return fmt.Errorf("store: put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, collection, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE collection=$1 AND key=$2`, collection, key)
	if err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Postgres) Clear(ctx context.Context, collection string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM records WHERE collection=$1`, collection)
	if err != nil {
		return fmt.Errorf("store: clear %s: %w", collection, err)
	}
	return nil
}
