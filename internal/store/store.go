// Package store is the durable activities ledger. One append-only table;
// records are never updated or deleted after insert.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS activities (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			message_ref TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			points INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create activities table: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS activities_message_ref_idx ON activities (message_ref)`)
	if err != nil {
		return fmt.Errorf("create message_ref index: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}
