// Package postgres implements the storage interfaces on a Postgres pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvloznov/family-budget/internal/storage"
)

// Storage is the pgx-backed implementation of storage.Store.
type Storage struct {
	db *pgxpool.Pool
}

// NewStorage wraps an existing pool.
func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// Connect opens a pool and verifies the connection.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Close releases the pool.
func (s *Storage) Close() {
	s.db.Close()
}

var _ storage.Store = (*Storage)(nil)
