// Package repository is the PostgreSQL persistence layer: shops, orders,
// and the background job queue.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the pgx query surface shared by pools and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository bundles all PostgreSQL-backed storage.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository over a pgx connection pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Pool exposes the underlying pool for health checks and shutdown.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
