package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MustConnect opens the shared pool or panics. The escrow store holds single
// rows per submission and every operation is one short transaction, so a small
// pool is enough.
func MustConnect(dsn string) *pgxpool.Pool {
	if dsn == "" {
		panic("database dsn is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		panic(err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		panic(err)
	}
	return pool
}
