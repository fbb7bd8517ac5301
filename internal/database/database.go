// Package database provides PostgreSQL connection management using pgx.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/config"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/logger"
)

// Schema holds the registry tables. seq preserves registration order.
const Schema = `
CREATE TABLE IF NOT EXISTS vehicles (
	id          TEXT PRIMARY KEY,
	seq         INTEGER NOT NULL,
	category    TEXT NOT NULL,
	make        TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL DEFAULT '',
	year        INTEGER NOT NULL DEFAULT 0,
	daily_rate  DOUBLE PRECISION NOT NULL CHECK (daily_rate >= 0),
	attributes  JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
	id              TEXT PRIMARY KEY,
	seq             INTEGER NOT NULL,
	name            TEXT NOT NULL DEFAULT '',
	license_number  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS rentals (
	id            TEXT PRIMARY KEY,
	seq           INTEGER NOT NULL,
	customer_id   TEXT NOT NULL REFERENCES customers (id),
	vehicle_id    TEXT NOT NULL REFERENCES vehicles (id),
	start_date    DATE NOT NULL,
	end_date      DATE NOT NULL CHECK (end_date >= start_date),
	status        TEXT NOT NULL,
	total_price   DOUBLE PRECISION NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS registry_state (
	id               INTEGER PRIMARY KEY CHECK (id = 1),
	next_rental_seq  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS registry_snapshots (
	id         UUID PRIMARY KEY,
	taken_at   TIMESTAMPTZ NOT NULL,
	vehicles   INTEGER NOT NULL,
	customers  INTEGER NOT NULL,
	rentals    INTEGER NOT NULL
);
`

// NewPool creates and validates a pgxpool connection pool.
// It retries cfg.ConnectAttempts times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*pgxpool.Pool, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	var pool *pgxpool.Pool
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		log.Warnf("db connect attempt %d/%d failed: %v", attempt, attempts, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// EnsureSchema creates the registry tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
