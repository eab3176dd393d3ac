package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/price-relay/internal/config"
)

// Schema creates the price table if it does not exist. Hypertable conversion
// is left to deployment so the schema also works on plain PostgreSQL.
const Schema = `
CREATE TABLE IF NOT EXISTS token_prices (
	received_at BIGINT           NOT NULL,
	session_id  UUID             NOT NULL,
	conn_id     TEXT             NOT NULL,
	token       TEXT             NOT NULL,
	address     TEXT             NOT NULL,
	symbol      TEXT             NOT NULL,
	price       DOUBLE PRECISION NOT NULL,
	decimals    BIGINT           NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	source_ts   BIGINT           NOT NULL,
	PRIMARY KEY (address, source_ts, received_at)
)`

// Connect creates the TimescaleDB connection pool and verifies it.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
