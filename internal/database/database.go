package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pragyanetra/console/internal/config"
	"github.com/pragyanetra/console/internal/logging"
)

// DB wraps the pgx connection pool behind the document store.
type DB struct {
	Pool *pgxpool.Pool

	log zerolog.Logger
}

// New opens a connection pool and verifies it with a ping before returning.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	log := logging.NewLogger("database")
	log.Info().
		Int32("max_conns", cfg.MaxConns).
		Msg("Database connection established")

	return &DB{Pool: pool, log: log}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	db.Pool.Close()
	db.log.Info().Msg("Database connection closed")
}

// Health reports whether the database answers a ping.
func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
