// Package database opens the stores behind the document service: the shop
// database (PostgreSQL), the order record cache (Redis) and the audit index
// (Elasticsearch).
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"shop-documents/internal/common/config"
)

const pingTimeout = 5 * time.Second

// PostgresClient is the read-only connection pool to the shop database.
// Every query runs under the configured query timeout.
type PostgresClient struct {
	DB           *sql.DB
	queryTimeout time.Duration
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	maxOpen := cfg.MaxConnections
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = maxOpen / 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgresFromDB(db, config.GetDuration(cfg.QueryTimeout)), nil
}

// NewPostgresFromDB wraps an already opened pool, e.g. one backed by sqlmock.
func NewPostgresFromDB(db *sql.DB, queryTimeout time.Duration) *PostgresClient {
	return &PostgresClient{DB: db, queryTimeout: queryTimeout}
}

// Ping is used both at startup and as the /ready check.
func (c *PostgresClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres unreachable: %w", err)
	}
	return nil
}

// WithQueryTimeout bounds ctx by the query timeout. A zero timeout only
// adds cancellation.
func (c *PostgresClient) WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.queryTimeout)
}

func (c *PostgresClient) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, query, args...)
}

// Stats summarises the pool for the shutdown log line.
func (c *PostgresClient) Stats() map[string]interface{} {
	s := c.DB.Stats()
	return map[string]interface{}{
		"open":          s.OpenConnections,
		"inUse":         s.InUse,
		"idle":          s.Idle,
		"waitCount":     s.WaitCount,
		"waitMs":        s.WaitDuration.Milliseconds(),
		"maxIdleClosed": s.MaxIdleClosed,
	}
}

func (c *PostgresClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
