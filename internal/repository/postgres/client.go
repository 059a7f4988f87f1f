package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"go.uber.org/zap"

	"github.com/trevyn/lumabot/internal/config"
)

// Client wraps the bun database handle over a pooled Postgres connection.
//
// The pool is bounded so that independent invocations of the tool can run
// concurrently; a single run never issues overlapping queries.
type Client struct {
	db  *bun.DB
	log *zap.Logger
}

// NewClient opens a Postgres connection pool and verifies it.
func NewClient(ctx context.Context, cfg *config.Postgres, log *zap.Logger) (*Client, error) {
	log.Info("Connecting to Postgres",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database))

	sqldb, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(2)

	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	log.Info("Postgres connection established")

	return &Client{db: db, log: log}, nil
}

// DB returns the underlying bun handle.
func (c *Client) DB() *bun.DB {
	return c.db
}

// SQL returns the raw database/sql handle beneath bun. Hand-written
// statements with $n placeholders must run through it; bun's own exec path
// rewrites only ?-style placeholders and drops positional args.
func (c *Client) SQL() *sql.DB {
	return c.db.DB
}

// Close closes the connection pool.
func (c *Client) Close() error {
	if err := c.db.Close(); err != nil {
		c.log.Error("Error closing Postgres connection", zap.Error(err))
		return err
	}
	return nil
}
