// Package store is the relational persistence layer: connection
// management, schema, and one prepared-statement builder file per entity
// family. The mapper layer consumes Store through internal/mapper.RowStore
// adapters; it never builds SQL itself.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/tangle-rdb/ingester/internal/errs"
)

// DB wraps a *sql.DB with the exponential-capped reconnect policy §5
// requires. Every exported query/exec method retries through it.
type DB struct {
	sql *sql.DB
}

// Config controls how DB connects and retries.
type Config struct {
	Driver          string // "mysql" or "sqlite3"
	DSN             string
	MaxRetryElapsed time.Duration // 0 disables the elapsed-time cap
	MaxRetryInterval time.Duration
}

// open dials the store, retrying with an exponential-capped backoff until
// the first successful ping. Returns a *StoreError on exhaustion.
func open(ctx context.Context, cfg Config) (*DB, error) {
	var sqlDB *sql.DB

	bo := backoff.NewExponentialBackOff()
	if cfg.MaxRetryInterval > 0 {
		bo.MaxInterval = cfg.MaxRetryInterval
	}
	bo.MaxElapsedTime = cfg.MaxRetryElapsed

	operation := func() error {
		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return err
		}
		sqlDB = db
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, errs.Store("open", err)
	}
	return &DB{sql: sqlDB}, nil
}

// Migrate creates every table in schema if it does not already exist.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.sql.ExecContext(ctx, schema); err != nil {
		return errs.Store("migrate", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() error { return d.sql.Close() }

// Underlying returns the *sql.DB, for callers (tests, metrics) that need
// direct access.
func (d *DB) Underlying() *sql.DB { return d.sql }

// retryPolicy builds a fresh exponential-capped backoff for a single
// operation's retries, reusing the same MaxInterval discipline as open.
func retryPolicy(maxInterval, maxElapsed time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	if maxInterval > 0 {
		bo.MaxInterval = maxInterval
	}
	bo.MaxElapsedTime = maxElapsed
	return bo
}

// withRetry runs op, retrying on any error through an exponential backoff
// with intervals capped at 5s that gives up after 30s. errs.ErrRecordNotFound is
// never retried: it is a legitimate empty result, not a transient fault.
func (d *DB) withRetry(ctx context.Context, op func() error) error {
	bo := retryPolicy(5*time.Second, 30*time.Second)
	return backoff.Retry(func() error {
		err := op()
		if err == errs.ErrRecordNotFound {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}
