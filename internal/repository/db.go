package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions controls how NewDB waits for the database to come up.
type ConnectOptions struct {
	// Retries is the number of extra ping attempts after the first one fails.
	Retries int
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff time.Duration
}

// NewDB creates a new MySQL database connection pool with the given DSN and
// waits until the server answers a ping.
func NewDB(ctx context.Context, dsn string, opts ConnectOptions, log zerolog.Logger) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := pingWithRetry(ctx, db, opts, log); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func pingWithRetry(ctx context.Context, db pinger, opts ConnectOptions, log zerolog.Logger) error {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	backoff := retry.WithMaxRetries(uint64(opts.Retries), retry.NewExponential(opts.Backoff))

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := db.PingContext(ctx); err != nil {
			log.Warn().Err(err).Int("attempt", attempts).Msg("database ping failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
	}

	return nil
}
