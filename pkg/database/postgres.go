package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/tuition-match-api/pkg/config"
)

//go:embed schema.sql
var schema string

// NewPostgres opens the pool and waits for the server to answer, retrying
// once a second until ctx ends so the API can start alongside its database.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=tuition-match-api",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres %s:%d not reachable: %w", cfg.Host, cfg.Port, err)
		case <-ticker.C:
		}
	}
}

// EnsureSchema applies the idempotent table definitions.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// TxRunner runs fn against a transaction-scoped executor.
type TxRunner func(ctx context.Context, fn func(exec sqlx.ExtContext) error) error

// Runner adapts WithTx to a TxRunner bound to db.
func Runner(db *sqlx.DB) TxRunner {
	return func(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
		return WithTx(ctx, db, func(tx *sqlx.Tx) error { return fn(tx) })
	}
}
