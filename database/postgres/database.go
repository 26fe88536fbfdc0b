package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanabi-drive/hanabi"
)

// applicationName tags hanabi sessions in pg_stat_activity.
const applicationName = "hanabi"

// DB is a pgx pool bound to one credential table layout.
type DB struct {
	pool   *pgxpool.Pool
	tables hanabi.Tables
}

// Connect builds a pool from dsn. No connection is made until first use, so a
// caller wanting an early failure should Ping. The table names are trusted.
func Connect(ctx context.Context, dsn string, tables hanabi.Tables) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: parse dsn: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &DB{pool: pool, tables: tables}, nil
}

func (d *DB) Ping(ctx context.Context) error { return d.pool.Ping(ctx) }

func (d *DB) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.pool, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate fails unless the users table has exactly the credential columns.
func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

func (d *DB) Store() hanabi.CredentialStore {
	return &repo{pool: d.pool, tableName: d.tables.Users}
}

// Close waits for acquired connections to be released.
func (d *DB) Close() error {
	d.pool.Close()
	return nil
}
