package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hanabi-drive/hanabi"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB is a SQLite handle bound to one credential table layout.
type DB struct {
	db     *sql.DB
	tables hanabi.Tables
}

// Connect opens dsn with the modernc driver. A plain file path gets its parent
// directory created. The table names are trusted.
func Connect(ctx context.Context, dsn string, tables hanabi.Tables) (*DB, error) {
	if dir := dataDir(dsn); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("connect sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// One connection: writers serialize and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	return &DB{db: db, tables: tables}, nil
}

func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

func (d *DB) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate fails unless the users table has exactly the credential columns.
func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

func (d *DB) Store() hanabi.CredentialStore {
	return &repo{db: d.db, tableName: d.tables.Users}
}

func (d *DB) Close() error { return d.db.Close() }

// dataDir returns the directory holding a plain file DSN, or "" for in-memory and
// URI DSNs.
func dataDir(dsn string) string {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return ""
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return ""
	}
	return dir
}
