package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanabi-drive/hanabi"
)

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables hanabi.Tables) error {
	if err := createUsersTable(ctx, pool, tables.Users); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Users, err)
	}
	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables hanabi.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tables.Users}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Users, err)
	}
	return nil
}

func createUsersTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT,
			password TEXT
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (name, password);
	`,
		pgx.Identifier{tableName}.Sanitize(),
		pgx.Identifier{fmt.Sprintf("idx_%s_name_password", tableName)}.Sanitize(),
		pgx.Identifier{tableName}.Sanitize(),
	)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}
