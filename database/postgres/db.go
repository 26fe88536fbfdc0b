package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/database/internal"
)

const columnsQuery = `
	SELECT column_name, data_type, is_nullable = 'YES'
	FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = $1
	ORDER BY ordinal_position
`

// liveColumns reads the table definition from information_schema. A missing table
// yields no rows.
func liveColumns(ctx context.Context, pool *pgxpool.Pool, table string) ([]internal.Column, error) {
	rows, err := pool.Query(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (internal.Column, error) {
		var c internal.Column
		err := row.Scan(&c.Name, &c.Type, &c.Nullable)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan columns: %w", err)
	}
	return cols, nil
}

// ValidateSchema checks that the credential table exists with exactly the
// name and password text columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables hanabi.Tables) error {
	if !hanabi.IsValidTableName(tables.Users) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Users)
	}

	cols, err := liveColumns(ctx, pool, tables.Users)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Users, err)
	}
	if err := internal.CompareColumns(tables.Users, internal.UsersColumns, cols); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}
