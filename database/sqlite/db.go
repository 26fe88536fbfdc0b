package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/database/internal"
)

// liveColumns reads the table definition with PRAGMA table_info. A missing table
// yields no rows.
func liveColumns(ctx context.Context, db *sql.DB, table string) ([]internal.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []internal.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, internal.Column{Name: name, Type: dataType, Nullable: notNull == 0})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return cols, nil
}

// ValidateSchema checks that the credential table exists with exactly the
// name and password text columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables hanabi.Tables) error {
	if !hanabi.IsValidTableName(tables.Users) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Users)
	}

	cols, err := liveColumns(ctx, db, tables.Users)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Users, err)
	}
	if err := internal.CompareColumns(tables.Users, internal.UsersColumns, cols); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}
