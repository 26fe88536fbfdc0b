package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hanabi-drive/hanabi"
)

// quoteIdentifier quotes a SQLite identifier, doubling any embedded quote.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Migrate creates the credential table. The table has no key or uniqueness
// constraint: registration inserts blindly and duplicate names are allowed.
func Migrate(ctx context.Context, db *sql.DB, tables hanabi.Tables) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name TEXT, password TEXT)`, quoteIdentifier(tables.Users))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Users, err)
	}
	return nil
}

// DropTables removes the credential table.
func DropTables(ctx context.Context, db *sql.DB, tables hanabi.Tables) error {
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdentifier(tables.Users)); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Users, err)
	}
	return nil
}
