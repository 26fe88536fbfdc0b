package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestDatabase_MigrateValidate(t *testing.T) {
	ctx := context.Background()
	tables := hanabi.Tables{Users: "users"}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Ping(ctx))

	err = db.Validate(ctx)
	assert.ErrorContains(t, err, "does not exist")

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate is idempotent")
	assert.NoError(t, db.Validate(ctx))
}

func TestConnect_CreatesDataDir(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "data", "main.db3")

	db, err := sqlite.Connect(ctx, dsn, hanabi.DefaultTables())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Migrate(ctx))
	assert.FileExists(t, dsn)
}

func TestValidateSchema_WrongShape(t *testing.T) {
	tests := []struct {
		name    string
		ddl     string
		message string
	}{
		{
			name:    "missing password",
			ddl:     `CREATE TABLE %s (name TEXT)`,
			message: "missing columns: password",
		},
		{
			name:    "extra column",
			ddl:     `CREATE TABLE %s (name TEXT, password TEXT, email TEXT)`,
			message: "unexpected columns: email",
		},
		{
			name:    "wrong type",
			ddl:     `CREATE TABLE %s (name TEXT, password BLOB)`,
			message: "password: expected text, got blob",
		},
		{
			name:    "not null",
			ddl:     `CREATE TABLE %s (name TEXT NOT NULL, password TEXT)`,
			message: "name: expected nullable=true, got nullable=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "main.db3"))
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			_, err = db.ExecContext(ctx, fmt.Sprintf(tt.ddl, "users"))
			require.NoError(t, err)

			err = sqlite.ValidateSchema(ctx, db, hanabi.Tables{Users: "users"})
			assert.ErrorContains(t, err, tt.message)
		})
	}
}

func TestDropTables(t *testing.T) {
	ctx := context.Background()
	tables := hanabi.Tables{Users: "users"}

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "main.db3"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, sqlite.Migrate(ctx, db, tables))
	require.NoError(t, sqlite.ValidateSchema(ctx, db, tables))
	require.NoError(t, sqlite.DropTables(ctx, db, tables))

	assert.Error(t, sqlite.ValidateSchema(ctx, db, tables))
}
