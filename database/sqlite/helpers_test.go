package sqlite_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/database/sqlite"
)

// tableName returns prefix plus a random suffix valid as a hanabi table name.
func tableName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// newStore opens a migrated credential table in a database file owned by the test.
func newStore(t *testing.T) hanabi.CredentialStore {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Connect(ctx, filepath.Join(t.TempDir(), "main.db3"), hanabi.Tables{Users: tableName("users")})
	require.NoError(t, err, "connect")
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx), "migrate")

	return db.Store()
}
