package postgres_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/database/postgres"
)

var (
	shared struct {
		once sync.Once
		pool *pgxpool.Pool
		dsn  string
		err  error
	}
)

// sharedPool starts one postgres container for the package and returns a pool on it
// with its DSN. Tests isolate themselves by table name.
func sharedPool(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}

	shared.once.Do(func() {
		ctx := context.Background()
		c, err := pgcontainer.Run(ctx, "postgres:18-alpine",
			pgcontainer.WithDatabase("hanabi"),
			pgcontainer.WithUsername("hanabi"),
			pgcontainer.WithPassword("hanabi"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			shared.err = err
			return
		}
		if shared.dsn, shared.err = c.ConnectionString(ctx, "sslmode=disable"); shared.err != nil {
			_ = testcontainers.TerminateContainer(c)
			return
		}
		shared.pool, shared.err = pgxpool.New(ctx, shared.dsn)
	})
	require.NoError(t, shared.err, "postgres container")

	return shared.pool, shared.dsn
}

// tableName returns prefix plus a random suffix valid as a hanabi table name.
func tableName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// dropOnCleanup removes table when the test ends.
func dropOnCleanup(t *testing.T, pool *pgxpool.Pool, table string) {
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize()+" CASCADE")
	})
}

// newStore opens a migrated credential table owned by the test.
func newStore(t *testing.T) hanabi.CredentialStore {
	t.Helper()
	pool, dsn := sharedPool(t)
	ctx := context.Background()

	table := tableName("users")
	db, err := postgres.Connect(ctx, dsn, hanabi.Tables{Users: table})
	require.NoError(t, err, "connect")
	t.Cleanup(func() { _ = db.Close() })
	dropOnCleanup(t, pool, table)
	require.NoError(t, db.Migrate(ctx), "migrate")

	return db.Store()
}
