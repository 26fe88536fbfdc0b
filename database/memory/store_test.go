package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/database/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_InsertFind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.NewStore(nil)

	require.NoError(t, store.Insert(ctx, hanabi.Credential{Name: "alice", Password: "wonder"}))

	cred, err := store.Find(ctx, "alice", "wonder")
	require.NoError(t, err)
	assert.Equal(t, "alice", cred.Name)

	_, err = store.Find(ctx, "alice", "Wonder")
	assert.ErrorIs(t, err, hanabi.ErrNotFound)
}

func TestStore_Seeded(t *testing.T) {
	t.Parallel()
	seed := []hanabi.Credential{{Name: "alice", Password: "wonder"}, {Name: "bob", Password: "builder"}}
	store := memory.NewStore(seed)
	seed[0].Name = "mallory"

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := memory.NewStore(nil)

	assert.ErrorIs(t, store.Insert(ctx, hanabi.Credential{Name: "a", Password: "b"}), context.Canceled)
	_, err := store.Find(ctx, "a", "b")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Insert(ctx, hanabi.Credential{Name: "dup", Password: "pw"})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Find(ctx, "dup", "pw")
		}()
	}
	wg.Wait()

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 32)
}
