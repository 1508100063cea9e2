package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mootlab/moot/internal/adapters/redis"
	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	ports.RunSessionStoreContract(t, store)
}

func TestRedisStore_ConcurrentSaveConflict(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	s := domain.NewSession("s1", "trial-1", "g1")
	require.NoError(t, store.Save(ctx, s))

	// Two replicas load the same version; the second commit must lose.
	a, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	b, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	a.CurrentNodeID = "opening"
	require.NoError(t, store.Save(ctx, a))

	b.CurrentNodeID = "verdict"
	err = store.Save(ctx, b)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	final, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "opening", final.CurrentNodeID)
}

func TestRedisStore_CustomPrefix(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, redis.WithPrefix("court:"))

	require.NoError(t, store.Save(ctx, domain.NewSession("s1", "", "g1")))
	assert.True(t, mr.Exists("court:s1"), "session should live under the custom prefix")
}
