package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/mootlab/moot/internal/adapters/redis"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", 5*time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, unlock)
	assert.True(t, mr.Exists("test:lock:s1"), "Lock key should be set in Redis")

	err = unlock(ctx)
	assert.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:s1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_UnlockExpired(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", 5*time.Second)
	assert.NoError(t, err)

	// Simulate TTL expiry behind the holder's back.
	mr.Del("test:lock:s1")

	err = unlock(ctx)
	assert.ErrorIs(t, err, redis.ErrLockRelease)
	assert.NotErrorIs(t, err, redis.ErrLockAcquire)
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := locker1.Lock(ctx, "s1", 5*time.Second)
	assert.NoError(t, err)

	// The second holder polls until its context expires.
	ctxTimeout, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	_, err = locker2.Lock(ctxTimeout, "s1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	assert.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, "s1", 5*time.Second)
	assert.NoError(t, err)
	defer unlock2(ctx)
}
