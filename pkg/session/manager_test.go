package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mootlab/moot/internal/adapters/memory"
	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

func TestManager_LoadOrCreate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewSessionStore())

	s, err := m.LoadOrCreate(ctx, "s1", "trial-1", "g1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionNotStarted, s.Status)
	assert.Equal(t, "g1", s.GraphID)
	assert.Equal(t, int64(1), s.Version, "creation persists immediately")

	// A second call returns the existing record, not a fresh one.
	again, err := m.LoadOrCreate(ctx, "s1", "trial-other", "g-other")
	require.NoError(t, err)
	assert.Equal(t, "g1", again.GraphID)
}

func TestManager_WithLock_Serializes(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewSessionStore())

	var inside, max int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(ctx, "s1", func(context.Context) error {
				mu.Lock()
				inside++
				if inside > max {
					max = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max, "critical section must never overlap for one session")
}

func TestManager_LockEntriesGarbageCollected(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewSessionStore())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(ctx, "s1", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks, "released lock entries must not accumulate")
}

// fakeLocker records lock/unlock calls.
type fakeLocker struct {
	mu      sync.Mutex
	locks   int
	unlocks int
	lastTTL time.Duration
	lastKey string
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locks++
	f.lastKey = key
	f.lastTTL = ttl
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocks++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	locker := &fakeLocker{}
	m := NewManager(memory.NewSessionStore(), WithLocker(locker), WithLockTTL(10*time.Second))

	err := m.WithLock(ctx, "s1", func(context.Context) error { return nil })
	require.NoError(t, err)

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Equal(t, 1, locker.locks)
	assert.Equal(t, 1, locker.unlocks)
	assert.Equal(t, "s1", locker.lastKey)
	assert.Equal(t, 10*time.Second, locker.lastTTL)
}
