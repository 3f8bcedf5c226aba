package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)
	defer c.Close()

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))

	require.NoError(t, c.Set(ctx, "gone", []byte("x"), -time.Second))
	_, err = c.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrCacheMiss)

	c.removeExpired()
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "a"))
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestSnapshotEncoding(t *testing.T) {
	s := Snapshot{Time: 1700000000123, Body: []byte(`{"time":1}`)}
	got, err := decodeSnapshot(encodeSnapshot(s))
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = decodeSnapshot([]byte{1, 2})
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestSnapshotCache_ReusesFreshEnough(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCache(time.Hour)
	defer store.Close()
	sc := NewSnapshotCache(store, time.Minute)

	var calls atomic.Int64
	compute := func(ctx context.Context) (Snapshot, error) {
		n := calls.Add(1)
		return Snapshot{Time: 1000 * n, Body: []byte{byte(n)}}, nil
	}

	s, err := sc.Get(ctx, "r", 0, compute)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), s.Time)

	s, err = sc.Get(ctx, "r", 900, compute)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), s.Time)
	assert.EqualValues(t, 1, calls.Load())

	// bound newer than the cached snapshot forces a recompute
	s, err = sc.Get(ctx, "r", 1500, compute)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), s.Time)
	assert.EqualValues(t, 2, calls.Load())

	require.NoError(t, sc.Invalidate(ctx, "r"))
	_, ok := sc.Lookup(ctx, "r")
	assert.False(t, ok)
}

func TestSnapshotCache_OwnRecomputeSatisfiesBound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCache(time.Hour)
	defer store.Close()
	sc := NewSnapshotCache(store, time.Minute)

	require.NoError(t, store.Set(ctx, snapshotKey("r"), encodeSnapshot(Snapshot{Time: 1000, Body: []byte("old")}), time.Minute))

	// the clock has not moved past the bound, but this caller's own
	// recomputation started after the call and is accepted
	var calls atomic.Int64
	s, err := sc.Get(ctx, "r", 1001, func(ctx context.Context) (Snapshot, error) {
		calls.Add(1)
		return Snapshot{Time: 1000, Body: []byte("new")}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", string(s.Body))
	assert.EqualValues(t, 1, calls.Load())
}

func TestSnapshotCache_CoalescesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCache(time.Hour)
	defer store.Close()
	sc := NewSnapshotCache(store, time.Minute)

	release := make(chan struct{})
	var calls atomic.Int64
	compute := func(ctx context.Context) (Snapshot, error) {
		calls.Add(1)
		<-release
		return Snapshot{Time: 10, Body: []byte("x")}, nil
	}

	const readers = 8
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := sc.Get(ctx, "r", 5, compute)
			assert.NoError(t, err)
			assert.Equal(t, int64(10), s.Time)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int64(readers))
	assert.GreaterOrEqual(t, calls.Load(), int64(1))
	s, ok := sc.Lookup(ctx, "r")
	require.True(t, ok)
	assert.Equal(t, int64(10), s.Time)
}

func TestSnapshotCache_ComputeError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCache(time.Hour)
	defer store.Close()
	sc := NewSnapshotCache(store, time.Minute)

	boom := errors.New("boom")
	_, err := sc.Get(ctx, "r", 0, func(ctx context.Context) (Snapshot, error) {
		return Snapshot{}, boom
	})
	assert.ErrorIs(t, err, boom)
	_, ok := sc.Lookup(ctx, "r")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	c, err := NewRedisCache(RedisConfig{Addr: addr, KeyPrefix: "isuclicker:test:"})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Clear(ctx))

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
