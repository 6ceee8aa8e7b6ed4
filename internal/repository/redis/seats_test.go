package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/railtix/internal/ledger"
)

// newTestClient starts an in-process Redis server that lives as long as t.
func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb, mr
}

func TestSeatLedger_LazyInit(t *testing.T) {
	t.Parallel()

	rdb, mr := newTestClient(t)
	l := NewSeatLedger(rdb, 0)

	got, err := l.Available(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultCapacity, got)
	assert.Equal(t, ledger.DefaultCapacity, l.Capacity())

	stored, err := mr.Get(KeySeats(42))
	require.NoError(t, err)
	assert.Equal(t, "50", stored)
}

func TestSeatLedger_ReserveRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb, _ := newTestClient(t)
	l := NewSeatLedger(rdb, 5)

	ok, err := l.Reserve(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Reserve(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, ok, "only 2 seats left")

	avail, err := l.Available(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, avail, "failed reserve must not change the counter")

	require.NoError(t, l.Release(ctx, 1, 3))
	avail, _ = l.Available(ctx, 1)
	assert.Equal(t, 5, avail)

	other, _ := l.Available(ctx, 2)
	assert.Equal(t, 5, other, "trains are independent")

	ok, err = l.Reserve(ctx, 3, 6)
	require.NoError(t, err)
	assert.False(t, ok, "more than capacity on a fresh train")
	avail, _ = l.Available(ctx, 3)
	assert.Equal(t, 5, avail)
}

func TestSeatLedger_ReleaseClampsToCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb, _ := newTestClient(t)
	l := NewSeatLedger(rdb, 10)

	ok, err := l.Reserve(ctx, 7, 2)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx, 7, 5))
	avail, _ := l.Available(ctx, 7)
	assert.Equal(t, 10, avail)

	require.NoError(t, l.Release(ctx, 8, 3), "release on an unseen train")
	avail, _ = l.Available(ctx, 8)
	assert.Equal(t, 10, avail)
}

func TestSeatLedger_NonPositiveSeatsAreNoops(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb, mr := newTestClient(t)
	l := NewSeatLedger(rdb, 10)

	ok, err := l.Reserve(ctx, 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(ctx, 1, -2))

	assert.False(t, mr.Exists(KeySeats(1)))
}

func TestSeatLedger_ConcurrentReserveNeverOversells(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb, _ := newTestClient(t)
	l := NewSeatLedger(rdb, 50)

	var (
		wg      sync.WaitGroup
		granted atomic.Int64
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(seats int) {
			defer wg.Done()
			ok, err := l.Reserve(ctx, 9, seats)
			if err == nil && ok {
				granted.Add(int64(seats))
			}
		}(i%3 + 1)
	}
	wg.Wait()

	avail, err := l.Available(ctx, 9)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, avail, 0)
	assert.Equal(t, int64(50), granted.Load()+int64(avail))
}

func TestCache_WithClient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb, mr := newTestClient(t)
	c := New(rdb)
	require.True(t, c.Enabled())

	var calls atomic.Int32
	load := func(context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrSetJSON(ctx, c, KeyTrain(1), time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, mr.Exists(KeyTrain(1)))

	require.NoError(t, c.InvalidateTrain(ctx, 1))
	assert.False(t, mr.Exists(KeyTrain(1)))

	_, err := GetOrSetJSON(ctx, c, KeyTrain(1), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotencyStore_LockSaveRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb, _ := newTestClient(t)
	s := NewIdempotencyStore(rdb, time.Hour)
	key := KeyIdemPurchase("abc")

	locked, err := s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, locked, "second caller waits for the first")

	_, ok, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "a lock is not a result")

	require.NoError(t, s.SaveResult(ctx, key, `{"success":true}`))
	payload, ok, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"success":true}`, payload)

	require.NoError(t, s.Release(ctx, key))
	locked, err = s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestSlidingWindowLimiter_Allow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb, _ := newTestClient(t)

	now := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	l := NewSlidingWindowLimiter(rdb, "purchase", 2, time.Minute)
	l.now = func() time.Time { return now }

	for i := 1; i <= 2; i++ {
		d, err := l.Allow(ctx, "ip:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, int64(i), d.Current)
	}

	d, err := l.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	d, err = l.Allow(ctx, "ip:10.0.0.2")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "clients are limited separately")

	now = now.Add(61 * time.Second)
	d, err = l.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Current)
}
