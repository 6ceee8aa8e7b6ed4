package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_LazyInit(t *testing.T) {
	t.Parallel()

	l := New(0)
	got, err := l.Available(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, got)
	assert.Equal(t, DefaultCapacity, l.Capacity())
}

func TestLedger_ReserveRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := New(5)

	ok, err := l.Reserve(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Reserve(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, ok, "only 2 seats left")

	avail, _ := l.Available(ctx, 1)
	assert.Equal(t, 2, avail, "failed reserve must not change the counter")

	require.NoError(t, l.Release(ctx, 1, 3))
	avail, _ = l.Available(ctx, 1)
	assert.Equal(t, 5, avail)

	other, _ := l.Available(ctx, 2)
	assert.Equal(t, 5, other, "trains are independent")
}

func TestLedger_ReleaseClampsToCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := New(10)

	ok, _ := l.Reserve(ctx, 7, 2)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx, 7, 5))
	avail, _ := l.Available(ctx, 7)
	assert.Equal(t, 10, avail)
}

func TestLedger_ConcurrentReserveNeverOversells(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := New(50)

	var (
		wg      sync.WaitGroup
		granted atomic.Int64
	)
	for i := 0; i < 200; i++ {
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

	avail, _ := l.Available(ctx, 9)
	assert.GreaterOrEqual(t, avail, 0)
	assert.Equal(t, int64(50), granted.Load()+int64(avail))
}

func TestLedger_MixedSequenceStaysNonNegative(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := New(4)

	ops := []struct {
		reserve bool
		seats   int
	}{
		{true, 3}, {true, 2}, {false, 1}, {true, 2}, {true, 1}, {false, 10}, {true, 4}, {true, 1},
	}
	for _, op := range ops {
		if op.reserve {
			_, _ = l.Reserve(ctx, 3, op.seats)
		} else {
			_ = l.Release(ctx, 3, op.seats)
		}
		avail, _ := l.Available(ctx, 3)
		assert.GreaterOrEqual(t, avail, 0)
		assert.LessOrEqual(t, avail, 4)
	}
}
