// Package ledger keeps the in-process seat inventory for trains.
//
// Every train has its own atomic counter, so reserve and release on
// different trains never contend. Reserve is a compare-and-swap loop: the
// decrement is only published if the counter still holds the value the
// availability check was made against.
package ledger

import (
	"context"
	"sync"
	"sync/atomic"
)

const DefaultCapacity = 50

type Ledger struct {
	capacity int64
	counters sync.Map // int64 -> *atomic.Int64
}

// New returns a ledger whose trains start with capacity free seats.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{capacity: int64(capacity)}
}

func (l *Ledger) Capacity() int {
	return int(l.capacity)
}

func (l *Ledger) counter(trainID int64) *atomic.Int64 {
	if c, ok := l.counters.Load(trainID); ok {
		return c.(*atomic.Int64)
	}

	fresh := new(atomic.Int64)
	fresh.Store(l.capacity)

	c, _ := l.counters.LoadOrStore(trainID, fresh)
	return c.(*atomic.Int64)
}

// Available returns the free seats for trainID.
func (l *Ledger) Available(_ context.Context, trainID int64) (int, error) {
	return int(l.counter(trainID).Load()), nil
}

// Reserve takes seats from trainID if enough are free. It reports false,
// leaving the counter untouched, when they are not.
func (l *Ledger) Reserve(_ context.Context, trainID int64, seats int) (bool, error) {
	if seats <= 0 {
		return true, nil
	}

	c := l.counter(trainID)
	n := int64(seats)
	for {
		cur := c.Load()
		if cur < n {
			return false, nil
		}
		if c.CompareAndSwap(cur, cur-n) {
			return true, nil
		}
	}
}

// Release gives seats back to trainID. The counter never rises above the
// ledger capacity.
func (l *Ledger) Release(_ context.Context, trainID int64, seats int) error {
	if seats <= 0 {
		return nil
	}

	c := l.counter(trainID)
	n := int64(seats)
	for {
		cur := c.Load()
		next := min(cur+n, l.capacity)
		if c.CompareAndSwap(cur, next) {
			return nil
		}
	}
}
