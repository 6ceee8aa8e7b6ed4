package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/railtix/internal/ledger"
)

// Each script seeds the counter with the capacity on first touch.
// KEYS[1] = seat counter
// ARGV[1] = capacity
// ARGV[2] = seats (reserve / release)
const (
	luaSeatsAvailable = `
redis.call('SET', KEYS[1], ARGV[1], 'NX')
return tonumber(redis.call('GET', KEYS[1]))
`

	luaSeatsReserve = `
redis.call('SET', KEYS[1], ARGV[1], 'NX')
local cur = tonumber(redis.call('GET', KEYS[1]))
local n = tonumber(ARGV[2])
if cur < n then
  return {0, cur}
end
return {1, redis.call('DECRBY', KEYS[1], n)}
`

	luaSeatsRelease = `
redis.call('SET', KEYS[1], ARGV[1], 'NX')
local cap = tonumber(ARGV[1])
local v = redis.call('INCRBY', KEYS[1], tonumber(ARGV[2]))
if v > cap then
  redis.call('SET', KEYS[1], cap)
  v = cap
end
return v
`
)

// SeatLedger keeps per-train seat counters in Redis. Every operation is a
// single script, so check-and-decrement is atomic across instances.
type SeatLedger struct {
	rdb       *redis.Client
	capacity  int
	available *redis.Script
	reserve   *redis.Script
	release   *redis.Script
}

func NewSeatLedger(rdb *redis.Client, capacity int) *SeatLedger {
	if capacity <= 0 {
		capacity = ledger.DefaultCapacity
	}

	return &SeatLedger{
		rdb:       rdb,
		capacity:  capacity,
		available: redis.NewScript(luaSeatsAvailable),
		reserve:   redis.NewScript(luaSeatsReserve),
		release:   redis.NewScript(luaSeatsRelease),
	}
}

func (l *SeatLedger) Capacity() int {
	return l.capacity
}

func (l *SeatLedger) Available(ctx context.Context, trainID int64) (int, error) {
	const op = "redisrepo.SeatLedger.Available"

	n, err := l.available.Run(ctx, l.rdb, []string{KeySeats(trainID)}, l.capacity).Int64()
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return int(n), nil
}

func (l *SeatLedger) Reserve(ctx context.Context, trainID int64, seats int) (bool, error) {
	const op = "redisrepo.SeatLedger.Reserve"

	if seats <= 0 {
		return true, nil
	}

	res, err := l.reserve.Run(ctx, l.rdb, []string{KeySeats(trainID)}, l.capacity, seats).Result()
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, err)
	}

	arr, ok := res.([]any)
	if !ok || len(arr) != 2 {
		return false, fmt.Errorf("%s: bad script result: %v", op, res)
	}

	return toInt(arr[0]) == 1, nil
}

func (l *SeatLedger) Release(ctx context.Context, trainID int64, seats int) error {
	const op = "redisrepo.SeatLedger.Release"

	if seats <= 0 {
		return nil
	}

	if err := l.release.Run(ctx, l.rdb, []string{KeySeats(trainID)}, l.capacity, seats).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
