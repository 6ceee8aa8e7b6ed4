// Package redis opens the optional Redis connection shared by the cache,
// rate limiter, idempotency keys, pubsub and the redis seat ledger.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

type Config struct {
	Addr     string
	Password string
	DB       int
	// PoolSize of 0 keeps the go-redis default.
	PoolSize int
}

// Enabled reports whether cfg names a server. "-" and "none" switch Redis off.
func (cfg Config) Enabled() bool {
	return AddrEnabled(cfg.Addr)
}

func AddrEnabled(addr string) bool {
	switch strings.ToLower(strings.TrimSpace(addr)) {
	case "", "-", "none":
		return false
	}
	return true
}

func (cfg Config) options() *redis.Options {
	return &redis.Options{
		Addr:     strings.TrimSpace(cfg.Addr),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
}

// New connects and pings. The client is closed again if the ping fails.
func New(ctx context.Context, cfg Config) (*redis.Client, error) {
	const op = "redis.New"

	if !cfg.Enabled() {
		return nil, fmt.Errorf("%s: redis is disabled (addr %q)", op, cfg.Addr)
	}

	client := redis.NewClient(cfg.options())

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return client, nil
}
