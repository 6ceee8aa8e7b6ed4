package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirinyoku/railtix/internal/redis"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Booking  BookingConfig
	HTTP     HTTPConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// StorageConfig picks the backends. SeatLedger defaults to Driver.
type StorageConfig struct {
	Driver      string
	SeatLedger  string
	CatalogPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type BookingConfig struct {
	DefaultSeatCapacity int
	PromotionsCacheTTL  time.Duration
}

type HTTPConfig struct {
	RateLimitPerMinute int
	IdempotencyTTL     time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: envString("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	storageCfg := StorageConfig{
		Driver:      strings.ToLower(envString("STORAGE_DRIVER", DriverPostgres)),
		CatalogPath: os.Getenv("CATALOG_PATH"),
	}
	if storageCfg.Driver != DriverPostgres && storageCfg.Driver != DriverMemory {
		return nil, fmt.Errorf("%s: invalid STORAGE_DRIVER %q", op, storageCfg.Driver)
	}

	storageCfg.SeatLedger = strings.ToLower(envString("SEAT_LEDGER", storageCfg.Driver))
	switch storageCfg.SeatLedger {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		return nil, fmt.Errorf("%s: invalid SEAT_LEDGER %q", op, storageCfg.SeatLedger)
	}
	if storageCfg.SeatLedger == DriverPostgres && storageCfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("%s: SEAT_LEDGER=postgres requires STORAGE_DRIVER=postgres", op)
	}

	var postgresCfg PostgresConfig
	if storageCfg.Driver == DriverPostgres {
		postgresCfg, err = loadPostgres()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     envString("REDIS_ADDR", "localhost:6380"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}
	if storageCfg.SeatLedger == DriverRedis && !redisEnabled(redisCfg.Addr) {
		return nil, fmt.Errorf("%s: SEAT_LEDGER=redis requires REDIS_ADDR", op)
	}

	capacity, err := envInt("DEFAULT_SEAT_CAPACITY", 50)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%s: DEFAULT_SEAT_CAPACITY must be positive", op)
	}

	promoTTL, err := envDuration("PROMOTIONS_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateLimit, err := envInt("RATE_LIMIT_PER_MINUTE", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	idemTTL, err := envDuration("IDEMPOTENCY_TTL", 2*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		Storage:  storageCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Booking: BookingConfig{
			DefaultSeatCapacity: capacity,
			PromotionsCacheTTL:  promoTTL,
		},
		HTTP: HTTPConfig{
			RateLimitPerMinute: rateLimit,
			IdempotencyTTL:     idemTTL,
		},
	}, nil
}

func loadPostgres() (PostgresConfig, error) {
	port, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
	}

	return PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     envString("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  envString("POSTGRES_SSLMODE", "disable"),
	}, nil
}

// RedisEnabled reports whether a Redis server is configured.
func (c *Config) RedisEnabled() bool {
	return redisEnabled(c.Redis.Addr)
}

func redisEnabled(addr string) bool {
	return redis.AddrEnabled(addr)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}
