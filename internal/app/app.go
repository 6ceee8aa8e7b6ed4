package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/railtix/internal/catalog"
	"github.com/kirinyoku/railtix/internal/config"
	"github.com/kirinyoku/railtix/internal/fare"
	"github.com/kirinyoku/railtix/internal/ledger"
	"github.com/kirinyoku/railtix/internal/postgres"
	"github.com/kirinyoku/railtix/internal/redis"
	"github.com/kirinyoku/railtix/internal/repository"
	memoryrepo "github.com/kirinyoku/railtix/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/railtix/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/railtix/internal/repository/redis"
	"github.com/kirinyoku/railtix/internal/service"
	httpgin "github.com/kirinyoku/railtix/internal/transport/http/gin"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	cache      *redisrepo.Cache
	pubsub     *redisrepo.TrainsPubSub
	closers    []func()
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	// Optional Redis
	var rdb *goredis.Client
	if cfg.RedisEnabled() {
		client, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		rdb = client
		a.closers = append(a.closers, func() { _ = client.Close() })
	} else {
		logger.Info("redis disabled: no shared cache, rate limit or idempotency keys")
	}

	// Initialize repositories
	repos, err := a.openStorage(ctx, rdb)
	if err != nil {
		a.close()
		return nil, err
	}

	cat, err := catalog.Load(cfg.Storage.CatalogPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	a.cache = redisrepo.New(rdb)

	deps := service.Deps{
		Repos:           repos,
		PromotionSource: redisrepo.NewCachedPromotions(repos.Promotions, a.cache, cfg.Booking.PromotionsCacheTTL),
		Fare:            fare.New(nil, fare.Config{PremiumTrainTypes: cat.PremiumTrainTypes}),
		Cache:           a.cache,
		Logger:          logger,
	}
	if rdb != nil {
		a.pubsub = redisrepo.NewTrainsPubSub(rdb)
		deps.Events = a.pubsub
	}

	// Initialize services
	services := service.NewServices(deps, service.Config{})

	report, err := services.Admin.Seed(ctx, cat)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}
	logger.Info("catalog ready",
		slog.Int("new_trains", report.Trains),
		slog.Int("new_promotions", report.Promotions),
	)

	// Initialize Gin router
	opts := httpgin.Options{Logger: logger}
	if rdb != nil {
		opts.Idempotency = redisrepo.NewIdempotencyStore(rdb, cfg.HTTP.IdempotencyTTL)
		opts.Limiter = redisrepo.NewSlidingWindowLimiter(rdb, "purchase", cfg.HTTP.RateLimitPerMinute, time.Minute)
	}
	router := httpgin.NewRouter(services, opts)

	a.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

// openStorage builds the repositories for the configured driver and the
// seat ledger on top of them.
func (a *App) openStorage(ctx context.Context, rdb *goredis.Client) (service.Repositories, error) {
	capacity := a.cfg.Booking.DefaultSeatCapacity

	var (
		repos   service.Repositories
		pgStore *postgresrepo.Store
	)

	switch a.cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := postgres.New(ctx, postgres.Config{
			User:     a.cfg.Postgres.User,
			Password: a.cfg.Postgres.Password,
			Host:     a.cfg.Postgres.Host,
			Port:     a.cfg.Postgres.Port,
			Name:     a.cfg.Postgres.Name,
			SSLMode:  a.cfg.Postgres.SSLMode,
		})
		if err != nil {
			return repos, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		pgStore = postgresrepo.NewStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			return repos, fmt.Errorf("failed to migrate postgres: %w", err)
		}

		repos = service.Repositories{
			Tickets:    pgStore.Tickets(),
			Promotions: pgStore.Promotions(),
			Stations:   pgStore.Stations(),
			Trains:     pgStore.Trains(),
			Tx:         pgStore,
		}
	default:
		store := memoryrepo.NewStore()
		repos = service.Repositories{
			Tickets:    store.Tickets(),
			Promotions: store.Promotions(),
			Stations:   store.Stations(),
			Trains:     store.Trains(),
			Tx:         store,
		}
	}

	var seats repository.SeatLedger
	switch a.cfg.Storage.SeatLedger {
	case config.DriverPostgres:
		seats = pgStore.Seats(capacity)
	case config.DriverRedis:
		seats = redisrepo.NewSeatLedger(rdb, capacity)
	default:
		seats = ledger.New(capacity)
	}
	repos.Seats = seats

	a.logger.Info("storage ready",
		slog.String("driver", a.cfg.Storage.Driver),
		slog.String("seat_ledger", a.cfg.Storage.SeatLedger),
		slog.Int("capacity", capacity),
	)

	return repos, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Train change notifications from other instances
	if a.pubsub != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, a.onTrainChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("train changes subscription: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) onTrainChanged(ctx context.Context, trainID int64) {
	a.logger.Debug("train changed", slog.Int64("train_id", trainID))

	if err := a.cache.InvalidateAvailability(ctx, trainID); err != nil {
		a.logger.Warn("availability invalidation failed",
			slog.Int64("train_id", trainID), slog.Any("err", err))
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
