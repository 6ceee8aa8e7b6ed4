package service

import (
	"io"
	"log/slog"

	"github.com/kirinyoku/railtix/internal/fare"
	"github.com/kirinyoku/railtix/internal/pricing"
	"github.com/kirinyoku/railtix/internal/promotion"
	"github.com/kirinyoku/railtix/internal/repository"
	redisrepo "github.com/kirinyoku/railtix/internal/repository/redis"
	"github.com/kirinyoku/railtix/internal/service/admin"
	"github.com/kirinyoku/railtix/internal/service/booking"
	"github.com/kirinyoku/railtix/internal/service/query"
	"github.com/kirinyoku/railtix/internal/uow"
)

type Services struct {
	Booking *booking.Service
	Query   *query.Service
	Admin   *admin.Service
	Pricing *pricing.Selector
}

type Config struct {
	Booking booking.Config
	Query   query.Config
	Pricing pricing.Config
}

// Repositories is the storage a deployment runs on.
type Repositories struct {
	Tickets    repository.TicketRepository
	Promotions repository.PromotionRepository
	Stations   repository.StationRepository
	Trains     repository.TrainRepository
	Seats      repository.SeatLedger
	Tx         uow.TxRunner
}

type Deps struct {
	Repos Repositories
	// PromotionSource feeds pricing; defaults to Repos.Promotions.
	PromotionSource pricing.PromotionSource
	Fare            *fare.Calculator
	Cache           *redisrepo.Cache
	Events          booking.Publisher
	Logger          *slog.Logger
}

func NewServices(deps Deps, cfg Config) *Services {
	if deps.PromotionSource == nil {
		deps.PromotionSource = deps.Repos.Promotions
	}

	if deps.Fare == nil {
		deps.Fare = fare.New(nil, fare.Config{})
	}

	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	selector := pricing.NewSelector(deps.Fare, promotion.NewEngine(), deps.PromotionSource, cfg.Pricing)

	return &Services{
		Booking: booking.New(booking.Deps{
			Tickets: deps.Repos.Tickets,
			Trains:  deps.Repos.Trains,
			Seats:   deps.Repos.Seats,
			Pricer:  selector,
			Tx:      deps.Repos.Tx,
			Cache:   deps.Cache,
			Events:  deps.Events,
			Logger:  deps.Logger.With(slog.String("service", "booking")),
		}, cfg.Booking),
		Query: query.New(query.Deps{
			Tickets:    deps.Repos.Tickets,
			Trains:     deps.Repos.Trains,
			Seats:      deps.Repos.Seats,
			Promotions: deps.PromotionSource,
			Finder:     selector,
			Cache:      deps.Cache,
		}, cfg.Query),
		Admin: admin.New(admin.Deps{
			Promotions: deps.Repos.Promotions,
			Stations:   deps.Repos.Stations,
			Trains:     deps.Repos.Trains,
			Fare:       deps.Fare,
			Tx:         deps.Repos.Tx,
			Cache:      deps.Cache,
			Events:     deps.Events,
			Logger:     deps.Logger.With(slog.String("service", "admin")),
		}),
		Pricing: selector,
	}
}
