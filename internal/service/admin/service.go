package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kirinyoku/railtix/internal/catalog"
	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/fare"
	"github.com/kirinyoku/railtix/internal/promotion"
	"github.com/kirinyoku/railtix/internal/repository"
	redisrepo "github.com/kirinyoku/railtix/internal/repository/redis"
	"github.com/kirinyoku/railtix/internal/uow"
)

// Publisher announces that a train changed.
type Publisher interface {
	PublishTrainChanged(ctx context.Context, trainID int64) error
}

type Deps struct {
	Promotions repository.PromotionRepository
	Stations   repository.StationRepository
	Trains     repository.TrainRepository
	Fare       *fare.Calculator
	Tx         uow.TxRunner
	Cache      *redisrepo.Cache
	Events     Publisher
	Logger     *slog.Logger
}

type Service struct {
	promotions repository.PromotionRepository
	stations   repository.StationRepository
	trains     repository.TrainRepository
	fare       *fare.Calculator
	uow        *uow.UoW
	cache      *redisrepo.Cache
	events     Publisher
	logger     *slog.Logger
}

func New(deps Deps) *Service {
	if deps.Cache == nil {
		deps.Cache = redisrepo.New(nil)
	}

	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		promotions: deps.Promotions,
		stations:   deps.Stations,
		trains:     deps.Trains,
		fare:       deps.Fare,
		uow:        uow.NewUoW(deps.Tx),
		cache:      deps.Cache,
		events:     deps.Events,
		logger:     deps.Logger,
	}
}

// AddPromotion validates and stores a promotion.
//
// Parameters:
//   - ctx: request-scoped context.
//   - p: the promotion; its ID must be unique case-insensitively.
//
// Returns:
//   - error: matches domain.ErrValidation if the promotion is malformed.
//   - error: admin.ErrPromotionConflict if the ID is taken.
func (s *Service) AddPromotion(ctx context.Context, p domain.Promotion) error {
	const op = "service.admin.AddPromotion"

	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.UserTypes = domain.ParseTiers(p.UserTypes)

	if err := promotion.Validate(p); err != nil {
		return fmt.Errorf("%s: %w", op, domain.ValidationError{Field: "promotion", Reason: err.Error()})
	}

	return s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.promotions.Add(ctx, p); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrPromotionConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(s.promotionsChanged)

		return nil
	})
}

// DeletePromotion removes a promotion by ID.
//
// Returns:
//   - error: matches domain.ErrNotFound if no promotion has the ID.
func (s *Service) DeletePromotion(ctx context.Context, id string) error {
	const op = "service.admin.DeletePromotion"

	return s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.promotions.DeleteByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, domain.NotFoundError{Kind: "promotion", ID: id})
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(s.promotionsChanged)

		return nil
	})
}

// AddTrain stores a new train.
//
// Returns:
//   - error: matches domain.ErrValidation if a required field is missing.
//   - error: admin.ErrTrainConflict if the ID is taken.
func (s *Service) AddTrain(ctx context.Context, t domain.Train) error {
	const op = "service.admin.AddTrain"

	if err := validateTrain(t); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.trains.Add(ctx, t); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrTrainConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(s.trainChanged(t.ID))

		return nil
	})
}

// UpsertNetwork writes stations and distances, then rebuilds the fare
// calculator's network.
func (s *Service) UpsertNetwork(
	ctx context.Context,
	stations []domain.Station,
	distances []domain.DistanceEntry,
) error {
	const op = "service.admin.UpsertNetwork"

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.stations.UpsertStations(ctx, stations); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.stations.UpsertDistances(ctx, distances); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return s.RebuildNetwork(ctx)
}

// RebuildNetwork reloads stations and distances and swaps the calculator's
// network snapshot.
func (s *Service) RebuildNetwork(ctx context.Context) error {
	const op = "service.admin.RebuildNetwork"

	stations, err := s.stations.ListStations(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	distances, err := s.stations.ListDistances(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.fare != nil {
		s.fare.SetNetwork(fare.NewNetwork(stations, distances))
	}

	s.logger.Debug("fare network rebuilt",
		slog.Int("stations", len(stations)),
		slog.Int("distances", len(distances)),
	)

	return nil
}

type SeedReport struct {
	Stations   int
	Distances  int
	Trains     int
	Promotions int
}

// Seed loads a catalog into the repositories. Trains and promotions that
// already exist are left untouched, so seeding is safe on every start.
func (s *Service) Seed(ctx context.Context, c *catalog.Catalog) (SeedReport, error) {
	const op = "service.admin.Seed"

	var report SeedReport

	if err := s.UpsertNetwork(ctx, c.Stations, c.Distances); err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}
	report.Stations = len(c.Stations)
	report.Distances = len(c.Distances)

	for _, t := range c.Trains {
		err := s.AddTrain(ctx, t)
		switch {
		case err == nil:
			report.Trains++
		case errors.Is(err, ErrTrainConflict):
		default:
			return report, fmt.Errorf("%s: %w", op, err)
		}
	}

	for _, p := range c.Promotions {
		err := s.AddPromotion(ctx, p)
		switch {
		case err == nil:
			report.Promotions++
		case errors.Is(err, ErrPromotionConflict):
		default:
			return report, fmt.Errorf("%s: %w", op, err)
		}
	}

	s.logger.Info("catalog seeded",
		slog.Int("stations", report.Stations),
		slog.Int("distances", report.Distances),
		slog.Int("trains", report.Trains),
		slog.Int("promotions", report.Promotions),
	)

	return report, nil
}

func (s *Service) promotionsChanged(ctx context.Context) {
	if err := s.cache.InvalidatePromotions(ctx); err != nil {
		s.logger.Warn("promotions cache invalidation failed", slog.Any("err", err))
	}
}

func (s *Service) trainChanged(trainID int64) uow.AfterCommit {
	return func(ctx context.Context) {
		if err := s.cache.InvalidateTrain(ctx, trainID); err != nil {
			s.logger.Warn("train cache invalidation failed",
				slog.Int64("train_id", trainID), slog.Any("err", err))
		}

		if s.events == nil {
			return
		}

		if err := s.events.PublishTrainChanged(ctx, trainID); err != nil {
			s.logger.Warn("train changed publish failed",
				slog.Int64("train_id", trainID), slog.Any("err", err))
		}
	}
}

func validateTrain(t domain.Train) error {
	switch {
	case t.ID <= 0:
		return domain.ValidationError{Field: "id", Reason: "must be positive"}
	case strings.TrimSpace(t.Name) == "":
		return domain.ValidationError{Field: "name"}
	case strings.TrimSpace(t.DepartureStation) == "":
		return domain.ValidationError{Field: "departure_station"}
	case strings.TrimSpace(t.ArrivalStation) == "":
		return domain.ValidationError{Field: "arrival_station"}
	case !t.ArrivesAt.IsZero() && t.ArrivesAt.Before(t.DepartsAt):
		return domain.ValidationError{Field: "arrives_at", Reason: "must not precede departs_at"}
	}
	return nil
}
