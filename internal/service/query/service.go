package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/pricing"
	"github.com/kirinyoku/railtix/internal/repository"
	redisrepo "github.com/kirinyoku/railtix/internal/repository/redis"
)

// PromotionFinder lists promotions and the ones applicable to an itinerary.
type PromotionFinder interface {
	Applicable(ctx context.Context, it domain.Itinerary, customer domain.CustomerContext) ([]domain.Promotion, error)
}

type Config struct {
	TrainTTL        time.Duration
	AvailabilityTTL time.Duration
}

type Deps struct {
	Tickets    repository.TicketRepository
	Trains     repository.TrainRepository
	Seats      repository.SeatLedger
	Promotions pricing.PromotionSource
	Finder     PromotionFinder
	Cache      *redisrepo.Cache
}

type Service struct {
	deps Deps
	cfg  Config
}

func New(deps Deps, cfg Config) *Service {
	if cfg.TrainTTL <= 0 {
		cfg.TrainTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 5 * time.Second
	}

	if deps.Cache == nil {
		deps.Cache = redisrepo.New(nil)
	}

	return &Service{deps: deps, cfg: cfg}
}

// GetTrain retrieves a train by its ID, utilizing a caching layer to improve performance.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: ID of the train to retrieve.
//
// Returns:
//   - *domain.Train: the retrieved train.
//   - error: matches domain.ErrNotFound if the train does not exist.
func (s *Service) GetTrain(ctx context.Context, id int64) (*domain.Train, error) {
	const op = "service.query.GetTrain"

	train, err := redisrepo.GetOrSetJSON(
		ctx,
		s.deps.Cache,
		redisrepo.KeyTrain(id),
		s.cfg.TrainTTL,
		func(ctx context.Context) (domain.Train, error) {
			t, err := s.deps.Trains.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Train{}, domain.NotFoundError{Kind: "train", ID: strconv.FormatInt(id, 10)}
				}

				return domain.Train{}, err
			}

			return *t, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &train, nil
}

func (s *Service) ListTrains(ctx context.Context) ([]domain.Train, error) {
	const op = "service.query.ListTrains"

	trains, err := redisrepo.GetOrSetJSON(ctx, s.deps.Cache, redisrepo.KeyTrainList(), s.cfg.TrainTTL, s.deps.Trains.ListAll)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return trains, nil
}

// Availability reports free seats for a known train.
//
// Returns:
//   - error: matches domain.ErrNotFound if the train does not exist.
func (s *Service) Availability(ctx context.Context, trainID int64) (domain.TrainAvailability, error) {
	const op = "service.query.Availability"

	if _, err := s.GetTrain(ctx, trainID); err != nil {
		return domain.TrainAvailability{}, fmt.Errorf("%s: %w", op, err)
	}

	av, err := redisrepo.GetOrSetJSON(
		ctx,
		s.deps.Cache,
		redisrepo.KeyAvailability(trainID),
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.TrainAvailability, error) {
			n, err := s.deps.Seats.Available(ctx, trainID)
			if err != nil {
				return domain.TrainAvailability{}, err
			}

			return domain.TrainAvailability{
				TrainID:   trainID,
				Available: n,
				Capacity:  s.deps.Seats.Capacity(),
			}, nil
		},
	)
	if err != nil {
		return domain.TrainAvailability{}, fmt.Errorf("%s: %w", op, err)
	}

	return av, nil
}

// GetTicket returns a stored ticket.
//
// Returns:
//   - error: matches domain.ErrNotFound if the ticket does not exist.
func (s *Service) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	const op = "service.query.GetTicket"

	t, err := s.deps.Tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, domain.NotFoundError{Kind: "ticket", ID: id})
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// ListTickets returns tickets oldest first, optionally only those of one
// username.
func (s *Service) ListTickets(ctx context.Context, username string) ([]domain.Ticket, error) {
	const op = "service.query.ListTickets"

	all, err := s.deps.Tickets.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return all, nil
	}

	out := make([]domain.Ticket, 0, len(all))
	for _, t := range all {
		if strings.EqualFold(t.Username, username) {
			out = append(out, t)
		}
	}

	return out, nil
}

func (s *Service) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	const op = "service.query.ListPromotions"

	promos, err := s.deps.Promotions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return promos, nil
}

// ApplicableRequest describes an itinerary to look up promotions for.
// TrainID, when set, supplies the train type.
type ApplicableRequest struct {
	TrainID      int64
	TrainType    string
	Departure    string
	Arrival      string
	TravelDate   time.Time
	ServiceClass string
	Customer     domain.CustomerContext
}

// ApplicablePromotions lists every promotion applicable to the itinerary and
// customer, in stored order.
//
// Returns:
//   - error: matches domain.ErrValidation for incomplete itineraries and
//     domain.ErrNotFound for an unknown train.
func (s *Service) ApplicablePromotions(ctx context.Context, req ApplicableRequest) ([]domain.Promotion, error) {
	const op = "service.query.ApplicablePromotions"

	switch {
	case strings.TrimSpace(req.Departure) == "":
		return nil, fmt.Errorf("%s: %w", op, domain.ValidationError{Field: "departure_station"})
	case strings.TrimSpace(req.Arrival) == "":
		return nil, fmt.Errorf("%s: %w", op, domain.ValidationError{Field: "arrival_station"})
	case req.TravelDate.IsZero():
		return nil, fmt.Errorf("%s: %w", op, domain.ValidationError{Field: "travel_date"})
	}

	trainType := req.TrainType
	if req.TrainID > 0 {
		t, err := s.GetTrain(ctx, req.TrainID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		trainType = t.TrainType()
	}

	it := domain.Itinerary{
		Departure:    strings.TrimSpace(req.Departure),
		Arrival:      strings.TrimSpace(req.Arrival),
		TravelDate:   req.TravelDate,
		ServiceClass: strings.TrimSpace(req.ServiceClass),
		TrainType:    trainType,
	}

	promos, err := s.deps.Finder.Applicable(ctx, it, req.Customer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return promos, nil
}
