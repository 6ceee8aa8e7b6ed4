// Package booking owns the ticket lifecycle: purchase, modify, cancel and
// quote. A ticket exists only together with its seat reservation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/fare"
	"github.com/kirinyoku/railtix/internal/pricing"
	"github.com/kirinyoku/railtix/internal/repository"
	redisrepo "github.com/kirinyoku/railtix/internal/repository/redis"
	"github.com/kirinyoku/railtix/internal/uow"
)

const DefaultClassChangePenalty = 5.0

// Pricer prices an itinerary under the customer's tier.
type Pricer interface {
	Price(ctx context.Context, it domain.Itinerary, promoCode string, customer domain.CustomerContext) (pricing.Quote, error)
}

// Publisher announces that a train's seat availability changed.
type Publisher interface {
	PublishTrainChanged(ctx context.Context, trainID int64) error
}

// transactional is implemented by ledgers whose writes join the unit of
// work's transaction and roll back with it.
type transactional interface {
	JoinsTransactions() bool
}

type Config struct {
	ClassChangePenalty float64
	Now                func() time.Time
}

type Deps struct {
	Tickets repository.TicketRepository
	Trains  repository.TrainRepository
	Seats   repository.SeatLedger
	Pricer  Pricer
	Tx      uow.TxRunner
	Cache   *redisrepo.Cache
	Events  Publisher
	Logger  *slog.Logger
}

type Service struct {
	tickets repository.TicketRepository
	trains  repository.TrainRepository
	seats   repository.SeatLedger
	pricer  Pricer
	uow     *uow.UoW
	cache   *redisrepo.Cache
	events  Publisher
	logger  *slog.Logger
	cfg     Config

	seatsInTx bool
}

func New(deps Deps, cfg Config) *Service {
	if cfg.ClassChangePenalty <= 0 {
		cfg.ClassChangePenalty = DefaultClassChangePenalty
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if deps.Cache == nil {
		deps.Cache = redisrepo.New(nil)
	}

	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tx, ok := deps.Seats.(transactional)

	return &Service{
		tickets:   deps.Tickets,
		trains:    deps.Trains,
		seats:     deps.Seats,
		pricer:    deps.Pricer,
		uow:       uow.NewUoW(deps.Tx),
		cache:     deps.Cache,
		events:    deps.Events,
		logger:    deps.Logger,
		cfg:       cfg,
		seatsInTx: ok && tx.JoinsTransactions(),
	}
}

// Purchase reserves seats, prices the itinerary and stores a new ticket.
//
// Parameters:
//   - ctx: request-scoped context.
//   - req: the purchase; Seats <= 0 means one seat.
//
// Returns:
//   - PurchaseResult: Success=false with Err set to a domain.ValidationError,
//     domain.NotFoundError or domain.CapacityError for expected failures.
//   - error: wraps domain.ErrInternal on unexpected failures. Seats reserved
//     by the failed attempt have been released.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	const op = "service.booking.Purchase"

	if err := validatePurchase(req); err != nil {
		return PurchaseResult{Message: err.Error(), Err: err}, nil
	}

	seats := req.Seats
	if seats <= 0 {
		seats = 1
	}

	customer := normalizeCustomer(req.Customer)

	var (
		ticket domain.Ticket
		quote  pricing.Quote
		held   int
	)

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		train, err := s.train(ctx, req.TrainID)
		if err != nil {
			return err
		}

		ok, err := s.seats.Reserve(ctx, req.TrainID, seats)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			available, err := s.seats.Available(ctx, req.TrainID)
			if err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
			return domain.CapacityError{TrainID: req.TrainID, Requested: seats, Available: available}
		}
		held += seats

		it := itinerary(req.Departure, req.Arrival, req.TravelDate, req.ServiceClass, train)

		q, err := s.pricer.Price(ctx, it, req.PromoCode, customer)
		if err != nil {
			return s.compensate(ctx, req.TrainID, seats, &held, fmt.Errorf("%s:%w", op, err))
		}

		now := s.cfg.Now().UTC()
		t := domain.Ticket{
			ID:               uuid.NewString(),
			TrainID:          req.TrainID,
			PassengerName:    strings.TrimSpace(req.PassengerName),
			Username:         customer.Username,
			DepartureStation: strings.TrimSpace(req.Departure),
			ArrivalStation:   strings.TrimSpace(req.Arrival),
			TravelDate:       dateOnly(req.TravelDate),
			ServiceClass:     strings.TrimSpace(req.ServiceClass),
			Tier:             customer.Tier,
			Price:            q.Price,
			SeatCount:        seats,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if q.Promotion != nil {
			t.PromoCode = q.PromoCode
		}

		if err := s.tickets.Add(ctx, t); err != nil {
			return s.compensate(ctx, req.TrainID, seats, &held, fmt.Errorf("%s:%w", op, err))
		}

		ticket, quote = t, q
		after(s.trainChanged(req.TrainID))

		return nil
	})

	// A committed purchase keeps exactly one reservation. Anything else still
	// held belongs to attempts whose commit failed.
	if excess := held - committedSeats(err, seats); excess > 0 && !s.seatsInTx {
		_ = s.compensate(ctx, req.TrainID, excess, &held, nil)
	}

	if err != nil {
		if domain.IsExpected(err) {
			return PurchaseResult{Message: err.Error(), Err: err}, nil
		}
		return PurchaseResult{Message: "internal error", Err: err}, internalErr(op, err)
	}

	return PurchaseResult{
		Success:  true,
		TicketID: ticket.ID,
		Price:    ticket.Price,
		Ticket:   &ticket,
		Quote:    &quote,
		Message:  fmt.Sprintf("ticket %s purchased for %.2f", ticket.ID, ticket.Price),
	}, nil
}

// Modify changes the itinerary of an existing ticket and reprices it under
// the ticket's tier without any promo code.
//
// Reconciliation: a service class change costs the new fare plus the class
// change penalty. Otherwise the new fare is charged; a lower fare is not
// refunded.
//
// Returns:
//   - OperationResult: Success=false with Err matching domain.ErrNoChange when
//     no field differs from the stored ticket.
//   - error: wraps domain.ErrInternal on unexpected failures.
func (s *Service) Modify(ctx context.Context, req ModifyRequest) (OperationResult, error) {
	const op = "service.booking.Modify"

	if err := validateModify(req); err != nil {
		return OperationResult{Message: err.Error(), Err: err}, nil
	}

	var res OperationResult

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		current, err := s.ticket(ctx, req.TicketID)
		if err != nil {
			return err
		}

		next, classChanged, changed := stage(*current, req)
		if !changed {
			return domain.ErrNoChange
		}

		train, err := s.train(ctx, current.TrainID)
		if err != nil {
			return err
		}

		it := itinerary(next.DepartureStation, next.ArrivalStation, next.TravelDate, next.ServiceClass, train)
		customer := domain.CustomerContext{Username: current.Username, Tier: current.Tier}

		q, err := s.pricer.Price(ctx, it, "", customer)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		next.Price, res.Message = s.reconcile(current.Price, q.Price, classChanged)
		next.PromoCode = ""
		next.UpdatedAt = s.cfg.Now().UTC()

		if err := s.tickets.Replace(ctx, next); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFoundError{Kind: "ticket", ID: req.TicketID}
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		res.Success = true
		res.Price = next.Price

		return nil
	})
	if err != nil {
		if domain.IsExpected(err) {
			return OperationResult{Message: err.Error(), Err: err}, nil
		}
		return OperationResult{Message: "internal error", Err: err}, internalErr(op, err)
	}

	return res, nil
}

// reconcile returns the price to store and a message describing the charge.
func (s *Service) reconcile(oldFare, newFare float64, classChanged bool) (float64, string) {
	switch {
	case classChanged:
		price := fare.Round2(newFare + s.cfg.ClassChangePenalty)
		return price, fmt.Sprintf(
			"service class changed: penalty of %.2f applied, new price %.2f",
			s.cfg.ClassChangePenalty, price,
		)
	case newFare > oldFare:
		return newFare, fmt.Sprintf(
			"fare difference of %.2f charged, new price %.2f",
			fare.Round2(newFare-oldFare), newFare,
		)
	default:
		return newFare, fmt.Sprintf(
			"new fare %.2f is not higher than the %.2f paid, no refund issued",
			newFare, oldFare,
		)
	}
}

// Cancel removes a ticket and returns its seats to the ledger.
//
// Returns:
//   - OperationResult: Success=false with a domain.NotFoundError when the
//     ticket does not exist.
//   - error: wraps domain.ErrInternal on unexpected failures.
func (s *Service) Cancel(ctx context.Context, ticketID string) (OperationResult, error) {
	const op = "service.booking.Cancel"

	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		err := domain.ValidationError{Field: "ticket_id"}
		return OperationResult{Message: err.Error(), Err: err}, nil
	}

	var removed domain.Ticket

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		t, err := s.ticket(ctx, ticketID)
		if err != nil {
			return err
		}

		if err := s.tickets.DeleteByID(ctx, ticketID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFoundError{Kind: "ticket", ID: ticketID}
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if s.seatsInTx {
			if err := s.seats.Release(ctx, t.TrainID, t.SeatCount); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		removed = *t
		after(s.trainChanged(t.TrainID))

		return nil
	})
	if err != nil {
		if domain.IsExpected(err) {
			return OperationResult{Message: err.Error(), Err: err}, nil
		}
		return OperationResult{Message: "internal error", Err: err}, internalErr(op, err)
	}

	if !s.seatsInTx {
		if err := s.seats.Release(ctx, removed.TrainID, removed.SeatCount); err != nil {
			s.logger.Error("seat release failed after cancel",
				slog.String("ticket_id", removed.ID),
				slog.Int64("train_id", removed.TrainID),
				slog.Int("seats", removed.SeatCount),
				slog.Any("err", err),
			)
			return OperationResult{Message: "internal error", Err: err}, internalErr(op, err)
		}
	}

	return OperationResult{
		Success: true,
		Message: fmt.Sprintf("ticket %s cancelled, %d seat(s) released", removed.ID, removed.SeatCount),
	}, nil
}

// Quote prices an itinerary without reserving seats or storing anything.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	const op = "service.booking.Quote"

	if err := validateQuote(req); err != nil {
		return QuoteResult{Message: err.Error(), Err: err}, nil
	}

	train := &domain.Train{Type: req.TrainType}
	if req.TrainID > 0 {
		t, err := s.train(ctx, req.TrainID)
		if err != nil {
			if domain.IsExpected(err) {
				return QuoteResult{Message: err.Error(), Err: err}, nil
			}
			return QuoteResult{Message: "internal error", Err: err}, internalErr(op, err)
		}
		train = t
	}

	it := itinerary(req.Departure, req.Arrival, req.TravelDate, req.ServiceClass, train)

	q, err := s.pricer.Price(ctx, it, req.PromoCode, normalizeCustomer(req.Customer))
	if err != nil {
		return QuoteResult{Message: "internal error", Err: err}, internalErr(op, err)
	}

	return QuoteResult{
		Success: true,
		Quote:   &q,
		Message: fmt.Sprintf("quoted %.2f", q.Price),
	}, nil
}

// ClearAll removes every ticket and releases its seats.
//
// Returns:
//   - int: the number of tickets removed.
func (s *Service) ClearAll(ctx context.Context) (int, error) {
	const op = "service.booking.ClearAll"

	var removed []domain.Ticket

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		removed = removed[:0]

		all, err := s.tickets.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		trains := make(map[int64]bool)
		for _, t := range all {
			if err := s.tickets.DeleteByID(ctx, t.ID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return fmt.Errorf("%s:%w", op, err)
			}

			if s.seatsInTx {
				if err := s.seats.Release(ctx, t.TrainID, t.SeatCount); err != nil {
					return fmt.Errorf("%s:%w", op, err)
				}
			}

			removed = append(removed, t)
			if !trains[t.TrainID] {
				trains[t.TrainID] = true
				after(s.trainChanged(t.TrainID))
			}
		}

		return nil
	})
	if err != nil {
		return 0, internalErr(op, err)
	}

	if !s.seatsInTx {
		var errs []error
		for _, t := range removed {
			if err := s.seats.Release(ctx, t.TrainID, t.SeatCount); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return len(removed), internalErr(op, err)
		}
	}

	s.logger.Info("tickets cleared", slog.Int("count", len(removed)))

	return len(removed), nil
}

// compensate releases seats reserved by a failed purchase attempt and
// returns cause.
func (s *Service) compensate(ctx context.Context, trainID int64, seats int, held *int, cause error) error {
	if err := s.seats.Release(ctx, trainID, seats); err != nil {
		s.logger.Error("compensating seat release failed",
			slog.Int64("train_id", trainID),
			slog.Int("seats", seats),
			slog.Any("err", err),
		)
		if cause == nil {
			return err
		}
		return errors.Join(cause, err)
	}

	*held -= seats

	s.logger.Warn("released seats after failed purchase",
		slog.Int64("train_id", trainID),
		slog.Int("seats", seats),
		slog.Any("cause", cause),
	)

	return cause
}

func (s *Service) trainChanged(trainID int64) uow.AfterCommit {
	return func(ctx context.Context) {
		if err := s.cache.InvalidateAvailability(ctx, trainID); err != nil {
			s.logger.Warn("availability cache invalidation failed",
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

func (s *Service) train(ctx context.Context, id int64) (*domain.Train, error) {
	const op = "service.booking.train"

	t, err := s.trains.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Kind: "train", ID: strconv.FormatInt(id, 10)}
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

func (s *Service) ticket(ctx context.Context, id string) (*domain.Ticket, error) {
	const op = "service.booking.ticket"

	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Kind: "ticket", ID: id}
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

func committedSeats(err error, seats int) int {
	if err != nil {
		return 0
	}
	return seats
}

func internalErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrInternal, err)
}
