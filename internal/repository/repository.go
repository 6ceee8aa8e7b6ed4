package repository

import (
	"context"

	"github.com/kirinyoku/railtix/internal/domain"
)

// TicketRepository stores issued tickets. Lookups for a missing id return
// ErrNotFound.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Add(ctx context.Context, t domain.Ticket) error
	Replace(ctx context.Context, t domain.Ticket) error
	DeleteByID(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]domain.Ticket, error)
}

// PromotionRepository lists promotions in a stable order; the pricing tie-break
// depends on it.
type PromotionRepository interface {
	ListAll(ctx context.Context) ([]domain.Promotion, error)
	Add(ctx context.Context, p domain.Promotion) error
	DeleteByID(ctx context.Context, id string) error
}

type StationRepository interface {
	ListStations(ctx context.Context) ([]domain.Station, error)
	ListDistances(ctx context.Context) ([]domain.DistanceEntry, error)
	UpsertStations(ctx context.Context, stations []domain.Station) error
	UpsertDistances(ctx context.Context, distances []domain.DistanceEntry) error
}

type TrainRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Train, error)
	ListAll(ctx context.Context) ([]domain.Train, error)
	Add(ctx context.Context, t domain.Train) error
}

// SeatLedger tracks free seats per train. Unknown trains start at the
// ledger's capacity. Reserve is an atomic check-and-decrement.
type SeatLedger interface {
	Available(ctx context.Context, trainID int64) (int, error)
	Reserve(ctx context.Context, trainID int64, seats int) (bool, error)
	Release(ctx context.Context, trainID int64, seats int) error
	Capacity() int
}
