package memoryrepo

import (
	"context"
	"sync"
)

// Store groups the in-memory repositories. RunTx serialises units of work
// with one store-wide lock; plain reads do not take it.
type Store struct {
	mu         sync.Mutex
	tickets    *TicketRepo
	promotions *PromotionRepo
	stations   *StationRepo
	trains     *TrainRepo
}

func NewStore() *Store {
	return &Store{
		tickets:    NewTicketRepo(),
		promotions: NewPromotionRepo(),
		stations:   NewStationRepo(),
		trains:     NewTrainRepo(),
	}
}

// RunTx runs fn while holding the store lock. There is no rollback: callers
// undo their own side effects before returning an error.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(ctx)
}

func (s *Store) Tickets() *TicketRepo       { return s.tickets }
func (s *Store) Promotions() *PromotionRepo { return s.promotions }
func (s *Store) Stations() *StationRepo     { return s.stations }
func (s *Store) Trains() *TrainRepo         { return s.trains }
