// Package memoryrepo holds in-process implementations of the repository
// interfaces. They are used when the service runs without Postgres and in
// tests.
package memoryrepo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/repository"
)

type TicketRepo struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
}

func NewTicketRepo() *TicketRepo {
	return &TicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *TicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	const op = "memoryrepo.TicketRepo.GetByID"

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return &t, nil
}

func (r *TicketRepo) Add(_ context.Context, t domain.Ticket) error {
	const op = "memoryrepo.TicketRepo.Add"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[t.ID]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}
	r.tickets[t.ID] = t

	return nil
}

func (r *TicketRepo) Replace(_ context.Context, t domain.Ticket) error {
	const op = "memoryrepo.TicketRepo.Replace"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[t.ID]; !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}
	r.tickets[t.ID] = t

	return nil
}

func (r *TicketRepo) DeleteByID(_ context.Context, id string) error {
	const op = "memoryrepo.TicketRepo.DeleteByID"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[id]; !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}
	delete(r.tickets, id)

	return nil
}

// ListAll returns tickets oldest first.
func (r *TicketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	r.mu.RLock()
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		out = append(out, t)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Ticket) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return out, nil
}
