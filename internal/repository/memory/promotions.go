package memoryrepo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/repository"
)

// PromotionRepo keeps promotions in insertion order. Readers load an
// immutable snapshot without locking; writers copy it, change the copy and
// publish it.
type PromotionRepo struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[[]domain.Promotion]
}

func NewPromotionRepo() *PromotionRepo {
	r := &PromotionRepo{}
	r.snapshot.Store(&[]domain.Promotion{})
	return r
}

func (r *PromotionRepo) ListAll(_ context.Context) ([]domain.Promotion, error) {
	return slices.Clone(*r.snapshot.Load()), nil
}

func (r *PromotionRepo) Add(_ context.Context, p domain.Promotion) error {
	const op = "memoryrepo.PromotionRepo.Add"

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.snapshot.Load()
	if slices.ContainsFunc(cur, func(x domain.Promotion) bool { return strings.EqualFold(x.ID, p.ID) }) {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	next := append(slices.Clone(cur), p)
	r.snapshot.Store(&next)

	return nil
}

func (r *PromotionRepo) DeleteByID(_ context.Context, id string) error {
	const op = "memoryrepo.PromotionRepo.DeleteByID"

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.snapshot.Load()
	idx := slices.IndexFunc(cur, func(x domain.Promotion) bool { return strings.EqualFold(x.ID, id) })
	if idx < 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	next := slices.Delete(slices.Clone(cur), idx, idx+1)
	r.snapshot.Store(&next)

	return nil
}
