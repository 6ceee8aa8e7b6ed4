package redis

import (
	"context"
	"time"

	"github.com/kirinyoku/railtix/internal/domain"
	"github.com/kirinyoku/railtix/internal/repository"
)

// CachedPromotions reads promotions through the cache. Writers must call
// Cache.InvalidatePromotions after committing a change.
type CachedPromotions struct {
	repo  repository.PromotionRepository
	cache *Cache
	ttl   time.Duration
}

func NewCachedPromotions(repo repository.PromotionRepository, cache *Cache, ttl time.Duration) *CachedPromotions {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedPromotions{repo: repo, cache: cache, ttl: ttl}
}

func (p *CachedPromotions) ListAll(ctx context.Context) ([]domain.Promotion, error) {
	return GetOrSetJSON(ctx, p.cache, KeyPromotions(), p.ttl, p.repo.ListAll)
}
