package services

import (
	"context"
	"fmt"

	"storefront/internal/caching"
	"storefront/internal/repositories"

	"github.com/rs/zerolog/log"
)

// CacheInvalidationService forgets cached catalog entries.
type CacheInvalidationService interface {
	// InvalidateProducts forgets every cached listing page and the given product keys.
	InvalidateProducts(ctx context.Context, productIDs ...int64) error
	// ClearProducts forgets the listing grid and the key of every product in the database.
	ClearProducts(ctx context.Context) (int, error)
	// ClearAll forgets every registered cache key.
	ClearAll(ctx context.Context) (int, error)
	// Sweep drops registry entries whose keys have expired.
	Sweep(ctx context.Context) (int, error)
}

type cacheInvalidationService struct {
	productRepo  repositories.ProductRepository
	cacheService caching.CacheService
}

func NewCacheInvalidationService(productRepo repositories.ProductRepository, cacheService caching.CacheService) CacheInvalidationService {
	return &cacheInvalidationService{
		productRepo:  productRepo,
		cacheService: cacheService,
	}
}

func (s *cacheInvalidationService) InvalidateProducts(ctx context.Context, productIDs ...int64) error {
	_, err := s.forgetProducts(ctx, productIDs)
	return err
}

func (s *cacheInvalidationService) ClearProducts(ctx context.Context) (int, error) {
	ids, err := s.productRepo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	cleared, err := s.forgetProducts(ctx, ids)
	if err != nil {
		return 0, err
	}
	log.Info().Int("keys", cleared).Int("products", len(ids)).Msg("product cache cleared")
	return cleared, nil
}

// forgetProducts deletes the listing grid, any other registered listing page,
// and the given product keys. It returns the number of distinct keys targeted.
func (s *cacheInvalidationService) forgetProducts(ctx context.Context, productIDs []int64) (int, error) {
	keys := caching.GridKeys()
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}

	registered, err := s.cacheService.RegisteredKeys(ctx, caching.ProductPageKeyPrefix)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read cache registry, forgetting the listing grid only")
	}
	for _, k := range registered {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, id := range productIDs {
		keys = append(keys, caching.ProductKey(id))
	}

	if err := s.cacheService.Forget(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to forget product cache keys: %w", err)
	}
	return len(keys), nil
}

func (s *cacheInvalidationService) ClearAll(ctx context.Context) (int, error) {
	n, err := s.cacheService.ForgetRegistered(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to forget registered cache keys: %w", err)
	}
	log.Info().Int("keys", n).Msg("all registered cache keys cleared")
	return n, nil
}

func (s *cacheInvalidationService) Sweep(ctx context.Context) (int, error) {
	n, err := s.cacheService.PruneRegistry(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache registry: %w", err)
	}
	return n, nil
}
