package database

import (
	"context"
	"encoding/json"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
)

// CachedTechnicianAdapter wraps a TechnicianRepository with a read-through cache
// for single-technician lookups
type CachedTechnicianAdapter struct {
	repositories.TechnicianRepository
	cache      providers.CacheProvider
	ttlSeconds int
}

// NewCachedTechnicianAdapter creates a new cached technician adapter
func NewCachedTechnicianAdapter(adapter repositories.TechnicianRepository, cache providers.CacheProvider, ttlSeconds int) repositories.TechnicianRepository {
	return &CachedTechnicianAdapter{
		TechnicianRepository: adapter,
		cache:                cache,
		ttlSeconds:           ttlSeconds,
	}
}

// GetByID retrieves a technician by ID with caching
func (a *CachedTechnicianAdapter) GetByID(ctx context.Context, id string) (*entities.Technician, error) {
	logger := observability.LoggerFromContext(ctx)
	cacheKey := providers.TechnicianCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var technician entities.Technician
		if err := json.Unmarshal(cached, &technician); err == nil {
			return &technician, nil
		}
		logger.Warn().Str("technician_id", id).Msg("discarding unreadable cached technician")
	}

	technician, err := a.TechnicianRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(technician); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, a.ttlSeconds); err != nil {
			logger.Warn().Err(err).Str("technician_id", id).Msg("failed to cache technician")
		}
	}
	return technician, nil
}

// Update updates the technician and drops its cached copy
func (a *CachedTechnicianAdapter) Update(ctx context.Context, technician *entities.Technician) error {
	if err := a.TechnicianRepository.Update(ctx, technician); err != nil {
		return err
	}
	a.invalidate(ctx, technician.ID)
	return nil
}

// UpdateRatingStats persists the derived figures and drops the cached copy
// once the surrounding transaction, if any, commits
func (a *CachedTechnicianAdapter) UpdateRatingStats(ctx context.Context, id string, summary entities.RatingSummary) error {
	if err := a.TechnicianRepository.UpdateRatingStats(ctx, id, summary); err != nil {
		return err
	}
	a.invalidate(ctx, id)
	return nil
}

// invalidate deletes the cached record after commit so a concurrent read
// cannot re-cache the row the transaction is replacing
func (a *CachedTechnicianAdapter) invalidate(ctx context.Context, id string) {
	afterCommit(ctx, func(ctx context.Context) {
		if err := a.cache.Delete(ctx, providers.TechnicianCacheKey(id)); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("technician_id", id).
				Msg("failed to invalidate cached technician")
		}
	})
}
