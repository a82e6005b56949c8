package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/replenish/backend-go/internal/cache"
	"github.com/andresuchdata/replenish/backend-go/internal/config"
	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/andresuchdata/replenish/backend-go/internal/replenishment"
	"github.com/andresuchdata/replenish/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ReplenishmentService struct {
	estimator *replenishment.Estimator
	cache     cache.SuggestionCache
}

// EstimatorConfig translates the replenishment settings into the model configuration
func EstimatorConfig(cfg config.ReplenishmentConfig) (replenishment.Config, error) {
	out := replenishment.DefaultConfig()

	if cfg.DefaultLeadTimeWeeks < 0 || cfg.DefaultCoverageWeeks < 0 {
		return out, fmt.Errorf("default lead time and coverage weeks must not be negative")
	}
	policy := replenishment.DefaultPolicy()
	policy.LeadTimeWeeks = cfg.DefaultLeadTimeWeeks
	policy.CoverageWeeks = cfg.DefaultCoverageWeeks
	out.DefaultPolicy = &policy

	if cfg.DefaultServiceLevel != "" {
		level, err := decimal.NewFromString(cfg.DefaultServiceLevel)
		if err != nil {
			return out, fmt.Errorf("invalid default service level %q: %w", cfg.DefaultServiceLevel, err)
		}
		policy.ServiceLevel = level
	}

	if cfg.ZTable != "" {
		table, err := replenishment.ParseZTable(cfg.ZTable)
		if err != nil {
			return out, fmt.Errorf("invalid z table: %w", err)
		}
		out.ZScorer = table
	}

	if !cfg.AnchorDate.IsZero() {
		out.Anchor = cfg.AnchorDate
	}
	if cfg.LookbackWeeks > 0 {
		out.DefaultLookbackWeeks = cfg.LookbackWeeks
	}

	return out, nil
}

func NewReplenishmentService(repo repository.ReplenishmentRepository, cacheImpl cache.SuggestionCache, cfg config.ReplenishmentConfig) (*ReplenishmentService, error) {
	estimatorCfg, err := EstimatorConfig(cfg)
	if err != nil {
		return nil, err
	}
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSuggestionCache()
	}

	return &ReplenishmentService{
		estimator: replenishment.NewEstimator(repo, repo, repo, estimatorCfg),
		cache:     cacheImpl,
	}, nil
}

// WithClock pins the estimator clock
func (s *ReplenishmentService) WithClock(now func() time.Time) *ReplenishmentService {
	s.estimator.WithClock(now)
	return s
}

// Query resolves the demand window a request would read
func (s *ReplenishmentService) Query(req domain.ReplenishmentRequest) domain.DemandQuery {
	return s.estimator.Query(req)
}

// DefaultLookbackWeeks is the window used for requests that do not set one
func (s *ReplenishmentService) DefaultLookbackWeeks() int {
	return s.estimator.Config().DefaultLookbackWeeks
}

func (s *ReplenishmentService) GetSuggestions(ctx context.Context, req domain.ReplenishmentRequest) ([]domain.ReplenishmentSuggestion, error) {
	q := s.estimator.Query(req)

	if suggestions, ok, err := s.cache.GetSuggestions(ctx, q); err == nil && ok {
		return suggestions, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("replenishment: cache get suggestions failed")
	}

	suggestions, err := s.estimator.Compute(ctx, req)
	if err != nil {
		return nil, err
	}
	if suggestions == nil {
		suggestions = make([]domain.ReplenishmentSuggestion, 0)
	}

	if err := s.cache.SetSuggestions(ctx, q, suggestions); err != nil {
		log.Warn().Err(err).Msg("replenishment: cache set suggestions failed")
	}

	return suggestions, nil
}

func (s *ReplenishmentService) ResolvePolicy(ctx context.Context, productID int64) (domain.ReplenishmentPolicy, bool, error) {
	return s.estimator.ResolvePolicy(ctx, productID)
}

func (s *ReplenishmentService) InvalidateCache(ctx context.Context) error {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidate suggestions cache: %w", err)
	}
	log.Info().Msg("replenishment: suggestions cache invalidated")
	return nil
}
