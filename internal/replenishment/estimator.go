// Package replenishment turns weekly sales history into ranked purchase suggestions
// using a base-stock model with a service-level safety stock.
package replenishment

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultLookbackWeeks is the history window used when the caller does not pick one
const DefaultLookbackWeeks = 12

// DemandSource returns weekly demand already grouped by (product, week bucket)
type DemandSource interface {
	WeeklyDemand(ctx context.Context, q domain.DemandQuery) ([]domain.DemandObservation, error)
}

// SalesLineSource returns raw sold lines, filtered by window and warehouse
type SalesLineSource interface {
	SalesLines(ctx context.Context, q domain.DemandQuery) ([]domain.SalesLine, error)
}

// PolicyStore returns the configured replenishment policies keyed by product id
type PolicyStore interface {
	Policies(ctx context.Context) (map[int64]domain.ReplenishmentPolicy, error)
}

// Catalog enumerates every product that may receive a suggestion
type Catalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// LineDemandSource groups a line source in memory, for sources that cannot group themselves
type LineDemandSource struct {
	Lines SalesLineSource
}

// WeeklyDemand implements DemandSource
func (s LineDemandSource) WeeklyDemand(ctx context.Context, q domain.DemandQuery) ([]domain.DemandObservation, error) {
	lines, err := s.Lines.SalesLines(ctx, q)
	if err != nil {
		return nil, err
	}
	return Aggregator{}.Aggregate(lines, q), nil
}

// Config carries the tunable parts of the model
type Config struct {
	// DefaultPolicy applies to products without their own policy; nil means DefaultPolicy()
	DefaultPolicy        *domain.ReplenishmentPolicy
	ZScorer              ZScorer
	Anchor               time.Time
	DefaultLookbackWeeks int
}

// DefaultConfig returns the stock defaults: 1/2/0.95 policy, the step z table, Monday 2000-01-03
func DefaultConfig() Config {
	policy := DefaultPolicy()
	return Config{
		DefaultPolicy:        &policy,
		ZScorer:              DefaultZTable(),
		Anchor:               DefaultAnchor,
		DefaultLookbackWeeks: DefaultLookbackWeeks,
	}
}

// Estimator computes replenishment suggestions from its sources
type Estimator struct {
	demand     DemandSource
	policies   PolicyStore
	catalog    Catalog
	cfg        Config
	calculator *BaseStockCalculator
	now        func() time.Time
}

// NewEstimator creates an estimator; zero-valued config fields take their defaults
func NewEstimator(demand DemandSource, policies PolicyStore, catalog Catalog, cfg Config) *Estimator {
	defaults := DefaultConfig()
	if cfg.ZScorer == nil {
		cfg.ZScorer = defaults.ZScorer
	}
	if cfg.Anchor.IsZero() {
		cfg.Anchor = defaults.Anchor
	}
	if cfg.DefaultLookbackWeeks <= 0 {
		cfg.DefaultLookbackWeeks = defaults.DefaultLookbackWeeks
	}
	if cfg.DefaultPolicy == nil {
		cfg.DefaultPolicy = defaults.DefaultPolicy
	}

	return &Estimator{
		demand:     demand,
		policies:   policies,
		catalog:    catalog,
		cfg:        cfg,
		calculator: NewBaseStockCalculator(cfg.ZScorer),
		now:        time.Now,
	}
}

// WithClock replaces the clock used to place the lookback window
func (e *Estimator) WithClock(now func() time.Time) *Estimator {
	e.now = now
	return e
}

// Config returns the effective configuration
func (e *Estimator) Config() Config {
	return e.cfg
}

// Query builds the demand query for a request, anchored on today
func (e *Estimator) Query(req domain.ReplenishmentRequest) domain.DemandQuery {
	weeks := req.LookbackWeeks
	if weeks <= 0 {
		weeks = e.cfg.DefaultLookbackWeeks
	}
	since, until := LookbackWindow(e.now(), weeks)
	return domain.DemandQuery{
		Since:       since,
		Until:       until,
		WarehouseID: req.WarehouseID,
		Anchor:      e.cfg.Anchor,
	}
}

// Compute returns suggestions for every product with observed demand, largest recommended
// quantity first. Any source failure aborts the computation; no partial result is returned.
func (e *Estimator) Compute(ctx context.Context, req domain.ReplenishmentRequest) ([]domain.ReplenishmentSuggestion, error) {
	q := e.Query(req)

	var (
		observations []domain.DemandObservation
		products     []domain.Product
		policies     map[int64]domain.ReplenishmentPolicy
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if observations, err = e.demand.WeeklyDemand(gctx, q); err != nil {
			return fmt.Errorf("load weekly demand: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if products, err = e.catalog.Products(gctx); err != nil {
			return fmt.Errorf("load product catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if policies, err = e.policies.Policies(gctx); err != nil {
			return fmt.Errorf("load replenishment policies: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("replenishment: %w", err)
	}

	stats := EstimateDemandStats(observations)
	resolver := NewPolicyResolver(*e.cfg.DefaultPolicy, policies)
	ranked := RankSuggestions(BuildSuggestions(products, stats, resolver, e.calculator))

	log.Debug().
		Time("since", q.Since).
		Time("until", q.Until).
		Int("observations", len(observations)).
		Int("products", len(products)).
		Int("suggestions", len(ranked)).
		Msg("replenishment computed")

	return ranked, nil
}

// ResolvePolicy returns the effective policy of a product and whether it is its own
func (e *Estimator) ResolvePolicy(ctx context.Context, productID int64) (domain.ReplenishmentPolicy, bool, error) {
	policies, err := e.policies.Policies(ctx)
	if err != nil {
		return domain.ReplenishmentPolicy{}, false, fmt.Errorf("replenishment: load replenishment policies: %w", err)
	}
	policy, own := NewPolicyResolver(*e.cfg.DefaultPolicy, policies).Resolve(productID)
	return policy, own, nil
}
