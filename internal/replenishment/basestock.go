package replenishment

import (
	"math"

	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// reportPrecision is the number of decimals shown for mean, stdev, protection demand and safety stock
const reportPrecision = 3

// BaseStock holds the full-precision result of the base-stock model for one product
type BaseStock struct {
	ProtectionPeriodWeeks int
	Z                     decimal.Decimal
	ProtectionDemand      decimal.Decimal
	SafetyStock           decimal.Decimal
	TargetStock           decimal.Decimal
	RecommendedQuantity   decimal.Decimal
}

// BaseStockCalculator computes target stock levels from weekly demand statistics
type BaseStockCalculator struct {
	zScorer ZScorer
}

// NewBaseStockCalculator creates a calculator; a nil scorer means DefaultZTable
func NewBaseStockCalculator(zScorer ZScorer) *BaseStockCalculator {
	if zScorer == nil {
		zScorer = DefaultZTable()
	}
	return &BaseStockCalculator{zScorer: zScorer}
}

// Calculate applies the base-stock model to one product's mean and standard deviation
func (c *BaseStockCalculator) Calculate(mean, stdev decimal.Decimal, policy domain.ReplenishmentPolicy) BaseStock {
	result := BaseStock{}

	// 1. Protection period P = lead time + coverage
	result.ProtectionPeriodWeeks = policy.LeadTimeWeeks + policy.CoverageWeeks
	p := decimal.NewFromInt(int64(result.ProtectionPeriodWeeks))

	// 2. Expected demand over the protection period
	result.ProtectionDemand = mean.Mul(p)

	// 3. Safety stock = z × σ × √P
	result.Z = c.zScorer.Z(policy.ServiceLevel)
	sqrtP := decimal.NewFromFloat(math.Sqrt(math.Max(0, float64(result.ProtectionPeriodWeeks))))
	result.SafetyStock = result.Z.Mul(stdev).Mul(sqrtP)

	// 4. Target stock is rounded up to whole units and never negative
	result.TargetStock = result.ProtectionDemand.Add(result.SafetyStock).Ceil()
	if result.TargetStock.IsNegative() {
		result.TargetStock = decimal.Zero
	}

	// 5. No on-hand stock is tracked, so the whole target is recommended
	result.RecommendedQuantity = result.TargetStock

	return result
}

// Suggest builds the reported suggestion for a product; displayed values are rounded last
func (c *BaseStockCalculator) Suggest(product domain.Product, stats domain.ProductDemandStats, policy domain.ReplenishmentPolicy) domain.ReplenishmentSuggestion {
	bs := c.Calculate(stats.Mean, stats.Stdev, policy)

	return domain.ReplenishmentSuggestion{
		ProductID:             product.ID,
		ProductLabel:          product.Label(),
		MeanWeekly:            stats.Mean.Round(reportPrecision),
		StdevWeekly:           stats.Stdev.Round(reportPrecision),
		ObservedWeeks:         stats.ObservationCount,
		LeadTimeWeeks:         policy.LeadTimeWeeks,
		CoverageWeeks:         policy.CoverageWeeks,
		ServiceLevel:          policy.ServiceLevel,
		ZScore:                bs.Z,
		ProtectionPeriodWeeks: bs.ProtectionPeriodWeeks,
		ProtectionDemand:      bs.ProtectionDemand.Round(reportPrecision),
		SafetyStock:           bs.SafetyStock.Round(reportPrecision),
		TargetStock:           bs.TargetStock,
		RecommendedQuantity:   bs.RecommendedQuantity,
		LotMinimum:            policy.LotMinimum,
		OrderMultiple:         policy.OrderMultiple,
		OrderQuantity:         ApplyOrderConstraints(bs.RecommendedQuantity, policy.LotMinimum, policy.OrderMultiple),
	}
}

// ApplyOrderConstraints raises qty to the lot minimum and then up to the next order multiple.
// Zero stays zero; nil or non-positive constraints are ignored.
func ApplyOrderConstraints(qty decimal.Decimal, lotMinimum, orderMultiple *int) decimal.Decimal {
	if !qty.IsPositive() {
		return qty
	}

	if lotMinimum != nil && *lotMinimum > 0 {
		minimum := decimal.NewFromInt(int64(*lotMinimum))
		if qty.LessThan(minimum) {
			qty = minimum
		}
	}

	if orderMultiple != nil && *orderMultiple > 0 {
		multiple := decimal.NewFromInt(int64(*orderMultiple))
		packs := qty.Div(multiple).Ceil()
		qty = packs.Mul(multiple)
	}

	return qty
}
