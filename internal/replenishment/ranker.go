package replenishment

import (
	"sort"

	"github.com/andresuchdata/replenish/backend-go/internal/domain"
)

// BuildSuggestions creates one suggestion per catalog product, including products without
// demand, which get zero statistics
func BuildSuggestions(
	products []domain.Product,
	stats map[int64]domain.ProductDemandStats,
	resolver *PolicyResolver,
	calculator *BaseStockCalculator,
) []domain.ReplenishmentSuggestion {
	suggestions := make([]domain.ReplenishmentSuggestion, 0, len(products))
	for _, product := range products {
		s, ok := stats[product.ID]
		if !ok {
			s = domain.ProductDemandStats{ProductID: product.ID}
		}
		policy, _ := resolver.Resolve(product.ID)
		suggestions = append(suggestions, calculator.Suggest(product, s, policy))
	}
	return suggestions
}

// RankSuggestions drops suggestions without positive mean weekly demand and orders the rest
// by recommended quantity, largest first. Ties keep their input order.
func RankSuggestions(suggestions []domain.ReplenishmentSuggestion) []domain.ReplenishmentSuggestion {
	ranked := make([]domain.ReplenishmentSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if !s.MeanWeekly.IsPositive() {
			continue
		}
		ranked = append(ranked, s)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RecommendedQuantity.GreaterThan(ranked[j].RecommendedQuantity)
	})

	return ranked
}
