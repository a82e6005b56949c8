package replenishment

import (
	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultPolicy returns the policy applied to products without one: 1 week lead time,
// 2 weeks coverage, 95% service level and no purchasing constraints
func DefaultPolicy() domain.ReplenishmentPolicy {
	return domain.ReplenishmentPolicy{
		LeadTimeWeeks: 1,
		CoverageWeeks: 2,
		ServiceLevel:  decimal.RequireFromString("0.95"),
	}
}

// PolicyResolver answers the policy of each product, substituting defaults when none is configured
type PolicyResolver struct {
	defaults domain.ReplenishmentPolicy
	policies map[int64]domain.ReplenishmentPolicy
}

// NewPolicyResolver builds a resolver over the configured policies keyed by product id
func NewPolicyResolver(defaults domain.ReplenishmentPolicy, policies map[int64]domain.ReplenishmentPolicy) *PolicyResolver {
	return &PolicyResolver{defaults: defaults, policies: policies}
}

// Resolve returns the product's own policy and true, or the defaults and false.
// A missing policy is the normal case for new products and is never an error.
func (r *PolicyResolver) Resolve(productID int64) (domain.ReplenishmentPolicy, bool) {
	if p, ok := r.policies[productID]; ok && p.ProductID == productID {
		return p, true
	}

	p := r.defaults
	p.ProductID = productID
	return p, false
}
