package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry used to label and enumerate suggestions
type Product struct {
	ID   int64  `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// Label renders the product the way reports show it: "<code> - <name>"
func (p Product) Label() string {
	return p.Code + " - " + p.Name
}

// SalesLine is a single sold detail line from the sales history
type SalesLine struct {
	ProductID   int64           `json:"product_id" db:"product_id"`
	WarehouseID int64           `json:"warehouse_id" db:"warehouse_id"`
	SoldAt      time.Time       `json:"sold_at" db:"sold_at"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
}

// DemandObservation is the total quantity sold for a product within one week bucket.
// Weeks without sales never produce an observation.
type DemandObservation struct {
	ProductID  int64           `json:"product_id" db:"product_id"`
	WeekBucket int64           `json:"week_bucket" db:"week_bucket"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
}

// DemandQuery selects the sales history that feeds the estimator
type DemandQuery struct {
	Since       time.Time // first calendar day included
	Until       time.Time // last calendar day included
	WarehouseID *int64
	Anchor      time.Time // Monday used as week zero
}

// ProductDemandStats holds the full-precision weekly demand statistics of a product
type ProductDemandStats struct {
	ProductID        int64
	Mean             decimal.Decimal
	Stdev            decimal.Decimal
	ObservationCount int
}

// ReplenishmentPolicy is the purchasing policy configured for a product
type ReplenishmentPolicy struct {
	ProductID     int64           `json:"product_id" db:"product_id"`
	LeadTimeWeeks int             `json:"lead_time_weeks" db:"lead_time_weeks"`
	CoverageWeeks int             `json:"coverage_weeks" db:"coverage_weeks"`
	ServiceLevel  decimal.Decimal `json:"service_level" db:"service_level"`
	LotMinimum    *int            `json:"lot_minimum" db:"lot_minimum"`
	OrderMultiple *int            `json:"order_multiple" db:"order_multiple"`
}

// ReplenishmentSuggestion is one row of the purchase suggestion report
type ReplenishmentSuggestion struct {
	ProductID             int64           `json:"product_id"`
	ProductLabel          string          `json:"product_label"`
	MeanWeekly            decimal.Decimal `json:"mean_weekly"`
	StdevWeekly           decimal.Decimal `json:"stdev_weekly"`
	ObservedWeeks         int             `json:"observed_weeks"`
	LeadTimeWeeks         int             `json:"lead_time_weeks"`
	CoverageWeeks         int             `json:"coverage_weeks"`
	ServiceLevel          decimal.Decimal `json:"service_level"`
	ZScore                decimal.Decimal `json:"z_score"`
	ProtectionPeriodWeeks int             `json:"protection_period_weeks"`
	ProtectionDemand      decimal.Decimal `json:"protection_demand"`
	SafetyStock           decimal.Decimal `json:"safety_stock"`
	TargetStock           decimal.Decimal `json:"target_stock"`
	RecommendedQuantity   decimal.Decimal `json:"recommended_quantity"`

	// Purchasing constraints; OrderQuantity is RecommendedQuantity rounded up to them
	LotMinimum    *int            `json:"lot_minimum,omitempty"`
	OrderMultiple *int            `json:"order_multiple,omitempty"`
	OrderQuantity decimal.Decimal `json:"order_quantity"`
}

// ReplenishmentRequest carries the caller's parameters for one computation
type ReplenishmentRequest struct {
	LookbackWeeks int    `json:"lookback_weeks"`
	WarehouseID   *int64 `json:"warehouse_id"`
}
