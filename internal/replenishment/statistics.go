package replenishment

import (
	"math"

	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// EstimateDemandStats computes mean and sample standard deviation of weekly demand per product.
//
// Only observed weeks count: a week with no sales is absent, not zero, so intermittent
// sellers get the mean of their selling weeks. Products without observations are absent
// from the result.
func EstimateDemandStats(observations []domain.DemandObservation) map[int64]domain.ProductDemandStats {
	grouped := make(map[int64][]float64)
	for _, obs := range observations {
		grouped[obs.ProductID] = append(grouped[obs.ProductID], obs.Quantity.InexactFloat64())
	}

	stats := make(map[int64]domain.ProductDemandStats, len(grouped))
	for productID, quantities := range grouped {
		mean, stdev := meanStdev(quantities)
		stats[productID] = domain.ProductDemandStats{
			ProductID:        productID,
			Mean:             decimal.NewFromFloat(mean),
			Stdev:            decimal.NewFromFloat(stdev),
			ObservationCount: len(quantities),
		}
	}

	return stats
}

// meanStdev returns the arithmetic mean and the Bessel-corrected standard deviation.
// A single value has a standard deviation of zero.
func meanStdev(values []float64) (float64, float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	if n < 2 {
		return mean, 0
	}

	var squares float64
	for _, v := range values {
		d := v - mean
		squares += d * d
	}

	return mean, math.Sqrt(squares / float64(n-1))
}
