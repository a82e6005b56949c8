package replenishment

import (
	"sort"
	"time"

	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

const daysPerWeek = 7

// DefaultAnchor is the fixed Monday that numbers week buckets.
// Changing it renumbers every bucket, so it must stay stable across runs.
var DefaultAnchor = time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)

// CalendarDay drops the time of day, keeping the calendar date as seen in t's location
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b
func DaysBetween(a, b time.Time) int64 {
	return int64(CalendarDay(b).Sub(CalendarDay(a)).Hours() / 24)
}

// WeekBucket returns floor((date - anchor) / 7 days) on calendar dates
func WeekBucket(date, anchor time.Time) int64 {
	days := DaysBetween(anchor, date)
	bucket := days / daysPerWeek
	if days%daysPerWeek < 0 {
		bucket--
	}
	return bucket
}

// LookbackWindow returns the inclusive calendar window [today - 7*weeks, today]
func LookbackWindow(today time.Time, weeks int) (since, until time.Time) {
	until = CalendarDay(today)
	since = until.AddDate(0, 0, -daysPerWeek*weeks)
	return since, until
}

// Aggregator folds raw sales lines into weekly demand observations
type Aggregator struct{}

// Aggregate sums line quantities per (product, week bucket) for lines inside the query window.
// Output is ordered by product then bucket so results are deterministic.
func (Aggregator) Aggregate(lines []domain.SalesLine, q domain.DemandQuery) []domain.DemandObservation {
	anchor := q.Anchor
	if anchor.IsZero() {
		anchor = DefaultAnchor
	}
	since := CalendarDay(q.Since)
	until := CalendarDay(q.Until)

	type key struct {
		productID int64
		bucket    int64
	}
	totals := make(map[key]decimal.Decimal)

	for _, line := range lines {
		if q.WarehouseID != nil && line.WarehouseID != *q.WarehouseID {
			continue
		}
		day := CalendarDay(line.SoldAt)
		if !q.Since.IsZero() && day.Before(since) {
			continue
		}
		if !q.Until.IsZero() && day.After(until) {
			continue
		}

		k := key{productID: line.ProductID, bucket: WeekBucket(line.SoldAt, anchor)}
		totals[k] = totals[k].Add(line.Quantity)
	}

	out := make([]domain.DemandObservation, 0, len(totals))
	for k, qty := range totals {
		out = append(out, domain.DemandObservation{
			ProductID:  k.productID,
			WeekBucket: k.bucket,
			Quantity:   qty,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].WeekBucket < out[j].WeekBucket
	})

	return out
}
