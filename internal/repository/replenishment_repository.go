// backend-go/internal/repository/replenishment_repository.go
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

// ReplenishmentRepository reads the sales history, policies and catalog behind the estimator
type ReplenishmentRepository interface {
	WeeklyDemand(ctx context.Context, q domain.DemandQuery) ([]domain.DemandObservation, error)
	SalesLines(ctx context.Context, q domain.DemandQuery) ([]domain.SalesLine, error)
	Policies(ctx context.Context) (map[int64]domain.ReplenishmentPolicy, error)
	Products(ctx context.Context) ([]domain.Product, error)
}

type replenishmentRepository struct {
	db      *sqlx.DB
	dialect sqlDialect
}

// NewReplenishmentRepository picks the SQL dialect from the pool's driver name
func NewReplenishmentRepository(db *sqlx.DB) ReplenishmentRepository {
	return &replenishmentRepository{db: db, dialect: dialectFor(db.DriverName())}
}

// sqlDialect holds the expressions that differ between PostgreSQL and SQLite
type sqlDialect struct {
	sqlite bool
	// calendar day of a sale
	day string
	// whole days between the sale day and the anchor bound as the first argument
	daysSinceAnchor string
	// a bound calendar date
	date string
}

func dialectFor(driver string) sqlDialect {
	if driver == "sqlite3" {
		// go-sqlite3 stores time.Time with its UTC offset and date() would shift it to the
		// UTC day; the first 19 characters keep the local wall clock
		return sqlDialect{
			sqlite:          true,
			day:             "date(substr(s.sold_at, 1, 19))",
			daysSinceAnchor: "CAST(julianday(date(substr(s.sold_at, 1, 19))) - julianday(date(?)) AS INTEGER)",
			date:            "date(?)",
		}
	}
	return sqlDialect{
		day:             "s.sold_at::date",
		daysSinceAnchor: "(s.sold_at::date - ?::date)",
		date:            "?::date",
	}
}

// dateArg binds a calendar day the way the driver compares it
func (d sqlDialect) dateArg(t time.Time) interface{} {
	if d.sqlite {
		return t.Format("2006-01-02")
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// salesFilter renders the window and warehouse predicates of q
func (d sqlDialect) salesFilter(q domain.DemandQuery) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if !q.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("%s >= %s", d.day, d.date))
		args = append(args, d.dateArg(q.Since))
	}
	if !q.Until.IsZero() {
		conditions = append(conditions, fmt.Sprintf("%s <= %s", d.day, d.date))
		args = append(args, d.dateArg(q.Until))
	}
	if q.WarehouseID != nil {
		conditions = append(conditions, "s.warehouse_id = ?")
		args = append(args, *q.WarehouseID)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// WeeklyDemand groups sold quantities by product and week bucket in SQL. The bucket is
// floor(days / 7) written with truncating integer division so both engines agree on
// sales before the anchor.
func (r *replenishmentRepository) WeeklyDemand(ctx context.Context, q domain.DemandQuery) ([]domain.DemandObservation, error) {
	where, filterArgs := r.dialect.salesFilter(q)

	query := fmt.Sprintf(`
		SELECT
			product_id,
			(d - ((d %% 7) + 7) %% 7) / 7 AS week_bucket,
			SUM(quantity) AS quantity
		FROM (
			SELECT sl.product_id, sl.quantity, %s AS d
			FROM sales_lines sl
			JOIN sales s ON s.id = sl.sale_id%s
		) t
		GROUP BY 1, 2
		ORDER BY 1, 2
	`, r.dialect.daysSinceAnchor, where)

	args := append([]interface{}{r.dialect.dateArg(q.Anchor)}, filterArgs...)

	var observations []domain.DemandObservation
	if err := r.db.SelectContext(ctx, &observations, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error getting weekly demand: %w", err)
	}

	return observations, nil
}

// SalesLines returns the raw sold lines inside the window
func (r *replenishmentRepository) SalesLines(ctx context.Context, q domain.DemandQuery) ([]domain.SalesLine, error) {
	where, args := r.dialect.salesFilter(q)

	query := `
		SELECT sl.product_id, s.warehouse_id, s.sold_at, sl.quantity
		FROM sales_lines sl
		JOIN sales s ON s.id = sl.sale_id` + where + `
		ORDER BY s.sold_at, sl.id
	`

	var lines []domain.SalesLine
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error getting sales lines: %w", err)
	}

	return lines, nil
}

func (r *replenishmentRepository) Policies(ctx context.Context) (map[int64]domain.ReplenishmentPolicy, error) {
	query := `
		SELECT product_id, lead_time_weeks, coverage_weeks, service_level, lot_minimum, order_multiple
		FROM replenishment_policies
	`

	var rows []domain.ReplenishmentPolicy
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error getting replenishment policies: %w", err)
	}

	policies := make(map[int64]domain.ReplenishmentPolicy, len(rows))
	for _, p := range rows {
		policies[p.ProductID] = p
	}
	return policies, nil
}

func (r *replenishmentRepository) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, `SELECT id, code, name FROM products ORDER BY id`); err != nil {
		return nil, fmt.Errorf("error getting products: %w", err)
	}
	return products, nil
}
