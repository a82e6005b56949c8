package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/backend-go/internal/database"
	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/andresuchdata/replenish/backend-go/internal/replenishment"
	"github.com/shopspring/decimal"
)

func newTestRepository(t *testing.T) (ReplenishmentRepository, *database.DB) {
	t.Helper()

	db, err := database.OpenURL("sqlite://:memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := database.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("schema: %v", err)
	}

	fixtures := []string{
		`INSERT INTO warehouses (id, code, name) VALUES (1, 'W1', 'Central'), (2, 'W2', 'North')`,
		`INSERT INTO products (id, code, name) VALUES (1, 'A', 'Alpha'), (2, 'B', 'Beta'), (3, 'C', 'Gamma')`,
		`INSERT INTO sales (id, warehouse_id, number, sold_at) VALUES
			(1, 1, 'S-1', '2026-09-10 09:00:00'),
			(2, 1, 'S-2', '2026-09-14 08:00:00'),
			(3, 1, 'S-3', '2026-09-20 23:59:00'),
			(4, 2, 'S-4', '2026-09-21 12:00:00'),
			(5, 1, 'S-5', '2026-10-01 10:00:00'),
			(6, 1, 'S-6', '2026-06-01 10:00:00')`,
		`INSERT INTO sales_lines (id, sale_id, product_id, quantity) VALUES
			(1, 1, 1, 4),
			(2, 2, 1, 10),
			(3, 3, 1, 2.5),
			(4, 3, 2, 7),
			(5, 4, 1, 1.25),
			(6, 5, 2, 3),
			(7, 6, 2, 100)`,
		`INSERT INTO replenishment_policies (id, product_id, lead_time_weeks, coverage_weeks, service_level, lot_minimum, order_multiple)
			VALUES (1, 2, 3, 1, 0.99, 12, NULL)`,
	}
	for _, stmt := range fixtures {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("fixture %q: %v", stmt, err)
		}
	}

	return NewReplenishmentRepository(db.DB), db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeeklyDemand_MatchesInMemoryAggregation(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	warehouse := int64(1)

	tests := []struct {
		name string
		q    domain.DemandQuery
	}{
		{"all history", domain.DemandQuery{Anchor: replenishment.DefaultAnchor}},
		{"window", domain.DemandQuery{Since: day(2026, time.September, 1), Until: day(2026, time.October, 14), Anchor: replenishment.DefaultAnchor}},
		{"anchor after early sales", domain.DemandQuery{Anchor: day(2026, time.September, 14)}},
		{"warehouse", domain.DemandQuery{WarehouseID: &warehouse, Since: day(2026, time.September, 1), Anchor: replenishment.DefaultAnchor}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.WeeklyDemand(ctx, tt.q)
			if err != nil {
				t.Fatalf("WeeklyDemand: %v", err)
			}
			lines, err := repo.SalesLines(ctx, tt.q)
			if err != nil {
				t.Fatalf("SalesLines: %v", err)
			}
			want := replenishment.Aggregator{}.Aggregate(lines, tt.q)

			if len(got) != len(want) {
				t.Fatalf("observations = %+v, want %+v", got, want)
			}
			for i := range want {
				if got[i].ProductID != want[i].ProductID || got[i].WeekBucket != want[i].WeekBucket || !got[i].Quantity.Equal(want[i].Quantity) {
					t.Errorf("observation %d = %+v, want %+v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestWeeklyDemand_OffsetTimestampsKeepLocalDay(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	// Monday 01:00 at +07:00 is still Sunday in UTC
	soldAt := time.Date(2026, time.September, 14, 1, 0, 0, 0, time.FixedZone("ICT", 7*60*60))
	if _, err := db.ExecContext(ctx, `INSERT INTO sales (id, warehouse_id, number, sold_at) VALUES (?, ?, ?, ?)`, 7, 2, "S-7", soldAt); err != nil {
		t.Fatalf("insert sale: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO sales_lines (id, sale_id, product_id, quantity) VALUES (8, 7, 3, 5)`); err != nil {
		t.Fatalf("insert line: %v", err)
	}

	productThree := func(obs []domain.DemandObservation) []domain.DemandObservation {
		var out []domain.DemandObservation
		for _, o := range obs {
			if o.ProductID == 3 {
				out = append(out, o)
			}
		}
		return out
	}

	tests := []struct {
		name       string
		q          domain.DemandQuery
		wantBucket int64
	}{
		{"default anchor", domain.DemandQuery{Anchor: replenishment.DefaultAnchor}, 1393},
		{"window starts on the local day", domain.DemandQuery{Since: day(2026, time.September, 14), Until: day(2026, time.September, 14), Anchor: day(2026, time.September, 14)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.WeeklyDemand(ctx, tt.q)
			if err != nil {
				t.Fatalf("WeeklyDemand: %v", err)
			}
			lines, err := repo.SalesLines(ctx, tt.q)
			if err != nil {
				t.Fatalf("SalesLines: %v", err)
			}
			sql := productThree(got)
			mem := productThree(replenishment.Aggregator{}.Aggregate(lines, tt.q))

			if len(sql) != 1 || len(mem) != 1 {
				t.Fatalf("sql = %+v, mem = %+v", sql, mem)
			}
			if sql[0].WeekBucket != tt.wantBucket || mem[0].WeekBucket != tt.wantBucket {
				t.Errorf("buckets sql = %d, mem = %d, want %d", sql[0].WeekBucket, mem[0].WeekBucket, tt.wantBucket)
			}
			if !sql[0].Quantity.Equal(decimal.NewFromInt(5)) {
				t.Errorf("quantity = %s", sql[0].Quantity)
			}
		})
	}
}

func TestWeeklyDemand_Buckets(t *testing.T) {
	repo, _ := newTestRepository(t)

	q := domain.DemandQuery{Since: day(2026, time.September, 1), Until: day(2026, time.October, 14), Anchor: day(2026, time.September, 14)}
	got, err := repo.WeeklyDemand(context.Background(), q)
	if err != nil {
		t.Fatalf("WeeklyDemand: %v", err)
	}

	// Thursday before the anchor falls in week -1; Sunday 20th closes week 0
	want := []domain.DemandObservation{
		{ProductID: 1, WeekBucket: -1, Quantity: decimal.NewFromInt(4)},
		{ProductID: 1, WeekBucket: 0, Quantity: decimal.RequireFromString("12.5")},
		{ProductID: 1, WeekBucket: 1, Quantity: decimal.RequireFromString("1.25")},
		{ProductID: 2, WeekBucket: 0, Quantity: decimal.NewFromInt(7)},
		{ProductID: 2, WeekBucket: 2, Quantity: decimal.NewFromInt(3)},
	}
	if len(got) != len(want) {
		t.Fatalf("observations = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i].ProductID != want[i].ProductID || got[i].WeekBucket != want[i].WeekBucket || !got[i].Quantity.Equal(want[i].Quantity) {
			t.Errorf("observation %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSalesLines_Filters(t *testing.T) {
	repo, _ := newTestRepository(t)
	warehouse := int64(2)

	lines, err := repo.SalesLines(context.Background(), domain.DemandQuery{WarehouseID: &warehouse})
	if err != nil {
		t.Fatalf("SalesLines: %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != 1 || lines[0].WarehouseID != 2 {
		t.Fatalf("lines = %+v", lines)
	}
	if lines[0].SoldAt.Format("2006-01-02") != "2026-09-21" {
		t.Errorf("sold at = %s", lines[0].SoldAt)
	}
}

func TestPoliciesAndProducts(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	policies, err := repo.Policies(ctx)
	if err != nil {
		t.Fatalf("Policies: %v", err)
	}
	p, ok := policies[2]
	if !ok || len(policies) != 1 {
		t.Fatalf("policies = %+v", policies)
	}
	if p.LeadTimeWeeks != 3 || p.CoverageWeeks != 1 || !p.ServiceLevel.Equal(decimal.RequireFromString("0.99")) {
		t.Errorf("policy = %+v", p)
	}
	if p.LotMinimum == nil || *p.LotMinimum != 12 || p.OrderMultiple != nil {
		t.Errorf("lot constraints = %v / %v", p.LotMinimum, p.OrderMultiple)
	}

	products, err := repo.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 3 || products[2].Label() != "C - Gamma" {
		t.Errorf("products = %+v", products)
	}
}

func TestRepositoryFeedsEstimator(t *testing.T) {
	repo, _ := newTestRepository(t)

	e := replenishment.NewEstimator(repo, repo, repo, replenishment.Config{}).
		WithClock(func() time.Time { return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC) })

	got, err := e.Compute(context.Background(), domain.ReplenishmentRequest{LookbackWeeks: 8})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// product 3 has no sales and product 2's June sale is outside the window
	if len(got) != 2 {
		t.Fatalf("suggestions = %+v", got)
	}
	for _, s := range got {
		if s.ProductID == 3 {
			t.Errorf("product without demand listed: %+v", s)
		}
		if s.ProductID == 2 && (s.LeadTimeWeeks != 3 || s.LotMinimum == nil) {
			t.Errorf("own policy not applied: %+v", s)
		}
	}
}
