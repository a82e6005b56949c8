package replenishment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/backend-go/internal/domain"
)

type memorySource struct {
	lines    []domain.SalesLine
	products []domain.Product
	policies map[int64]domain.ReplenishmentPolicy

	lastQuery domain.DemandQuery
	linesErr  error
	catErr    error
	polErr    error
}

func (m *memorySource) SalesLines(ctx context.Context, q domain.DemandQuery) ([]domain.SalesLine, error) {
	m.lastQuery = q
	return m.lines, m.linesErr
}

func (m *memorySource) Products(ctx context.Context) ([]domain.Product, error) {
	return m.products, m.catErr
}

func (m *memorySource) Policies(ctx context.Context) (map[int64]domain.ReplenishmentPolicy, error) {
	return m.policies, m.polErr
}

var testToday = time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)

func newTestEstimator(src *memorySource) *Estimator {
	return NewEstimator(LineDemandSource{Lines: src}, src, src, Config{}).
		WithClock(func() time.Time { return testToday })
}

func weeklyLines(productID, warehouseID int64, firstMonday time.Time, quantities ...string) []domain.SalesLine {
	lines := make([]domain.SalesLine, 0, len(quantities))
	for i, q := range quantities {
		lines = append(lines, domain.SalesLine{
			ProductID:   productID,
			WarehouseID: warehouseID,
			SoldAt:      firstMonday.AddDate(0, 0, 7*i+2),
			Quantity:    qty(q),
		})
	}
	return lines
}

func TestEstimator_Compute(t *testing.T) {
	start := day(2026, time.September, 14)
	lines := weeklyLines(1, 1, start, "10", "12", "14")
	lines = append(lines, weeklyLines(2, 1, start, "40", "40")...)
	lines = append(lines, weeklyLines(3, 2, start, "5")...)

	src := &memorySource{
		lines:    lines,
		products: []domain.Product{{ID: 1, Code: "A", Name: "Alpha"}, {ID: 2, Code: "B", Name: "Beta"}, {ID: 3, Code: "C", Name: "Gamma"}, {ID: 4, Code: "D", Name: "Delta"}},
		policies: map[int64]domain.ReplenishmentPolicy{
			2: {ProductID: 2, LeadTimeWeeks: 2, CoverageWeeks: 2, ServiceLevel: qty("0.99")},
		},
	}

	got, err := newTestEstimator(src).Compute(context.Background(), domain.ReplenishmentRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []int64{2, 1, 3}; !equalIDs(ids(got), want) {
		t.Fatalf("order = %v, want %v", ids(got), want)
	}

	// product 2: mean 40, stdev 0, P=4 -> 160
	if !got[0].RecommendedQuantity.Equal(qty("160")) || !got[0].ZScore.Equal(qty("2.326")) {
		t.Errorf("product 2 = %+v", got[0])
	}
	// product 1: mean 12, stdev 2, defaults -> ceil(36 + 5.698) = 42
	if !got[1].RecommendedQuantity.Equal(qty("42")) || got[1].ObservedWeeks != 3 {
		t.Errorf("product 1 = %+v", got[1])
	}
	if got[1].ProductLabel != "A - Alpha" {
		t.Errorf("label = %q", got[1].ProductLabel)
	}

	if src.lastQuery.Since.Format("2006-01-02") != "2026-07-22" || src.lastQuery.Until.Format("2006-01-02") != "2026-10-14" {
		t.Errorf("default window = %s..%s", src.lastQuery.Since, src.lastQuery.Until)
	}
}

func TestEstimator_WarehouseAndLookback(t *testing.T) {
	start := day(2026, time.September, 14)
	lines := weeklyLines(1, 1, start, "10", "12", "14")
	lines = append(lines, weeklyLines(3, 2, start, "5")...)
	// outside the 6 week window
	lines = append(lines, domain.SalesLine{ProductID: 3, WarehouseID: 2, SoldAt: day(2026, time.August, 3), Quantity: qty("100")})

	src := &memorySource{
		lines:    lines,
		products: []domain.Product{{ID: 1, Code: "A", Name: "Alpha"}, {ID: 3, Code: "C", Name: "Gamma"}},
	}

	warehouse := int64(2)
	got, err := newTestEstimator(src).Compute(context.Background(), domain.ReplenishmentRequest{LookbackWeeks: 6, WarehouseID: &warehouse})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []int64{3}; !equalIDs(ids(got), want) {
		t.Fatalf("ids = %v, want %v", ids(got), want)
	}
	if !got[0].MeanWeekly.Equal(qty("5")) || !got[0].StdevWeekly.IsZero() {
		t.Errorf("single observation stats = %s / %s", got[0].MeanWeekly, got[0].StdevWeekly)
	}
	if src.lastQuery.WarehouseID == nil || *src.lastQuery.WarehouseID != 2 {
		t.Errorf("warehouse filter not forwarded: %+v", src.lastQuery)
	}
}

func TestEstimator_SourceFailure(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name string
		src  *memorySource
	}{
		{"sales", &memorySource{linesErr: boom}},
		{"catalog", &memorySource{catErr: boom}},
		{"policies", &memorySource{polErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestEstimator(tt.src).Compute(context.Background(), domain.ReplenishmentRequest{})
			if !errors.Is(err, boom) {
				t.Fatalf("error = %v, want wrapped %v", err, boom)
			}
			if got != nil {
				t.Errorf("partial result returned: %+v", got)
			}
		})
	}
}

func TestEstimator_EmptyCatalog(t *testing.T) {
	src := &memorySource{lines: weeklyLines(1, 1, day(2026, time.September, 14), "3")}
	got, err := newTestEstimator(src).Compute(context.Background(), domain.ReplenishmentRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no suggestions, got %+v", got)
	}
}

func TestEstimator_ConfiguredDefaults(t *testing.T) {
	table, err := ParseZTable("*:3")
	if err != nil {
		t.Fatal(err)
	}
	src := &memorySource{
		lines:    weeklyLines(1, 1, day(2026, time.September, 14), "10", "12", "14"),
		products: []domain.Product{{ID: 1, Code: "A", Name: "Alpha"}},
	}
	cfg := Config{
		DefaultPolicy: &domain.ReplenishmentPolicy{LeadTimeWeeks: 2, CoverageWeeks: 2, ServiceLevel: qty("0.9")},
		ZScorer:       table,
	}
	e := NewEstimator(LineDemandSource{Lines: src}, src, src, cfg).WithClock(func() time.Time { return testToday })

	got, err := e.Compute(context.Background(), domain.ReplenishmentRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 12*4 + 3*2*2 = 60
	if len(got) != 1 || !got[0].RecommendedQuantity.Equal(qty("60")) {
		t.Errorf("suggestions = %+v", got)
	}

	policy, own, err := e.ResolvePolicy(context.Background(), 1)
	if err != nil || own || policy.LeadTimeWeeks != 2 {
		t.Errorf("ResolvePolicy = %+v, %v, %v", policy, own, err)
	}
}

func TestEstimator_ExplicitZeroDefaultPolicyIsKept(t *testing.T) {
	src := &memorySource{
		lines:    weeklyLines(1, 1, day(2026, time.September, 14), "10", "12", "14"),
		products: []domain.Product{{ID: 1, Code: "A", Name: "Alpha"}},
	}
	zero := domain.ReplenishmentPolicy{}
	e := NewEstimator(LineDemandSource{Lines: src}, src, src, Config{DefaultPolicy: &zero}).
		WithClock(func() time.Time { return testToday })

	got, err := e.Compute(context.Background(), domain.ReplenishmentRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// a zero protection period recommends nothing
	if len(got) != 1 || got[0].ProtectionPeriodWeeks != 0 || !got[0].RecommendedQuantity.IsZero() {
		t.Errorf("suggestions = %+v", got)
	}

	policy, own, err := e.ResolvePolicy(context.Background(), 1)
	if err != nil || own || policy.LeadTimeWeeks != 0 || policy.CoverageWeeks != 0 || !policy.ServiceLevel.IsZero() {
		t.Errorf("ResolvePolicy = %+v, %v, %v", policy, own, err)
	}
}
