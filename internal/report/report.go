// Package report renders suggestion lists for people and spreadsheets.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/andresuchdata/replenish/backend-go/internal/domain"
)

// CSVContentType is the media type of WriteCSV output
const CSVContentType = "text/csv; charset=utf-8"

var csvHeader = []string{
	"product_id",
	"product",
	"mean_weekly",
	"stdev_weekly",
	"observed_weeks",
	"lead_time_weeks",
	"coverage_weeks",
	"service_level",
	"z_score",
	"protection_period_weeks",
	"protection_demand",
	"safety_stock",
	"target_stock",
	"recommended_quantity",
	"lot_minimum",
	"order_multiple",
	"order_quantity",
}

// WriteCSV writes one header row and one row per suggestion, in list order
func WriteCSV(w io.Writer, suggestions []domain.ReplenishmentSuggestion) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, s := range suggestions {
		row := []string{
			strconv.FormatInt(s.ProductID, 10),
			s.ProductLabel,
			s.MeanWeekly.String(),
			s.StdevWeekly.String(),
			strconv.Itoa(s.ObservedWeeks),
			strconv.Itoa(s.LeadTimeWeeks),
			strconv.Itoa(s.CoverageWeeks),
			s.ServiceLevel.String(),
			s.ZScore.String(),
			strconv.Itoa(s.ProtectionPeriodWeeks),
			s.ProtectionDemand.String(),
			s.SafetyStock.String(),
			s.TargetStock.String(),
			s.RecommendedQuantity.String(),
			optionalInt(s.LotMinimum),
			optionalInt(s.OrderMultiple),
			s.OrderQuantity.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for product %d: %w", s.ProductID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTable writes an aligned plain-text table for terminals
func WriteTable(w io.Writer, suggestions []domain.ReplenishmentSuggestion) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "PRODUCT\tMEAN/WK\tSTDEV/WK\tWEEKS\tP\tSL\tZ\tSAFETY\tTARGET\tRECOMMENDED\tORDER\t")
	for _, s := range suggestions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			s.ProductLabel,
			s.MeanWeekly.StringFixed(3),
			s.StdevWeekly.StringFixed(3),
			s.ObservedWeeks,
			s.ProtectionPeriodWeeks,
			s.ServiceLevel.String(),
			s.ZScore.StringFixed(3),
			s.SafetyStock.StringFixed(3),
			s.TargetStock.String(),
			s.RecommendedQuantity.String(),
			s.OrderQuantity.String(),
		)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
