package replenishment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ZScorer maps a target service level to a standard-normal quantile
type ZScorer interface {
	Z(serviceLevel decimal.Decimal) decimal.Decimal
}

// ZStep is one row of a step table: service levels up to and including MaxServiceLevel map to Z
type ZStep struct {
	MaxServiceLevel decimal.Decimal
	Z               decimal.Decimal
}

// ZTable is a step approximation of the inverse normal CDF.
// Service levels are not validated: anything below the first step gets the first Z,
// anything above the last step gets Fallback.
type ZTable struct {
	Steps    []ZStep
	Fallback decimal.Decimal
}

// DefaultZTable returns the 90/95/97/98/99% table used for purchase suggestions
func DefaultZTable() ZTable {
	return ZTable{
		Steps: []ZStep{
			{MaxServiceLevel: decimal.RequireFromString("0.90"), Z: decimal.RequireFromString("1.282")},
			{MaxServiceLevel: decimal.RequireFromString("0.95"), Z: decimal.RequireFromString("1.645")},
			{MaxServiceLevel: decimal.RequireFromString("0.97"), Z: decimal.RequireFromString("1.880")},
			{MaxServiceLevel: decimal.RequireFromString("0.98"), Z: decimal.RequireFromString("2.054")},
			{MaxServiceLevel: decimal.RequireFromString("0.99"), Z: decimal.RequireFromString("2.326")},
		},
		Fallback: decimal.RequireFromString("2.576"),
	}
}

// Z returns the value of the first step whose threshold is >= serviceLevel
func (t ZTable) Z(serviceLevel decimal.Decimal) decimal.Decimal {
	for _, step := range t.Steps {
		if serviceLevel.LessThanOrEqual(step.MaxServiceLevel) {
			return step.Z
		}
	}
	return t.Fallback
}

// ParseZTable reads a table written as "0.90:1.282,0.95:1.645,...,*:2.576".
// Steps are sorted by threshold; the "*" entry sets the fallback and is required.
func ParseZTable(raw string) (ZTable, error) {
	var (
		table       ZTable
		hasFallback bool
	)

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		level, z, ok := strings.Cut(entry, ":")
		if !ok {
			return ZTable{}, fmt.Errorf("z table entry %q: expected <service_level>:<z>", entry)
		}

		zValue, err := decimal.NewFromString(strings.TrimSpace(z))
		if err != nil {
			return ZTable{}, fmt.Errorf("z table entry %q: invalid z: %w", entry, err)
		}

		level = strings.TrimSpace(level)
		if level == "*" {
			table.Fallback = zValue
			hasFallback = true
			continue
		}

		levelValue, err := decimal.NewFromString(level)
		if err != nil {
			return ZTable{}, fmt.Errorf("z table entry %q: invalid service level: %w", entry, err)
		}
		table.Steps = append(table.Steps, ZStep{MaxServiceLevel: levelValue, Z: zValue})
	}

	if !hasFallback {
		return ZTable{}, fmt.Errorf("z table %q: missing fallback entry \"*:<z>\"", raw)
	}

	sort.SliceStable(table.Steps, func(i, j int) bool {
		return table.Steps[i].MaxServiceLevel.LessThan(table.Steps[j].MaxServiceLevel)
	})

	return table, nil
}
