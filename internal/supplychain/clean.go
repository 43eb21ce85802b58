package supplychain

import (
	"fmt"
	"math"
	"strings"

	"opsight/internal/table"
)

// CleanReport records what cleaning changed, for the assumptions
// section of the summary.
type CleanReport struct {
	DuplicatesDropped   int
	LeadTimeMismatches  int
	DefectRatesRescaled bool
}

var datasetRenames = map[string]string{
	"supplier": "supplier_name",
	"carrier":  "shipping_carriers",
	"route":    "routes",
	"mode":     "transportation_modes",
}

// numericColumns are cleaned of negative values.
var numericColumns = []string{
	"price", "availability", "number_of_products_sold", "revenue_generated",
	"stock_levels", "lead_times", "lead_time", "order_quantities",
	"shipping_times", "shipping_costs", "production_volumes",
	"manufacturing_lead_time", "manufacturing_costs", "defect_rates", "costs",
}

// Clean normalizes the supply chain extract: duplicate rows dropped,
// negatives treated as missing, the two lead time columns resolved
// into lead_time_canonical, defect rates rescaled to fractions when
// they arrive as percentages, and inspection results title-cased.
func Clean(t *table.Table) (*table.Table, *CleanReport, error) {
	t.ApplyRenames(datasetRenames)

	if !t.HasColumn("sku") {
		return nil, nil, fmt.Errorf("supply chain extract missing column %q", "sku")
	}

	report := &CleanReport{}
	before := t.NumRows()
	t = t.DropDuplicates()
	report.DuplicatesDropped = before - t.NumRows()

	for _, name := range numericColumns {
		negativesToMissing(t, name)
	}

	report.LeadTimeMismatches = resolveLeadTime(t)
	report.DefectRatesRescaled = rescaleDefectRates(t)
	titleCase(t, "inspection_results")

	return t, report, nil
}

// resolveLeadTime builds lead_time_canonical from the ambiguous
// lead_time and lead_times columns, preferring lead_time, and returns
// how many rows disagreed between the two.
func resolveLeadTime(t *table.Table) int {
	primary := t.Column("lead_time")
	secondary := t.Column("lead_times")
	if primary == nil && secondary == nil {
		return 0
	}

	n := t.NumRows()
	canonical := make([]float64, n)
	mismatches := 0
	for i := 0; i < n; i++ {
		p, s := math.NaN(), math.NaN()
		if primary != nil {
			p = primary.Float(i)
		}
		if secondary != nil {
			s = secondary.Float(i)
		}
		switch {
		case !math.IsNaN(p):
			canonical[i] = p
			if !math.IsNaN(s) && p != s {
				mismatches++
			}
		case !math.IsNaN(s):
			canonical[i] = s
		default:
			canonical[i] = math.NaN()
		}
	}

	t.MustAddColumn(table.NewFloatColumn("lead_time_canonical", canonical))
	return mismatches
}

// rescaleDefectRates divides defect rates by 100 when the column
// clearly holds percentages rather than fractions.
func rescaleDefectRates(t *table.Table) bool {
	col := t.Column("defect_rates")
	if col == nil || col.Kind() != table.Float {
		return false
	}

	maxV := math.Inf(-1)
	for i := 0; i < col.Len(); i++ {
		if v := col.Float(i); !math.IsNaN(v) && v > maxV {
			maxV = v
		}
	}
	if maxV <= 1.5 {
		return false
	}

	for i := 0; i < col.Len(); i++ {
		if v := col.Float(i); !math.IsNaN(v) {
			col.SetFloat(i, v/100)
		}
	}
	return true
}

func titleCase(t *table.Table, name string) {
	col := t.Column(name)
	if col == nil || col.Kind() != table.String {
		return
	}
	vals := make([]string, col.Len())
	for i := 0; i < col.Len(); i++ {
		words := strings.Fields(strings.ToLower(col.StringAt(i)))
		for j, w := range words {
			words[j] = strings.ToUpper(w[:1]) + w[1:]
		}
		vals[i] = strings.Join(words, " ")
	}
	t.MustAddColumn(table.NewStringColumn(name, vals))
}

func negativesToMissing(t *table.Table, name string) {
	col := t.Column(name)
	if col == nil || col.Kind() != table.Float {
		return
	}
	for i := 0; i < col.Len(); i++ {
		if v := col.Float(i); !math.IsNaN(v) && v < 0 {
			col.SetFloat(i, math.NaN())
		}
	}
}
