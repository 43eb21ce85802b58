package supplychain

import (
	"math"

	"opsight/internal/stats"
	"opsight/internal/table"
)

// DeriveFeatures adds the proxy columns the KPIs and watchlist use:
// demand signal, stock cover, revenue per unit, total logistics cost
// and a margin proxy.
func DeriveFeatures(t *table.Table) error {
	n := t.NumRows()
	sold := t.Column("number_of_products_sold")
	availability := t.Column("availability")
	stock := t.Column("stock_levels")
	revenue := t.Column("revenue_generated")
	manufacturing := t.Column("manufacturing_costs")
	shipping := t.Column("shipping_costs")
	costs := t.Column("costs")

	demandSignal := make([]float64, n)
	stockCover := make([]float64, n)
	revenuePerUnit := make([]float64, n)
	logisticsCost := make([]float64, n)
	marginProxy := make([]float64, n)

	for i := 0; i < n; i++ {
		units := floatAt(sold, i)

		// A zero denominator counts as one so sparse rows still rank.
		avail := floatAt(availability, i)
		if avail == 0 {
			avail = 1
		}
		demandSignal[i] = units / avail

		unitsDen := units
		if unitsDen == 0 {
			unitsDen = 1
		}
		stockCover[i] = floatAt(stock, i) / unitsDen

		rev := floatAt(revenue, i)
		if units > 0 {
			revenuePerUnit[i] = rev / units
		} else {
			revenuePerUnit[i] = math.NaN()
		}

		logisticsCost[i] = nanAwareSum(floatAt(shipping, i), floatAt(costs, i))
		marginProxy[i] = rev - nanAwareSum(logisticsCost[i], floatAt(manufacturing, i))
	}

	for _, c := range []*table.Column{
		table.NewFloatColumn("demand_signal", demandSignal),
		table.NewFloatColumn("stock_cover_proxy", stockCover),
		table.NewFloatColumn("revenue_per_unit", revenuePerUnit),
		table.NewFloatColumn("total_logistics_cost", logisticsCost),
		table.NewFloatColumn("margin_proxy", marginProxy),
	} {
		if err := t.AddColumn(c); err != nil {
			return err
		}
	}
	return nil
}

// AddInspectionFlag adds inspection_fail_flag, a numeric target for
// driver analysis: 1 for failed inspections, 0 otherwise, missing when
// no result was recorded. Reports whether the flag was added.
func AddInspectionFlag(t *table.Table) bool {
	col := t.Column("inspection_results")
	if col == nil || col.Kind() != table.String {
		return false
	}
	vals := make([]float64, t.NumRows())
	for i := range vals {
		switch {
		case col.IsNull(i):
			vals[i] = math.NaN()
		case col.StringAt(i) == "Fail":
			vals[i] = 1
		default:
			vals[i] = 0
		}
	}
	return t.AddColumn(table.NewFloatColumn("inspection_fail_flag", vals)) == nil
}

// Watchlist returns SKUs with high demand signal (>= p75) and thin
// stock cover (<= p25), sorted by demand signal descending.
func Watchlist(t *table.Table) *table.Table {
	demand := t.Column("demand_signal")
	cover := t.Column("stock_cover_proxy")
	if demand == nil || cover == nil {
		return table.New()
	}

	p75 := stats.Quantile(demand.Floats(), 0.75)
	p25 := stats.Quantile(cover.Floats(), 0.25)

	watch := t.Filter(func(i int) bool {
		d, c := demand.Float(i), cover.Float(i)
		return !math.IsNaN(d) && !math.IsNaN(c) && d >= p75 && c <= p25
	})
	return watch.SortBy("demand_signal", false)
}

// SupplierPerformance rolls the extract up to one row per supplier.
func SupplierPerformance(t *table.Table) *table.Table {
	return t.GroupBy([]string{"supplier_name"},
		table.Agg{Out: "sku_count", Col: "sku", Fn: table.Count},
		table.Agg{Out: "total_revenue", Col: "revenue_generated", Fn: table.Sum},
		table.Agg{Out: "avg_defect_rate", Col: "defect_rates", Fn: table.Mean},
		table.Agg{Out: "avg_lead_time", Col: "lead_time_canonical", Fn: table.Mean},
		table.Agg{Out: "avg_manufacturing_cost", Col: "manufacturing_costs", Fn: table.Mean},
		table.Agg{Out: "total_margin_proxy", Col: "margin_proxy", Fn: table.Sum},
	)
}

// SegmentBands adds tercile bands for revenue and defect rates so the
// export slices into low/medium/high groups.
func SegmentBands(t *table.Table) error {
	if err := addBand(t, "revenue_generated", "revenue_band"); err != nil {
		return err
	}
	return addBand(t, "defect_rates", "defect_band")
}

func addBand(t *table.Table, source, out string) error {
	col := t.Column(source)
	if col == nil {
		return nil
	}
	vals := col.Floats()
	lo := stats.Quantile(vals, 1.0/3)
	hi := stats.Quantile(vals, 2.0/3)

	bands := make([]string, t.NumRows())
	for i := range bands {
		v := col.Float(i)
		switch {
		case math.IsNaN(v):
			bands[i] = ""
		case v <= lo:
			bands[i] = "low"
		case v <= hi:
			bands[i] = "medium"
		default:
			bands[i] = "high"
		}
	}
	return t.AddColumn(table.NewStringColumn(out, bands))
}

func floatAt(c *table.Column, i int) float64 {
	if c == nil {
		return math.NaN()
	}
	return c.Float(i)
}

// nanAwareSum adds values treating NaN as zero, returning NaN only
// when every input is NaN.
func nanAwareSum(vals ...float64) float64 {
	sum := 0.0
	all := true
	for _, v := range vals {
		if !math.IsNaN(v) {
			sum += v
			all = false
		}
	}
	if all {
		return math.NaN()
	}
	return sum
}
