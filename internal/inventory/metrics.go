package inventory

import (
	"math"
	"time"

	"opsight/internal/config"
	"opsight/internal/stats"
	"opsight/internal/table"
)

// EOQ computes the economic order quantity for annual demand d,
// ordering cost s and holding cost h. Undefined when holding cost is
// not positive.
func EOQ(d, s, h float64) float64 {
	if h <= 0 || math.IsNaN(d) || math.IsNaN(s) || math.IsNaN(h) {
		return math.NaN()
	}
	return math.Sqrt(2 * d * s / h)
}

// MeanFreight returns the mean invoice freight cost, used as the
// ordering cost input to EOQ. NaN when the extract has no freight.
func MeanFreight(invoices *table.Table) float64 {
	if invoices == nil {
		return math.NaN()
	}
	col := invoices.Column("freight")
	if col == nil {
		return math.NaN()
	}
	return stats.Mean(col.Floats())
}

// ObservedPeriodDays returns the span of the sales extract in days.
// Falls back to 365 when dates are missing or degenerate.
func ObservedPeriodDays(sales *table.Table) float64 {
	col := sales.Column("sales_date")
	if col == nil || col.Kind() != table.Time {
		return 365
	}
	var minT, maxT time.Time
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		d := col.Time(i)
		if minT.IsZero() || d.Before(minT) {
			minT = d
		}
		if maxT.IsZero() || d.After(maxT) {
			maxT = d
		}
	}
	if minT.IsZero() {
		return 365
	}
	days := maxT.Sub(minT).Hours() / 24
	if days <= 0 {
		return 365
	}
	return days
}

// BuildSKUMetrics assembles the per-SKU fact table from the cleaned
// extracts: inventory positions, demand, purchasing, lead times and
// the derived KPIs.
func BuildSKUMetrics(beg, end, sales, purchases *table.Table,
	cfg config.AnalysisConfig, orderingCost float64) *table.Table {

	begAgg := beg.GroupBy([]string{"sku"},
		table.Agg{Out: "beg_on_hand", Col: "on_hand", Fn: table.Sum},
		table.Agg{Out: "beg_price", Col: "price", Fn: table.First},
		table.Agg{Out: "description", Col: "description", Fn: table.First},
	)
	endAgg := end.GroupBy([]string{"sku"},
		table.Agg{Out: "end_on_hand", Col: "on_hand", Fn: table.Sum},
		table.Agg{Out: "end_price", Col: "price", Fn: table.First},
	)
	salesAgg := sales.GroupBy([]string{"sku"},
		table.Agg{Out: "sales_quantity", Col: "sales_quantity", Fn: table.Sum},
		table.Agg{Out: "sales_dollars", Col: "sales_dollars", Fn: table.Sum},
	)
	purchAgg := purchases.GroupBy([]string{"sku"},
		table.Agg{Out: "purchase_quantity", Col: "quantity", Fn: table.Sum},
		table.Agg{Out: "purchase_dollars", Col: "dollars", Fn: table.Sum},
		table.Agg{Out: "avg_purchase_price", Col: "purchase_price", Fn: table.Mean},
		table.Agg{Out: "avg_lead_time_days", Col: "lead_time_days", Fn: table.Mean},
	)

	fact := table.OuterJoin(begAgg, endAgg, []string{"sku"}, "_end")
	fact = table.OuterJoin(fact, salesAgg, []string{"sku"}, "_sales")
	fact = table.OuterJoin(fact, purchAgg, []string{"sku"}, "_purch")

	periodDays := ObservedPeriodDays(sales)
	deriveKPIs(fact, cfg, orderingCost, periodDays)
	return fact
}

// deriveKPIs adds the derived metric columns to the per-SKU fact.
func deriveKPIs(fact *table.Table, cfg config.AnalysisConfig, orderingCost, periodDays float64) {
	n := fact.NumRows()
	begOnHand := fact.Column("beg_on_hand")
	endOnHand := fact.Column("end_on_hand")
	begPrice := fact.Column("beg_price")
	endPrice := fact.Column("end_price")
	salesQty := fact.Column("sales_quantity")
	salesDollars := fact.Column("sales_dollars")
	purchQty := fact.Column("purchase_quantity")
	avgPurchPrice := fact.Column("avg_purchase_price")
	avgLead := fact.Column("avg_lead_time_days")

	avgInv := make([]float64, n)
	avgInvValue := make([]float64, n)
	turnover := make([]float64, n)
	carryingCost := make([]float64, n)
	eoq := make([]float64, n)
	dailyDemand := make([]float64, n)
	reorderPoint := make([]float64, n)
	stockoutRisk := make([]float64, n)
	materialType := make([]string, n)

	for i := 0; i < n; i++ {
		bq := zeroIfMissing(begOnHand, i)
		eq := zeroIfMissing(endOnHand, i)
		avgInv[i] = (bq + eq) / 2

		price := floatAt(endPrice, i)
		if math.IsNaN(price) {
			price = floatAt(begPrice, i)
		}
		if math.IsNaN(price) {
			avgInvValue[i] = math.NaN()
		} else {
			avgInvValue[i] = avgInv[i] * price
		}

		sd := zeroIfMissing(salesDollars, i)
		if avgInvValue[i] > 0 {
			turnover[i] = sd / avgInvValue[i]
			carryingCost[i] = avgInvValue[i] * cfg.CarryingCostRate
		} else {
			turnover[i] = math.NaN()
			carryingCost[i] = math.NaN()
		}

		demand := zeroIfMissing(salesQty, i)
		holding := floatAt(avgPurchPrice, i) * cfg.CarryingCostRate
		eoq[i] = EOQ(demand, orderingCost, holding)

		dailyDemand[i] = demand / periodDays
		lead := floatAt(avgLead, i)
		if math.IsNaN(lead) {
			reorderPoint[i] = math.NaN()
			stockoutRisk[i] = math.NaN()
		} else {
			reorderPoint[i] = dailyDemand[i] * lead
			if eq < reorderPoint[i] {
				stockoutRisk[i] = 1
			}
		}

		switch {
		case demand > 0:
			materialType[i] = "finished_goods"
		case zeroIfMissing(purchQty, i) > 0:
			materialType[i] = "raw_material"
		default:
			materialType[i] = "wip"
		}
	}

	fact.MustAddColumn(table.NewFloatColumn("avg_inventory", avgInv))
	fact.MustAddColumn(table.NewFloatColumn("avg_inventory_value", avgInvValue))
	fact.MustAddColumn(table.NewFloatColumn("inventory_turnover", turnover))
	fact.MustAddColumn(table.NewFloatColumn("carrying_cost", carryingCost))
	fact.MustAddColumn(table.NewFloatColumn("eoq", eoq))
	fact.MustAddColumn(table.NewFloatColumn("daily_demand", dailyDemand))
	fact.MustAddColumn(table.NewFloatColumn("reorder_point", reorderPoint))
	fact.MustAddColumn(table.NewFloatColumn("stockout_risk", stockoutRisk))
	fact.MustAddColumn(table.NewStringColumn("material_type", materialType))

	abc := stats.ABCClass(columnOrNaN(salesDollars, n), cfg.ABCClassACut, cfg.ABCClassBCut)
	fact.MustAddColumn(table.NewStringColumn("abc_class", abc))
}

// SupplierSpend rolls purchases up to one row per vendor.
func SupplierSpend(purchases *table.Table) *table.Table {
	return purchases.GroupBy([]string{"vendor_name"},
		table.Agg{Out: "purchase_dollars", Col: "dollars", Fn: table.Sum},
		table.Agg{Out: "purchase_quantity", Col: "quantity", Fn: table.Sum},
		table.Agg{Out: "po_count", Col: "po_number", Fn: table.NUnique},
		table.Agg{Out: "avg_lead_time_days", Col: "lead_time_days", Fn: table.Mean},
	)
}

// OptimalInventory rolls the SKU metrics up by ABC class to the level
// targets the summary quotes.
func OptimalInventory(fact *table.Table) *table.Table {
	return fact.GroupBy([]string{"abc_class"},
		table.Agg{Out: "sku_count", Col: "sku", Fn: table.Count},
		table.Agg{Out: "total_inventory_value", Col: "avg_inventory_value", Fn: table.Sum},
		table.Agg{Out: "total_carrying_cost", Col: "carrying_cost", Fn: table.Sum},
		table.Agg{Out: "avg_eoq", Col: "eoq", Fn: table.Mean},
		table.Agg{Out: "avg_reorder_point", Col: "reorder_point", Fn: table.Mean},
	)
}

func floatAt(c *table.Column, i int) float64 {
	if c == nil {
		return math.NaN()
	}
	return c.Float(i)
}

func zeroIfMissing(c *table.Column, i int) float64 {
	if c == nil {
		return 0
	}
	v := c.Float(i)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func columnOrNaN(c *table.Column, n int) []float64 {
	if c != nil {
		return c.Floats()
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
