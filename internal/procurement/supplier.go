package procurement

import (
	"fmt"

	"opsight/internal/stats"
	"opsight/internal/table"
)

// SupplierRollup aggregates order-level features to one row per
// supplier.
func SupplierRollup(orders *table.Table) *table.Table {
	return orders.GroupBy([]string{"supplier"},
		table.Agg{Out: "order_count", Col: "po_id", Fn: table.Count},
		table.Agg{Out: "total_spend", Col: "negotiated_value", Fn: table.Sum},
		table.Agg{Out: "total_gross", Col: "gross_value", Fn: table.Sum},
		table.Agg{Out: "total_savings", Col: "realized_savings", Fn: table.Sum},
		table.Agg{Out: "avg_savings_rate", Col: "savings_rate", Fn: table.Mean},
		table.Agg{Out: "avg_defect_rate", Col: "defect_rate", Fn: table.Mean},
		table.Agg{Out: "non_compliance_rate", Col: "non_compliant_flag", Fn: table.Mean},
		table.Agg{Out: "avg_lead_time_days", Col: "lead_time_days", Fn: table.Mean},
		table.Agg{Out: "avg_status_risk", Col: "order_status_risk", Fn: table.Mean},
		table.Agg{Out: "spend_at_risk", Col: "spend_at_risk", Fn: table.Sum},
		table.Agg{Out: "defective_cost", Col: "defective_cost_exposure", Fn: table.Sum},
	)
}

// riskComponents are the supplier rollup columns feeding the composite
// risk score, in weight order.
var riskComponents = []string{
	"non_compliance_rate", "avg_defect_rate", "avg_lead_time_days", "avg_status_risk",
}

// ScoreRisk adds the composite risk_score column: each component is
// min-max scaled across suppliers and weighted. Constant components
// scale to zero and contribute nothing.
func ScoreRisk(suppliers *table.Table, weights []float64) error {
	if len(weights) != len(riskComponents) {
		return fmt.Errorf("expected %d risk weights, got %d", len(riskComponents), len(weights))
	}

	n := suppliers.NumRows()
	score := make([]float64, n)
	for ci, name := range riskComponents {
		col := suppliers.Column(name)
		if col == nil {
			return fmt.Errorf("supplier rollup missing component %q", name)
		}
		scaled := stats.MinMaxScale(col.Floats())
		for i := 0; i < n; i++ {
			v := scaled[i]
			if v != v { // NaN component contributes nothing
				continue
			}
			score[i] += weights[ci] * v
		}
	}

	return suppliers.AddColumn(table.NewFloatColumn("risk_score", score))
}

// Segment assigns each supplier one of four segments by comparing its
// risk score, savings rate and non-compliance rate to the medians:
// risky and non-compliant suppliers are a governance problem, risky
// but compliant ones an operational one, low-risk low-savings ones a
// cost trap, and the rest strategic partners.
func Segment(suppliers *table.Table) error {
	risk := suppliers.Column("risk_score")
	savings := suppliers.Column("avg_savings_rate")
	nonCompliance := suppliers.Column("non_compliance_rate")
	if risk == nil || savings == nil || nonCompliance == nil {
		return fmt.Errorf("supplier rollup missing segmentation columns")
	}

	riskMed := stats.Median(risk.Floats())
	savingsMed := stats.Median(savings.Floats())
	ncMed := stats.Median(nonCompliance.Floats())

	n := suppliers.NumRows()
	segments := make([]string, n)
	for i := 0; i < n; i++ {
		riskHigh := risk.Float(i) >= riskMed
		ncHigh := nonCompliance.Float(i) >= ncMed
		savingsLow := savings.Float(i) < savingsMed

		switch {
		case riskHigh && ncHigh:
			segments[i] = "Governance Risk"
		case riskHigh:
			segments[i] = "Operational Risk"
		case savingsLow:
			segments[i] = "Cost Trap"
		default:
			segments[i] = "Strategic"
		}
	}

	return suppliers.AddColumn(table.NewStringColumn("segment", segments))
}

// SpendPareto ranks suppliers by total spend.
func SpendPareto(suppliers *table.Table) []stats.ParetoRow {
	return supplierPareto(suppliers, "total_spend")
}

// DefectCostPareto ranks suppliers by total defective cost exposure.
func DefectCostPareto(suppliers *table.Table) []stats.ParetoRow {
	return supplierPareto(suppliers, "defective_cost")
}

func supplierPareto(suppliers *table.Table, metric string) []stats.ParetoRow {
	name := suppliers.Column("supplier")
	value := suppliers.Column(metric)
	if name == nil || value == nil {
		return nil
	}

	labels := make([]string, suppliers.NumRows())
	for i := range labels {
		labels[i] = name.Value(i)
	}
	return stats.Pareto(labels, value.Floats())
}

// ParetoTable converts ranked Pareto rows into an exportable table.
func ParetoTable(label string, rows []stats.ParetoRow) *table.Table {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	shares := make([]float64, len(rows))
	cumShares := make([]float64, len(rows))
	ranks := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
		values[i] = r.Value
		shares[i] = r.Share
		cumShares[i] = r.CumulativeShare
		ranks[i] = float64(r.Rank)
	}

	t := table.New()
	t.MustAddColumn(table.NewStringColumn(label, labels))
	t.MustAddColumn(table.NewFloatColumn("value", values))
	t.MustAddColumn(table.NewFloatColumn("share", shares))
	t.MustAddColumn(table.NewFloatColumn("cumulative_share", cumShares))
	t.MustAddColumn(table.NewFloatColumn("rank", ranks))
	return t
}
