package procurement

import (
	"sort"

	"opsight/internal/table"
)

// Scenarios holds the what-if outputs written to scenarios.json.
type Scenarios struct {
	NonCompliantSpend  NonCompliantSpendScenario `json:"non_compliant_spend"`
	DefectReduction    DefectReductionScenario   `json:"defect_reduction"`
	TopDefectSuppliers []SupplierDefectRisk      `json:"top_defect_suppliers"`
}

// NonCompliantSpendScenario quantifies spend flowing through
// non-compliant orders.
type NonCompliantSpendScenario struct {
	TotalSpend        float64 `json:"total_spend"`
	NonCompliantSpend float64 `json:"non_compliant_spend"`
	Share             float64 `json:"share"`
}

// DefectReductionScenario estimates savings from cutting defective
// cost exposure by the configured percentage.
type DefectReductionScenario struct {
	CurrentExposure  float64 `json:"current_exposure"`
	ReductionPct     float64 `json:"reduction_pct"`
	EstimatedSavings float64 `json:"estimated_savings"`
}

// SupplierDefectRisk is one supplier's defect-cost exposure and what
// remains of it after the assumed reduction.
type SupplierDefectRisk struct {
	Supplier         string  `json:"supplier"`
	DefectiveCost    float64 `json:"defective_cost"`
	ReducedExposure  float64 `json:"reduced_exposure"`
	EstimatedSavings float64 `json:"estimated_savings"`
}

// BuildScenarios computes the procurement what-if scenarios from the
// supplier rollup.
func BuildScenarios(suppliers *table.Table, defectReductionPct float64) Scenarios {
	totalSpend := sumColumn(suppliers, "total_spend")
	atRisk := sumColumn(suppliers, "spend_at_risk")
	exposure := sumColumn(suppliers, "defective_cost")

	share := 0.0
	if totalSpend > 0 {
		share = atRisk / totalSpend
	}

	s := Scenarios{
		NonCompliantSpend: NonCompliantSpendScenario{
			TotalSpend:        totalSpend,
			NonCompliantSpend: atRisk,
			Share:             share,
		},
		DefectReduction: DefectReductionScenario{
			CurrentExposure:  exposure,
			ReductionPct:     defectReductionPct,
			EstimatedSavings: exposure * defectReductionPct,
		},
	}

	s.TopDefectSuppliers = topDefectSuppliers(suppliers, 3, defectReductionPct)
	return s
}

func topDefectSuppliers(suppliers *table.Table, n int, reduction float64) []SupplierDefectRisk {
	name := suppliers.Column("supplier")
	cost := suppliers.Column("defective_cost")
	if name == nil || cost == nil {
		return nil
	}

	risks := make([]SupplierDefectRisk, 0, suppliers.NumRows())
	for i := 0; i < suppliers.NumRows(); i++ {
		c := cost.Float(i)
		if c != c {
			c = 0
		}
		risks = append(risks, SupplierDefectRisk{
			Supplier:         name.Value(i),
			DefectiveCost:    c,
			ReducedExposure:  c * (1 - reduction),
			EstimatedSavings: c * reduction,
		})
	}
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].DefectiveCost > risks[j].DefectiveCost
	})

	if len(risks) > n {
		risks = risks[:n]
	}
	return risks
}

func sumColumn(t *table.Table, name string) float64 {
	col := t.Column(name)
	if col == nil {
		return 0
	}
	total := 0.0
	for i := 0; i < col.Len(); i++ {
		v := col.Float(i)
		if v == v {
			total += v
		}
	}
	return total
}
