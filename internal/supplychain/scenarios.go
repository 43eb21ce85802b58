package supplychain

import (
	"math"
	"sort"

	"opsight/internal/table"
)

// Scenarios holds the supply chain what-if outputs.
type Scenarios struct {
	CarrierChanges     []CarrierChange      `json:"carrier_changes"`
	TopDefectSuppliers []SupplierDefectRisk `json:"top_defect_suppliers"`
	DefectReduction    DefectReduction      `json:"defect_reduction"`
}

// CarrierChange compares the best and worst carrier on a route served
// by at least two carriers.
type CarrierChange struct {
	Route         string  `json:"route"`
	BestCarrier   string  `json:"best_carrier"`
	WorstCarrier  string  `json:"worst_carrier"`
	CostDelta     float64 `json:"cost_delta"`
	TimeDelta     float64 `json:"time_delta"`
	CarriersOnRte int     `json:"carriers_on_route"`
}

// SupplierDefectRisk is a supplier's revenue-weighted defect cost
// exposure with the assumed reduction applied.
type SupplierDefectRisk struct {
	Supplier         string  `json:"supplier"`
	DefectCost       float64 `json:"defect_cost"`
	EstimatedSavings float64 `json:"estimated_savings"`
}

// DefectReduction is the portfolio-level defect reduction estimate.
type DefectReduction struct {
	CurrentExposure  float64 `json:"current_exposure"`
	ReductionPct     float64 `json:"reduction_pct"`
	EstimatedSavings float64 `json:"estimated_savings"`
}

// BuildScenarios computes carrier-change deltas per route and the
// defect-reduction estimates.
func BuildScenarios(t *table.Table, reductionPct float64) Scenarios {
	s := Scenarios{
		CarrierChanges: carrierChanges(t),
	}

	exposure := 0.0
	bySupplier := map[string]float64{}
	supplier := t.Column("supplier_name")
	defects := t.Column("defect_rates")
	revenue := t.Column("revenue_generated")
	if defects != nil && revenue != nil {
		for i := 0; i < t.NumRows(); i++ {
			d, r := defects.Float(i), revenue.Float(i)
			if math.IsNaN(d) || math.IsNaN(r) {
				continue
			}
			cost := d * r
			exposure += cost
			if supplier != nil && !supplier.IsNull(i) {
				bySupplier[supplier.StringAt(i)] += cost
			}
		}
	}

	s.DefectReduction = DefectReduction{
		CurrentExposure:  exposure,
		ReductionPct:     reductionPct,
		EstimatedSavings: exposure * reductionPct,
	}

	for name, cost := range bySupplier {
		s.TopDefectSuppliers = append(s.TopDefectSuppliers, SupplierDefectRisk{
			Supplier:         name,
			DefectCost:       cost,
			EstimatedSavings: cost * reductionPct,
		})
	}
	sort.SliceStable(s.TopDefectSuppliers, func(i, j int) bool {
		return s.TopDefectSuppliers[i].DefectCost > s.TopDefectSuppliers[j].DefectCost
	})
	if len(s.TopDefectSuppliers) > 3 {
		s.TopDefectSuppliers = s.TopDefectSuppliers[:3]
	}

	return s
}

func carrierChanges(t *table.Table) []CarrierChange {
	for _, name := range []string{"routes", "shipping_carriers", "shipping_costs", "shipping_times"} {
		if t.Column(name) == nil {
			return nil
		}
	}

	byCarrier := t.GroupBy([]string{"routes", "shipping_carriers"},
		table.Agg{Out: "avg_cost", Col: "shipping_costs", Fn: table.Mean},
		table.Agg{Out: "avg_time", Col: "shipping_times", Fn: table.Mean},
	)

	type carrierStat struct {
		carrier string
		cost    float64
		time    float64
	}
	perRoute := map[string][]carrierStat{}
	rCol := byCarrier.Column("routes")
	cCol := byCarrier.Column("shipping_carriers")
	costCol := byCarrier.Column("avg_cost")
	timeCol := byCarrier.Column("avg_time")
	for i := 0; i < byCarrier.NumRows(); i++ {
		cost := costCol.Float(i)
		if math.IsNaN(cost) {
			continue
		}
		r := rCol.Value(i)
		perRoute[r] = append(perRoute[r], carrierStat{
			carrier: cCol.Value(i),
			cost:    cost,
			time:    timeCol.Float(i),
		})
	}

	routeNames := make([]string, 0, len(perRoute))
	for r := range perRoute {
		routeNames = append(routeNames, r)
	}
	sort.Strings(routeNames)

	var changes []CarrierChange
	for _, r := range routeNames {
		carriers := perRoute[r]
		if len(carriers) < 2 {
			continue
		}
		best, worst := carriers[0], carriers[0]
		for _, c := range carriers[1:] {
			if c.cost < best.cost {
				best = c
			}
			if c.cost > worst.cost {
				worst = c
			}
		}
		// Shipping times can be entirely missing for a route; the JSON
		// export cannot carry NaN.
		timeDelta := worst.time - best.time
		if math.IsNaN(timeDelta) {
			timeDelta = 0
		}
		changes = append(changes, CarrierChange{
			Route:         r,
			BestCarrier:   best.carrier,
			WorstCarrier:  worst.carrier,
			CostDelta:     worst.cost - best.cost,
			TimeDelta:     timeDelta,
			CarriersOnRte: len(carriers),
		})
	}
	return changes
}
