package procurement

import (
	"math"

	"opsight/internal/table"
)

// orderStatusRisk maps normalized order statuses to a delivery risk
// weight. Unknown or unrecorded statuses carry a small residual risk.
func orderStatusRisk(status string) float64 {
	switch status {
	case "delivered":
		return 0
	case "pending":
		return 0.5
	case "partially delivered":
		return 0.7
	case "cancelled":
		return 1.0
	default:
		return 0.2
	}
}

// DeriveFeatures adds the order-level derived columns: PO values,
// realized savings, defect features, compliance flags, lead times and
// order-status risk.
func DeriveFeatures(t *table.Table) error {
	n := t.NumRows()
	qty := t.Column("quantity")
	unitPrice := t.Column("unit_price")
	negotiated := t.Column("negotiated_price")

	gross := make([]float64, n)
	negotiatedValue := make([]float64, n)
	savings := make([]float64, n)
	savingsRate := make([]float64, n)
	for i := 0; i < n; i++ {
		q := qty.Float(i)
		gross[i] = q * unitPrice.Float(i)
		np := math.NaN()
		if negotiated != nil {
			np = negotiated.Float(i)
		}
		if math.IsNaN(np) {
			// Without a negotiated price the order realizes no savings.
			negotiatedValue[i] = gross[i]
			savings[i] = 0
		} else {
			negotiatedValue[i] = q * np
			savings[i] = gross[i] - negotiatedValue[i]
		}
		if gross[i] == 0 {
			savingsRate[i] = math.NaN()
		} else {
			savingsRate[i] = savings[i] / gross[i]
		}
	}
	if err := addAll(t,
		table.NewFloatColumn("gross_value", gross),
		table.NewFloatColumn("negotiated_value", negotiatedValue),
		table.NewFloatColumn("realized_savings", savings),
		table.NewFloatColumn("savings_rate", savingsRate),
	); err != nil {
		return err
	}

	if err := deriveDefects(t); err != nil {
		return err
	}
	if err := deriveCompliance(t); err != nil {
		return err
	}
	if err := deriveLeadTime(t); err != nil {
		return err
	}
	return deriveStatusRisk(t)
}

// deriveDefects fills missing defective unit counts with zero, flags
// the fills, and computes defect rate and defective cost exposure.
// Defect counts above the ordered quantity are invalid.
func deriveDefects(t *table.Table) error {
	n := t.NumRows()
	qty := t.Column("quantity")
	defective := t.Column("defective_units")
	negotiated := t.Column("negotiated_price")
	unitPrice := t.Column("unit_price")

	filled := make([]float64, n)
	missingFlag := make([]float64, n)
	rate := make([]float64, n)
	exposure := make([]float64, n)
	for i := 0; i < n; i++ {
		d := math.NaN()
		if defective != nil {
			d = defective.Float(i)
		}
		if math.IsNaN(d) {
			filled[i] = 0
			missingFlag[i] = 1
		} else {
			filled[i] = d
		}

		q := qty.Float(i)
		switch {
		case math.IsNaN(q) || q == 0:
			rate[i] = math.NaN()
		case filled[i] > q:
			rate[i] = math.NaN()
		default:
			rate[i] = filled[i] / q
		}

		price := math.NaN()
		if negotiated != nil {
			price = negotiated.Float(i)
		}
		if math.IsNaN(price) {
			price = unitPrice.Float(i)
		}
		exposure[i] = filled[i] * price
	}

	return addAll(t,
		table.NewFloatColumn("defective_units_filled", filled),
		table.NewFloatColumn("defective_units_missing", missingFlag),
		table.NewFloatColumn("defect_rate", rate),
		table.NewFloatColumn("defective_cost_exposure", exposure),
	)
}

// deriveCompliance adds the non-compliance flag and spend at risk.
func deriveCompliance(t *table.Table) error {
	n := t.NumRows()
	compliance := t.Column("compliance")
	negotiatedValue := t.Column("negotiated_value")

	flag := make([]float64, n)
	atRisk := make([]float64, n)
	for i := 0; i < n; i++ {
		if compliance != nil && compliance.StringAt(i) == "no" {
			flag[i] = 1
			atRisk[i] = negotiatedValue.Float(i)
		}
	}

	return addAll(t,
		table.NewFloatColumn("non_compliant_flag", flag),
		table.NewFloatColumn("spend_at_risk", atRisk),
	)
}

// deriveLeadTime computes delivery minus order date in days, rounded
// up. Negative durations are data errors and become missing.
func deriveLeadTime(t *table.Table) error {
	n := t.NumRows()
	orderDate := t.Column("order_date")
	deliveryDate := t.Column("delivery_date")

	days := make([]float64, n)
	for i := 0; i < n; i++ {
		days[i] = math.NaN()
		if orderDate == nil || deliveryDate == nil {
			continue
		}
		if orderDate.IsNull(i) || deliveryDate.IsNull(i) {
			continue
		}
		d := deliveryDate.Time(i).Sub(orderDate.Time(i)).Hours() / 24
		if d < 0 {
			continue
		}
		days[i] = math.Ceil(d)
	}

	return t.AddColumn(table.NewFloatColumn("lead_time_days", days))
}

func deriveStatusRisk(t *table.Table) error {
	n := t.NumRows()
	status := t.Column("order_status")

	risk := make([]float64, n)
	for i := 0; i < n; i++ {
		s := ""
		if status != nil && !status.IsNull(i) {
			s = status.StringAt(i)
		}
		risk[i] = orderStatusRisk(s)
	}

	return t.AddColumn(table.NewFloatColumn("order_status_risk", risk))
}

func addAll(t *table.Table, cols ...*table.Column) error {
	for _, c := range cols {
		if err := t.AddColumn(c); err != nil {
			return err
		}
	}
	return nil
}
