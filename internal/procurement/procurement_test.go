package procurement

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsight/internal/table"
)

func rawOrders(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New()
	tbl.MustAddColumn(table.NewStringColumn("po_id", []string{"PO-1", "PO-2", "PO-3", "PO-4"}))
	tbl.MustAddColumn(table.NewStringColumn("supplier", []string{"Acme", "Acme", "Zenith", "Zenith"}))
	tbl.MustAddColumn(table.NewStringColumn("item_category", []string{"mro", "raw", "raw", "mro"}))
	tbl.MustAddColumn(table.NewFloatColumn("quantity", []float64{100, 50, 200, 10}))
	tbl.MustAddColumn(table.NewFloatColumn("unit_price", []float64{10, 20, 5, 8}))
	tbl.MustAddColumn(table.NewFloatColumn("negotiated_price", []float64{9, 18, 5, math.NaN()}))
	tbl.MustAddColumn(table.NewFloatColumn("defective_units", []float64{5, math.NaN(), 10, 0}))
	tbl.MustAddColumn(table.NewStringColumn("compliance", []string{"Yes", "No", "yes", "yes"}))
	tbl.MustAddColumn(table.NewStringColumn("order_status", []string{"Delivered", "Pending", "Partially Delivered", "Cancelled"}))
	tbl.MustAddColumn(table.NewTimeColumn("order_date", []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}))
	tbl.MustAddColumn(table.NewTimeColumn("delivery_date", []time.Time{
		time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), // before order date
		{},
	}))
	return tbl
}

func cleanedOrders(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := Clean(rawOrders(t))
	require.NoError(t, err)
	require.NoError(t, DeriveFeatures(tbl))
	return tbl
}

func TestCleanRenamesAndNormalizes(t *testing.T) {
	tbl := table.New()
	tbl.MustAddColumn(table.NewStringColumn("po_number", []string{"PO-1"}))
	tbl.MustAddColumn(table.NewStringColumn("vendor_name", []string{"Acme"}))
	tbl.MustAddColumn(table.NewFloatColumn("quantity", []float64{-5}))
	tbl.MustAddColumn(table.NewFloatColumn("unit_price", []float64{10}))
	tbl.MustAddColumn(table.NewStringColumn("status", []string{" Delivered "}))

	cleaned, err := Clean(tbl)
	require.NoError(t, err)

	assert.True(t, cleaned.HasColumn("po_id"))
	assert.True(t, cleaned.HasColumn("supplier"))
	assert.True(t, cleaned.Column("quantity").IsNull(0), "negative quantity becomes missing")
	assert.Equal(t, "delivered", cleaned.Column("order_status").StringAt(0))
}

func TestCleanMissingRequiredColumn(t *testing.T) {
	tbl := table.New()
	tbl.MustAddColumn(table.NewStringColumn("po_id", []string{"PO-1"}))

	_, err := Clean(tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required column")
}

func TestCleanDropsDuplicates(t *testing.T) {
	tbl := table.New()
	tbl.MustAddColumn(table.NewStringColumn("po_id", []string{"PO-1", "PO-1"}))
	tbl.MustAddColumn(table.NewStringColumn("supplier", []string{"Acme", "Acme"}))
	tbl.MustAddColumn(table.NewFloatColumn("quantity", []float64{5, 5}))
	tbl.MustAddColumn(table.NewFloatColumn("unit_price", []float64{2, 2}))

	cleaned, err := Clean(tbl)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned.NumRows())
}

func TestDeriveFeatures(t *testing.T) {
	orders := cleanedOrders(t)

	gross := orders.Column("gross_value")
	negotiated := orders.Column("negotiated_value")
	savings := orders.Column("realized_savings")
	rate := orders.Column("savings_rate")

	assert.Equal(t, 1000.0, gross.Float(0))
	assert.Equal(t, 900.0, negotiated.Float(0))
	assert.Equal(t, 100.0, savings.Float(0))
	assert.InDelta(t, 0.1, rate.Float(0), 1e-9)

	// Missing negotiated price: spend equals gross, no savings.
	assert.Equal(t, 80.0, negotiated.Float(3))
	assert.Equal(t, 0.0, savings.Float(3))
}

func TestDeriveDefects(t *testing.T) {
	orders := cleanedOrders(t)

	assert.Equal(t, 0.0, orders.Column("defective_units_filled").Float(1),
		"missing defect count filled with zero")
	assert.Equal(t, 1.0, orders.Column("defective_units_missing").Float(1))
	assert.Equal(t, 0.0, orders.Column("defective_units_missing").Float(0))

	assert.InDelta(t, 0.05, orders.Column("defect_rate").Float(0), 1e-9)
	assert.InDelta(t, 45.0, orders.Column("defective_cost_exposure").Float(0), 1e-9)
}

func TestDeriveCompliance(t *testing.T) {
	orders := cleanedOrders(t)

	flag := orders.Column("non_compliant_flag")
	atRisk := orders.Column("spend_at_risk")

	assert.Equal(t, 0.0, flag.Float(0))
	assert.Equal(t, 1.0, flag.Float(1))
	assert.Equal(t, 900.0, atRisk.Float(1), "negotiated value of PO-2")
	assert.Equal(t, 0.0, atRisk.Float(2))
}

func TestDeriveLeadTime(t *testing.T) {
	orders := cleanedOrders(t)

	lead := orders.Column("lead_time_days")
	assert.Equal(t, 10.0, lead.Float(0))
	assert.Equal(t, 15.0, lead.Float(1))
	assert.True(t, lead.IsNull(2), "delivery before order is invalid")
	assert.True(t, lead.IsNull(3), "missing delivery date")
}

func TestDeriveStatusRisk(t *testing.T) {
	orders := cleanedOrders(t)

	risk := orders.Column("order_status_risk")
	assert.Equal(t, 0.0, risk.Float(0))
	assert.Equal(t, 0.5, risk.Float(1))
	assert.Equal(t, 0.7, risk.Float(2))
	assert.Equal(t, 1.0, risk.Float(3))
}

func TestDeriveStatusRiskMissingStatus(t *testing.T) {
	orders := table.New()
	orders.MustAddColumn(table.NewStringColumn("po_id", []string{"PO-1", "PO-2"}))
	orders.MustAddColumn(table.NewStringColumn("order_status", []string{"delivered", ""}))
	orders.MustAddColumn(table.NewFloatColumn("quantity", []float64{10, 20}))
	orders.MustAddColumn(table.NewFloatColumn("unit_price", []float64{5, 5}))

	require.NoError(t, DeriveFeatures(orders))

	risk := orders.Column("order_status_risk")
	assert.Equal(t, 0.0, risk.Float(0))
	assert.Equal(t, 0.2, risk.Float(1), "unrecorded status keeps the residual risk")
}

func TestSupplierRollup(t *testing.T) {
	suppliers := SupplierRollup(cleanedOrders(t))

	require.Equal(t, 2, suppliers.NumRows())
	assert.Equal(t, "Acme", suppliers.Column("supplier").Value(0))
	assert.Equal(t, 2.0, suppliers.Column("order_count").Float(0))
	assert.Equal(t, 1800.0, suppliers.Column("total_spend").Float(0))
	assert.Equal(t, 900.0, suppliers.Column("spend_at_risk").Float(0))
	assert.InDelta(t, 0.5, suppliers.Column("non_compliance_rate").Float(0), 1e-9)
}

func TestScoreRiskAndSegment(t *testing.T) {
	suppliers := SupplierRollup(cleanedOrders(t))
	require.NoError(t, ScoreRisk(suppliers, []float64{0.25, 0.25, 0.25, 0.25}))
	require.NoError(t, Segment(suppliers))

	risk := suppliers.Column("risk_score")
	require.NotNil(t, risk)
	for i := 0; i < suppliers.NumRows(); i++ {
		v := risk.Float(i)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	segment := suppliers.Column("segment")
	require.NotNil(t, segment)
	for i := 0; i < suppliers.NumRows(); i++ {
		assert.Contains(t, []string{
			"Governance Risk", "Operational Risk", "Cost Trap", "Strategic",
		}, segment.StringAt(i))
	}
}

func TestScoreRiskWeightOrder(t *testing.T) {
	suppliers := SupplierRollup(cleanedOrders(t))
	require.NoError(t, ScoreRisk(suppliers, []float64{1, 0, 0, 0}))

	// All weight on the first component makes the score the scaled
	// non-compliance rate: Acme has the only non-compliant order.
	score := suppliers.Column("risk_score")
	assert.Equal(t, "Acme", suppliers.Column("supplier").Value(0))
	assert.InDelta(t, 1.0, score.Float(0), 1e-9)
	assert.InDelta(t, 0.0, score.Float(1), 1e-9)
}

func TestScoreRiskWeightCount(t *testing.T) {
	suppliers := SupplierRollup(cleanedOrders(t))
	assert.Error(t, ScoreRisk(suppliers, []float64{0.5, 0.5}))
}

func TestBuildScenarios(t *testing.T) {
	suppliers := SupplierRollup(cleanedOrders(t))
	s := BuildScenarios(suppliers, 0.25)

	assert.InDelta(t, 2880.0, s.NonCompliantSpend.TotalSpend, 1e-9)
	assert.InDelta(t, 900.0, s.NonCompliantSpend.NonCompliantSpend, 1e-9)
	assert.InDelta(t, 900.0/2880.0, s.NonCompliantSpend.Share, 1e-9)

	assert.Equal(t, 0.25, s.DefectReduction.ReductionPct)
	assert.InDelta(t, s.DefectReduction.CurrentExposure*0.25,
		s.DefectReduction.EstimatedSavings, 1e-9)

	require.NotEmpty(t, s.TopDefectSuppliers)
	assert.GreaterOrEqual(t,
		s.TopDefectSuppliers[0].DefectiveCost,
		s.TopDefectSuppliers[len(s.TopDefectSuppliers)-1].DefectiveCost)
}

func TestSpendPareto(t *testing.T) {
	suppliers := SupplierRollup(cleanedOrders(t))
	rows := SpendPareto(suppliers)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rank)
	assert.InDelta(t, 1.0, rows[len(rows)-1].CumulativeShare, 1e-9)
}
