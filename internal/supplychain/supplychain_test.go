package supplychain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsight/internal/table"
)

func rawExtract(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New()
	tbl.MustAddColumn(table.NewStringColumn("sku", []string{"SKU1", "SKU2", "SKU3", "SKU4"}))
	tbl.MustAddColumn(table.NewStringColumn("product_type", []string{"skincare", "haircare", "skincare", "cosmetics"}))
	tbl.MustAddColumn(table.NewFloatColumn("price", []float64{50, 30, 20, 10}))
	tbl.MustAddColumn(table.NewFloatColumn("availability", []float64{10, 0, 40, 80}))
	tbl.MustAddColumn(table.NewFloatColumn("number_of_products_sold", []float64{800, 50, 200, 100}))
	tbl.MustAddColumn(table.NewFloatColumn("revenue_generated", []float64{40000, 15000, 4000, 1000}))
	tbl.MustAddColumn(table.NewFloatColumn("stock_levels", []float64{10, 600, 300, 400}))
	tbl.MustAddColumn(table.NewFloatColumn("lead_time", []float64{5, math.NaN(), 8, 12}))
	tbl.MustAddColumn(table.NewFloatColumn("lead_times", []float64{7, 9, 8, math.NaN()}))
	tbl.MustAddColumn(table.NewFloatColumn("defect_rates", []float64{2, 5, 1, 4}))
	tbl.MustAddColumn(table.NewStringColumn("inspection_results", []string{"pass", "FAIL", "pending", "pass"}))
	tbl.MustAddColumn(table.NewStringColumn("supplier_name", []string{"Supplier A", "Supplier B", "Supplier A", "Supplier C"}))
	tbl.MustAddColumn(table.NewStringColumn("location", []string{"Mumbai", "Delhi", "Mumbai", "Chennai"}))
	tbl.MustAddColumn(table.NewStringColumn("shipping_carriers", []string{"Carrier X", "Carrier Y", "Carrier X", "Carrier Y"}))
	tbl.MustAddColumn(table.NewFloatColumn("shipping_costs", []float64{100, 250, 120, 90}))
	tbl.MustAddColumn(table.NewFloatColumn("shipping_times", []float64{3, 6, 4, 2}))
	tbl.MustAddColumn(table.NewStringColumn("routes", []string{"Route 1", "Route 1", "Route 2", "Route 2"}))
	tbl.MustAddColumn(table.NewStringColumn("transportation_modes", []string{"Road", "Air", "Road", "Sea"}))
	tbl.MustAddColumn(table.NewFloatColumn("manufacturing_costs", []float64{2000, 1500, 800, -5}))
	tbl.MustAddColumn(table.NewFloatColumn("costs", []float64{400, 600, 300, 200}))
	return tbl
}

func cleaned(t *testing.T) (*table.Table, *CleanReport) {
	t.Helper()
	tbl, rep, err := Clean(rawExtract(t))
	require.NoError(t, err)
	return tbl, rep
}

func TestCleanLeadTimeResolution(t *testing.T) {
	tbl, rep := cleaned(t)

	lead := tbl.Column("lead_time_canonical")
	require.NotNil(t, lead)
	assert.Equal(t, 5.0, lead.Float(0), "lead_time preferred")
	assert.Equal(t, 9.0, lead.Float(1), "lead_times fallback")
	assert.Equal(t, 8.0, lead.Float(2))
	assert.Equal(t, 12.0, lead.Float(3))

	assert.Equal(t, 1, rep.LeadTimeMismatches, "only row 0 disagrees")
}

func TestCleanDefectRateRescale(t *testing.T) {
	tbl, rep := cleaned(t)

	assert.True(t, rep.DefectRatesRescaled)
	assert.InDelta(t, 0.02, tbl.Column("defect_rates").Float(0), 1e-9)
	assert.InDelta(t, 0.05, tbl.Column("defect_rates").Float(1), 1e-9)
}

func TestCleanDefectRateFractionsUntouched(t *testing.T) {
	tbl := table.New()
	tbl.MustAddColumn(table.NewStringColumn("sku", []string{"A"}))
	tbl.MustAddColumn(table.NewFloatColumn("defect_rates", []float64{0.03}))

	out, rep, err := Clean(tbl)
	require.NoError(t, err)
	assert.False(t, rep.DefectRatesRescaled)
	assert.InDelta(t, 0.03, out.Column("defect_rates").Float(0), 1e-9)
}

func TestCleanInspectionTitleCase(t *testing.T) {
	tbl, _ := cleaned(t)
	col := tbl.Column("inspection_results")
	assert.Equal(t, "Pass", col.StringAt(0))
	assert.Equal(t, "Fail", col.StringAt(1))
	assert.Equal(t, "Pending", col.StringAt(2))
}

func TestCleanNegativesBecomeMissing(t *testing.T) {
	tbl, _ := cleaned(t)
	assert.True(t, tbl.Column("manufacturing_costs").IsNull(3))
}

func TestDeriveFeatures(t *testing.T) {
	tbl, _ := cleaned(t)
	require.NoError(t, DeriveFeatures(tbl))

	demand := tbl.Column("demand_signal")
	assert.Equal(t, 80.0, demand.Float(0))
	assert.Equal(t, 50.0, demand.Float(1), "zero availability counts as one")

	cover := tbl.Column("stock_cover_proxy")
	assert.InDelta(t, 10.0/800, cover.Float(0), 1e-9)

	assert.InDelta(t, 50.0, tbl.Column("revenue_per_unit").Float(0), 1e-9)
	assert.Equal(t, 500.0, tbl.Column("total_logistics_cost").Float(0))
	assert.Equal(t, 40000.0-2500.0, tbl.Column("margin_proxy").Float(0))
}

func TestAddInspectionFlag(t *testing.T) {
	tbl, _ := cleaned(t)
	require.True(t, AddInspectionFlag(tbl))

	flag := tbl.Column("inspection_fail_flag")
	require.NotNil(t, flag)
	assert.Equal(t, 0.0, flag.Float(0))
	assert.Equal(t, 1.0, flag.Float(1))
	assert.Equal(t, 0.0, flag.Float(2))
}

func TestWatchlist(t *testing.T) {
	tbl, _ := cleaned(t)
	require.NoError(t, DeriveFeatures(tbl))

	watch := Watchlist(tbl)
	require.Equal(t, 1, watch.NumRows())
	assert.Equal(t, "SKU1", watch.Column("sku").Value(0),
		"highest demand with thinnest cover")
}

func TestSupplierPerformance(t *testing.T) {
	tbl, _ := cleaned(t)
	require.NoError(t, DeriveFeatures(tbl))

	perf := SupplierPerformance(tbl)
	require.Equal(t, 3, perf.NumRows())
	assert.Equal(t, "Supplier A", perf.Column("supplier_name").Value(0))
	assert.Equal(t, 2.0, perf.Column("sku_count").Float(0))
	assert.Equal(t, 44000.0, perf.Column("total_revenue").Float(0))
}

func TestSegmentBands(t *testing.T) {
	tbl, _ := cleaned(t)
	require.NoError(t, SegmentBands(tbl))

	bands := tbl.Column("revenue_band")
	require.NotNil(t, bands)
	assert.Equal(t, "high", bands.StringAt(0))
	assert.Equal(t, "low", bands.StringAt(3))
}

func TestProfileQuality(t *testing.T) {
	tbl, rep := cleaned(t)
	summary, profile := ProfileQuality(tbl, rep)

	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, 0, summary.DuplicatesDropped)
	assert.Contains(t, summary.NonPositiveCounts, "revenue_generated")

	require.Greater(t, profile.NumRows(), 0)
	assert.True(t, profile.HasColumn("pct_missing"))
	assert.True(t, profile.HasColumn("iqr_outliers"))

	// Columns with missing values rank first.
	first := profile.Column("pct_missing").Float(0)
	last := profile.Column("pct_missing").Float(profile.NumRows() - 1)
	assert.GreaterOrEqual(t, first, last)
}

func TestDriverAnalysis(t *testing.T) {
	tbl, _ := cleaned(t)
	require.NoError(t, DeriveFeatures(tbl))

	drivers, err := DriverAnalysis(tbl, "revenue_generated", "sku")
	require.NoError(t, err)
	require.Greater(t, drivers.NumRows(), 0)

	imp := drivers.Column("importance")
	for i := 1; i < drivers.NumRows(); i++ {
		assert.GreaterOrEqual(t, imp.Float(i-1), imp.Float(i))
	}

	feature := drivers.Column("feature")
	kind := drivers.Column("kind")
	found := false
	for i := 0; i < drivers.NumRows(); i++ {
		if feature.Value(i) == "number_of_products_sold" {
			found = true
			assert.Equal(t, "numeric", kind.Value(i))
			assert.Greater(t, imp.Float(i), 0.5)
		}
	}
	assert.True(t, found, "units sold should be ranked as a driver")
}

func TestDriverAnalysisBadTarget(t *testing.T) {
	tbl, _ := cleaned(t)
	_, err := DriverAnalysis(tbl, "sku")
	assert.Error(t, err)
}

func TestBuildScenarios(t *testing.T) {
	tbl, _ := cleaned(t)
	s := BuildScenarios(tbl, 0.25)

	// Both routes have two carriers with distinct costs.
	require.Len(t, s.CarrierChanges, 2)
	first := s.CarrierChanges[0]
	assert.Equal(t, "Route 1", first.Route)
	assert.Equal(t, "Carrier X", first.BestCarrier)
	assert.Equal(t, "Carrier Y", first.WorstCarrier)
	assert.InDelta(t, 150.0, first.CostDelta, 1e-9)

	// Exposure: sum of defect_rate * revenue per row.
	wantExposure := 0.02*40000 + 0.05*15000 + 0.01*4000 + 0.04*1000
	assert.InDelta(t, wantExposure, s.DefectReduction.CurrentExposure, 1e-6)
	assert.InDelta(t, wantExposure*0.25, s.DefectReduction.EstimatedSavings, 1e-6)

	require.Len(t, s.TopDefectSuppliers, 3)
	assert.Equal(t, "Supplier A", s.TopDefectSuppliers[0].Supplier)
}

func TestBuildScenariosWithoutShippingColumns(t *testing.T) {
	tbl := table.New()
	tbl.MustAddColumn(table.NewStringColumn("sku", []string{"A", "B"}))
	tbl.MustAddColumn(table.NewStringColumn("routes", []string{"Route 1", "Route 1"}))
	tbl.MustAddColumn(table.NewStringColumn("shipping_carriers", []string{"Carrier X", "Carrier Y"}))

	s := BuildScenarios(tbl, 0.25)
	assert.Empty(t, s.CarrierChanges)
}

func TestBuildScenariosAllMissingShippingTimes(t *testing.T) {
	tbl, _ := cleaned(t)
	times := tbl.Column("shipping_times")
	require.NotNil(t, times)
	for i := 0; i < times.Len(); i++ {
		times.SetFloat(i, math.NaN())
	}

	s := BuildScenarios(tbl, 0.25)
	require.Len(t, s.CarrierChanges, 2)
	assert.Equal(t, 0.0, s.CarrierChanges[0].TimeDelta)

	_, err := json.Marshal(s)
	require.NoError(t, err)
}
