package supplychain

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"opsight/internal/bimodel"
	"opsight/internal/config"
	"opsight/internal/exporter"
	"opsight/internal/infrastructure"
	"opsight/internal/pipeline"
	"opsight/internal/report"
	"opsight/internal/stats"
	"opsight/internal/table"
)

// Pipeline is the supply chain analysis case.
type Pipeline struct {
	cfg config.AnalysisConfig
}

// New creates the supply chain pipeline with the given analysis
// parameters.
func New(cfg config.AnalysisConfig) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Name implements pipeline.Pipeline.
func (p *Pipeline) Name() string { return "supplychain" }

// Description implements pipeline.Pipeline.
func (p *Pipeline) Description() string {
	return "SKU-grain supply chain KPIs, watchlist, data quality, drivers and scenarios"
}

// Run executes the case end to end.
func (p *Pipeline) Run(ctx context.Context, dirs pipeline.Dirs) (*pipeline.Result, error) {
	logger := infrastructure.LoggerFromContext(ctx)
	result := &pipeline.Result{Metrics: map[string]any{}}

	data, err := pipeline.LoadDataset(dirs.Input, "supply_chain")
	if err != nil {
		return nil, err
	}
	logger.Info("loaded supply chain extract", "rows", data.NumRows())

	data, cleanReport, err := Clean(data)
	if err != nil {
		return nil, fmt.Errorf("clean supply chain extract: %w", err)
	}
	if err := DeriveFeatures(data); err != nil {
		return nil, fmt.Errorf("derive features: %w", err)
	}
	if err := SegmentBands(data); err != nil {
		return nil, fmt.Errorf("segment bands: %w", err)
	}

	watchlist := Watchlist(data)
	suppliers := SupplierPerformance(data)
	qualitySummary, qualityProfile := ProfileQuality(data, cleanReport)
	scenarios := BuildScenarios(data, p.cfg.DefectReductionPct)

	drivers, err := DriverAnalysis(data, "revenue_generated",
		"sku", "demand_signal", "stock_cover_proxy", "revenue_per_unit",
		"margin_proxy", "revenue_band")
	if err != nil {
		logger.Warn("driver analysis skipped", "error", err.Error())
	}

	var inspectionDrivers *table.Table
	if AddInspectionFlag(data) {
		inspectionDrivers, err = DriverAnalysis(data, "inspection_fail_flag",
			"sku", "inspection_results", "revenue_band", "defect_band")
		if err != nil {
			logger.Warn("inspection driver analysis skipped", "error", err.Error())
		}
	}

	exportDir := filepath.Join(dirs.Exports, "supplychain")
	reportDir := filepath.Join(dirs.Reports, "supplychain")
	csvw := exporter.NewCSVWriter(exportDir, logger)
	pqw := exporter.NewParquetWriter(exportDir, logger)

	if err := p.exportStar(data, csvw, pqw, exportDir, result); err != nil {
		return nil, err
	}

	for name, tbl := range map[string]*table.Table{
		"watchlist.csv":            watchlist,
		"supplier_performance.csv": suppliers,
		"data_quality.csv":         qualityProfile,
	} {
		if err := csvw.WriteTable(name, tbl); err != nil {
			return nil, fmt.Errorf("export %s: %w", name, err)
		}
		result.AddOutput(filepath.Join(exportDir, name))
	}
	if drivers != nil {
		if err := csvw.WriteTable("feature_importance.csv", drivers); err != nil {
			return nil, fmt.Errorf("export feature importance: %w", err)
		}
		result.AddOutput(filepath.Join(exportDir, "feature_importance.csv"))
	}
	if inspectionDrivers != nil {
		if err := csvw.WriteTable("inspection_fail_drivers.csv", inspectionDrivers); err != nil {
			return nil, fmt.Errorf("export inspection drivers: %w", err)
		}
		result.AddOutput(filepath.Join(exportDir, "inspection_fail_drivers.csv"))
	}

	scenariosPath := filepath.Join(reportDir, "scenarios.json")
	if err := exporter.WriteJSON(scenariosPath, scenarios); err != nil {
		return nil, fmt.Errorf("write scenarios: %w", err)
	}
	result.AddOutput(scenariosPath)

	snapshot := p.kpiSnapshot(data, watchlist, suppliers, qualitySummary, scenarios)
	snapshotPath := filepath.Join(reportDir, "kpi_snapshot.json")
	if err := exporter.WriteJSON(snapshotPath, snapshot); err != nil {
		return nil, fmt.Errorf("write KPI snapshot: %w", err)
	}
	result.AddOutput(snapshotPath)

	summaryPath := filepath.Join(reportDir, "EXEC_SUMMARY.md")
	summary := p.execSummary(snapshot, watchlist, drivers, scenarios, cleanReport)
	if err := exporter.WriteMarkdown(summaryPath, summary); err != nil {
		return nil, fmt.Errorf("write executive summary: %w", err)
	}
	result.AddOutput(summaryPath)

	result.Metrics["skus"] = data.NumRows()
	result.Metrics["watchlist"] = watchlist.NumRows()
	result.Metrics["suppliers"] = suppliers.NumRows()
	return result, nil
}

// starDims maps natural fact columns to their surrogate dimensions.
var starDims = []struct {
	column  string
	keyName string
	dimName string
}{
	{"supplier_name", "supplier_key", "dim_supplier"},
	{"location", "location_key", "dim_location"},
	{"shipping_carriers", "carrier_key", "dim_carrier"},
	{"routes", "route_key", "dim_route"},
	{"transportation_modes", "mode_key", "dim_mode"},
}

// exportStar synthesizes record IDs, builds the surrogate-key star
// schema and writes the fact and dimensions.
func (p *Pipeline) exportStar(data *table.Table,
	csvw *exporter.CSVWriter, pqw *exporter.ParquetWriter,
	exportDir string, result *pipeline.Result) error {

	fact := data

	// The extract has no row identifier; exports need one.
	ids := make([]float64, fact.NumRows())
	for i := range ids {
		ids[i] = float64(i + 1)
	}
	if err := fact.AddColumn(table.NewFloatColumn("record_id", ids)); err != nil {
		return err
	}

	dims := map[string]*table.Table{}
	var relationships [][3]string

	if fact.HasColumn("product_type") {
		dim, err := bimodel.BuildDimMulti(fact, []string{"sku", "product_type"}, "product_key")
		if err != nil {
			return fmt.Errorf("build dim_product: %w", err)
		}
		fact, err = bimodel.AttachKey(fact, dim.Select("product_key", "sku"), "sku", "product_key")
		if err != nil {
			return fmt.Errorf("attach product_key: %w", err)
		}
		dims["dim_product"] = dim
		relationships = append(relationships, [3]string{"fact_supply_chain", "product_key", "dim_product"})
	}

	for _, d := range starDims {
		if !fact.HasColumn(d.column) {
			continue
		}
		dim, err := bimodel.BuildDim(fact, d.column, d.keyName)
		if err != nil {
			return fmt.Errorf("build %s: %w", d.dimName, err)
		}
		fact, err = bimodel.AttachKey(fact, dim, d.column, d.keyName)
		if err != nil {
			return fmt.Errorf("attach %s: %w", d.keyName, err)
		}
		dims[d.dimName] = dim
		relationships = append(relationships, [3]string{"fact_supply_chain", d.keyName, d.dimName})
	}

	currency := make([]string, fact.NumRows())
	for i := range currency {
		currency[i] = "USD"
	}
	if err := fact.AddColumn(table.NewStringColumn("currency_code", currency)); err != nil {
		return err
	}

	if err := csvw.WriteTable("fact_supply_chain.csv", fact); err != nil {
		return fmt.Errorf("export fact: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "fact_supply_chain.csv"))
	if err := pqw.WriteTable("fact_supply_chain.parquet", fact); err != nil {
		return fmt.Errorf("export fact parquet: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "fact_supply_chain.parquet"))

	// The flat export keeps natural columns for pivot tables.
	if err := csvw.WriteTable("flat_supply_chain.csv", data); err != nil {
		return fmt.Errorf("export flat table: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "flat_supply_chain.csv"))

	dictEntries := map[string]bimodel.DictEntry{
		"fact_supply_chain": {Table: fact, Descriptions: factDescriptions},
	}
	dimNames := make([]string, 0, len(dims))
	for name := range dims {
		dimNames = append(dimNames, name)
	}
	sort.Strings(dimNames)
	for _, name := range dimNames {
		dim := dims[name]
		if err := csvw.WriteTable(name+".csv", dim); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		result.AddOutput(filepath.Join(exportDir, name+".csv"))
		dictEntries[name] = bimodel.DictEntry{Table: dim}
	}

	dict := bimodel.DataDictionary(dictEntries)
	if err := csvw.WriteTable("data_dictionary.csv", dict); err != nil {
		return fmt.Errorf("export data dictionary: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "data_dictionary.csv"))

	keys := make([]string, 0, len(relationships))
	for _, r := range relationships {
		keys = append(keys, r[1])
	}
	doc := bimodel.StarSchemaDoc(
		map[string][]string{"fact_supply_chain": keys},
		map[string]string{
			"dim_product":  "one row per SKU with its product type",
			"dim_supplier": "one row per supplier",
			"dim_location": "one row per location",
			"dim_carrier":  "one row per shipping carrier",
			"dim_route":    "one row per route",
			"dim_mode":     "one row per transportation mode",
		},
	)
	doc += "\n## Relationships\n\n" + bimodel.RelationshipDoc(relationships)
	docPath := filepath.Join(exportDir, "star_schema.md")
	if err := exporter.WriteMarkdown(docPath, doc); err != nil {
		return fmt.Errorf("write star schema doc: %w", err)
	}
	result.AddOutput(docPath)

	return nil
}

var factDescriptions = map[string]string{
	"record_id":            "synthesized row identifier",
	"sku":                  "stock keeping unit",
	"demand_signal":        "units sold over availability",
	"stock_cover_proxy":    "stock levels over units sold",
	"revenue_per_unit":     "revenue over units sold",
	"total_logistics_cost": "shipping costs plus route costs",
	"margin_proxy":         "revenue minus manufacturing and logistics costs",
	"lead_time_canonical":  "resolved lead time in days",
	"defect_rates":         "defect rate as a fraction",
	"inspection_fail_flag": "1 when the inspection failed, 0 otherwise",
	"currency_code":        "reporting currency for monetary columns",
}

func (p *Pipeline) kpiSnapshot(data, watchlist, suppliers *table.Table,
	quality QualitySummary, scenarios Scenarios) map[string]any {

	defects := columnFloats(data, "defect_rates")
	leads := columnFloats(data, "lead_time_canonical")

	return map[string]any{
		"total_skus":            data.NumRows(),
		"supplier_count":        suppliers.NumRows(),
		"total_revenue":         sumColumn(data, "revenue_generated"),
		"total_margin_proxy":    sumColumn(data, "margin_proxy"),
		"avg_defect_rate":       nanToNil(stats.Mean(defects)),
		"avg_lead_time":         nanToNil(stats.Mean(leads)),
		"watchlist_size":        watchlist.NumRows(),
		"defect_cost_exposure":  scenarios.DefectReduction.CurrentExposure,
		"duplicates_dropped":    quality.DuplicatesDropped,
		"non_positive_readings": quality.NonPositiveCounts,
	}
}

func (p *Pipeline) execSummary(snapshot map[string]any, watchlist, drivers *table.Table,
	scenarios Scenarios, cleanReport *CleanReport) string {

	s := report.NewSummary("Supply Chain Analysis Executive Summary")

	s.Headline("%s SKUs from %s suppliers generated %s in revenue",
		report.FormatCount(snapshot["total_skus"].(int)),
		report.FormatCount(snapshot["supplier_count"].(int)),
		report.FormatAmount(snapshot["total_revenue"].(float64)))
	s.Headline("Defect cost exposure: %s",
		report.FormatAmount(scenarios.DefectReduction.CurrentExposure))

	s.Action("Expedite replenishment for the %s watchlist SKUs with high demand and thin cover",
		report.FormatCount(watchlist.NumRows()))
	for _, r := range scenarios.TopDefectSuppliers {
		s.Action("Audit %s: %s of defect cost, %s recoverable at the assumed reduction",
			r.Supplier, report.FormatAmount(r.DefectCost),
			report.FormatAmount(r.EstimatedSavings))
	}

	if sku := topWatchSKU(watchlist); sku != "" {
		s.Watch("Highest demand-to-cover imbalance: %s", sku)
	}

	for _, c := range scenarios.CarrierChanges {
		s.Scenario("Route %s: switching from %s to %s saves %s per shipment (time delta %s days)",
			c.Route, c.WorstCarrier, c.BestCarrier,
			report.FormatAmount(c.CostDelta), report.FormatAmount(c.TimeDelta))
	}
	s.Scenario("A %s defect reduction would recover %s",
		report.FormatPercent(scenarios.DefectReduction.ReductionPct),
		report.FormatAmount(scenarios.DefectReduction.EstimatedSavings))

	if drivers != nil && drivers.NumRows() > 0 {
		s.Method("Top revenue driver: %s (importance %.2f)",
			drivers.Column("feature").Value(0),
			drivers.Column("importance").Float(0))
	}
	s.Method("Demand signal is units sold over availability; stock cover is stock over units sold")
	if cleanReport != nil {
		if cleanReport.DefectRatesRescaled {
			s.Method("Defect rates arrived as percentages and were rescaled to fractions")
		}
		if cleanReport.LeadTimeMismatches > 0 {
			s.Method("%s rows disagreed between the two lead time columns; lead_time preferred",
				report.FormatCount(cleanReport.LeadTimeMismatches))
		}
	}

	s.Limitation("Demand and margin figures are proxies from a single extract")
	s.Limitation("Driver importances are associations, not causal effects")

	return s.Render()
}

func topWatchSKU(watchlist *table.Table) string {
	col := watchlist.Column("sku")
	if col == nil || watchlist.NumRows() == 0 {
		return ""
	}
	return col.Value(0)
}

func columnFloats(t *table.Table, name string) []float64 {
	col := t.Column(name)
	if col == nil {
		return nil
	}
	return col.Floats()
}

func sumColumn(t *table.Table, name string) float64 {
	col := t.Column(name)
	if col == nil {
		return 0
	}
	total := 0.0
	for i := 0; i < col.Len(); i++ {
		if v := col.Float(i); !math.IsNaN(v) {
			total += v
		}
	}
	return total
}

func nanToNil(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
