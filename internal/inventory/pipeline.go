package inventory

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"opsight/internal/bimodel"
	"opsight/internal/config"
	"opsight/internal/exporter"
	"opsight/internal/forecast"
	"opsight/internal/infrastructure"
	"opsight/internal/pipeline"
	"opsight/internal/report"
	"opsight/internal/stats"
	"opsight/internal/table"
)

// Pipeline is the inventory analysis case.
type Pipeline struct {
	cfg config.AnalysisConfig
}

// New creates the inventory pipeline with the given analysis
// parameters.
func New(cfg config.AnalysisConfig) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Name implements pipeline.Pipeline.
func (p *Pipeline) Name() string { return "inventory" }

// Description implements pipeline.Pipeline.
func (p *Pipeline) Description() string {
	return "Per-SKU inventory KPIs, EOQ and reorder points, ABC classes, sales forecast"
}

// Run executes the case end to end.
func (p *Pipeline) Run(ctx context.Context, dirs pipeline.Dirs) (*pipeline.Result, error) {
	logger := infrastructure.LoggerFromContext(ctx)
	result := &pipeline.Result{Metrics: map[string]any{}}

	beg, err := loadAndClean(dirs.Input, "beg_inventory", CleanSnapshot)
	if err != nil {
		return nil, err
	}
	end, err := loadAndClean(dirs.Input, "end_inventory", CleanSnapshot)
	if err != nil {
		return nil, err
	}
	sales, err := loadAndClean(dirs.Input, "sales", CleanSales)
	if err != nil {
		return nil, err
	}
	purchases, err := loadAndClean(dirs.Input, "purchases", CleanPurchases)
	if err != nil {
		return nil, err
	}

	// The invoice extract is optional; without it the configured
	// ordering cost stands in for mean freight.
	orderingCost := p.cfg.OrderingCost
	freightSource := "configured ordering cost"
	if invoices, err := loadAndClean(dirs.Input, "invoice_purchases", CleanInvoices); err == nil {
		if f := MeanFreight(invoices); !math.IsNaN(f) && f > 0 {
			orderingCost = f
			freightSource = "mean invoice freight"
		}
	} else {
		logger.Warn("invoice extract unavailable, using configured ordering cost",
			"error", err.Error())
	}

	fact := BuildSKUMetrics(beg, end, sales, purchases, p.cfg, orderingCost)
	logger.Info("built SKU metrics", "skus", fact.NumRows())

	var model *forecast.HoltModel
	var forecastTable *table.Table
	forecastTable, model, err = MonthlySalesForecast(sales, p.cfg.ForecastPeriods)
	if err != nil {
		logger.Warn("monthly forecast skipped", "error", err.Error())
	}

	spend := SupplierSpend(purchases)
	optimal := OptimalInventory(fact)

	exportDir := filepath.Join(dirs.Exports, "inventory")
	reportDir := filepath.Join(dirs.Reports, "inventory")
	csvw := exporter.NewCSVWriter(exportDir, logger)
	pqw := exporter.NewParquetWriter(exportDir, logger)

	if err := p.exportStar(fact, end, purchases, csvw, pqw, exportDir, result); err != nil {
		return nil, err
	}

	flat := fact.Select("sku", "description", "material_type", "abc_class",
		"sales_quantity", "sales_dollars", "avg_inventory", "avg_inventory_value",
		"inventory_turnover", "carrying_cost", "eoq", "daily_demand",
		"reorder_point", "stockout_risk")
	if err := csvw.WriteTable("flat_inventory.csv", flat); err != nil {
		return nil, fmt.Errorf("export flat inventory: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "flat_inventory.csv"))

	if err := csvw.WriteTable("supplier_spend.csv", spend); err != nil {
		return nil, fmt.Errorf("export supplier spend: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "supplier_spend.csv"))

	if err := csvw.WriteTable("optimal_inventory.csv", optimal); err != nil {
		return nil, fmt.Errorf("export optimal inventory: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "optimal_inventory.csv"))

	if forecastTable != nil {
		if err := csvw.WriteTable("monthly_sales_forecast.csv", forecastTable); err != nil {
			return nil, fmt.Errorf("export sales forecast: %w", err)
		}
		result.AddOutput(filepath.Join(exportDir, "monthly_sales_forecast.csv"))
	}

	snapshot := p.kpiSnapshot(fact, model)
	snapshotPath := filepath.Join(reportDir, "kpi_snapshot.json")
	if err := exporter.WriteJSON(snapshotPath, snapshot); err != nil {
		return nil, fmt.Errorf("write KPI snapshot: %w", err)
	}
	result.AddOutput(snapshotPath)

	summaryPath := filepath.Join(reportDir, "EXEC_SUMMARY.md")
	if err := exporter.WriteMarkdown(summaryPath, p.execSummary(fact, snapshot, model)); err != nil {
		return nil, fmt.Errorf("write executive summary: %w", err)
	}
	result.AddOutput(summaryPath)

	assumptionsPath := filepath.Join(reportDir, "ASSUMPTIONS.md")
	if err := exporter.WriteMarkdown(assumptionsPath,
		p.assumptions(orderingCost, freightSource, ObservedPeriodDays(sales))); err != nil {
		return nil, fmt.Errorf("write assumptions: %w", err)
	}
	result.AddOutput(assumptionsPath)

	result.Metrics["skus"] = fact.NumRows()
	result.Metrics["total_sales_dollars"] = snapshot["total_sales_dollars"]
	return result, nil
}

func loadAndClean(inputDir, name string,
	clean func(*table.Table) (*table.Table, error)) (*table.Table, error) {

	t, err := pipeline.LoadDataset(inputDir, name)
	if err != nil {
		return nil, err
	}
	t, err = clean(t)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", name, err)
	}
	return t, nil
}

// exportStar writes the natural-key star schema: the SKU fact plus
// product, vendor and store dimensions.
func (p *Pipeline) exportStar(fact, end, purchases *table.Table,
	csvw *exporter.CSVWriter, pqw *exporter.ParquetWriter,
	exportDir string, result *pipeline.Result) error {

	currency := make([]string, fact.NumRows())
	for i := range currency {
		currency[i] = "USD"
	}
	if err := fact.AddColumn(table.NewStringColumn("currency_code", currency)); err != nil {
		return err
	}

	if err := csvw.WriteTable("fact_inventory.csv", fact); err != nil {
		return fmt.Errorf("export fact: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "fact_inventory.csv"))
	if err := pqw.WriteTable("fact_inventory.parquet", fact); err != nil {
		return fmt.Errorf("export fact parquet: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "fact_inventory.parquet"))

	dims := map[string]*table.Table{}

	productCols := []string{"sku"}
	for _, c := range []string{"description"} {
		if fact.HasColumn(c) {
			productCols = append(productCols, c)
		}
	}
	dims["dim_product"] = fact.Select(productCols...).DropDuplicatesBy("sku")

	vendorCols := []string{}
	for _, c := range []string{"vendor_number", "vendor_name"} {
		if purchases.HasColumn(c) {
			vendorCols = append(vendorCols, c)
		}
	}
	if len(vendorCols) > 0 {
		dims["dim_vendor"] = purchases.Select(vendorCols...).DropDuplicates()
	}

	storeCols := []string{}
	for _, c := range []string{"store", "store_city"} {
		if end.HasColumn(c) {
			storeCols = append(storeCols, c)
		}
	}
	if len(storeCols) > 0 {
		dims["dim_store"] = end.Select(storeCols...).DropDuplicates()
	}

	dictEntries := map[string]bimodel.DictEntry{
		"fact_inventory": {Table: fact, Descriptions: factDescriptions},
	}
	var relationships [][3]string
	for _, name := range []string{"dim_product", "dim_store", "dim_vendor"} {
		dim, ok := dims[name]
		if !ok {
			continue
		}
		if err := csvw.WriteTable(name+".csv", dim); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		result.AddOutput(filepath.Join(exportDir, name+".csv"))
		dictEntries[name] = bimodel.DictEntry{Table: dim}
	}
	relationships = append(relationships, [3]string{"fact_inventory", "sku", "dim_product"})

	dict := bimodel.DataDictionary(dictEntries)
	if err := csvw.WriteTable("data_dictionary.csv", dict); err != nil {
		return fmt.Errorf("export data dictionary: %w", err)
	}
	result.AddOutput(filepath.Join(exportDir, "data_dictionary.csv"))

	doc := bimodel.StarSchemaDoc(
		map[string][]string{"fact_inventory": {"sku"}},
		map[string]string{
			"dim_product": "one row per SKU",
			"dim_vendor":  "one row per vendor",
			"dim_store":   "one row per store",
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
	"sku":                 "stock keeping unit",
	"beg_on_hand":         "units on hand at the start of the period",
	"end_on_hand":         "units on hand at the end of the period",
	"sales_quantity":      "units sold during the period",
	"sales_dollars":       "sales value during the period",
	"purchase_quantity":   "units purchased during the period",
	"purchase_dollars":    "purchase value during the period",
	"avg_purchase_price":  "mean purchase unit price",
	"avg_lead_time_days":  "mean receiving lead time in days",
	"avg_inventory":       "mean of beginning and ending on-hand units",
	"avg_inventory_value": "average inventory valued at the latest price",
	"inventory_turnover":  "sales dollars over average inventory value",
	"carrying_cost":       "average inventory value times the carrying cost rate",
	"eoq":                 "economic order quantity",
	"daily_demand":        "units sold per observed day",
	"reorder_point":       "daily demand times mean lead time",
	"stockout_risk":       "1 when ending on hand is below the reorder point",
	"material_type":       "finished_goods, raw_material or wip",
	"abc_class":           "Pareto class by sales value",
	"currency_code":       "reporting currency for monetary columns",
}

func (p *Pipeline) kpiSnapshot(fact *table.Table, model *forecast.HoltModel) map[string]any {
	turnover := fact.Column("inventory_turnover").Floats()

	snapshot := map[string]any{
		"total_skus":             fact.NumRows(),
		"total_sales_dollars":    sumColumn(fact, "sales_dollars"),
		"total_inventory_value":  sumColumn(fact, "avg_inventory_value"),
		"total_carrying_cost":    sumColumn(fact, "carrying_cost"),
		"avg_inventory_turnover": nanToNil(stats.Mean(turnover)),
		"skus_at_stockout_risk":  int(sumColumn(fact, "stockout_risk")),
		"abc_counts":             classCounts(fact),
	}
	if model != nil {
		next := model.Forecast(1)
		snapshot["next_month_sales_forecast"] = next[0]
	}
	return snapshot
}

func (p *Pipeline) execSummary(fact *table.Table, snapshot map[string]any,
	model *forecast.HoltModel) string {

	s := report.NewSummary("Inventory Analysis Executive Summary")

	s.Headline("Portfolio of %s SKUs with %s in sales and %s average inventory value",
		report.FormatCount(snapshot["total_skus"].(int)),
		report.FormatAmount(snapshot["total_sales_dollars"].(float64)),
		report.FormatAmount(snapshot["total_inventory_value"].(float64)))
	s.Headline("Annual carrying cost estimate: %s at a %s rate",
		report.FormatAmount(snapshot["total_carrying_cost"].(float64)),
		report.FormatPercent(p.cfg.CarryingCostRate))

	atRisk := snapshot["skus_at_stockout_risk"].(int)
	s.Action("Reorder the %s SKUs whose ending stock is below their reorder point",
		report.FormatCount(atRisk))
	counts := snapshot["abc_counts"].(map[string]int)
	s.Action("Tighten cycle counts on the %s class A SKUs driving most of the sales value",
		report.FormatCount(counts["A"]))

	if atRisk > 0 {
		s.Watch("%s SKUs are flagged with stockout risk", report.FormatCount(atRisk))
	}
	if model != nil {
		next := snapshot["next_month_sales_forecast"].(float64)
		s.Scenario("Trend forecast puts next month's sales at %s", report.FormatAmount(next))
	}

	s.Method("EOQ assumes holding cost = mean purchase price x %s carrying rate",
		report.FormatPercent(p.cfg.CarryingCostRate))
	s.Method("Reorder points use observed daily demand times mean receiving lead time")
	s.Method("ABC classes split cumulative sales value at %s and %s",
		report.FormatPercent(p.cfg.ABCClassACut), report.FormatPercent(p.cfg.ABCClassBCut))

	s.Limitation("Single-period snapshots; no seasonality in inventory positions")
	s.Limitation("SKUs without purchase history have no EOQ or reorder point")

	return s.Render()
}

func (p *Pipeline) assumptions(orderingCost float64, freightSource string, periodDays float64) string {
	s := report.NewSummary("Inventory Analysis Assumptions")
	s.Method("Carrying cost rate: %s of unit cost per year", report.FormatPercent(p.cfg.CarryingCostRate))
	s.Method("Ordering cost: %s per order (%s)", report.FormatAmount(orderingCost), freightSource)
	s.Method("Observed sales period: %s days", report.FormatAmount(periodDays))
	s.Method("ABC cumulative cut-offs: %s / %s",
		report.FormatPercent(p.cfg.ABCClassACut), report.FormatPercent(p.cfg.ABCClassBCut))
	s.Method("Negative quantities and prices in the extracts are treated as missing")
	s.Method("Monetary values reported in USD")
	return s.Render()
}

func classCounts(fact *table.Table) map[string]int {
	counts := map[string]int{}
	col := fact.Column("abc_class")
	if col == nil {
		return counts
	}
	for i := 0; i < col.Len(); i++ {
		if c := col.StringAt(i); c != "" {
			counts[c]++
		}
	}
	return counts
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
