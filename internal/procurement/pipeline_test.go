package procurement

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsight/internal/config"
	"opsight/internal/pipeline"
)

const sampleCSV = `PO ID,Supplier,Item Category,Order Date,Delivery Date,Quantity,Unit Price,Negotiated Price,Defective Units,Compliance,Order Status
PO-1,Acme,MRO,2024-01-01,2024-01-11,100,10,9,5,Yes,Delivered
PO-2,Acme,Raw,2024-01-05,2024-01-20,50,20,18,,No,Pending
PO-3,Zenith,Raw,2024-01-10,2024-01-25,200,5,5,10,Yes,Delivered
PO-4,Orbit,MRO,2024-02-01,2024-02-12,10,8,7,0,Yes,Cancelled
`

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	inputDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(inputDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(inputDir, "purchase_orders.csv"), []byte(sampleCSV), 0644))

	dirs := pipeline.Dirs{
		Input:   inputDir,
		Reports: filepath.Join(dir, "reports"),
		Exports: filepath.Join(dir, "exports"),
	}

	p := New(config.Default().Analysis)
	assert.Equal(t, "procurement", p.Name())

	result, err := p.Run(context.Background(), dirs)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Metrics["orders"])
	assert.Equal(t, 3, result.Metrics["suppliers"])

	exportDir := filepath.Join(dirs.Exports, "procurement")
	for _, name := range []string{
		"fact_purchase_orders.csv",
		"fact_purchase_orders.parquet",
		"dim_supplier.csv",
		"dim_item_category.csv",
		"dim_order_status.csv",
		"dim_compliance.csv",
		"dim_date.csv",
		"supplier_performance.csv",
		"supplier_segmentation.csv",
		"pareto_spend.csv",
		"pareto_defect_cost.csv",
		"data_dictionary.csv",
		"star_schema.md",
	} {
		_, err := os.Stat(filepath.Join(exportDir, name))
		assert.NoError(t, err, name)
	}

	reportDir := filepath.Join(dirs.Reports, "procurement")
	snapshot, err := os.ReadFile(filepath.Join(reportDir, "kpi_snapshot.json"))
	require.NoError(t, err)
	assert.Contains(t, string(snapshot), `"total_orders": 4`)
	assert.Contains(t, string(snapshot), `"total_spend"`)

	summary, err := os.ReadFile(filepath.Join(reportDir, "EXEC_SUMMARY.md"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "# Procurement KPI Analysis Executive Summary")
	assert.Contains(t, string(summary), "## Headline Findings")
	assert.Contains(t, string(summary), "## Scenario Insights")

	fact, err := os.ReadFile(filepath.Join(exportDir, "fact_purchase_orders.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(fact), "supplier_key")
	assert.Contains(t, string(fact), "order_date_key")
	assert.Contains(t, string(fact), "currency_code")
	assert.Contains(t, string(fact), "USD")
}

func TestPipelineRunMissingDataset(t *testing.T) {
	dir := t.TempDir()
	p := New(config.Default().Analysis)

	_, err := p.Run(context.Background(), pipeline.Dirs{
		Input:   filepath.Join(dir, "data"),
		Reports: filepath.Join(dir, "reports"),
		Exports: filepath.Join(dir, "exports"),
	})
	assert.Error(t, err)
}
