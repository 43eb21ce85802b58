package supplychain

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

const sampleCSV = `SKU,Product type,Price,Availability,Number of products sold,Revenue generated,Stock levels,Lead time,Lead times,Defect rates,Inspection results,Supplier name,Location,Shipping carriers,Shipping costs,Shipping times,Routes,Transportation modes,Manufacturing costs,Costs
SKU1,skincare,50,10,800,40000,10,5,7,2,pass,Supplier A,Mumbai,Carrier X,100,3,Route 1,Road,2000,400
SKU2,haircare,30,0,50,15000,600,,9,5,fail,Supplier B,Delhi,Carrier Y,250,6,Route 1,Air,1500,600
SKU3,skincare,20,40,200,4000,300,8,8,1,pending,Supplier A,Mumbai,Carrier X,120,4,Route 2,Road,800,300
SKU4,cosmetics,10,80,100,1000,400,12,,4,pass,Supplier C,Chennai,Carrier Y,90,2,Route 2,Sea,-5,200
`

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	inputDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(inputDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(inputDir, "supply_chain.csv"), []byte(sampleCSV), 0644))

	dirs := pipeline.Dirs{
		Input:   inputDir,
		Reports: filepath.Join(dir, "reports"),
		Exports: filepath.Join(dir, "exports"),
	}

	p := New(config.Default().Analysis)
	assert.Equal(t, "supplychain", p.Name())

	result, err := p.Run(context.Background(), dirs)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Metrics["skus"])
	assert.Equal(t, 3, result.Metrics["suppliers"])
	assert.Equal(t, 1, result.Metrics["watchlist"])

	exportDir := filepath.Join(dirs.Exports, "supplychain")
	for _, name := range []string{
		"fact_supply_chain.csv",
		"fact_supply_chain.parquet",
		"flat_supply_chain.csv",
		"dim_product.csv",
		"dim_supplier.csv",
		"dim_location.csv",
		"dim_carrier.csv",
		"dim_route.csv",
		"dim_mode.csv",
		"watchlist.csv",
		"supplier_performance.csv",
		"data_quality.csv",
		"feature_importance.csv",
		"inspection_fail_drivers.csv",
		"data_dictionary.csv",
		"star_schema.md",
	} {
		_, err := os.Stat(filepath.Join(exportDir, name))
		assert.NoError(t, err, name)
	}

	reportDir := filepath.Join(dirs.Reports, "supplychain")
	snapshot, err := os.ReadFile(filepath.Join(reportDir, "kpi_snapshot.json"))
	require.NoError(t, err)
	assert.Contains(t, string(snapshot), `"total_skus": 4`)
	assert.Contains(t, string(snapshot), `"watchlist_size": 1`)
	assert.Contains(t, string(snapshot), `"defect_cost_exposure"`)

	scenarios, err := os.ReadFile(filepath.Join(reportDir, "scenarios.json"))
	require.NoError(t, err)
	assert.Contains(t, string(scenarios), `"carrier_changes"`)
	assert.Contains(t, string(scenarios), `"Route 1"`)

	summary, err := os.ReadFile(filepath.Join(reportDir, "EXEC_SUMMARY.md"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "# Supply Chain Analysis Executive Summary")
	assert.Contains(t, string(summary), "## Scenario Insights")
	assert.Contains(t, string(summary), "rescaled to fractions")

	fact, err := os.ReadFile(filepath.Join(exportDir, "fact_supply_chain.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(fact), "record_id")
	assert.Contains(t, string(fact), "product_key")
	assert.Contains(t, string(fact), "supplier_key")
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
