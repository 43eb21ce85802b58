package procurement

import (
	"fmt"
	"math"
	"strings"

	"opsight/internal/table"
)

// Columns the purchase-order extract must carry after header
// canonicalization.
var requiredColumns = []string{
	"po_id", "supplier", "quantity", "unit_price",
}

// datasetRenames maps legacy export headers onto the canonical names
// the pipeline works with.
var datasetRenames = map[string]string{
	"vendor":        "supplier",
	"vendor_name":   "supplier",
	"supplier_name": "supplier",
	"category":      "item_category",
	"po_number":     "po_id",
	"status":        "order_status",
	"compliant":     "compliance",
}

// Clean validates and normalizes the raw purchase-order extract:
// legacy headers renamed, duplicate rows dropped, negative numeric
// values treated as missing, and text keys trimmed.
func Clean(t *table.Table) (*table.Table, error) {
	t.ApplyRenames(datasetRenames)

	for _, col := range requiredColumns {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("purchase orders missing required column %q", col)
		}
	}

	t = t.DropDuplicates()

	for _, name := range []string{
		"quantity", "unit_price", "negotiated_price", "defective_units",
	} {
		negativesToMissing(t, name)
	}

	normalizeText(t, "compliance")
	normalizeText(t, "order_status")

	return t, nil
}

// negativesToMissing blanks negative values in a numeric column.
// Cleaned extracts encode bad readings as negatives.
func negativesToMissing(t *table.Table, name string) {
	col := t.Column(name)
	if col == nil || col.Kind() != table.Float {
		return
	}
	for i := 0; i < col.Len(); i++ {
		if v := col.Float(i); !math.IsNaN(v) && v < 0 {
			col.SetFloat(i, math.NaN())
		}
	}
}

// normalizeText lowercases and trims a categorical column in place.
func normalizeText(t *table.Table, name string) {
	col := t.Column(name)
	if col == nil || col.Kind() != table.String {
		return
	}
	vals := make([]string, col.Len())
	for i := 0; i < col.Len(); i++ {
		vals[i] = strings.ToLower(strings.TrimSpace(col.StringAt(i)))
	}
	t.MustAddColumn(table.NewStringColumn(name, vals))
}
