package inventory

import (
	"fmt"
	"math"

	"opsight/internal/table"
)

// snapshotRenames maps raw snapshot export headers onto canonical
// names shared by the beginning and ending inventory extracts.
var snapshotRenames = map[string]string{
	"onhand":      "on_hand",
	"brand":       "sku",
	"inventoryid": "inventory_id",
	"city":        "store_city",
}

var salesRenames = map[string]string{
	"brand":         "sku",
	"salesquantity": "sales_quantity",
	"salesdollars":  "sales_dollars",
	"salesprice":    "sales_price",
	"salesdate":     "sales_date",
	"vendorno":      "vendor_number",
	"vendornumber":  "vendor_number",
	"vendorname":    "vendor_name",
}

var purchasesRenames = map[string]string{
	"brand":         "sku",
	"vendornumber":  "vendor_number",
	"vendorname":    "vendor_name",
	"ponumber":      "po_number",
	"podate":        "po_date",
	"receivingdate": "receiving_date",
	"invoicedate":   "invoice_date",
	"paydate":       "pay_date",
	"purchaseprice": "purchase_price",
}

var invoiceRenames = map[string]string{
	"vendornumber": "vendor_number",
	"vendorname":   "vendor_name",
	"ponumber":     "po_number",
	"invoicedate":  "invoice_date",
}

// CleanSnapshot normalizes a beginning or ending inventory snapshot.
func CleanSnapshot(t *table.Table) (*table.Table, error) {
	t.ApplyRenames(snapshotRenames)
	for _, col := range []string{"sku", "on_hand"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("inventory snapshot missing column %q", col)
		}
	}
	negativesToMissing(t, "on_hand", "price")
	return t, nil
}

// CleanSales normalizes the sales extract.
func CleanSales(t *table.Table) (*table.Table, error) {
	t.ApplyRenames(salesRenames)
	for _, col := range []string{"sku", "sales_quantity", "sales_dollars"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("sales extract missing column %q", col)
		}
	}
	negativesToMissing(t, "sales_quantity", "sales_dollars", "sales_price")
	return t, nil
}

// CleanPurchases normalizes the purchases extract and derives per-row
// receiving lead times in days, rounded up; negatives are data errors
// and become missing.
func CleanPurchases(t *table.Table) (*table.Table, error) {
	t.ApplyRenames(purchasesRenames)
	for _, col := range []string{"sku", "quantity", "dollars"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("purchases extract missing column %q", col)
		}
	}
	negativesToMissing(t, "quantity", "dollars", "purchase_price")

	n := t.NumRows()
	poDate := t.Column("po_date")
	recvDate := t.Column("receiving_date")
	lead := make([]float64, n)
	for i := 0; i < n; i++ {
		lead[i] = math.NaN()
		if poDate == nil || recvDate == nil || poDate.IsNull(i) || recvDate.IsNull(i) {
			continue
		}
		d := recvDate.Time(i).Sub(poDate.Time(i)).Hours() / 24
		if d < 0 {
			continue
		}
		lead[i] = math.Ceil(d)
	}
	if err := t.AddColumn(table.NewFloatColumn("lead_time_days", lead)); err != nil {
		return nil, err
	}
	return t, nil
}

// CleanInvoices normalizes the invoice extract carrying freight costs.
func CleanInvoices(t *table.Table) (*table.Table, error) {
	t.ApplyRenames(invoiceRenames)
	negativesToMissing(t, "quantity", "dollars", "freight")
	return t, nil
}

func negativesToMissing(t *table.Table, names ...string) {
	for _, name := range names {
		col := t.Column(name)
		if col == nil || col.Kind() != table.Float {
			continue
		}
		for i := 0; i < col.Len(); i++ {
			if v := col.Float(i); !math.IsNaN(v) && v < 0 {
				col.SetFloat(i, math.NaN())
			}
		}
	}
}
