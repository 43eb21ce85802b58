package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already snake", "sales_dollars", "sales_dollars"},
		{"camel case", "SalesDollars", "sales_dollars"},
		{"spaces", "Unit Price", "unit_price"},
		{"slash", "Price/Unit", "price_unit"},
		{"symbols", "Defect rate (%)", "defect_rate"},
		{"leading trailing", "  Order Date  ", "order_date"},
		{"mixed", "PONumber", "po_number"},
		{"collapse underscores", "a__b___c", "a_b_c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToSnake(tt.input))
		})
	}
}

func TestCanonicalizeHeaders(t *testing.T) {
	t.Run("unique names pass through", func(t *testing.T) {
		got := CanonicalizeHeaders([]string{"Store", "City", "On Hand"})
		assert.Equal(t, []string{"store", "city", "on_hand"}, got)
	})

	t.Run("duplicates get numeric suffixes", func(t *testing.T) {
		got := CanonicalizeHeaders([]string{"Price", "price", "PRICE"})
		assert.Equal(t, []string{"price", "price_2", "price_3"}, got)
	})
}

func TestApplyRenames(t *testing.T) {
	tbl := New()
	tbl.MustAddColumn(NewStringColumn("onhand", []string{"1"}))
	tbl.MustAddColumn(NewStringColumn("city", []string{"x"}))

	tbl.ApplyRenames(map[string]string{"onhand": "on_hand", "missing": "other"})

	assert.True(t, tbl.HasColumn("on_hand"))
	assert.False(t, tbl.HasColumn("onhand"))
	assert.True(t, tbl.HasColumn("city"))
}
