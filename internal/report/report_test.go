package report

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryRender(t *testing.T) {
	s := NewSummary("Inventory Analysis Executive Summary").
		WithGeneratedAt(time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC))

	s.Headline("Total sales value: %s", FormatAmount(1234567.891))
	s.Action("Reorder the %d SKUs below reorder point", 14)
	s.Watch("SKU-42 demand trending down %s", FormatPercent(0.12))
	s.Scenario("A 25.0%% defect reduction saves %s", FormatAmount(8000))
	s.Method("EOQ assumes a 20.0%% annual carrying cost rate")
	s.Limitation("Single year of history limits seasonality estimates")

	doc := s.Render()

	assert.Contains(t, doc, "# Inventory Analysis Executive Summary")
	assert.Contains(t, doc, "_Generated 2025-06-01 09:30 UTC_")
	assert.Contains(t, doc, "## Headline Findings\n\n- Total sales value: 1,234,567.89")
	assert.Contains(t, doc, "## Recommended Actions\n\n- Reorder the 14 SKUs")
	assert.Contains(t, doc, "## Watchlist\n\n- SKU-42 demand trending down 12.0%")
	assert.Contains(t, doc, "## Scenario Insights\n\n- A 25.0% defect reduction saves 8,000.00")
	assert.Contains(t, doc, "## Methods & Assumptions")
	assert.Contains(t, doc, "## Limitations & Next Steps")
}

func TestSummaryOmitsEmptySections(t *testing.T) {
	s := NewSummary("Sparse")
	s.Headline("only finding")

	doc := s.Render()
	assert.Contains(t, doc, "## Headline Findings")
	assert.NotContains(t, doc, "## Recommended Actions")
	assert.NotContains(t, doc, "## Watchlist")
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999.999, "1,000.00"},
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
		{-9876.54, "-9,876.54"},
		{math.NaN(), "N/A"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.in))
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.5%", FormatPercent(0.125))
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "N/A", FormatPercent(math.NaN()))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1,250", FormatCount(1250))
	assert.Equal(t, "7", FormatCount(7))
}
