package supplychain

import (
	"math"
	"sort"

	"opsight/internal/stats"
	"opsight/internal/table"
)

// QualitySummary is the dataset-level data quality result.
type QualitySummary struct {
	Rows              int            `json:"rows"`
	Columns           int            `json:"columns"`
	DuplicatesDropped int            `json:"duplicates_dropped"`
	NonPositiveCounts map[string]int `json:"non_positive_counts"`
}

// keyPositiveColumns should hold strictly positive values; zeros and
// below are suspect readings.
var keyPositiveColumns = []string{
	"price", "revenue_generated", "stock_levels", "manufacturing_costs", "costs",
}

// ProfileQuality computes the dataset summary and a per-column profile
// table ranked by missingness: column, dtype, pct_missing, IQR outlier
// count and non-positive count.
func ProfileQuality(t *table.Table, cleanReport *CleanReport) (QualitySummary, *table.Table) {
	summary := QualitySummary{
		Rows:              t.NumRows(),
		Columns:           t.NumCols(),
		NonPositiveCounts: map[string]int{},
	}
	if cleanReport != nil {
		summary.DuplicatesDropped = cleanReport.DuplicatesDropped
	}

	for _, name := range keyPositiveColumns {
		col := t.Column(name)
		if col == nil {
			continue
		}
		n := 0
		for i := 0; i < col.Len(); i++ {
			if v := col.Float(i); !math.IsNaN(v) && v <= 0 {
				n++
			}
		}
		summary.NonPositiveCounts[name] = n
	}

	type profile struct {
		name        string
		dtype       string
		missing     float64
		outliers    float64
		nonPositive float64
	}
	profiles := make([]profile, 0, t.NumCols())
	for _, name := range t.ColumnNames() {
		col := t.Column(name)
		p := profile{
			name:    name,
			dtype:   col.Kind().String(),
			missing: col.MissingFraction() * 100,
		}
		if col.Kind() == table.Float {
			p.outliers = float64(stats.IQROutlierCount(col.Floats()))
			if n, ok := summary.NonPositiveCounts[name]; ok {
				p.nonPositive = float64(n)
			}
		}
		profiles = append(profiles, p)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].missing > profiles[j].missing
	})

	names := make([]string, len(profiles))
	dtypes := make([]string, len(profiles))
	missing := make([]float64, len(profiles))
	outliers := make([]float64, len(profiles))
	nonPositive := make([]float64, len(profiles))
	for i, p := range profiles {
		names[i] = p.name
		dtypes[i] = p.dtype
		missing[i] = p.missing
		outliers[i] = p.outliers
		nonPositive[i] = p.nonPositive
	}

	out := table.New()
	out.MustAddColumn(table.NewStringColumn("column", names))
	out.MustAddColumn(table.NewStringColumn("dtype", dtypes))
	out.MustAddColumn(table.NewFloatColumn("pct_missing", missing))
	out.MustAddColumn(table.NewFloatColumn("iqr_outliers", outliers))
	out.MustAddColumn(table.NewFloatColumn("non_positive_count", nonPositive))
	return summary, out
}
