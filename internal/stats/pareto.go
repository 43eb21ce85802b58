package stats

import (
	"math"
	"sort"
)

// ParetoRow is one ranked entry of a Pareto analysis.
type ParetoRow struct {
	Label           string
	Value           float64
	Share           float64
	CumulativeShare float64
	Rank            int
}

// Pareto ranks labeled values in descending order and computes each
// entry's share and cumulative share of the total. Missing values
// count as zero. A zero or negative total yields zero shares.
func Pareto(labels []string, values []float64) []ParetoRow {
	rows := make([]ParetoRow, len(labels))
	total := 0.0
	for i, label := range labels {
		v := values[i]
		if math.IsNaN(v) {
			v = 0
		}
		rows[i] = ParetoRow{Label: label, Value: v}
		total += v
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Value > rows[j].Value
	})

	cum := 0.0
	for i := range rows {
		rows[i].Rank = i + 1
		if total > 0 {
			rows[i].Share = rows[i].Value / total
			cum += rows[i].Share
			rows[i].CumulativeShare = cum
		}
	}
	return rows
}

// TopShare returns the share of the total held by the top fraction of
// entries (at least one), e.g. fraction 0.2 for the 80/20 check.
func TopShare(rows []ParetoRow, fraction float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	n := int(math.Ceil(float64(len(rows)) * fraction))
	if n < 1 {
		n = 1
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[n-1].CumulativeShare
}

// ABCClass assigns Pareto classes by cumulative value share: entries
// within the first cut are "A", within the second "B", the rest "C".
// Ordering follows descending value. A zero total yields empty classes.
func ABCClass(values []float64, cutA, cutB float64) []string {
	labels := make([]string, len(values))
	for i := range labels {
		labels[i] = ""
	}

	type entry struct {
		idx int
		v   float64
	}
	entries := make([]entry, 0, len(values))
	total := 0.0
	for i, v := range values {
		x := v
		if math.IsNaN(x) {
			x = 0
		}
		entries = append(entries, entry{i, x})
		total += x
	}
	if total <= 0 {
		return labels
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].v > entries[j].v })

	cum := 0.0
	for _, e := range entries {
		cum += e.v / total
		switch {
		case cum <= cutA:
			labels[e.idx] = "A"
		case cum <= cutB:
			labels[e.idx] = "B"
		default:
			labels[e.idx] = "C"
		}
	}
	return labels
}
