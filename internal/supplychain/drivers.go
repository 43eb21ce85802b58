package supplychain

import (
	"fmt"
	"math"
	"sort"

	"opsight/internal/stats"
	"opsight/internal/table"
)

// DriverAnalysis ranks features by their association with the target
// column: absolute Pearson correlation for numeric features and the
// between-group variance share for categorical ones.
func DriverAnalysis(t *table.Table, target string, exclude ...string) (*table.Table, error) {
	targetCol := t.Column(target)
	if targetCol == nil || targetCol.Kind() != table.Float {
		return nil, fmt.Errorf("driver target %q is not a numeric column", target)
	}
	y := targetCol.Floats()

	skip := map[string]bool{target: true}
	for _, name := range exclude {
		skip[name] = true
	}

	type driver struct {
		name       string
		kind       string
		importance float64
	}
	var drivers []driver
	for _, name := range t.ColumnNames() {
		if skip[name] {
			continue
		}
		col := t.Column(name)
		switch col.Kind() {
		case table.Float:
			r := stats.Correlation(col.Floats(), y)
			if !math.IsNaN(r) {
				drivers = append(drivers, driver{name, "numeric", math.Abs(r)})
			}
		case table.String:
			share := betweenGroupVarianceShare(col, y)
			if !math.IsNaN(share) {
				drivers = append(drivers, driver{name, "categorical", share})
			}
		}
	}

	sort.SliceStable(drivers, func(i, j int) bool {
		return drivers[i].importance > drivers[j].importance
	})

	names := make([]string, len(drivers))
	kinds := make([]string, len(drivers))
	importances := make([]float64, len(drivers))
	for i, d := range drivers {
		names[i] = d.name
		kinds[i] = d.kind
		importances[i] = d.importance
	}

	out := table.New()
	out.MustAddColumn(table.NewStringColumn("feature", names))
	out.MustAddColumn(table.NewStringColumn("kind", kinds))
	out.MustAddColumn(table.NewFloatColumn("importance", importances))
	return out, nil
}

// betweenGroupVarianceShare measures how much of the target's variance
// the category explains: sum of group sizes times squared deviation of
// group means from the grand mean, over total sum of squares.
func betweenGroupVarianceShare(groups *table.Column, y []float64) float64 {
	sums := map[string]float64{}
	counts := map[string]float64{}
	grand, total := 0.0, 0.0
	for i, v := range y {
		if math.IsNaN(v) || groups.IsNull(i) {
			continue
		}
		g := groups.StringAt(i)
		sums[g] += v
		counts[g]++
		grand += v
		total++
	}
	if total < 2 || len(sums) < 2 {
		return math.NaN()
	}
	grandMean := grand / total

	ssTotal := 0.0
	for i, v := range y {
		if math.IsNaN(v) || groups.IsNull(i) {
			continue
		}
		d := v - grandMean
		ssTotal += d * d
	}
	if ssTotal == 0 {
		return math.NaN()
	}

	ssBetween := 0.0
	for g, sum := range sums {
		mean := sum / counts[g]
		d := mean - grandMean
		ssBetween += counts[g] * d * d
	}
	return ssBetween / ssTotal
}
