package table

import (
	"math"
	"sort"
	"time"
)

// AggFunc identifies a group aggregation.
type AggFunc uint8

const (
	// Sum adds non-missing numeric values; groups with no valid values
	// yield 0, matching pandas sum semantics.
	Sum AggFunc = iota
	// Mean averages non-missing numeric values; empty groups yield NaN.
	Mean
	// Count counts non-missing values.
	Count
	// First takes the first non-missing value in group order.
	First
	// Min takes the smallest non-missing numeric value.
	Min
	// Max takes the largest non-missing numeric value.
	Max
	// NUnique counts distinct non-missing values.
	NUnique
)

// Agg describes one output column of a group-by: aggregate Column with
// Fn and name the result Out.
type Agg struct {
	Out string
	Col string
	Fn  AggFunc
}

type group struct {
	key  string
	rows []int
}

// GroupBy aggregates the table by the named key columns. Key columns
// that do not exist are skipped; if none exist the result is empty.
// Groups appear in order of the smallest key, giving deterministic
// output for export.
func (t *Table) GroupBy(keys []string, aggs ...Agg) *Table {
	var keyCols []*Column
	for _, k := range keys {
		if c := t.Column(k); c != nil {
			keyCols = append(keyCols, c)
		}
	}
	out := New()
	if len(keyCols) == 0 {
		return out
	}

	byKey := make(map[string]*group)
	var order []*group
	for i := 0; i < t.NumRows(); i++ {
		key := t.rowKey(keyCols, i)
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key}
			byKey[key] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, i)
	}
	sort.SliceStable(order, func(a, b int) bool { return order[a].key < order[b].key })

	// Key columns carry the first row of each group.
	firstRows := make([]int, len(order))
	for i, g := range order {
		firstRows[i] = g.rows[0]
	}
	for _, kc := range keyCols {
		out.MustAddColumn(kc.slice(firstRows))
	}

	for _, agg := range aggs {
		src := t.Column(agg.Col)
		if src == nil {
			continue
		}
		out.MustAddColumn(aggregate(agg, src, order))
	}
	return out
}

func aggregate(agg Agg, src *Column, groups []*group) *Column {
	switch agg.Fn {
	case First:
		return aggregateFirst(agg.Out, src, groups)
	case Count, NUnique:
		vals := make([]float64, len(groups))
		for i, g := range groups {
			if agg.Fn == Count {
				n := 0
				for _, r := range g.rows {
					if !src.IsNull(r) {
						n++
					}
				}
				vals[i] = float64(n)
			} else {
				distinct := make(map[string]bool)
				for _, r := range g.rows {
					if !src.IsNull(r) {
						distinct[src.Value(r)] = true
					}
				}
				vals[i] = float64(len(distinct))
			}
		}
		return NewFloatColumn(agg.Out, vals)
	default:
		vals := make([]float64, len(groups))
		for i, g := range groups {
			vals[i] = aggregateNumeric(agg.Fn, src, g.rows)
		}
		return NewFloatColumn(agg.Out, vals)
	}
}

func aggregateFirst(name string, src *Column, groups []*group) *Column {
	switch src.kind {
	case Float:
		vals := make([]float64, len(groups))
		for i, g := range groups {
			vals[i] = math.NaN()
			for _, r := range g.rows {
				if !src.IsNull(r) {
					vals[i] = src.num[r]
					break
				}
			}
		}
		return NewFloatColumn(name, vals)
	case Time:
		vals := make([]time.Time, len(groups))
		for i, g := range groups {
			for _, r := range g.rows {
				if !src.IsNull(r) {
					vals[i] = src.ts[r]
					break
				}
			}
		}
		return NewTimeColumn(name, vals)
	default:
		vals := make([]string, len(groups))
		for i, g := range groups {
			for _, r := range g.rows {
				if !src.IsNull(r) {
					vals[i] = src.str[r]
					break
				}
			}
		}
		return NewStringColumn(name, vals)
	}
}

func aggregateNumeric(fn AggFunc, src *Column, rows []int) float64 {
	sum := 0.0
	count := 0
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, r := range rows {
		v := src.Float(r)
		if math.IsNaN(v) {
			continue
		}
		sum += v
		count++
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	switch fn {
	case Sum:
		return sum
	case Mean:
		if count == 0 {
			return math.NaN()
		}
		return sum / float64(count)
	case Min:
		if count == 0 {
			return math.NaN()
		}
		return minV
	case Max:
		if count == 0 {
			return math.NaN()
		}
		return maxV
	default:
		return math.NaN()
	}
}
