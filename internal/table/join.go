package table

import (
	"math"
	"time"
)

// LeftJoin joins right onto left by the named key columns, keeping every
// left row. Right rows with duplicate keys contribute their first match.
// Non-key right columns that clash with a left column name are suffixed.
func LeftJoin(left, right *Table, on []string, suffix string) *Table {
	return join(left, right, on, suffix, false)
}

// OuterJoin keeps all rows from both sides. Left-only rows carry missing
// right values and vice versa.
func OuterJoin(left, right *Table, on []string, suffix string) *Table {
	return join(left, right, on, suffix, true)
}

func join(left, right *Table, on []string, suffix string, outer bool) *Table {
	var leftKeys, rightKeys []*Column
	for _, k := range on {
		lc, rc := left.Column(k), right.Column(k)
		if lc == nil || rc == nil {
			return left
		}
		leftKeys = append(leftKeys, lc)
		rightKeys = append(rightKeys, rc)
	}

	rightIndex := make(map[string]int, right.NumRows())
	for i := 0; i < right.NumRows(); i++ {
		key := right.rowKey(rightKeys, i)
		if _, ok := rightIndex[key]; !ok {
			rightIndex[key] = i
		}
	}

	matches := make([]int, 0, left.NumRows()) // -1 = unmatched
	leftRows := make([]int, 0, left.NumRows())
	matchedRight := make(map[int]bool)
	for i := 0; i < left.NumRows(); i++ {
		key := left.rowKey(leftKeys, i)
		ri, ok := rightIndex[key]
		if !ok {
			ri = -1
		} else {
			matchedRight[ri] = true
		}
		leftRows = append(leftRows, i)
		matches = append(matches, ri)
	}

	// Right-only rows for outer joins, in right order.
	var extraRight []int
	if outer {
		for i := 0; i < right.NumRows(); i++ {
			key := right.rowKey(rightKeys, i)
			if first, ok := rightIndex[key]; ok && first == i && !matchedRight[i] {
				extraRight = append(extraRight, i)
			}
		}
	}

	total := len(leftRows) + len(extraRight)
	out := New()

	keySet := make(map[string]bool, len(on))
	for _, k := range on {
		keySet[k] = true
	}

	// Left columns; key columns fill from the right side for right-only rows.
	for _, c := range left.cols {
		var rc *Column
		if keySet[c.name] {
			rc = right.Column(c.name)
		}
		out.MustAddColumn(stitched(c, leftRows, rc, extraRight, total))
	}

	// Non-key right columns, gathered by match index.
	for _, c := range right.cols {
		if keySet[c.name] {
			continue
		}
		name := c.name
		if out.HasColumn(name) {
			name += suffix
		}
		gathered := gatherRight(name, c, matches, extraRight, total)
		out.MustAddColumn(gathered)
	}

	return out
}

// stitched copies col values for the left rows, then appends values from
// rightCol (may be nil) for right-only rows.
func stitched(col *Column, leftRows []int, rightCol *Column, extraRight []int, total int) *Column {
	switch col.kind {
	case Float:
		vals := make([]float64, 0, total)
		for _, r := range leftRows {
			vals = append(vals, col.Float(r))
		}
		for _, r := range extraRight {
			if rightCol != nil && rightCol.kind == Float {
				vals = append(vals, rightCol.Float(r))
			} else {
				vals = append(vals, math.NaN())
			}
		}
		return NewFloatColumn(col.name, vals)
	case Time:
		vals := make([]time.Time, 0, total)
		for _, r := range leftRows {
			vals = append(vals, col.Time(r))
		}
		for _, r := range extraRight {
			if rightCol != nil && rightCol.kind == Time {
				vals = append(vals, rightCol.Time(r))
			} else {
				vals = append(vals, time.Time{})
			}
		}
		return NewTimeColumn(col.name, vals)
	default:
		vals := make([]string, 0, total)
		for _, r := range leftRows {
			vals = append(vals, valueOrEmpty(col, r))
		}
		for _, r := range extraRight {
			if rightCol != nil {
				vals = append(vals, valueOrEmpty(rightCol, r))
			} else {
				vals = append(vals, "")
			}
		}
		return NewStringColumn(col.name, vals)
	}
}

func gatherRight(name string, col *Column, matches []int, extraRight []int, total int) *Column {
	switch col.kind {
	case Float:
		vals := make([]float64, 0, total)
		for _, m := range matches {
			if m < 0 {
				vals = append(vals, math.NaN())
			} else {
				vals = append(vals, col.Float(m))
			}
		}
		for _, r := range extraRight {
			vals = append(vals, col.Float(r))
		}
		return NewFloatColumn(name, vals)
	case Time:
		vals := make([]time.Time, 0, total)
		for _, m := range matches {
			if m < 0 {
				vals = append(vals, time.Time{})
			} else {
				vals = append(vals, col.Time(m))
			}
		}
		for _, r := range extraRight {
			vals = append(vals, col.Time(r))
		}
		return NewTimeColumn(name, vals)
	default:
		vals := make([]string, 0, total)
		for _, m := range matches {
			if m < 0 {
				vals = append(vals, "")
			} else {
				vals = append(vals, valueOrEmpty(col, m))
			}
		}
		for _, r := range extraRight {
			vals = append(vals, valueOrEmpty(col, r))
		}
		return NewStringColumn(name, vals)
	}
}

func valueOrEmpty(c *Column, i int) string {
	if c.IsNull(i) {
		return ""
	}
	return c.Value(i)
}
