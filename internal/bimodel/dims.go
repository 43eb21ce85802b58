package bimodel

import (
	"fmt"
	"sort"
	"strings"

	"opsight/internal/table"
)

// BuildDim builds a dimension table from the distinct non-null values
// of a fact column. Values are sorted and assigned surrogate keys
// starting at 1. The key column is named <name>_key.
func BuildDim(fact *table.Table, column, keyName string) (*table.Table, error) {
	col := fact.Column(column)
	if col == nil {
		return nil, fmt.Errorf("dimension source column %q not found", column)
	}

	seen := make(map[string]bool)
	var values []string
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		v := col.Value(i)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)

	keys := make([]float64, len(values))
	for i := range values {
		keys[i] = float64(i + 1)
	}

	dim := table.New()
	dim.MustAddColumn(table.NewFloatColumn(keyName, keys))
	dim.MustAddColumn(table.NewStringColumn(column, values))
	return dim, nil
}

// BuildDimMulti builds a dimension over several attribute columns. The
// first column identifies the dimension member; remaining columns are
// descriptive attributes carried from the member's first occurrence.
func BuildDimMulti(fact *table.Table, columns []string, keyName string) (*table.Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("dimension needs at least one column")
	}
	for _, c := range columns {
		if !fact.HasColumn(c) {
			return nil, fmt.Errorf("dimension source column %q not found", c)
		}
	}

	id := fact.Column(columns[0])
	firstRow := make(map[string]int)
	var members []string
	for i := 0; i < id.Len(); i++ {
		if id.IsNull(i) {
			continue
		}
		v := id.Value(i)
		if _, ok := firstRow[v]; !ok {
			firstRow[v] = i
			members = append(members, v)
		}
	}
	sort.Strings(members)

	keys := make([]float64, len(members))
	for i := range members {
		keys[i] = float64(i + 1)
	}

	dim := table.New()
	dim.MustAddColumn(table.NewFloatColumn(keyName, keys))
	for _, c := range columns {
		src := fact.Column(c)
		switch src.Kind() {
		case table.Float:
			vals := make([]float64, len(members))
			for i, m := range members {
				vals[i] = src.Float(firstRow[m])
			}
			dim.MustAddColumn(table.NewFloatColumn(c, vals))
		case table.Time:
			vals := make([]string, len(members))
			for i, m := range members {
				vals[i] = src.Value(firstRow[m])
			}
			dim.MustAddColumn(table.NewStringColumn(c, vals))
		default:
			vals := make([]string, len(members))
			for i, m := range members {
				vals[i] = src.Value(firstRow[m])
			}
			dim.MustAddColumn(table.NewStringColumn(c, vals))
		}
	}
	return dim, nil
}

// AttachKey joins a dimension's surrogate key onto the fact table by
// matching the natural column, adding a <keyName> column to the fact.
func AttachKey(fact, dim *table.Table, natural, keyName string) (*table.Table, error) {
	if !fact.HasColumn(natural) {
		return nil, fmt.Errorf("fact column %q not found", natural)
	}
	if !dim.HasColumn(natural) || !dim.HasColumn(keyName) {
		return nil, fmt.Errorf("dimension must carry %q and %q", natural, keyName)
	}

	lookup := dim.Select(keyName, natural)
	return table.LeftJoin(fact, lookup, []string{natural}, "_dim"), nil
}

// StarSchemaDoc renders a markdown overview of the star schema: each
// fact with its dimension keys and each dimension with its grain.
func StarSchemaDoc(facts map[string][]string, dims map[string]string) string {
	var b strings.Builder
	b.WriteString("# Star Schema\n\n")

	b.WriteString("## Fact Tables\n\n")
	for _, name := range sortedKeys(facts) {
		b.WriteString(fmt.Sprintf("### %s\n\n", name))
		b.WriteString("Dimension keys: ")
		b.WriteString(strings.Join(facts[name], ", "))
		b.WriteString("\n\n")
	}

	b.WriteString("## Dimension Tables\n\n")
	b.WriteString("| Table | Grain |\n|---|---|\n")
	for _, name := range sortedKeys(dims) {
		b.WriteString(fmt.Sprintf("| %s | %s |\n", name, dims[name]))
	}
	b.WriteString("\n")

	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
