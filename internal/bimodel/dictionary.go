package bimodel

import (
	"fmt"
	"sort"

	"opsight/internal/table"
)

// DictEntry is one documented export table with optional per-column
// descriptions keyed by column name.
type DictEntry struct {
	Table        *table.Table
	Descriptions map[string]string
}

// DataDictionary builds a dictionary table covering every column of
// every named export table: table, column, type, percent missing,
// description and an example value.
func DataDictionary(entries map[string]DictEntry) *table.Table {
	var tableNames, columnNames, dtypes, descriptions, examples []string
	var missingPct []float64

	for _, name := range sortedKeys(entries) {
		entry := entries[name]
		for _, colName := range entry.Table.ColumnNames() {
			col := entry.Table.Column(colName)
			tableNames = append(tableNames, name)
			columnNames = append(columnNames, colName)
			dtypes = append(dtypes, col.Kind().String())
			missingPct = append(missingPct, round2(col.MissingFraction()*100))
			descriptions = append(descriptions, entry.Descriptions[colName])
			examples = append(examples, col.FirstValid())
		}
	}

	dict := table.New()
	dict.MustAddColumn(table.NewStringColumn("table", tableNames))
	dict.MustAddColumn(table.NewStringColumn("column", columnNames))
	dict.MustAddColumn(table.NewStringColumn("type", dtypes))
	dict.MustAddColumn(table.NewFloatColumn("pct_missing", missingPct))
	dict.MustAddColumn(table.NewStringColumn("description", descriptions))
	dict.MustAddColumn(table.NewStringColumn("example_value", examples))
	return dict
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// RelationshipDoc renders the fact-to-dimension relationships as a
// markdown table for the BI modeling guide.
func RelationshipDoc(relationships [][3]string) string {
	out := "| Fact | Key | Dimension |\n|---|---|---|\n"
	sorted := make([][3]string, len(relationships))
	copy(sorted, relationships)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})
	for _, r := range sorted {
		out += fmt.Sprintf("| %s | %s | %s |\n", r[0], r[1], r[2])
	}
	return out
}
