package table

// Schema describes the columns of a table: name, storage type,
// nullability, missing percentage and an example value. The result is
// itself a table so it can flow straight into the data dictionary
// exports.
func (t *Table) Schema() *Table {
	n := t.NumCols()
	names := make([]string, n)
	dtypes := make([]string, n)
	nullable := make([]string, n)
	missingPct := make([]float64, n)
	examples := make([]string, n)

	for i, c := range t.cols {
		names[i] = c.name
		dtypes[i] = c.kind.String()
		if c.MissingFraction() > 0 {
			nullable[i] = "true"
		} else {
			nullable[i] = "false"
		}
		missingPct[i] = c.MissingFraction() * 100
		examples[i] = c.FirstValid()
	}

	out := New()
	out.MustAddColumn(NewStringColumn("column", names))
	out.MustAddColumn(NewStringColumn("dtype", dtypes))
	out.MustAddColumn(NewStringColumn("nullable", nullable))
	out.MustAddColumn(NewFloatColumn("missing_pct", missingPct))
	out.MustAddColumn(NewStringColumn("example_value", examples))
	return out
}
