package table

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Kind identifies the storage type of a column.
type Kind uint8

const (
	// String columns hold free-form text values.
	String Kind = iota
	// Float columns hold numeric values; missing entries are NaN.
	Float
	// Time columns hold calendar timestamps.
	Time
)

// String returns the kind name used in schema exports.
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Float:
		return "float64"
	case Time:
		return "datetime"
	default:
		return "unknown"
	}
}

// Column is a single named, typed column. Exactly one of the backing
// slices is populated depending on the kind. The valid mask marks
// non-missing entries for all kinds; Float additionally encodes missing
// values as NaN so arithmetic propagates them.
type Column struct {
	name  string
	kind  Kind
	str   []string
	num   []float64
	ts    []time.Time
	valid []bool
}

// NewStringColumn builds a string column. Empty strings are treated as missing.
func NewStringColumn(name string, values []string) *Column {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = strings.TrimSpace(v) != ""
	}
	return &Column{name: name, kind: String, str: values, valid: valid}
}

// NewFloatColumn builds a float column. NaN entries are missing.
func NewFloatColumn(name string, values []float64) *Column {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = !math.IsNaN(v)
	}
	return &Column{name: name, kind: Float, num: values, valid: valid}
}

// NewTimeColumn builds a time column. Zero times are missing.
func NewTimeColumn(name string, values []time.Time) *Column {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = !v.IsZero()
	}
	return &Column{name: name, kind: Time, ts: values, valid: valid}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of rows.
func (c *Column) Len() int {
	switch c.kind {
	case Float:
		return len(c.num)
	case Time:
		return len(c.ts)
	default:
		return len(c.str)
	}
}

// IsNull reports whether the value at row i is missing.
func (c *Column) IsNull(i int) bool { return !c.valid[i] }

// Float returns the numeric value at row i. Non-float columns and
// missing entries return NaN.
func (c *Column) Float(i int) float64 {
	if c.kind != Float || !c.valid[i] {
		return math.NaN()
	}
	return c.num[i]
}

// SetFloat overwrites the numeric value at row i.
func (c *Column) SetFloat(i int, v float64) {
	if c.kind != Float {
		return
	}
	c.num[i] = v
	c.valid[i] = !math.IsNaN(v)
}

// Time returns the timestamp at row i, or the zero time when missing.
func (c *Column) Time(i int) time.Time {
	if c.kind != Time || !c.valid[i] {
		return time.Time{}
	}
	return c.ts[i]
}

// Value returns the cell at row i formatted for display and CSV output.
// Missing values render as the empty string.
func (c *Column) Value(i int) string {
	if !c.valid[i] {
		return ""
	}
	switch c.kind {
	case Float:
		return formatFloat(c.num[i])
	case Time:
		return c.ts[i].Format("2006-01-02")
	default:
		return c.str[i]
	}
}

// StringAt returns the raw string value at row i for string columns.
func (c *Column) StringAt(i int) string {
	if c.kind != String || !c.valid[i] {
		return ""
	}
	return c.str[i]
}

// Floats returns a copy of the numeric values including NaN for missing
// entries. Non-float columns return nil.
func (c *Column) Floats() []float64 {
	if c.kind != Float {
		return nil
	}
	out := make([]float64, len(c.num))
	copy(out, c.num)
	return out
}

// MissingFraction returns the share of missing values in the column.
func (c *Column) MissingFraction() float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	missing := 0
	for i := 0; i < n; i++ {
		if !c.valid[i] {
			missing++
		}
	}
	return float64(missing) / float64(n)
}

// FirstValid returns the first non-missing value formatted for display.
func (c *Column) FirstValid() string {
	for i := 0; i < c.Len(); i++ {
		if c.valid[i] {
			return c.Value(i)
		}
	}
	return ""
}

// slice returns a column restricted to the given row indices.
func (c *Column) slice(rows []int) *Column {
	out := &Column{name: c.name, kind: c.kind, valid: make([]bool, len(rows))}
	switch c.kind {
	case Float:
		out.num = make([]float64, len(rows))
		for i, r := range rows {
			out.num[i] = c.num[r]
			out.valid[i] = c.valid[r]
		}
	case Time:
		out.ts = make([]time.Time, len(rows))
		for i, r := range rows {
			out.ts[i] = c.ts[r]
			out.valid[i] = c.valid[r]
		}
	default:
		out.str = make([]string, len(rows))
		for i, r := range rows {
			out.str[i] = c.str[r]
			out.valid[i] = c.valid[r]
		}
	}
	return out
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols  []*Column
	index map[string]int
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or nil if absent. Pipelines use the
// nil return for defensive column-existence checks.
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.cols[i]
}

// AddColumn appends a column, replacing any existing column of the same
// name. Adding a column whose length disagrees with the table is an error.
func (t *Table) AddColumn(c *Column) error {
	if len(t.cols) > 0 && c.Len() != t.NumRows() {
		return fmt.Errorf("column %s has %d rows, table has %d", c.name, c.Len(), t.NumRows())
	}
	if i, ok := t.index[c.name]; ok {
		t.cols[i] = c
		return nil
	}
	t.index[c.name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// MustAddColumn is AddColumn for construction sites where the lengths
// are known to agree.
func (t *Table) MustAddColumn(c *Column) {
	if err := t.AddColumn(c); err != nil {
		panic(err)
	}
}

// RenameColumn renames a column in place. Missing source names are ignored.
func (t *Table) RenameColumn(from, to string) {
	i, ok := t.index[from]
	if !ok || from == to {
		return
	}
	delete(t.index, from)
	t.cols[i].name = to
	t.index[to] = i
}

// DropColumn removes the named column if present.
func (t *Table) DropColumn(name string) {
	i, ok := t.index[name]
	if !ok {
		return
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	delete(t.index, name)
	for j := i; j < len(t.cols); j++ {
		t.index[t.cols[j].name] = j
	}
}

// Select returns a new table containing the named columns that exist,
// in the requested order.
func (t *Table) Select(names ...string) *Table {
	out := New()
	for _, name := range names {
		if c := t.Column(name); c != nil {
			out.MustAddColumn(c)
		}
	}
	return out
}

// Filter returns the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	var rows []int
	for i := 0; i < t.NumRows(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.TakeRows(rows)
}

// TakeRows returns a new table restricted to the given row indices.
func (t *Table) TakeRows(rows []int) *Table {
	out := New()
	for _, c := range t.cols {
		out.MustAddColumn(c.slice(rows))
	}
	return out
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.TakeRows(rows)
}

// SortBy returns the table sorted by the named column. Missing values
// sort last regardless of direction. Sorting is stable.
func (t *Table) SortBy(name string, ascending bool) *Table {
	c := t.Column(name)
	if c == nil {
		return t
	}
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if c.IsNull(ra) != c.IsNull(rb) {
			return c.IsNull(rb)
		}
		if c.IsNull(ra) {
			return false
		}
		// Equal keys must compare false in both directions so stable
		// sorting preserves their input order.
		switch c.kind {
		case Float:
			if ascending {
				return c.num[ra] < c.num[rb]
			}
			return c.num[ra] > c.num[rb]
		case Time:
			if ascending {
				return c.ts[ra].Before(c.ts[rb])
			}
			return c.ts[rb].Before(c.ts[ra])
		default:
			if ascending {
				return c.str[ra] < c.str[rb]
			}
			return c.str[ra] > c.str[rb]
		}
	})
	return t.TakeRows(rows)
}

// rowKey builds a composite group key from the named columns. Missing
// values participate as empty strings so NaN groups stay together,
// matching groupby(dropna=False) semantics.
func (t *Table) rowKey(cols []*Column, i int) string {
	parts := make([]string, len(cols))
	for j, c := range cols {
		parts[j] = c.Value(i)
	}
	return strings.Join(parts, "\x1f")
}

// DropDuplicates removes rows whose full set of values repeats an
// earlier row.
func (t *Table) DropDuplicates() *Table {
	return t.DropDuplicatesBy(t.ColumnNames()...)
}

// DropDuplicatesBy removes rows that repeat an earlier row on the named
// columns, keeping the first occurrence.
func (t *Table) DropDuplicatesBy(names ...string) *Table {
	var cols []*Column
	for _, name := range names {
		if c := t.Column(name); c != nil {
			cols = append(cols, c)
		}
	}
	seen := make(map[string]bool)
	var rows []int
	for i := 0; i < t.NumRows(); i++ {
		key := t.rowKey(cols, i)
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, i)
	}
	return t.TakeRows(rows)
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}
