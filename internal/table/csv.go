package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateNameRe selects columns eligible for automatic date parsing.
var dateNameRe = regexp.MustCompile(`date|datetime|timestamp`)

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01",
	time.RFC3339,
}

// minDateParseRate is the share of non-empty values that must parse
// before a column is converted to Time.
const minDateParseRate = 0.6

// ReadCSV loads a CSV file into a table: headers are canonicalized to
// snake_case, columns where every non-empty cell parses as a number
// become Float, and date-named columns convert to Time when at least 60%
// of their values parse.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	t, err := readCSVFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

func readCSVFrom(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	names := CanonicalizeHeaders(header)

	cells := make([][]string, len(names))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		for i := range names {
			v := ""
			if i < len(record) {
				v = strings.TrimSpace(record[i])
			}
			cells[i] = append(cells[i], v)
		}
	}

	return FromRawColumns(names, cells)
}

// FromRawColumns builds a typed table from raw string cells, applying
// numeric and date inference. Exposed so the Excel reader shares the
// same typing rules as CSV.
func FromRawColumns(names []string, cells [][]string) (*Table, error) {
	if len(names) != len(cells) {
		return nil, fmt.Errorf("got %d names for %d columns", len(names), len(cells))
	}
	t := New()
	for i, name := range names {
		t.MustAddColumn(inferColumn(name, cells[i]))
	}
	return t, nil
}

func inferColumn(name string, raw []string) *Column {
	if nums, ok := tryNumeric(raw); ok {
		return NewFloatColumn(name, nums)
	}
	if dateNameRe.MatchString(name) {
		if times, ok := tryDates(raw); ok {
			return NewTimeColumn(name, times)
		}
	}
	return NewStringColumn(name, raw)
}

// tryNumeric converts the column to floats when every non-empty cell is
// numeric. Thousands separators are tolerated.
func tryNumeric(raw []string) ([]float64, bool) {
	nums := make([]float64, len(raw))
	nonEmpty := 0
	for i, v := range raw {
		if v == "" {
			nums[i] = math.NaN()
			continue
		}
		nonEmpty++
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return nil, false
		}
		nums[i] = f
	}
	if nonEmpty == 0 {
		return nil, false
	}
	return nums, true
}

// tryDates converts the column to times when enough cells parse.
func tryDates(raw []string) ([]time.Time, bool) {
	times := make([]time.Time, len(raw))
	nonEmpty, parsed := 0, 0
	for i, v := range raw {
		if v == "" {
			continue
		}
		nonEmpty++
		if ts, ok := ParseDate(v); ok {
			times[i] = ts
			parsed++
		}
	}
	if nonEmpty == 0 || float64(parsed)/float64(nonEmpty) < minDateParseRate {
		return nil, false
	}
	return times, true
}

// ParseDate parses a date cell against the supported layouts.
func ParseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseDateColumn forces the named string column to Time regardless of
// the naming heuristic, applying the same 60% parse-rate rule.
func (t *Table) ParseDateColumn(name string) {
	c := t.Column(name)
	if c == nil || c.kind != String {
		return
	}
	if times, ok := tryDates(c.str); ok {
		t.MustAddColumn(NewTimeColumn(name, times))
	}
}
