package table

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadExcel loads the first non-empty sheet of an .xlsx workbook using
// the same header canonicalization and type inference as ReadCSV. Raw
// extracts occasionally arrive as workbooks instead of CSV; this keeps
// the pipelines indifferent to which one they get.
func ReadExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}
		return fromSheetRows(rows)
	}
	return nil, fmt.Errorf("no data sheet found in %s", path)
}

// ReadExcelSheet loads a specific sheet of an .xlsx workbook.
func ReadExcelSheet(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}
	return fromSheetRows(rows)
}

func fromSheetRows(rows [][]string) (*Table, error) {
	names := CanonicalizeHeaders(rows[0])
	cells := make([][]string, len(names))
	for _, row := range rows[1:] {
		// Skip fully blank rows, common at the bottom of exported sheets.
		blank := true
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		for i := range names {
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			cells[i] = append(cells[i], v)
		}
	}
	return FromRawColumns(names, cells)
}
