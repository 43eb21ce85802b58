package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"opsight/internal/files"
	"opsight/internal/table"
)

// LoadDataset locates and loads a named dataset from the input
// directory. CSV is preferred; Excel workbooks load through their
// first populated sheet.
func LoadDataset(inputDir, name string) (*table.Table, error) {
	d := files.NewDiscovery(inputDir)
	info, err := d.ResolveDataset(".", name)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(info.Name)) {
	case ".csv":
		t, err := table.ReadCSV(info.Path)
		if err != nil {
			return nil, fmt.Errorf("load dataset %s: %w", name, err)
		}
		return t, nil
	case ".xlsx", ".xls":
		t, err := table.ReadExcel(info.Path)
		if err != nil {
			return nil, fmt.Errorf("load dataset %s: %w", name, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("dataset %s has unsupported extension %s", name, info.Name)
	}
}
