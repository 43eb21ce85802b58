package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"opsight/internal/table"
)

// ParquetWriter exports tables as Parquet files for Power BI and
// Tableau connectors that prefer columnar input over CSV.
type ParquetWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewParquetWriter creates a Parquet writer rooted at baseDir.
func NewParquetWriter(baseDir string, logger *slog.Logger) *ParquetWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParquetWriter{baseDir: baseDir, logger: logger}
}

// WriteTable writes a table to the named Parquet file. Float columns
// map to optional doubles, everything else to optional strings; dates
// are serialized as ISO strings so every BI tool parses them the same
// way as the CSV exports.
func (w *ParquetWriter) WriteTable(filePath string, t *table.Table) error {
	fullPath := filePath
	if !filepath.IsAbs(filePath) && w.baseDir != "" {
		fullPath = filepath.Join(w.baseDir, filePath)
	}

	w.logger.Info("writing Parquet export",
		slog.String("path", fullPath),
		slog.Int("rows", t.NumRows()))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	names := t.ColumnNames()
	group := parquet.Group{}
	for _, name := range names {
		if t.Column(name).Kind() == table.Float {
			group[name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		} else {
			group[name] = parquet.Optional(parquet.String())
		}
	}
	schema := parquet.NewSchema(tableName(fullPath), group)

	writer := parquet.NewGenericWriter[map[string]any](file, schema)

	rows := make([]map[string]any, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		row := make(map[string]any, len(names))
		for _, name := range names {
			c := t.Column(name)
			if c.IsNull(i) {
				continue
			}
			if c.Kind() == table.Float {
				row[name] = c.Float(i)
			} else {
				row[name] = c.Value(i)
			}
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			writer.Close()
			return fmt.Errorf("write rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

func tableName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
