package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTableParquet(t *testing.T) {
	dir := t.TempDir()
	w := NewParquetWriter(dir, nil)

	require.NoError(t, w.WriteTable("exports/fact.parquet", sampleTable(t)))

	path := filepath.Join(dir, "exports", "fact.parquet")
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	info, err := file.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(file, info.Size())
	require.NoError(t, err)

	assert.Equal(t, int64(2), pf.NumRows())

	fields := pf.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}
	assert.ElementsMatch(t, []string{"sku", "value", "order_date"}, names)
}

func TestWriteTableParquetEmpty(t *testing.T) {
	dir := t.TempDir()
	w := NewParquetWriter(dir, nil)

	tbl := sampleTable(t).Head(0)
	require.NoError(t, w.WriteTable("empty.parquet", tbl))

	_, err := os.Stat(filepath.Join(dir, "empty.parquet"))
	assert.NoError(t, err)
}
