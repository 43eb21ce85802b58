// Package exporter writes pipeline outputs for BI consumption: CSV
// with an optional UTF-8 BOM for Excel, Parquet for Power BI and
// Tableau, pretty-printed JSON snapshots and markdown reports. All
// writers create parent directories as needed.
package exporter
