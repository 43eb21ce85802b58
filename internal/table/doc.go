// Package table implements the column-oriented in-memory table the
// analytics pipelines are built on. It covers the slice of dataframe
// behavior the pipelines actually need: CSV and Excel ingestion with
// snake_case header canonicalization, numeric and date type inference,
// missing-value propagation, filtering, sorting, group-by aggregation
// and key joins.
//
// Missing values are first-class: Float columns encode them as NaN so
// derived arithmetic propagates missingness the way the source extracts
// demand, and aggregations skip them explicitly.
package table
