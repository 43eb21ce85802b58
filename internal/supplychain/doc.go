// Package supplychain implements the SKU-grain supply chain case:
// cleaning with lead-time ambiguity resolution, demand and margin
// proxies, an at-risk watchlist, data quality profiling, driver
// analysis against revenue, carrier scenarios and a star schema.
package supplychain
