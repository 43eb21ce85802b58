// Package inventory implements the inventory analysis case: beginning
// and ending snapshots joined with sales and purchase extracts into
// per-SKU KPIs (turnover, EOQ, reorder point, ABC class, carrying
// cost), a monthly sales forecast, supplier spend rollups and a star
// schema export.
package inventory
