// Package procurement implements the purchase-order KPI case: order
// and supplier KPIs, composite supplier risk scores, segmentation,
// Pareto tables, what-if scenarios, and a star schema export.
package procurement
