package inventory

import (
	"fmt"
	"sort"
	"time"

	"opsight/internal/forecast"
	"opsight/internal/table"
)

// MonthlySalesForecast aggregates sales dollars by calendar month and
// extends the series with a linear-trend forecast. The returned table
// marks each row as actual or forecast.
func MonthlySalesForecast(sales *table.Table, periods int) (*table.Table, *forecast.HoltModel, error) {
	dates := sales.Column("sales_date")
	dollars := sales.Column("sales_dollars")
	if dates == nil || dates.Kind() != table.Time {
		return nil, nil, fmt.Errorf("sales extract has no parsed sales_date column")
	}
	if dollars == nil {
		return nil, nil, fmt.Errorf("sales extract has no sales_dollars column")
	}

	totals := make(map[string]float64)
	for i := 0; i < sales.NumRows(); i++ {
		if dates.IsNull(i) || dollars.IsNull(i) {
			continue
		}
		month := dates.Time(i).Format("2006-01")
		totals[month] += dollars.Float(i)
	}
	if len(totals) == 0 {
		return nil, nil, fmt.Errorf("no dated sales rows to aggregate")
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	series := make([]float64, len(months))
	for i, m := range months {
		series[i] = totals[m]
	}

	model, err := forecast.FitHolt(series)
	if err != nil {
		return nil, nil, fmt.Errorf("fit sales trend: %w", err)
	}
	future := model.Forecast(periods)

	lastMonth, err := time.Parse("2006-01", months[len(months)-1])
	if err != nil {
		return nil, nil, fmt.Errorf("parse month label: %w", err)
	}

	allMonths := make([]string, 0, len(months)+periods)
	allValues := make([]float64, 0, len(months)+periods)
	kinds := make([]string, 0, len(months)+periods)
	allMonths = append(allMonths, months...)
	allValues = append(allValues, series...)
	for range months {
		kinds = append(kinds, "actual")
	}
	for i, v := range future {
		m := lastMonth.AddDate(0, i+1, 0)
		allMonths = append(allMonths, m.Format("2006-01"))
		allValues = append(allValues, v)
		kinds = append(kinds, "forecast")
	}

	out := table.New()
	out.MustAddColumn(table.NewStringColumn("month", allMonths))
	out.MustAddColumn(table.NewFloatColumn("sales_dollars", allValues))
	out.MustAddColumn(table.NewStringColumn("series", kinds))
	return out, model, nil
}
