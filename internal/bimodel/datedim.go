package bimodel

import (
	"fmt"
	"math"
	"sort"
	"time"

	"opsight/internal/table"
)

// DateDim builds a calendar dimension covering every distinct date
// found in the named date columns of the fact tables. The surrogate
// date_key is the date formatted as YYYYMMDD.
func DateDim(facts []*table.Table, dateColumns []string) *table.Table {
	seen := make(map[time.Time]bool)
	for _, fact := range facts {
		for _, name := range dateColumns {
			col := fact.Column(name)
			if col == nil || col.Kind() != table.Time {
				continue
			}
			for i := 0; i < col.Len(); i++ {
				if col.IsNull(i) {
					continue
				}
				d := col.Time(i)
				day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
				seen[day] = true
			}
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	n := len(dates)
	dateKey := make([]float64, n)
	dateVals := make([]time.Time, n)
	year := make([]float64, n)
	quarter := make([]string, n)
	month := make([]float64, n)
	monthName := make([]string, n)
	day := make([]float64, n)
	dayOfWeek := make([]float64, n)
	dayName := make([]string, n)
	weekOfYear := make([]float64, n)
	isWeekend := make([]string, n)

	for i, d := range dates {
		dateKey[i] = float64(d.Year()*10000 + int(d.Month())*100 + d.Day())
		dateVals[i] = d
		year[i] = float64(d.Year())
		quarter[i] = fmt.Sprintf("Q%d", (int(d.Month())-1)/3+1)
		month[i] = float64(d.Month())
		monthName[i] = d.Month().String()
		day[i] = float64(d.Day())
		dayOfWeek[i] = float64(isoWeekday(d))
		dayName[i] = d.Weekday().String()
		_, week := d.ISOWeek()
		weekOfYear[i] = float64(week)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			isWeekend[i] = "true"
		} else {
			isWeekend[i] = "false"
		}
	}

	dim := table.New()
	dim.MustAddColumn(table.NewFloatColumn("date_key", dateKey))
	dim.MustAddColumn(table.NewTimeColumn("date", dateVals))
	dim.MustAddColumn(table.NewFloatColumn("year", year))
	dim.MustAddColumn(table.NewStringColumn("quarter", quarter))
	dim.MustAddColumn(table.NewFloatColumn("month", month))
	dim.MustAddColumn(table.NewStringColumn("month_name", monthName))
	dim.MustAddColumn(table.NewFloatColumn("day", day))
	dim.MustAddColumn(table.NewFloatColumn("day_of_week", dayOfWeek))
	dim.MustAddColumn(table.NewStringColumn("day_name", dayName))
	dim.MustAddColumn(table.NewFloatColumn("week_of_year", weekOfYear))
	dim.MustAddColumn(table.NewStringColumn("is_weekend", isWeekend))
	return dim
}

// AttachDateKey adds a <dateColumn>_key column to the fact table
// holding the YYYYMMDD key for each date, missing where the date is.
func AttachDateKey(fact *table.Table, dateColumn string) error {
	col := fact.Column(dateColumn)
	if col == nil {
		return fmt.Errorf("date column %q not found", dateColumn)
	}
	if col.Kind() != table.Time {
		return fmt.Errorf("column %q is not a date column", dateColumn)
	}

	keys := make([]float64, col.Len())
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			keys[i] = math.NaN()
			continue
		}
		d := col.Time(i)
		keys[i] = float64(d.Year()*10000 + int(d.Month())*100 + d.Day())
	}

	return fact.AddColumn(table.NewFloatColumn(dateColumn+"_key", keys))
}

// isoWeekday maps Monday to 1 and Sunday to 7.
func isoWeekday(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
