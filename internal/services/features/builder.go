// Package features turns a daily business series into the tabular feature
// set consumed by the tree backends.
package features

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
)

var (
	// Lags are emitted only when the series is longer than the lag.
	Lags = []int{1, 7, 30}
	// Windows are emitted only when the series is longer than the window.
	Windows = []int{7, 14, 30}
)

// Build coerces, sorts and engineers rows. The input rows are not modified.
func Build(rows []models.Row, dateCol, targetCol string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySeries
	}

	dates := make([]time.Time, len(rows))
	values := make([]float64, len(rows))
	for i, row := range rows {
		rawDate, ok := row[dateCol]
		if !ok {
			return nil, fmt.Errorf("row %d: %w: %q", i, ErrMissingColumn, dateCol)
		}
		d, err := toTime(rawDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rawTarget, ok := row[targetCol]
		if !ok {
			return nil, fmt.Errorf("row %d: %w: %q", i, ErrMissingColumn, targetCol)
		}
		v, err := toFloat(rawTarget)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		dates[i] = d
		values[i] = v
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dates[order[a]].Before(dates[order[b]])
	})
	sortedDates := make([]time.Time, len(order))
	sortedValues := make([]float64, len(order))
	for i, idx := range order {
		sortedDates[i] = dates[idx]
		sortedValues[i] = values[idx]
	}

	return FromSeries(sortedDates, sortedValues)
}

// FromSeries engineers an already sorted daily series.
func FromSeries(dates []time.Time, values []float64) (*Table, error) {
	if len(dates) == 0 {
		return nil, ErrEmptySeries
	}
	if len(dates) != len(values) {
		return nil, fmt.Errorf("dates and values differ in length: %d != %d", len(dates), len(values))
	}

	target := make([]float64, len(values))
	copy(target, values)
	if !fillMissing(target) {
		return nil, ErrNoTarget
	}

	n := len(dates)
	t := newTable(dates, target)

	calendar := make(map[string][]float64, len(CalendarColumns))
	for _, name := range CalendarColumns {
		calendar[name] = make([]float64, n)
	}
	for i, d := range dates {
		for name, v := range CalendarValues(d) {
			calendar[name][i] = v
		}
	}
	for _, name := range CalendarColumns {
		t.add(name, calendar[name])
	}

	for _, lag := range Lags {
		if n <= lag {
			continue
		}
		t.add(LagColumn(lag), shift(target, lag))
	}

	for _, w := range Windows {
		if n <= w {
			continue
		}
		mean, std := rolling(target, w)
		t.add(RollingMeanColumn(w), mean)
		t.add(RollingStdColumn(w), std)
	}

	trend := make([]float64, n)
	for i := range trend {
		trend[i] = float64(i)
	}
	t.add(TrendColumn, trend)

	for _, name := range t.columns {
		col := t.data[name]
		fillMissing(col)
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("column %q row %d is not finite", name, i)
			}
		}
	}
	return t, nil
}
