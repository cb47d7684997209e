package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/services/features"
	"github.com/IanaraFer/dataSite-sub000/pkg/util"
)

var errNonFinite = errors.New("non-finite value in forecast")

type prediction struct {
	Dates []time.Time
	Point []float64
	Lower []float64
	Upper []float64
}

// generate drives a fitted backend h days past the last historical date.
func generate(f *Fitted, tbl *features.Table, h int) (*prediction, error) {
	if h < 0 {
		return nil, fmt.Errorf("horizon must be non-negative, got %d", h)
	}
	p := &prediction{Dates: util.DaysAfter(tbl.Last(), h)}

	if f.dates != nil {
		point, lower, upper := f.dates.PredictDates(p.Dates)
		for i := range point {
			lower[i] = math.Min(lower[i], point[i])
			upper[i] = math.Max(upper[i], point[i])
		}
		p.Point, p.Lower, p.Upper = point, lower, upper
	} else {
		point, err := f.predictMatrix(futureRows(f.Schema, tbl, p.Dates))
		if err != nil {
			return nil, err
		}
		p.Point = point
	}

	for _, series := range [][]float64{p.Point, p.Lower, p.Upper} {
		for i, v := range series {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w at step %d", errNonFinite, i)
			}
		}
	}
	return p, nil
}

// futureRows builds feature rows for future dates in schema order. Lags and
// rolling means take the mean of the most recent observed values and rolling
// deviations their standard deviation; predictions are not fed back.
func futureRows(schema []string, tbl *features.Table, dates []time.Time) [][]float64 {
	recentMean := features.RecentMean(tbl.Target)
	recentStd := features.RecentStd(tbl.Target)
	n := tbl.Len()

	rows := make([][]float64, len(dates))
	for i, d := range dates {
		calendar := features.CalendarValues(d)
		row := make([]float64, len(schema))
		for j, name := range schema {
			var v float64
			switch features.KindOf(name) {
			case features.KindCalendar:
				v = calendar[name]
			case features.KindTrend:
				v = float64(n + i)
			case features.KindLag, features.KindRollingMean:
				v = recentMean
			case features.KindRollingStd:
				v = recentStd
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows
}
