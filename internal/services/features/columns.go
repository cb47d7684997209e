package features

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const TrendColumn = "trend"

// CalendarColumns holds calendar and cyclical columns in emission order.
var CalendarColumns = []string{
	"year", "month", "day", "dayofweek", "dayofyear", "quarter", "weekofyear",
	"month_sin", "month_cos", "dayofweek_sin", "dayofweek_cos",
}

func LagColumn(lag int) string       { return "lag_" + strconv.Itoa(lag) }
func RollingMeanColumn(w int) string { return "rolling_mean_" + strconv.Itoa(w) }
func RollingStdColumn(w int) string  { return "rolling_std_" + strconv.Itoa(w) }

// Kind groups a column for future-row construction.
type Kind int

const (
	KindUnknown Kind = iota
	KindCalendar
	KindLag
	KindRollingMean
	KindRollingStd
	KindTrend
)

func KindOf(name string) Kind {
	switch {
	case name == TrendColumn:
		return KindTrend
	case strings.HasPrefix(name, "lag_"):
		return KindLag
	case strings.HasPrefix(name, "rolling_mean_"):
		return KindRollingMean
	case strings.HasPrefix(name, "rolling_std_"):
		return KindRollingStd
	}
	for _, c := range CalendarColumns {
		if c == name {
			return KindCalendar
		}
	}
	return KindUnknown
}

// CalendarValues computes the calendar and cyclical features of one day.
// Day of week counts from Monday = 0.
func CalendarValues(d time.Time) map[string]float64 {
	month := float64(d.Month())
	dow := float64((int(d.Weekday()) + 6) % 7)
	_, week := d.ISOWeek()
	return map[string]float64{
		"year":          float64(d.Year()),
		"month":         month,
		"day":           float64(d.Day()),
		"dayofweek":     dow,
		"dayofyear":     float64(d.YearDay()),
		"quarter":       float64((int(d.Month())-1)/3 + 1),
		"weekofyear":    float64(week),
		"month_sin":     math.Sin(2 * math.Pi * month / 12),
		"month_cos":     math.Cos(2 * math.Pi * month / 12),
		"dayofweek_sin": math.Sin(2 * math.Pi * dow / 7),
		"dayofweek_cos": math.Cos(2 * math.Pi * dow / 7),
	}
}
