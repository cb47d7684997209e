package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RecentWindow is the number of trailing observations summarised for future rows and insights.
const RecentWindow = 30

// shift returns values lagged by k rows; the first k rows are NaN.
func shift(values []float64, k int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < k {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i-k]
	}
	return out
}

// rolling computes trailing mean and sample standard deviation including the
// current row, with a minimum of one observation. A single observation has std 0.
func rolling(values []float64, window int) (mean, std []float64) {
	mean = make([]float64, len(values))
	std = make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		win := values[start : i+1]
		mean[i] = stat.Mean(win, nil)
		if len(win) > 1 {
			std[i] = stat.StdDev(win, nil)
		}
	}
	return mean, std
}

// fillMissing back-fills then forward-fills NaN in place. It reports false when
// every value is NaN.
func fillMissing(values []float64) bool {
	next := math.NaN()
	for i := len(values) - 1; i >= 0; i-- {
		if math.IsNaN(values[i]) {
			values[i] = next
			continue
		}
		next = values[i]
	}
	prev := math.NaN()
	for i := range values {
		if math.IsNaN(values[i]) {
			values[i] = prev
			continue
		}
		prev = values[i]
	}
	return len(values) == 0 || !math.IsNaN(values[0])
}

// Tail returns the last n values (all of them if fewer exist).
func Tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// RecentMean is the mean of the last RecentWindow values, 0 for an empty series.
func RecentMean(values []float64) float64 {
	tail := Tail(values, RecentWindow)
	if len(tail) == 0 {
		return 0
	}
	return stat.Mean(tail, nil)
}

// RecentStd is the sample standard deviation of the last RecentWindow values,
// 0 when fewer than two exist.
func RecentStd(values []float64) float64 {
	tail := Tail(values, RecentWindow)
	if len(tail) < 2 {
		return 0
	}
	return stat.StdDev(tail, nil)
}
