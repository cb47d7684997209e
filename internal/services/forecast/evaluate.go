package forecast

import (
	"math"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

const emptyHoldoutNote = "ValidationError: holdout is empty, metrics default to zero"

// splitIndex is the positional train/validation boundary.
func splitIndex(n int, ratio float64) int {
	idx := int(float64(n) * ratio)
	if idx > n {
		idx = n
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// evaluate scores predictions against the holdout. MAPE is in percent with the
// denominator floored at machine epsilon, and R² of a constant target is 1 for
// an exact fit and 0 otherwise.
func evaluate(actual, predicted []float64) models.Performance {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return models.Performance{Note: emptyHoldoutNote}
	}

	n := float64(len(actual))
	var absSum, sqSum, pctSum float64
	for i, a := range actual {
		diff := a - predicted[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		pctSum += math.Abs(diff) / math.Max(math.Abs(a), epsilon)
	}

	mean := stat.Mean(actual, nil)
	var ssTot float64
	for _, a := range actual {
		ssTot += (a - mean) * (a - mean)
	}
	var r2 float64
	switch {
	case ssTot > 0:
		r2 = 1 - sqSum/ssTot
	case sqSum == 0:
		r2 = 1
	}

	mse := sqSum / n
	return models.Performance{
		MAE:  finite(absSum / n),
		MSE:  finite(mse),
		RMSE: finite(math.Sqrt(mse)),
		R2:   finite(r2),
		MAPE: finite(100 * pctSum / n),
	}
}

const epsilon = 2.220446049250313e-16

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
