package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/services/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIndex(t *testing.T) {
	tests := []struct {
		n     int
		ratio float64
		want  int
	}{
		{100, 0.8, 80},
		{365, 0.8, 292},
		{3, 0.8, 2},
		{2, 0.8, 1},
		{10, 1, 10},
		{0, 0.8, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitIndex(tt.n, tt.ratio), "n=%d ratio=%v", tt.n, tt.ratio)
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("metrics", func(t *testing.T) {
		perf := evaluate([]float64{10, 20, 30, 40}, []float64{12, 18, 30, 44})
		assert.InDelta(t, 2.0, perf.MAE, 1e-12)
		assert.InDelta(t, 6.0, perf.MSE, 1e-12)
		assert.InDelta(t, math.Sqrt(6), perf.RMSE, 1e-12)
		assert.InDelta(t, 1-24.0/500.0, perf.R2, 1e-12)
		assert.InDelta(t, 100*(0.2+0.1+0+0.1)/4, perf.MAPE, 1e-9)
		assert.Empty(t, perf.Note)
	})

	t.Run("constant target exact", func(t *testing.T) {
		perf := evaluate([]float64{5, 5, 5}, []float64{5, 5, 5})
		assert.Equal(t, 1.0, perf.R2)
		assert.Equal(t, 0.0, perf.MAE)
	})

	t.Run("constant target off", func(t *testing.T) {
		perf := evaluate([]float64{5, 5, 5}, []float64{4, 5, 6})
		assert.Equal(t, 0.0, perf.R2)
	})

	t.Run("zero actuals keep mape finite", func(t *testing.T) {
		perf := evaluate([]float64{0, 0}, []float64{1, 1})
		assert.False(t, math.IsInf(perf.MAPE, 0) || math.IsNaN(perf.MAPE))
		assert.Greater(t, perf.MAPE, 0.0)
	})

	t.Run("empty holdout", func(t *testing.T) {
		perf := evaluate(nil, nil)
		assert.Equal(t, models.Performance{Note: emptyHoldoutNote}, perf)
	})
}

func TestConfidenceLabel(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, confidenceLabel(0.81, false))
	assert.Equal(t, ConfidenceMedium, confidenceLabel(0.8, false))
	assert.Equal(t, ConfidenceMedium, confidenceLabel(0.61, false))
	assert.Equal(t, ConfidenceLow, confidenceLabel(0.6, false))
	assert.Equal(t, ConfidenceLow, confidenceLabel(-3, false))
	assert.Equal(t, ConfidenceMedium, confidenceLabel(-3, true))
	assert.Equal(t, ConfidenceHigh, confidenceLabel(0.95, true))
}

func TestSummarize(t *testing.T) {
	history := make([]float64, 40)
	for i := range history {
		history[i] = 100
	}
	in := summarize(history, []float64{110, 110}, 0.9, false, "Random Forest")
	assert.InDelta(t, 100, in.CurrentAvg, 1e-12)
	assert.InDelta(t, 110, in.ForecastAvg, 1e-12)
	assert.InDelta(t, 10, in.GrowthPrediction, 1e-9)
	assert.Equal(t, ConfidenceHigh, in.Confidence)
	assert.Empty(t, in.Note)

	empty := summarize(history, nil, 0.9, false, "Random Forest")
	assert.Equal(t, 0.0, empty.ForecastAvg)
	assert.Equal(t, 0.0, empty.GrowthPrediction)

	zero := summarize(make([]float64, 10), []float64{3}, 0.99, true, "Decomposition")
	assert.Equal(t, 0.0, zero.GrowthPrediction)
	assert.Equal(t, ConfidenceLow, zero.Confidence)
	assert.Equal(t, zeroBaselineNote, zero.Note)
}

func TestDisplayNames(t *testing.T) {
	assert.Equal(t, "Decomposition", DisplayName(models.BackendDecomposition))
	assert.Equal(t, "Gradient Boosting", DisplayName(models.BackendBoosted))
	assert.Equal(t, "Random Forest", DisplayName(models.BackendForest))
	assert.Equal(t, "Ensemble (2 models)", ensembleName(2))
}

func TestFutureRowsUseRecentStatistics(t *testing.T) {
	dates := make([]time.Time, 40)
	target := make([]float64, 40)
	for i := range dates {
		dates[i] = firstDay.AddDate(0, 0, i)
		target[i] = float64(i)
	}
	tbl, err := features.FromSeries(dates, target)
	require.NoError(t, err)

	schema := []string{features.TrendColumn, features.LagColumn(7), features.RollingStdColumn(7), "month"}
	future := []time.Time{firstDay.AddDate(0, 0, 40), firstDay.AddDate(0, 0, 41)}
	rows := futureRows(schema, tbl, future)
	require.Len(t, rows, 2)

	assert.Equal(t, 40.0, rows[0][0])
	assert.Equal(t, 41.0, rows[1][0])
	assert.InDelta(t, features.RecentMean(target), rows[0][1], 1e-12)
	assert.InDelta(t, features.RecentStd(target), rows[1][2], 1e-12)
	assert.Equal(t, 2.0, rows[0][3])
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	assert.Panics(t, func() {
		Register(models.BackendForest, func() Backend { return NewForestBackend() })
	})
	assert.Panics(t, func() {
		Register("custom", nil)
	})
}

func TestErrorFormatting(t *testing.T) {
	err := newError(KindTraining, models.BackendBoosted, errTooFewRows)
	assert.Equal(t, "TrainingError: boosted: too few training rows", err.Error())
	assert.ErrorIs(t, err, errTooFewRows)
	assert.Equal(t, KindTraining, KindOf(wrap(KindForecast, "", err)))
	assert.Equal(t, KindForecast, KindOf(wrap(KindForecast, "", assert.AnError)))
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
}
