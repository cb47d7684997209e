package forecast

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/services/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var firstDay = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func makeRows(n int, value func(i int) float64) []models.Row {
	rows := make([]models.Row, n)
	for i := range rows {
		rows[i] = models.Row{
			"date":  firstDay.AddDate(0, 0, i).Format("2006-01-02"),
			"sales": value(i),
		}
	}
	return rows
}

func input(rows []models.Row, horizon int, choice models.ModelChoice) models.ForecastInput {
	return models.ForecastInput{Rows: rows, DateCol: "date", TargetCol: "sales", Horizon: horizon, Choice: choice}
}

// seasonal is a trend plus weekly cycle with a deterministic wobble.
func seasonal(i int) float64 {
	return 200 + 0.5*float64(i) + 15*math.Sin(2*math.Pi*float64(i)/7) + 3*math.Sin(float64(i)*1.7)
}

func forestOnly() *Engine {
	return NewEngine(WithDisabledBackends(models.BackendDecomposition, models.BackendBoosted))
}

func assertWellFormed(t *testing.T, rec *models.Forecast, rows []models.Row, horizon int) {
	t.Helper()
	require.False(t, rec.Failed(), rec.Error)
	require.Len(t, rec.FutureDates, horizon)
	require.Len(t, rec.FutureValues, horizon)

	last := firstDay.AddDate(0, 0, len(rows)-1)
	for i, d := range rec.FutureDates {
		assert.Equal(t, last.AddDate(0, 0, i+1), d)
	}
	for _, v := range rec.FutureValues {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	if ci := rec.ConfidenceIntervals; ci != nil {
		require.Len(t, ci.Lower, horizon)
		require.Len(t, ci.Upper, horizon)
		for i := range ci.Lower {
			assert.LessOrEqual(t, ci.Lower[i], rec.FutureValues[i])
			assert.LessOrEqual(t, rec.FutureValues[i], ci.Upper[i])
		}
	}
}

func TestProbeAdvertisesAllCompiledBackends(t *testing.T) {
	avail := Probe()
	assert.True(t, avail.Forest)
	assert.True(t, avail.Decomposition)
	assert.True(t, avail.Boosted)
	assert.Equal(t, avail, Probe())

	e := forestOnly()
	assert.Equal(t, models.Availability{Forest: true}, e.Availability())
}

func TestScenarioLinearTrendForest(t *testing.T) {
	rows := makeRows(365, func(i int) float64 { return 100 + float64(i) })
	rec := NewEngine().GenerateForecast(context.Background(), input(rows, 30, models.ChoiceForest))

	assertWellFormed(t, rec, rows, 30)
	assert.Nil(t, rec.ConfidenceIntervals)
	assert.Equal(t, "Random Forest", rec.Insights.ModelUsed)
	assert.InDelta(t, 449.5, rec.Insights.CurrentAvg, 1e-9)
	assert.Greater(t, rec.Insights.GrowthPrediction, 0.0)
	assert.Less(t, rec.Insights.GrowthPrediction, 10.0)
	assert.Contains(t, []string{ConfidenceHigh, ConfidenceMedium, ConfidenceLow}, rec.Insights.Confidence)
}

func TestScenarioConstantSeriesAuto(t *testing.T) {
	rows := makeRows(365, func(int) float64 { return 1000 })
	rec := NewEngine().GenerateForecast(context.Background(), input(rows, 14, models.ChoiceAuto))

	assertWellFormed(t, rec, rows, 14)
	assert.Equal(t, "Ensemble (3 models)", rec.Insights.ModelUsed)
	for _, v := range rec.FutureValues {
		assert.InDelta(t, 1000, v, 0.5)
	}
	assert.InDelta(t, 0, rec.Insights.GrowthPrediction, 0.05)
}

func TestScenarioWeeklySineDecomposition(t *testing.T) {
	wave := func(i int) float64 { return 100 + 10*math.Sin(2*math.Pi*float64(i)/7) }
	rows := makeRows(60, wave)
	rec := NewEngine().GenerateForecast(context.Background(), input(rows, 21, models.ChoiceDecomposition))

	assertWellFormed(t, rec, rows, 21)
	require.NotNil(t, rec.ConfidenceIntervals)
	assert.Equal(t, "Decomposition", rec.Insights.ModelUsed)
	assert.NotEqual(t, ConfidenceLow, rec.Insights.Confidence)

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range rec.FutureValues {
		assert.InDelta(t, wave(60+i), v, 5.0, "step %d", i)
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	assert.Greater(t, hi-lo, 10.0)
}

func TestDecompositionIntervalsCoverNoisySeries(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	wave := func(i int) float64 { return 100 + 10*math.Sin(2*math.Pi*float64(i)/7) }
	noisy := func(i int) float64 { return wave(i) + 3*r.NormFloat64() }
	rows := makeRows(120, noisy)
	future := make([]float64, 30)
	for i := range future {
		future[i] = noisy(120 + i)
	}

	rec := NewEngine().GenerateForecast(context.Background(), input(rows, 30, models.ChoiceDecomposition))
	assertWellFormed(t, rec, rows, 30)
	ci := rec.ConfidenceIntervals
	require.NotNil(t, ci)

	covered := 0
	for i, v := range future {
		assert.Greater(t, ci.Upper[i]-ci.Lower[i], 4.0, "step %d", i)
		if ci.Lower[i] <= v && v <= ci.Upper[i] {
			covered++
		}
	}
	assert.GreaterOrEqual(t, float64(covered)/float64(len(future)), 0.6)
	assert.Greater(t, ci.Upper[29]-ci.Lower[29], ci.Upper[0]-ci.Lower[0])
}

func TestDecompositionSkipsYearlyTermsOnShortHistory(t *testing.T) {
	tests := []struct {
		name   string
		days   int
		yearly bool
	}{
		{"eight weeks", 56, false},
		{"two years", 800, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates := make([]time.Time, tt.days)
			y := make([]float64, tt.days)
			for i := range dates {
				dates[i] = firstDay.AddDate(0, 0, i)
				y[i] = seasonal(i)
			}
			m, err := fitDecomposition(dates, y, DefaultDecompositionConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.yearly, m.yearly)
			assert.Len(t, m.beta, len(m.priorPrecision()))
			assert.Len(t, m.design(epochDays(dates[0])), len(m.beta))
		})
	}
}

type panickingBackend struct{}

func (panickingBackend) Tag() models.BackendTag { return models.BackendBoosted }
func (panickingBackend) Params() map[string]any  { return nil }
func (panickingBackend) Fit(context.Context, *features.Table, int) (*Fitted, error) {
	panic("split on empty node")
}

func swapBuilder(t *testing.T, tag models.BackendTag, b Builder) {
	t.Helper()
	registryMu.Lock()
	prev := registry[tag]
	registry[tag] = b
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		registry[tag] = prev
		registryMu.Unlock()
	})
}

func TestEnsembleMemberPanicBecomesFailure(t *testing.T) {
	swapBuilder(t, models.BackendBoosted, func() Backend { return panickingBackend{} })
	rows := makeRows(60, seasonal)
	e := NewEngine(WithDisabledBackends(models.BackendDecomposition))

	f, err := e.Forecast(context.Background(), input(rows, 5, models.ChoiceEnsemble))
	require.NoError(t, err)
	assert.Equal(t, "Ensemble (1 models)", f.Insights.ModelUsed)
	assert.Contains(t, f.Weights, string(models.BackendForest))
	assert.NotContains(t, f.Weights, string(models.BackendBoosted))

	swapBuilder(t, models.BackendForest, func() Backend { return panickingBackend{} })
	rec := e.GenerateForecast(context.Background(), input(rows, 5, models.ChoiceEnsemble))
	require.True(t, rec.Failed())
	assert.Contains(t, rec.Error, "split on empty node")
}

func TestScenarioEnsembleWithOnlyForest(t *testing.T) {
	rows := makeRows(120, seasonal)
	rec := forestOnly().GenerateForecast(context.Background(), input(rows, 10, models.ChoiceEnsemble))

	assertWellFormed(t, rec, rows, 10)
	assert.Equal(t, map[string]float64{"forest": 1}, rec.Weights)
	require.Len(t, rec.IndividualForecasts, 1)
	assert.Equal(t, rec.IndividualForecasts[0].FutureValues, rec.FutureValues)
	assert.Equal(t, "Ensemble (1 models)", rec.Insights.ModelUsed)
	assert.Nil(t, rec.ConfidenceIntervals)
}

func TestScenarioZeroBaseline(t *testing.T) {
	rows := makeRows(120, func(i int) float64 {
		if i >= 90 {
			return 0
		}
		return 50
	})
	rec := NewEngine().GenerateForecast(context.Background(), input(rows, 7, models.ChoiceForest))

	assertWellFormed(t, rec, rows, 7)
	assert.Equal(t, 0.0, rec.Insights.CurrentAvg)
	assert.Equal(t, 0.0, rec.Insights.GrowthPrediction)
	assert.Equal(t, ConfidenceLow, rec.Insights.Confidence)
	assert.NotEmpty(t, rec.Insights.Note)
}

func TestScenarioFullEnsemble(t *testing.T) {
	rows := makeRows(400, seasonal)
	rec := NewEngine().GenerateForecast(context.Background(), input(rows, 30, models.ChoiceEnsemble))

	assertWellFormed(t, rec, rows, 30)
	require.Len(t, rec.IndividualForecasts, 3)
	assert.Nil(t, rec.ConfidenceIntervals)

	sum := 0.0
	for _, w := range rec.Weights {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	for i := range rec.FutureValues {
		combined := 0.0
		for _, sub := range rec.IndividualForecasts {
			combined += rec.Weights[sub.Backend] * sub.FutureValues[i]
		}
		assert.InDelta(t, combined, rec.FutureValues[i], 1e-6)
	}

	var wantMAE float64
	for _, sub := range rec.IndividualForecasts {
		wantMAE += rec.Weights[sub.Backend] * sub.Performance.MAE
	}
	assert.InDelta(t, wantMAE, rec.Performance.MAE, 1e-9)

	decomposition := rec.IndividualForecasts[0]
	assert.Equal(t, "decomposition", decomposition.Backend)
	assert.NotNil(t, decomposition.ConfidenceIntervals)
}

func TestAutoWithOnlyForest(t *testing.T) {
	rows := makeRows(80, seasonal)
	rec := forestOnly().GenerateForecast(context.Background(), input(rows, 5, models.ChoiceAuto))

	assertWellFormed(t, rec, rows, 5)
	assert.Equal(t, "Random Forest", rec.Insights.ModelUsed)
}

func TestRequestedBackendFallsBackToForest(t *testing.T) {
	rows := makeRows(80, seasonal)
	rec := forestOnly().GenerateForecast(context.Background(), input(rows, 5, models.ChoiceBoosted))

	assertWellFormed(t, rec, rows, 5)
	assert.Equal(t, "forest", rec.Backend)
	assert.True(t, strings.HasPrefix(rec.Insights.ModelUsed, "Random Forest (fallback"))
	assert.Contains(t, rec.Insights.ModelUsed, "Gradient Boosting")
}

func TestResolveAuto(t *testing.T) {
	tests := []struct {
		name     string
		disabled []models.BackendTag
		tag      models.BackendTag
		ensemble bool
	}{
		{"all", nil, "", true},
		{"no boosted", []models.BackendTag{models.BackendBoosted}, models.BackendDecomposition, false},
		{"no decomposition", []models.BackendTag{models.BackendDecomposition}, models.BackendBoosted, false},
		{"forest only", []models.BackendTag{models.BackendDecomposition, models.BackendBoosted}, models.BackendForest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(WithDisabledBackends(tt.disabled...))
			tag, ensemble, err := e.resolve(models.ChoiceAuto)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, tag)
			assert.Equal(t, tt.ensemble, ensemble)
		})
	}
}

func TestHorizonBoundaries(t *testing.T) {
	rows := makeRows(50, seasonal)
	for _, choice := range []models.ModelChoice{models.ChoiceForest, models.ChoiceDecomposition, models.ChoiceEnsemble} {
		t.Run(string(choice), func(t *testing.T) {
			e := NewEngine()

			rec := e.GenerateForecast(context.Background(), input(rows, 0, choice))
			assertWellFormed(t, rec, rows, 0)
			assert.Equal(t, 0.0, rec.Insights.ForecastAvg)
			assert.Equal(t, 0.0, rec.Insights.GrowthPrediction)

			rec = e.GenerateForecast(context.Background(), input(rows, 1, choice))
			assertWellFormed(t, rec, rows, 1)
		})
	}
}

func TestShortSeriesStillTrains(t *testing.T) {
	rows := makeRows(20, seasonal)
	e := NewEngine()
	rec := e.GenerateForecast(context.Background(), input(rows, 7, models.ChoiceBoosted))
	assertWellFormed(t, rec, rows, 7)

	fitted, ok := e.Fitted(models.BackendBoosted)
	require.True(t, ok)
	assert.Contains(t, fitted.Schema, "lag_7")
	assert.Contains(t, fitted.Schema, "rolling_mean_14")
	assert.NotContains(t, fitted.Schema, "lag_30")
	assert.NotContains(t, fitted.Schema, "rolling_std_30")
	assert.NotNil(t, fitted.Scaler)
}

func TestEmptyHoldoutYieldsZeroPerformance(t *testing.T) {
	rows := makeRows(60, seasonal)
	rec := NewEngine(WithTrainRatio(1)).GenerateForecast(context.Background(), input(rows, 5, models.ChoiceForest))

	assertWellFormed(t, rec, rows, 5)
	perf := rec.Performance
	assert.Equal(t, 0.0, perf.MAE)
	assert.Equal(t, 0.0, perf.MSE)
	assert.Equal(t, 0.0, perf.RMSE)
	assert.Equal(t, 0.0, perf.R2)
	assert.Equal(t, 0.0, perf.MAPE)
	assert.Contains(t, perf.Note, string(KindValidation))
}

func TestRefitIsDeterministic(t *testing.T) {
	rows := makeRows(150, seasonal)
	for _, tag := range []models.BackendTag{models.BackendDecomposition, models.BackendBoosted, models.BackendForest} {
		t.Run(string(tag), func(t *testing.T) {
			e := NewEngine(WithRefit(true))
			a, err := e.TrainRows(context.Background(), tag, rows, "date", "sales")
			require.NoError(t, err)
			b, err := e.TrainRows(context.Background(), tag, rows, "date", "sales")
			require.NoError(t, err)
			assert.Equal(t, 150, a.TrainRows)
			assert.Equal(t, a.Performance, b.Performance)
			assert.Equal(t, a.Schema, b.Schema)
		})
	}
}

func TestStoredModelIsTheScoredPrefixFit(t *testing.T) {
	rows := makeRows(100, seasonal)
	for _, tag := range []models.BackendTag{models.BackendDecomposition, models.BackendBoosted, models.BackendForest} {
		t.Run(string(tag), func(t *testing.T) {
			e := NewEngine()
			f, err := e.TrainRows(context.Background(), tag, rows, "date", "sales")
			require.NoError(t, err)
			assert.Equal(t, splitIndex(100, DefaultTrainRatio), f.TrainRows)
			assert.Equal(t, 80, f.TrainRows)

			stored, ok := e.Fitted(tag)
			require.True(t, ok)
			assert.Same(t, f, stored)
		})
	}

	f, err := NewEngine().TrainRows(context.Background(), models.BackendBoosted, rows, "date", "sales")
	require.NoError(t, err)
	trend := -1
	for j, name := range f.Schema {
		if name == "trend" {
			trend = j
		}
	}
	require.GreaterOrEqual(t, trend, 0)
	assert.InDelta(t, 39.5, f.Scaler.Mean[trend], 1e-9)
}

func TestDispatcherIsRepeatable(t *testing.T) {
	rows := makeRows(200, seasonal)
	e := NewEngine()
	first := e.GenerateForecast(context.Background(), input(rows, 14, models.ChoiceEnsemble))
	second := e.GenerateForecast(context.Background(), input(rows, 14, models.ChoiceEnsemble))

	require.False(t, first.Failed(), first.Error)
	assert.Equal(t, first.FutureValues, second.FutureValues)
	assert.Equal(t, first.Weights, second.Weights)
}

func TestErrorRecords(t *testing.T) {
	good := makeRows(40, seasonal)
	tests := []struct {
		name string
		in   models.ForecastInput
		kind Kind
	}{
		{"bad date", input([]models.Row{{"date": "not a day", "sales": 1.0}}, 5, models.ChoiceForest), KindFeature},
		{"missing target", models.ForecastInput{Rows: good, DateCol: "date", TargetCol: "revenue", Horizon: 5}, KindFeature},
		{"negative horizon", input(good, -1, models.ChoiceForest), KindForecast},
		{"unknown choice", input(good, 5, "prophet"), KindForecast},
		{"too few rows", input(makeRows(2, seasonal), 5, models.ChoiceForest), KindTraining},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewEngine().GenerateForecast(context.Background(), tt.in)
			require.True(t, rec.Failed())
			assert.True(t, strings.HasPrefix(rec.Error, string(tt.kind)), rec.Error)

			raw, err := json.Marshal(rec)
			require.NoError(t, err)
			var decoded map[string]any
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Len(t, decoded, 1)
			assert.Contains(t, decoded, "error")
		})
	}
}

func TestDisabledForestIsUnavailable(t *testing.T) {
	e := NewEngine(WithDisabledBackends(models.BackendForest))
	_, err := e.Forecast(context.Background(), input(makeRows(40, seasonal), 3, models.ChoiceForest))
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestEnsembleEmpty(t *testing.T) {
	e := NewEngine(WithDisabledBackends(models.BackendDecomposition, models.BackendBoosted))
	_, err := e.Forecast(context.Background(), input(makeRows(2, seasonal), 3, models.ChoiceEnsemble))
	require.Error(t, err)
	assert.Equal(t, KindEnsembleEmpty, KindOf(err))
	assert.Contains(t, err.Error(), string(KindTraining))
}

func TestCancelledContextSurfacesAsRecord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := NewEngine().GenerateForecast(ctx, input(makeRows(60, seasonal), 5, models.ChoiceForest))
	require.True(t, rec.Failed())
	assert.True(t, strings.HasPrefix(rec.Error, string(KindTraining)), rec.Error)
}
