package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ensembleRecord() *models.Forecast {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{start, start.AddDate(0, 0, 1)}
	return &models.Forecast{
		Performance:  models.Performance{MAE: 1.5, R2: 0.9},
		FutureDates:  dates,
		FutureValues: []float64{10, 11},
		Insights:     models.Insights{ModelUsed: "Ensemble (2 models)", Confidence: "High", GrowthPrediction: 4.2, Note: "steady"},
		IndividualForecasts: []models.Forecast{
			{
				Backend:             "decomposition",
				FutureDates:         dates,
				FutureValues:        []float64{9, 10},
				ConfidenceIntervals: &models.Intervals{Lower: []float64{8, 9}, Upper: []float64{10, 11}},
				Insights:            models.Insights{ModelUsed: "Decomposition"},
			},
			{
				Backend:      "forest",
				FutureDates:  dates,
				FutureValues: []float64{11, 12},
				Insights:     models.Insights{ModelUsed: "Random Forest"},
			},
		},
		Weights: map[string]float64{"decomposition": 0.6, "forest": 0.4},
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, ensembleRecord()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetForecast, SheetPerformance, SheetInsights}, f.GetSheetList())

	rows, err := f.GetRows(SheetForecast)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Forecast", "Decomposition", "Random Forest"}, rows[0])
	assert.Equal(t, []string{"2024-03-01", "10", "9", "11"}, rows[1])

	perf, err := f.GetRows(SheetPerformance)
	require.NoError(t, err)
	require.Len(t, perf, 4)
	assert.Equal(t, "Ensemble (2 models)", perf[1][0])
	assert.Equal(t, "0.6", perf[2][6])

	ins, err := f.GetRows(SheetInsights)
	require.NoError(t, err)
	assert.Equal(t, []string{"Note", "steady"}, ins[len(ins)-1])
}

func TestWriteWorkbookWithIntervals(t *testing.T) {
	rec := ensembleRecord().IndividualForecasts[0]
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, &rec))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetForecast)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Forecast", "Lower", "Upper"}, rows[0])
	assert.Equal(t, []string{"2024-03-02", "10", "9", "11"}, rows[2])
}

func TestWriteWorkbookRejectsErrorRecords(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteWorkbook(&buf, models.ErrorRecord("FeatureError: no rows")), ErrErrorRecord)
	assert.ErrorIs(t, WriteWorkbook(&buf, nil), ErrErrorRecord)
	assert.Zero(t, buf.Len())
}
