package features

import (
	"math"
	"testing"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dailyRows(n int, value func(i int) float64) []models.Row {
	rows := make([]models.Row, n)
	for i := range rows {
		rows[i] = models.Row{
			"date":  day0.AddDate(0, 0, i).Format("2006-01-02"),
			"value": value(i),
			"note":  "ignored",
		}
	}
	return rows
}

func TestBuildRowCountAndColumns(t *testing.T) {
	tbl, err := Build(dailyRows(40, func(i int) float64 { return float64(i) }), "date", "value")
	require.NoError(t, err)

	assert.Equal(t, 40, tbl.Len())
	names := tbl.FeatureNames()
	for _, want := range []string{"lag_1", "lag_7", "lag_30", "rolling_mean_7", "rolling_std_30", "trend", "month_sin"} {
		assert.Contains(t, names, want)
	}
	assert.NotContains(t, names, "date")
	assert.NotContains(t, names, "value")
	assert.Equal(t, TrendColumn, names[len(names)-1])
}

func TestBuildShortSeriesOmitsGroups(t *testing.T) {
	tbl, err := Build(dailyRows(10, func(i int) float64 { return 5 }), "date", "value")
	require.NoError(t, err)

	names := tbl.FeatureNames()
	assert.Contains(t, names, "lag_1")
	assert.Contains(t, names, "lag_7")
	assert.NotContains(t, names, "lag_30")
	assert.Contains(t, names, "rolling_mean_7")
	assert.NotContains(t, names, "rolling_mean_14")
	assert.NotContains(t, names, "rolling_std_30")

	for _, name := range names {
		col, ok := tbl.Column(name)
		require.True(t, ok)
		for i, v := range col {
			assert.False(t, math.IsNaN(v), "%s[%d] is NaN", name, i)
		}
	}
}

func TestBuildRollingStdFirstRowIsZero(t *testing.T) {
	tbl, err := Build(dailyRows(20, func(i int) float64 { return float64(i * i) }), "date", "value")
	require.NoError(t, err)

	std, ok := tbl.Column("rolling_std_7")
	require.True(t, ok)
	assert.Equal(t, 0.0, std[0])
	assert.InDelta(t, math.Sqrt(0.5), std[1], 1e-12)

	mean, _ := tbl.Column("rolling_mean_7")
	assert.Equal(t, 0.0, mean[0])
	assert.InDelta(t, 0.5, mean[1], 1e-12)
}

func TestBuildLagBackFill(t *testing.T) {
	tbl, err := Build(dailyRows(12, func(i int) float64 { return float64(10 + i) }), "date", "value")
	require.NoError(t, err)

	lag7, _ := tbl.Column("lag_7")
	for i := 0; i <= 7; i++ {
		assert.Equal(t, 10.0, lag7[i], "row %d", i)
	}
	assert.Equal(t, 14.0, lag7[11])
}

func TestBuildSortsStablyAndKeepsInput(t *testing.T) {
	rows := []models.Row{
		{"date": "2024-01-03", "value": 3.0},
		{"date": "2024-01-01", "value": 1.0},
		{"date": "2024-01-02", "value": 20.0},
		{"date": "2024-01-02", "value": 21.0},
	}
	tbl, err := Build(rows, "date", "value")
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 20, 21, 3}, tbl.Target)
	assert.Equal(t, "2024-01-03", rows[0]["date"])
	assert.True(t, tbl.Dates[0].Before(tbl.Dates[3]))
}

func TestBuildCalendar(t *testing.T) {
	rows := []models.Row{{"date": time.Date(2024, 12, 30, 17, 0, 0, 0, time.UTC), "value": 1}}
	tbl, err := Build(rows, "date", "value")
	require.NoError(t, err)

	get := func(name string) float64 {
		col, ok := tbl.Column(name)
		require.True(t, ok, name)
		return col[0]
	}
	assert.Equal(t, 2024.0, get("year"))
	assert.Equal(t, 4.0, get("quarter"))
	assert.Equal(t, 0.0, get("dayofweek"))
	assert.Equal(t, 1.0, get("weekofyear"))
	assert.Equal(t, 365.0, get("dayofyear"))
	assert.InDelta(t, 0.0, get("dayofweek_sin"), 1e-12)
	assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), tbl.Dates[0])
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		rows []models.Row
		want error
	}{
		{"empty", nil, ErrEmptySeries},
		{"missing date", []models.Row{{"value": 1.0}}, ErrMissingColumn},
		{"bad date", []models.Row{{"date": "soon", "value": 1.0}}, ErrBadDate},
		{"bad target", []models.Row{{"date": "2024-01-01", "value": "lots"}}, ErrBadTarget},
		{"all null", []models.Row{{"date": "2024-01-01", "value": nil}, {"date": "2024-01-02", "value": ""}}, ErrNoTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.rows, "date", "value")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuildFillsNullTargets(t *testing.T) {
	rows := []models.Row{
		{"date": "2024-01-01", "value": nil},
		{"date": "2024-01-02", "value": "7"},
		{"date": "2024-01-03", "value": nil},
	}
	tbl, err := Build(rows, "date", "value")
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7}, tbl.Target)
}

func TestRecentStats(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = float64(i)
	}
	assert.InDelta(t, 24.5, RecentMean(values), 1e-12)
	assert.Equal(t, 0.0, RecentStd([]float64{3}))
	assert.Equal(t, 0.0, RecentMean(nil))
	assert.Greater(t, RecentStd(values), 0.0)
}

func TestMatrixFollowsSchemaOrder(t *testing.T) {
	tbl, err := Build(dailyRows(10, func(i int) float64 { return float64(i) }), "date", "value")
	require.NoError(t, err)

	m, err := tbl.Matrix([]string{"trend", "lag_1"}, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 1}, {3, 2}}, m)

	_, err = tbl.Matrix([]string{"lag_30"}, 0, 1)
	assert.Error(t, err)
}
