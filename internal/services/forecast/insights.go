package forecast

import (
	"fmt"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/services/features"

	"gonum.org/v1/gonum/stat"
)

const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

const zeroBaselineNote = "current average is zero; growth is undefined and reported as 0"

// DisplayName is the human-readable backend name used in model_used.
func DisplayName(tag models.BackendTag) string {
	switch tag {
	case models.BackendDecomposition:
		return "Decomposition"
	case models.BackendBoosted:
		return "Gradient Boosting"
	case models.BackendForest:
		return "Random Forest"
	}
	return string(tag)
}

func ensembleName(n int) string {
	return fmt.Sprintf("Ensemble (%d models)", n)
}

// confidenceLabel maps validation R² to a label; floorMedium lifts "Low" to "Medium".
func confidenceLabel(r2 float64, floorMedium bool) string {
	switch {
	case r2 > 0.8:
		return ConfidenceHigh
	case r2 > 0.6, floorMedium:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// summarize compares the recent historical level with the forecast level.
func summarize(history, forecast []float64, r2 float64, floorMedium bool, modelUsed string) models.Insights {
	in := models.Insights{
		CurrentAvg: features.RecentMean(history),
		Confidence: confidenceLabel(r2, floorMedium),
		ModelUsed:  modelUsed,
	}
	if len(forecast) > 0 {
		in.ForecastAvg = stat.Mean(forecast, nil)
	}

	switch {
	case in.CurrentAvg == 0:
		in.GrowthPrediction = 0
		in.Confidence = ConfidenceLow
		in.Note = zeroBaselineNote
	case len(forecast) == 0:
		in.GrowthPrediction = 0
	default:
		in.GrowthPrediction = finite(100 * (in.ForecastAvg - in.CurrentAvg) / in.CurrentAvg)
	}
	return in
}
