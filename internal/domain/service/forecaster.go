package service

import (
	"context"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
)

// Forecaster runs one forecast call. It never fails: problems come back as an error record.
type Forecaster interface {
	GenerateForecast(ctx context.Context, in models.ForecastInput) *models.Forecast
	Availability() models.Availability
}

// ForecasterFactory hands out independent engines so concurrent callers never share fitted state.
type ForecasterFactory func() Forecaster
