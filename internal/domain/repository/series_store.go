package repository

import (
	"context"
	"errors"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
)

// ErrSeriesNotFound is returned when a store has no points for a series id.
var ErrSeriesNotFound = errors.New("series not found")

// SeriesStore persists daily business series.
type SeriesStore interface {
	// LoadSeries returns at most limit of the most recent points, ascending by date.
	LoadSeries(ctx context.Context, seriesID string, limit int) ([]models.Point, error)
	SaveSeries(ctx context.Context, seriesID string, points []models.Point) error
	ListSeries(ctx context.Context) ([]string, error)
}
