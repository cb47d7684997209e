package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/services/features"
	"github.com/IanaraFer/dataSite-sub000/internal/services/learn"
)

// MinTrainRows is the smallest training prefix any backend accepts.
const MinTrainRows = 2

var errTooFewRows = errors.New("too few training rows")

// Backend trains one forecasting method.
type Backend interface {
	Tag() models.BackendTag
	Params() map[string]any
	// Fit trains on rows [0, trainEnd) of the table.
	Fit(ctx context.Context, tbl *features.Table, trainEnd int) (*Fitted, error)
}

// Builder constructs a backend; registered per tag.
type Builder func() Backend

// Regressor predicts one feature row.
type Regressor interface {
	Predict(x []float64) float64
}

// DatePredictor predicts directly from timestamps and supplies interval estimates.
type DatePredictor interface {
	PredictDates(dates []time.Time) (point, lower, upper []float64)
}

// Fitted is a trained predictor with everything needed to forecast from it.
type Fitted struct {
	Tag         models.BackendTag
	Params      map[string]any
	Scaler      *learn.StandardScaler
	Schema      []string
	Performance models.Performance
	TrainRows   int

	regressor Regressor
	dates     DatePredictor
}

// HasIntervals reports whether forecasts from f carry lower/upper bounds.
func (f *Fitted) HasIntervals() bool {
	return f.dates != nil
}

// predictRows predicts historical rows [from, to) of the table.
func (f *Fitted) predictRows(tbl *features.Table, from, to int) ([]float64, error) {
	if f.dates != nil {
		point, _, _ := f.dates.PredictDates(tbl.Dates[from:to])
		return point, nil
	}
	X, err := tbl.Matrix(f.Schema, from, to)
	if err != nil {
		return nil, err
	}
	return f.predictMatrix(X)
}

func (f *Fitted) predictMatrix(X [][]float64) ([]float64, error) {
	if f.regressor == nil {
		return nil, fmt.Errorf("backend %s has no regressor", f.Tag)
	}
	if f.Scaler != nil {
		scaled, err := f.Scaler.Transform(X)
		if err != nil {
			return nil, err
		}
		X = scaled
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = f.regressor.Predict(row)
	}
	return out, nil
}

// trainingMatrix slices the schema columns for rows [0, trainEnd) and, when
// rows remain, [trainEnd, n) as the evaluation block.
func trainingMatrix(tbl *features.Table, trainEnd int) (schema []string, Xtr [][]float64, ytr []float64, Xev [][]float64, yev []float64, err error) {
	if trainEnd < MinTrainRows {
		return nil, nil, nil, nil, nil, fmt.Errorf("%w: %d < %d", errTooFewRows, trainEnd, MinTrainRows)
	}
	schema = tbl.FeatureNames()
	Xtr, err = tbl.Matrix(schema, 0, trainEnd)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	Xev, err = tbl.Matrix(schema, trainEnd, tbl.Len())
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return schema, Xtr, tbl.Target[:trainEnd], Xev, tbl.Target[trainEnd:], nil
}
