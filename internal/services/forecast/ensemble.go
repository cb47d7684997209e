package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/services/features"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// MinEnsembleWeight floors each backend's raw weight before normalisation.
const MinEnsembleWeight = 0.1

type member struct {
	fitted *Fitted
	pred   *prediction
	weight float64
}

// ensemble trains every available backend, weights survivors by holdout R²
// and combines their forecasts step by step.
func (e *Engine) ensemble(ctx context.Context, tbl *features.Table, h int) (*models.Forecast, error) {
	var tags []models.BackendTag
	for _, tag := range models.BackendOrder {
		if e.avail.Has(tag) {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil, newError(KindEnsembleEmpty, "", errors.New("no backends available"))
	}

	fits := make([]*Fitted, len(tags))
	errs := make([]error, len(tags))
	var eg errgroup.Group
	for i, tag := range tags {
		i, tag := i, tag
		eg.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					fits[i], errs[i] = nil, newError(KindTraining, tag, fmt.Errorf("panic: %v", r))
				}
			}()
			fits[i], errs[i] = e.Train(ctx, tag, tbl)
			return nil
		})
	}
	_ = eg.Wait()

	var (
		members  []member
		failures []error
	)
	for i, tag := range tags {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			continue
		}
		pred, err := generate(fits[i], tbl, h)
		if err != nil {
			e.cfg.Logger.Warn("ensemble member forecast failed, skipping",
				applogger.String("backend", string(tag)), applogger.Error(err))
			failures = append(failures, newError(KindForecast, tag, err))
			continue
		}
		members = append(members, member{
			fitted: fits[i],
			pred:   pred,
			weight: math.Max(MinEnsembleWeight, fits[i].Performance.R2),
		})
	}
	if len(members) == 0 {
		return nil, newError(KindEnsembleEmpty, "", errors.Join(failures...))
	}

	total := 0.0
	for _, m := range members {
		total += m.weight
	}
	for i := range members {
		members[i].weight /= total
	}

	rec := &models.Forecast{
		Backend:      string(models.ChoiceEnsemble),
		FutureDates:  members[0].pred.Dates,
		FutureValues: make([]float64, h),
		Weights:      make(map[string]float64, len(members)),
	}
	for _, m := range members {
		for i, v := range m.pred.Point {
			rec.FutureValues[i] += m.weight * v
		}
		p := m.fitted.Performance
		rec.Performance.MAE += m.weight * p.MAE
		rec.Performance.MSE += m.weight * p.MSE
		rec.Performance.RMSE += m.weight * p.RMSE
		rec.Performance.R2 += m.weight * p.R2
		rec.Performance.MAPE += m.weight * p.MAPE
		if p.Note != "" {
			rec.Performance.Note = p.Note
		}

		tag := m.fitted.Tag
		rec.Weights[string(tag)] = m.weight
		rec.IndividualForecasts = append(rec.IndividualForecasts, *singleRecord(m.fitted, tbl, m.pred, DisplayName(tag)))
		e.cfg.Metrics.RecordEnsembleWeight(string(tag), m.weight)
	}

	rec.Insights = summarize(tbl.Target, rec.FutureValues, rec.Performance.R2, false, ensembleName(len(members)))
	e.cfg.Logger.Info("ensemble combined",
		applogger.Int("members", len(members)),
		applogger.Int("failed", len(failures)),
		applogger.Any("weights", rec.Weights),
	)
	return rec, nil
}
