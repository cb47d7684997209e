package forecast

import (
	"context"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/services/features"
	"github.com/IanaraFer/dataSite-sub000/internal/services/learn"
)

// ForestBackend is the always-available fallback: a random forest on raw features.
type ForestBackend struct {
	cfg learn.ForestConfig
}

func NewForestBackend() *ForestBackend {
	return &ForestBackend{cfg: learn.DefaultForestConfig()}
}

func (b *ForestBackend) Tag() models.BackendTag {
	return models.BackendForest
}

func (b *ForestBackend) Params() map[string]any {
	return map[string]any{
		"n_estimators":      b.cfg.NEstimators,
		"max_depth":         b.cfg.MaxDepth,
		"min_samples_split": b.cfg.MinSamplesSplit,
		"min_samples_leaf":  b.cfg.MinSamplesLeaf,
		"random_state":      b.cfg.Seed,
	}
}

func (b *ForestBackend) Fit(ctx context.Context, tbl *features.Table, trainEnd int) (*Fitted, error) {
	schema, Xtr, ytr, _, _, err := trainingMatrix(tbl, trainEnd)
	if err != nil {
		return nil, err
	}
	model, err := learn.FitForest(ctx, Xtr, ytr, b.cfg)
	if err != nil {
		return nil, err
	}
	return &Fitted{
		Tag:       models.BackendForest,
		Params:    b.Params(),
		Schema:    schema,
		TrainRows: trainEnd,
		regressor: model,
	}, nil
}

var _ Backend = (*ForestBackend)(nil)
