package forecast

import (
	"context"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/services/features"
	"github.com/IanaraFer/dataSite-sub000/internal/services/learn"
)

// BoostedBackend trains gradient-boosted trees on standardized features.
type BoostedBackend struct {
	cfg learn.BoostingConfig
}

func NewBoostedBackend() *BoostedBackend {
	return &BoostedBackend{cfg: learn.DefaultBoostingConfig()}
}

func (b *BoostedBackend) Tag() models.BackendTag {
	return models.BackendBoosted
}

func (b *BoostedBackend) Params() map[string]any {
	return map[string]any{
		"n_estimators":     b.cfg.NEstimators,
		"max_depth":        b.cfg.MaxDepth,
		"learning_rate":    b.cfg.LearningRate,
		"subsample":        b.cfg.Subsample,
		"colsample_bytree": b.cfg.ColSample,
		"reg_lambda":       b.cfg.Lambda,
		"random_state":     b.cfg.Seed,
		"eval_metric":      "mae",
	}
}

func (b *BoostedBackend) Fit(ctx context.Context, tbl *features.Table, trainEnd int) (*Fitted, error) {
	schema, Xtr, ytr, Xev, yev, err := trainingMatrix(tbl, trainEnd)
	if err != nil {
		return nil, err
	}

	scaler, err := learn.FitScaler(Xtr)
	if err != nil {
		return nil, err
	}
	XtrScaled, err := scaler.Transform(Xtr)
	if err != nil {
		return nil, err
	}

	var eval *learn.EvalSet
	if len(yev) > 0 {
		XevScaled, err := scaler.Transform(Xev)
		if err != nil {
			return nil, err
		}
		eval = &learn.EvalSet{X: XevScaled, Y: yev}
	}

	model, err := learn.FitBoosting(ctx, XtrScaled, ytr, b.cfg, eval)
	if err != nil {
		return nil, err
	}

	params := b.Params()
	if n := len(model.EvalMAE); n > 0 {
		params["eval_mae_last"] = model.EvalMAE[n-1]
	}
	return &Fitted{
		Tag:       models.BackendBoosted,
		Params:    params,
		Scaler:    scaler,
		Schema:    schema,
		TrainRows: trainEnd,
		regressor: model,
	}, nil
}

var _ Backend = (*BoostedBackend)(nil)
