// Package forecast trains decomposition, boosted and forest backends on a
// daily series, extrapolates them and combines them into an ensemble.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domsvc "github.com/IanaraFer/dataSite-sub000/internal/domain/service"
	"github.com/IanaraFer/dataSite-sub000/internal/services/features"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/IanaraFer/dataSite-sub000/forecast"

// Engine runs forecast calls. It is safe for concurrent use; the only shared
// state is the per-tag cache of the most recently fitted predictors.
type Engine struct {
	cfg   *EngineConfig
	avail models.Availability

	mu     sync.Mutex
	fitted map[models.BackendTag]*Fitted
}

// NewEngine probes the registry and applies options.
func NewEngine(opts ...EngineOption) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = applogger.Nop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}

	avail := Probe()
	for _, tag := range cfg.Disabled {
		switch tag {
		case models.BackendDecomposition:
			avail.Decomposition = false
		case models.BackendBoosted:
			avail.Boosted = false
		case models.BackendForest:
			avail.Forest = false
		}
	}

	return &Engine{
		cfg:    cfg,
		avail:  avail,
		fitted: make(map[models.BackendTag]*Fitted),
	}
}

// Availability is the read-only advertisement of usable backends.
func (e *Engine) Availability() models.Availability {
	return e.avail
}

// Fitted returns the last predictor trained for tag on this engine.
func (e *Engine) Fitted(tag models.BackendTag) (*Fitted, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.fitted[tag]
	return f, ok
}

// TrainRows builds features and trains a single backend without forecasting.
func (e *Engine) TrainRows(ctx context.Context, tag models.BackendTag, rows []models.Row, dateCol, targetCol string) (*Fitted, error) {
	tbl, err := features.Build(rows, dateCol, targetCol)
	if err != nil {
		return nil, newError(KindFeature, "", err)
	}
	return e.Train(ctx, tag, tbl)
}

// Train fits one backend on the training prefix, scores it on the holdout and,
// when refitting is enabled, retrains it on the full history.
func (e *Engine) Train(ctx context.Context, tag models.BackendTag, tbl *features.Table) (*Fitted, error) {
	ctx, span := e.cfg.Tracer.Start(ctx, "forecast.train", trace.WithAttributes(attribute.String("backend", string(tag))))
	defer span.End()

	f, err := e.train(ctx, tag, tbl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.cfg.Logger.Warn("backend training failed", applogger.String("backend", string(tag)), applogger.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.Float64("r2", f.Performance.R2))
	return f, nil
}

func (e *Engine) train(ctx context.Context, tag models.BackendTag, tbl *features.Table) (*Fitted, error) {
	if !e.avail.Has(tag) {
		return nil, newError(KindUnavailable, tag, errors.New("backend is not installed"))
	}
	builder, ok := lookup(tag)
	if !ok {
		return nil, newError(KindUnavailable, tag, errors.New("backend is not registered"))
	}
	backend := builder()

	start := time.Now()
	n := tbl.Len()
	split := splitIndex(n, e.cfg.TrainRatio)

	fitted, err := backend.Fit(ctx, tbl, split)
	if err != nil {
		return nil, newError(KindTraining, tag, err)
	}
	predicted, err := fitted.predictRows(tbl, split, n)
	if err != nil {
		return nil, newError(KindTraining, tag, fmt.Errorf("holdout prediction: %w", err))
	}
	perf := evaluate(tbl.Target[split:], predicted)
	if perf.Note != "" {
		e.cfg.Logger.Debug("holdout empty", applogger.String("backend", string(tag)), applogger.Int("rows", n))
	}

	if e.cfg.Refit && split < n {
		fitted, err = backend.Fit(ctx, tbl, n)
		if err != nil {
			return nil, newError(KindTraining, tag, fmt.Errorf("refit: %w", err))
		}
	}
	fitted.Performance = perf

	elapsed := time.Since(start)
	e.cfg.Metrics.RecordBackendTraining(string(tag), elapsed.Seconds(), perf.R2)
	e.cfg.Logger.Info("backend trained",
		applogger.String("backend", string(tag)),
		applogger.Int("rows", n),
		applogger.Int("train_rows", split),
		applogger.Float64("r2", perf.R2),
		applogger.Float64("mae", perf.MAE),
		applogger.Duration("duration_ms", elapsed),
	)

	e.mu.Lock()
	e.fitted[tag] = fitted
	e.mu.Unlock()
	return fitted, nil
}

// resolve maps a choice onto a backend tag, or reports that the ensembler should run.
func (e *Engine) resolve(choice models.ModelChoice) (models.BackendTag, bool, error) {
	switch choice {
	case models.ChoiceAuto, "":
		switch {
		case e.avail.Decomposition && e.avail.Boosted:
			return "", true, nil
		case e.avail.Decomposition:
			return models.BackendDecomposition, false, nil
		case e.avail.Boosted:
			return models.BackendBoosted, false, nil
		}
		return models.BackendForest, false, nil
	case models.ChoiceEnsemble:
		return "", true, nil
	case models.ChoiceDecomposition:
		return models.BackendDecomposition, false, nil
	case models.ChoiceBoosted:
		return models.BackendBoosted, false, nil
	case models.ChoiceForest:
		return models.BackendForest, false, nil
	}
	return "", false, fmt.Errorf("unknown model choice %q", choice)
}

// Forecast runs one call and returns engine errors as *Error.
func (e *Engine) Forecast(ctx context.Context, in models.ForecastInput) (*models.Forecast, error) {
	ctx, span := e.cfg.Tracer.Start(ctx, "forecast.generate", trace.WithAttributes(
		attribute.String("choice", string(in.Choice)),
		attribute.Int("horizon", in.Horizon),
		attribute.Int("rows", len(in.Rows)),
	))
	defer span.End()

	if in.Horizon < 0 {
		return nil, newError(KindForecast, "", fmt.Errorf("horizon must be non-negative, got %d", in.Horizon))
	}
	tag, ensemble, err := e.resolve(in.Choice)
	if err != nil {
		return nil, newError(KindForecast, "", err)
	}

	tbl, err := features.Build(in.Rows, in.DateCol, in.TargetCol)
	if err != nil {
		return nil, newError(KindFeature, "", err)
	}

	if ensemble {
		return e.ensemble(ctx, tbl, in.Horizon)
	}

	modelUsed := DisplayName(tag)
	if !e.avail.Has(tag) && tag != models.BackendForest {
		e.cfg.Logger.Warn("requested backend unavailable, falling back",
			applogger.String("requested", string(tag)),
			applogger.String("fallback", string(models.BackendForest)),
		)
		modelUsed = fmt.Sprintf("%s (fallback: %s unavailable)", DisplayName(models.BackendForest), DisplayName(tag))
		tag = models.BackendForest
	}

	fitted, err := e.Train(ctx, tag, tbl)
	if err != nil {
		return nil, err
	}
	pred, err := generate(fitted, tbl, in.Horizon)
	if err != nil {
		return nil, newError(KindForecast, tag, err)
	}
	return singleRecord(fitted, tbl, pred, modelUsed), nil
}

// GenerateForecast never fails: errors and panics come back as error records.
func (e *Engine) GenerateForecast(ctx context.Context, in models.ForecastInput) (rec *models.Forecast) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.cfg.Logger.Error("forecast panicked", applogger.Any("panic", r))
			rec = models.ErrorRecord(fmt.Sprintf("%s: internal failure: %v", KindForecast, r))
		}
		outcome := "ok"
		if rec.Failed() {
			outcome = "error"
		}
		e.cfg.Metrics.RecordForecast(string(in.Choice), outcome)
		e.cfg.Metrics.RecordLatency("generate_forecast", time.Since(start).Seconds())
	}()

	out, err := e.Forecast(ctx, in)
	if err != nil {
		err = wrap(KindForecast, "", err)
		e.cfg.Metrics.RecordError(string(KindOf(err)))
		e.cfg.Logger.Warn("forecast failed", applogger.String("kind", string(KindOf(err))), applogger.Error(err))
		return models.ErrorRecord(err.Error())
	}
	return out
}

func singleRecord(f *Fitted, tbl *features.Table, p *prediction, modelUsed string) *models.Forecast {
	rec := &models.Forecast{
		Backend:      string(f.Tag),
		Performance:  f.Performance,
		FutureDates:  p.Dates,
		FutureValues: p.Point,
		Insights:     summarize(tbl.Target, p.Point, f.Performance.R2, f.Tag == models.BackendDecomposition, modelUsed),
	}
	if p.Lower != nil {
		rec.ConfidenceIntervals = &models.Intervals{Lower: p.Lower, Upper: p.Upper}
	}
	return rec
}

var _ domsvc.Forecaster = (*Engine)(nil)
