package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
	domsvc "github.com/IanaraFer/dataSite-sub000/internal/domain/service"
	"github.com/IanaraFer/dataSite-sub000/internal/service/cache"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"
	"github.com/IanaraFer/dataSite-sub000/pkg/tracing"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/IanaraFer/dataSite-sub000/usecase"

var (
	// ErrTooManyRows rejects requests larger than the configured row cap.
	ErrTooManyRows = errors.New("too many rows")
	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = errors.New("job not found")
)

// Series rows are exposed to the engine under these column names.
const (
	SeriesDateCol   = "date"
	SeriesTargetCol = "value"
)

// ForecastConfig holds usecase limits.
type ForecastConfig struct {
	DefaultHorizon int
	MaxRows        int
	Timeout        time.Duration
	CacheTTL       time.Duration
	JobTTL         time.Duration
}

// ForecastUsecase serves synchronous forecasts, stored series and async jobs.
type ForecastUsecase struct {
	engines   domsvc.ForecasterFactory
	avail     models.Availability
	store     domrepo.SeriesStore
	cache     cache.BytesCache
	jobs      domrepo.JobQueue
	publisher domrepo.ResultPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
	tracer    trace.Tracer
	cfg       ForecastConfig
	flight    singleflight.Group
	now       func() time.Time
}

func NewForecastUsecase(
	engines domsvc.ForecasterFactory,
	store domrepo.SeriesStore,
	c cache.BytesCache,
	jobs domrepo.JobQueue,
	publisher domrepo.ResultPublisher,
	metrics domrepo.Metrics,
	log *applogger.Logger,
	cfg ForecastConfig,
) *ForecastUsecase {
	if log == nil {
		log = applogger.Nop()
	}
	if cfg.DefaultHorizon < 0 {
		cfg.DefaultHorizon = 30
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 24 * time.Hour
	}
	return &ForecastUsecase{
		engines:   engines,
		avail:     engines().Availability(),
		store:     store,
		cache:     c,
		jobs:      jobs,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		tracer:    tracing.Tracer(tracerName),
		cfg:       cfg,
		now:       time.Now,
	}
}

// Availability advertises the usable backends.
func (uc *ForecastUsecase) Availability() models.Availability {
	return uc.avail
}

// cacheKeyRequest is the canonical form hashed into the result cache key.
type cacheKeyRequest struct {
	Rows      []models.Row `json:"rows"`
	DateCol   string       `json:"date_col"`
	TargetCol string       `json:"target_col"`
	Horizon   int          `json:"horizon"`
	Model     string       `json:"model"`
}

// Forecast runs the engine over inline rows. Engine failures come back as an
// error record, not an error; err is reserved for rejected requests.
func (uc *ForecastUsecase) Forecast(ctx context.Context, req models.ForecastRequest) (*models.Forecast, error) {
	if uc.cfg.MaxRows > 0 && len(req.Rows) > uc.cfg.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit is %d", ErrTooManyRows, len(req.Rows), uc.cfg.MaxRows)
	}
	if req.Horizon == nil {
		h := uc.cfg.DefaultHorizon
		req.Horizon = &h
	}
	if req.Model == "" {
		req.Model = string(models.ChoiceAuto)
	}
	in := req.Input()

	ctx, span := uc.tracer.Start(ctx, "usecase.forecast", trace.WithAttributes(
		tracing.AttrModel.String(req.Model),
		tracing.AttrHorizon.Int(in.Horizon),
		tracing.AttrRows.Int(len(req.Rows)),
	))
	defer span.End()

	key, err := cache.ForecastKey(cacheKeyRequest{
		Rows: req.Rows, DateCol: in.DateCol, TargetCol: in.TargetCol, Horizon: in.Horizon, Model: req.Model,
	})
	if err != nil {
		// Unhashable rows still forecast; they just skip the cache.
		uc.log.Debug("forecast cache key failed", applogger.Error(err))
		return uc.run(ctx, in), nil
	}
	if rec, ok := uc.recall(ctx, key); ok {
		span.SetAttributes(tracing.AttrCacheHit.Bool(true))
		return rec, nil
	}
	span.SetAttributes(tracing.AttrCacheHit.Bool(false))

	v, _, _ := uc.flight.Do(key, func() (interface{}, error) {
		rec := uc.run(ctx, in)
		if !rec.Failed() {
			uc.remember(ctx, key, rec)
		}
		return rec, nil
	})
	return v.(*models.Forecast), nil
}

func (uc *ForecastUsecase) run(ctx context.Context, in models.ForecastInput) *models.Forecast {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()
	return uc.engines().GenerateForecast(ctx, in)
}

func (uc *ForecastUsecase) recall(ctx context.Context, key string) (*models.Forecast, bool) {
	if uc.cache == nil {
		return nil, false
	}
	b, ok, err := uc.cache.GetBytes(ctx, key)
	if err != nil {
		uc.metrics.RecordCache("error")
		uc.log.Warn("forecast cache read failed", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	if !ok {
		uc.metrics.RecordCache("miss")
		return nil, false
	}
	var rec models.Forecast
	if err := json.Unmarshal(b, &rec); err != nil {
		uc.metrics.RecordCache("error")
		return nil, false
	}
	uc.metrics.RecordCache("hit")
	return &rec, true
}

func (uc *ForecastUsecase) remember(ctx context.Context, key string, rec *models.Forecast) {
	if uc.cache == nil || uc.cfg.CacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := uc.cache.SetBytes(ctx, key, b, uc.cfg.CacheTTL); err != nil {
		uc.metrics.RecordCache("error")
		uc.log.Warn("forecast cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

// ForecastSeries forecasts the most recent limit points of a stored series.
func (uc *ForecastUsecase) ForecastSeries(ctx context.Context, p models.SeriesForecastRequest) (*models.Forecast, error) {
	ctx, span := uc.tracer.Start(ctx, "usecase.forecast_series", trace.WithAttributes(tracing.AttrSeriesID.String(p.ID)))
	defer span.End()

	rows, err := uc.seriesRows(ctx, p.ID, p.Limit)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	horizon := p.Horizon
	return uc.Forecast(ctx, models.ForecastRequest{
		Rows:      rows,
		DateCol:   SeriesDateCol,
		TargetCol: SeriesTargetCol,
		Horizon:   &horizon,
		Model:     p.Model,
	})
}

func (uc *ForecastUsecase) seriesRows(ctx context.Context, id string, limit int) ([]models.Row, error) {
	points, err := uc.store.LoadSeries(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("load series %s: %w", id, err)
	}
	return models.PointsToRows(points, SeriesDateCol, SeriesTargetCol), nil
}

// PutSeries parses and stores points for a series.
func (uc *ForecastUsecase) PutSeries(ctx context.Context, req models.PutSeriesRequest) (int, error) {
	points, err := ParsePoints(req.Points)
	if err != nil {
		return 0, err
	}
	if err := uc.store.SaveSeries(ctx, req.ID, points); err != nil {
		return 0, fmt.Errorf("save series %s: %w", req.ID, err)
	}
	uc.log.Info("series stored", applogger.String("series_id", req.ID), applogger.Int("points", len(points)))
	return len(points), nil
}

// ListSeries returns stored series ids.
func (uc *ForecastUsecase) ListSeries(ctx context.Context) ([]string, error) {
	return uc.store.ListSeries(ctx)
}

// ParsePoints accepts YYYY-MM-DD or RFC3339 dates.
func ParsePoints(in []models.PointInput) ([]models.Point, error) {
	out := make([]models.Point, len(in))
	for i, p := range in {
		d, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			d, err = time.Parse(time.RFC3339, p.Date)
			if err != nil {
				return nil, fmt.Errorf("%w: points[%d].date %q is not a date", ErrInvalidPoint, i, p.Date)
			}
		}
		out[i] = models.Point{Date: d, Value: p.Value}
	}
	return out, nil
}

// ErrInvalidPoint rejects unparsable series points.
var ErrInvalidPoint = errors.New("invalid point")
