package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
	"github.com/IanaraFer/dataSite-sub000/internal/report"
	"github.com/IanaraFer/dataSite-sub000/internal/repository"
	"github.com/IanaraFer/dataSite-sub000/internal/usecase"
	xhttp "github.com/IanaraFer/dataSite-sub000/pkg/http"
	"github.com/IanaraFer/dataSite-sub000/pkg/http/middleware"
	xlogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ForecastService is what the handler needs from the usecase layer.
type ForecastService interface {
	Forecast(ctx context.Context, req models.ForecastRequest) (*models.Forecast, error)
	ForecastSeries(ctx context.Context, req models.SeriesForecastRequest) (*models.Forecast, error)
	PutSeries(ctx context.Context, req models.PutSeriesRequest) (int, error)
	ListSeries(ctx context.Context) ([]string, error)
	Submit(ctx context.Context, req models.JobRequest) (*models.JobResult, error)
	JobStatus(ctx context.Context, id string) (*models.JobResult, error)
	Availability() models.Availability
}

var _ xhttp.Handler = (*ForecastEchoHandler)(nil)

// ForecastEchoHandler exposes forecasting, series storage and async jobs.
type ForecastEchoHandler struct {
	logger  *xlogger.Logger
	svc     ForecastService
	limiter middleware.Limiter
}

// NewForecastEchoHandler creates the handler; a nil limiter disables rate limiting.
func NewForecastEchoHandler(logger *xlogger.Logger, svc ForecastService, limiter middleware.Limiter) *ForecastEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ForecastEchoHandler{logger: logger, svc: svc, limiter: limiter}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/backends", h.Backends)
	g.GET("/series", h.ListSeries)
	g.PUT("/series/:id", h.PutSeries)

	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter))
	}
	f := g.Group("/forecast", mw...)
	f.POST("", h.Forecast)
	f.GET("/series/:id", h.ForecastSeries)
	f.POST("/report", h.Report)
	f.POST("/jobs", h.SubmitJob)
	f.GET("/jobs/:id", h.JobStatus)
}

// Forecast runs the engine over inline rows.
func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rec, err := h.svc.Forecast(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	return recordResponse(c, rec)
}

// ForecastSeries forecasts a stored series.
func (h *ForecastEchoHandler) ForecastSeries(c echo.Context) error {
	req := &models.SeriesForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rec, err := h.svc.ForecastSeries(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "forecast_series", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return recordResponse(c, rec)
}

// Report renders a forecast as an .xlsx download.
func (h *ForecastEchoHandler) Report(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rec, err := h.svc.Forecast(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "report", err)
	}
	if rec.Failed() {
		return xhttp.UnprocessableResponse(c, rec)
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, rec); err != nil {
		return h.fail(c, "report", err)
	}
	name := fmt.Sprintf("forecast-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	return xhttp.AttachmentResponse(c, name, report.ContentType, buf.Bytes())
}

func (h *ForecastEchoHandler) PutSeries(c echo.Context) error {
	req := &models.PutSeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	n, err := h.svc.PutSeries(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "put_series", err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"id": req.ID, "points": n})
}

func (h *ForecastEchoHandler) ListSeries(c echo.Context) error {
	ids, err := h.svc.ListSeries(c.Request().Context())
	if err != nil {
		return h.fail(c, "list_series", err)
	}
	return xhttp.ListResponse(c, ids, int64(len(ids)))
}

// SubmitJob queues an async forecast and answers 202 with the job id.
func (h *ForecastEchoHandler) SubmitJob(c echo.Context) error {
	req := &models.JobRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	status, err := h.svc.Submit(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "submit_job", err)
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/forecast/jobs/"+status.ID)
	return xhttp.AcceptedResponse(c, map[string]interface{}{"job_id": status.ID, "status": status.Status})
}

func (h *ForecastEchoHandler) JobStatus(c echo.Context) error {
	req := &models.JobStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.JobStatus(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "job_status", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Backends advertises which forecasting backends this process can run.
func (h *ForecastEchoHandler) Backends(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Availability())
}

// recordResponse answers 200 with a forecast record, or 422 with an error record.
func recordResponse(c echo.Context, rec *models.Forecast) error {
	if rec.Failed() {
		return xhttp.UnprocessableResponse(c, rec)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *ForecastEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrTooManyRows), errors.Is(err, usecase.ErrInvalidPoint):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrSeriesNotFound), errors.Is(err, usecase.ErrJobNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, repository.ErrJobsDisabled):
		return xhttp.ServiceUnavailableError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "forecast timed out", http.StatusGatewayTimeout).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
