package models

// Requests for forecast HTTP endpoints and async jobs.

type ForecastRequest struct {
	Rows      []Row  `json:"rows" validate:"required,min=1"`
	DateCol   string `json:"date_col" default:"date" validate:"required"`
	TargetCol string `json:"target_col" default:"value" validate:"required"`
	Horizon   *int   `json:"horizon" default:"30" validate:"required,gte=0,lte=730"`
	Model     string `json:"model" default:"auto" validate:"oneof=auto decomposition boosted forest ensemble"`
}

// Input converts the request into engine arguments. Defaults must already be applied.
func (r ForecastRequest) Input() ForecastInput {
	horizon := 0
	if r.Horizon != nil {
		horizon = *r.Horizon
	}
	return ForecastInput{
		Rows:      r.Rows,
		DateCol:   r.DateCol,
		TargetCol: r.TargetCol,
		Horizon:   horizon,
		Choice:    ModelChoice(r.Model),
	}
}

// SeriesForecastRequest forecasts a stored series. A zero horizon in the query string falls back to the default.
type SeriesForecastRequest struct {
	ID      string `param:"id" validate:"required"`
	Horizon int    `query:"horizon" default:"30" validate:"gte=1,lte=730"`
	Model   string `query:"model" default:"auto" validate:"oneof=auto decomposition boosted forest ensemble"`
	Limit   int    `query:"limit" default:"730" validate:"gte=2,lte=20000"`
}

type PointInput struct {
	Date  string  `json:"date" validate:"required"`
	Value float64 `json:"value"`
}

type PutSeriesRequest struct {
	ID     string       `param:"id" validate:"required"`
	Points []PointInput `json:"points" validate:"required,min=1,dive"`
}

// JobRequest submits an async forecast either over inline rows or over a stored series.
type JobRequest struct {
	SeriesID  string `json:"series_id,omitempty" validate:"required_without=Rows"`
	Rows      []Row  `json:"rows,omitempty" validate:"required_without=SeriesID"`
	Limit     int    `json:"limit,omitempty" default:"730" validate:"gte=2,lte=20000"`
	DateCol   string `json:"date_col" default:"date" validate:"required"`
	TargetCol string `json:"target_col" default:"value" validate:"required"`
	Horizon   *int   `json:"horizon" default:"30" validate:"required,gte=0,lte=730"`
	Model     string `json:"model" default:"auto" validate:"oneof=auto decomposition boosted forest ensemble"`
}

func (r JobRequest) Forecast() ForecastRequest {
	return ForecastRequest{
		Rows:      r.Rows,
		DateCol:   r.DateCol,
		TargetCol: r.TargetCol,
		Horizon:   r.Horizon,
		Model:     r.Model,
	}
}

type JobStatusRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}
