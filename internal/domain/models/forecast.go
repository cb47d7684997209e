package models

import (
	"encoding/json"
	"time"
)

// BackendTag identifies one concrete forecasting method.
type BackendTag string

const (
	BackendDecomposition BackendTag = "decomposition"
	BackendBoosted       BackendTag = "boosted"
	BackendForest        BackendTag = "forest"
)

// BackendOrder is the fixed order used whenever several backends are trained or combined.
var BackendOrder = []BackendTag{BackendDecomposition, BackendBoosted, BackendForest}

// ModelChoice is the caller's backend selection.
type ModelChoice string

const (
	ChoiceAuto          ModelChoice = "auto"
	ChoiceDecomposition ModelChoice = "decomposition"
	ChoiceBoosted       ModelChoice = "boosted"
	ChoiceForest        ModelChoice = "forest"
	ChoiceEnsemble      ModelChoice = "ensemble"
)

// ForecastInput is the argument set of one forecast call.
type ForecastInput struct {
	Rows      []Row
	DateCol   string
	TargetCol string
	Horizon   int
	Choice    ModelChoice
}

// Availability advertises which backends can be used in this process.
type Availability struct {
	Decomposition bool `json:"decomposition"`
	Boosted       bool `json:"boosted"`
	Forest        bool `json:"forest"`
}

// Has reports whether the backend with the given tag is available.
func (a Availability) Has(tag BackendTag) bool {
	switch tag {
	case BackendDecomposition:
		return a.Decomposition
	case BackendBoosted:
		return a.Boosted
	case BackendForest:
		return a.Forest
	}
	return false
}

// Performance holds holdout validation metrics. MAPE is expressed in percent.
type Performance struct {
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2_score"`
	MAPE float64 `json:"mape"`
	Note string  `json:"note,omitempty"`
}

type Intervals struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

type Insights struct {
	GrowthPrediction float64 `json:"growth_prediction"`
	ForecastAvg      float64 `json:"forecast_avg"`
	CurrentAvg       float64 `json:"current_avg"`
	Confidence       string  `json:"confidence"` // "High" | "Medium" | "Low"
	ModelUsed        string  `json:"model_used"`
	Note             string  `json:"note,omitempty"`
}

// Forecast is either a forecast record or, when Error is set, an error record.
type Forecast struct {
	Backend             string             `json:"backend,omitempty"`
	Performance         Performance        `json:"model_performance"`
	FutureDates         []time.Time        `json:"future_dates"`
	FutureValues        []float64          `json:"future_values"`
	ConfidenceIntervals *Intervals         `json:"confidence_intervals,omitempty"`
	Insights            Insights           `json:"insights"`
	IndividualForecasts []Forecast         `json:"individual_forecasts,omitempty"`
	Weights             map[string]float64 `json:"weights,omitempty"`
	Error               string             `json:"error,omitempty"`
}

// ErrorRecord builds a record carrying only an error message.
func ErrorRecord(msg string) *Forecast {
	return &Forecast{Error: msg}
}

// Failed reports whether f is an error record.
func (f *Forecast) Failed() bool {
	return f != nil && f.Error != ""
}

// MarshalJSON renders error records as {"error": "..."} only.
func (f Forecast) MarshalJSON() ([]byte, error) {
	if f.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{f.Error})
	}
	type plain Forecast
	return json.Marshal(plain(f))
}
