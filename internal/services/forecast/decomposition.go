package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/services/features"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DecompositionConfig configures the additive trend + seasonality model.
type DecompositionConfig struct {
	NChangepoints         int
	ChangepointRange      float64
	ChangepointPriorScale float64
	SeasonalityPriorScale float64
	HolidaysPriorScale    float64
	TrendPriorScale       float64
	IntervalWidth         float64
	DailyOrder            int
	WeeklyOrder           int
	YearlyOrder           int
	// ObservationVariance is the fixed noise variance on the scaled series.
	// Prior penalties are ObservationVariance/scale², so they do not vanish
	// when the in-sample fit is close to exact.
	ObservationVariance float64
	// YearlyMinSpan is the training span in days below which the yearly
	// Fourier terms are left out of the design.
	YearlyMinSpan float64
}

func DefaultDecompositionConfig() DecompositionConfig {
	return DecompositionConfig{
		NChangepoints:         25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		HolidaysPriorScale:    10,
		TrendPriorScale:       5,
		IntervalWidth:         0.8,
		DailyOrder:            4,
		WeeklyOrder:           3,
		YearlyOrder:           10,
		ObservationVariance:   0.25,
		YearlyMinSpan:         365,
	}
}

// DecompositionBackend fits y = trend + weekly + yearly (+ daily) by maximum a
// posteriori least squares: Gaussian priors on the coefficients become ridge
// penalties against a fixed observation variance.
type DecompositionBackend struct {
	cfg DecompositionConfig
}

func NewDecompositionBackend() *DecompositionBackend {
	return &DecompositionBackend{cfg: DefaultDecompositionConfig()}
}

func (b *DecompositionBackend) Tag() models.BackendTag {
	return models.BackendDecomposition
}

func (b *DecompositionBackend) Params() map[string]any {
	return map[string]any{
		"daily_seasonality":       true,
		"weekly_seasonality":      true,
		"yearly_seasonality":      true,
		"changepoint_prior_scale": b.cfg.ChangepointPriorScale,
		"seasonality_prior_scale": b.cfg.SeasonalityPriorScale,
		"holidays_prior_scale":    b.cfg.HolidaysPriorScale,
		"changepoint_range":       b.cfg.ChangepointRange,
		"interval_width":          b.cfg.IntervalWidth,
	}
}

func (b *DecompositionBackend) Fit(ctx context.Context, tbl *features.Table, trainEnd int) (*Fitted, error) {
	if trainEnd < MinTrainRows {
		return nil, fmt.Errorf("%w: %d < %d", errTooFewRows, trainEnd, MinTrainRows)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := fitDecomposition(tbl.Dates[:trainEnd], tbl.Target[:trainEnd], b.cfg)
	if err != nil {
		return nil, err
	}
	if trainEnd < tbl.Len() {
		m.widenToHoldout(tbl.Dates[trainEnd:], tbl.Target[trainEnd:])
	}

	params := b.Params()
	params["yearly_seasonality"] = m.yearly
	params["daily_seasonality"] = m.daily
	return &Fitted{
		Tag:       models.BackendDecomposition,
		Params:    params,
		TrainRows: trainEnd,
		dates:     m,
	}, nil
}

type decompositionModel struct {
	cfg          DecompositionConfig
	start        float64 // first training day, days since epoch
	span         float64 // training range in days
	lastTrain    float64
	yScale       float64
	changepoints []float64 // on the scaled time axis
	daily        bool
	yearly       bool
	beta         []float64
	sigma        float64 // residual std in target units
	z            float64
	trainN       int
}

const dayLength = 24 * time.Hour

func epochDays(t time.Time) float64 {
	return float64(t.Unix()) / dayLength.Seconds()
}

func fitDecomposition(dates []time.Time, y []float64, cfg DecompositionConfig) (*decompositionModel, error) {
	n := len(y)
	m := &decompositionModel{cfg: cfg, trainN: n}
	m.start = epochDays(dates[0])
	m.lastTrain = epochDays(dates[n-1])
	m.span = m.lastTrain - m.start
	if m.span <= 0 {
		m.span = 1
	}

	m.yScale = 0
	for _, v := range y {
		m.yScale = math.Max(m.yScale, math.Abs(v))
	}
	if m.yScale == 0 {
		m.yScale = 1
	}

	// Changepoints sit on observed dates, evenly spaced over the first
	// ChangepointRange of the history.
	histSize := int(math.Floor(float64(n) * cfg.ChangepointRange))
	nCP := cfg.NChangepoints
	if nCP+1 > histSize {
		nCP = histSize - 1
	}
	for i := 1; i <= nCP; i++ {
		idx := int(math.Round(float64(i) * float64(histSize-1) / float64(nCP)))
		m.changepoints = append(m.changepoints, m.scaledTime(epochDays(dates[idx])))
	}

	for _, d := range dates {
		if d.Sub(d.Truncate(dayLength)) != 0 {
			m.daily = true
			break
		}
	}
	// Under a full cycle the yearly terms are collinear with the trend and
	// extrapolate freely.
	m.yearly = cfg.YearlyOrder > 0 && m.span >= cfg.YearlyMinSpan

	penalty := m.priorPrecision()
	p := len(penalty)
	X := mat.NewDense(n, p, nil)
	ys := mat.NewVecDense(n, nil)
	for i, d := range dates {
		X.SetRow(i, m.design(epochDays(d)))
		ys.SetVec(i, y[i]/m.yScale)
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())
	var xty mat.VecDense
	xty.MulVec(X.T(), ys)

	beta, err := solveRidge(&xtx, &xty, penalty, cfg.ObservationVariance)
	if err != nil {
		return nil, err
	}
	var fitted mat.VecDense
	fitted.MulVec(X, beta)
	rss := 0.0
	for i := 0; i < n; i++ {
		r := ys.AtVec(i) - fitted.AtVec(i)
		rss += r * r
	}
	m.sigma = math.Sqrt(rss/float64(n)) * m.yScale

	m.beta = make([]float64, p)
	for j := range m.beta {
		m.beta[j] = beta.AtVec(j)
	}
	m.z = distuv.UnitNormal.Quantile(0.5 + cfg.IntervalWidth/2)
	return m, nil
}

// solveRidge solves (XᵀX + noise·diag(precision)) β = Xᵀy.
func solveRidge(xtx *mat.SymDense, xty *mat.VecDense, precision []float64, noise float64) (*mat.VecDense, error) {
	p := len(precision)
	a := mat.NewSymDense(p, nil)
	a.CopySym(xtx)
	for j, prec := range precision {
		a.SetSym(j, j, a.At(j, j)+noise*prec+1e-10)
	}

	beta := mat.NewVecDense(p, nil)
	var chol mat.Cholesky
	if chol.Factorize(a) {
		if err := chol.SolveVecTo(beta, xty); err == nil {
			return beta, nil
		}
	}
	if err := beta.SolveVec(a, xty); err != nil {
		return nil, fmt.Errorf("decomposition solve: %w", err)
	}
	return beta, nil
}

func (m *decompositionModel) scaledTime(day float64) float64 {
	return (day - m.start) / m.span
}

// priorPrecision returns 1/scale² per design column, in design order.
func (m *decompositionModel) priorPrecision() []float64 {
	trend := 1 / (m.cfg.TrendPriorScale * m.cfg.TrendPriorScale)
	cp := 1 / (m.cfg.ChangepointPriorScale * m.cfg.ChangepointPriorScale)
	season := 1 / (m.cfg.SeasonalityPriorScale * m.cfg.SeasonalityPriorScale)

	out := []float64{trend, trend}
	for range m.changepoints {
		out = append(out, cp)
	}
	terms := 2 * m.cfg.WeeklyOrder
	if m.yearly {
		terms += 2 * m.cfg.YearlyOrder
	}
	if m.daily {
		terms += 2 * m.cfg.DailyOrder
	}
	for i := 0; i < terms; i++ {
		out = append(out, season)
	}
	return out
}

// design builds one row: intercept, slope, changepoint hinges, then Fourier
// terms for weekly, then yearly and daily seasonality when enabled.
func (m *decompositionModel) design(day float64) []float64 {
	t := m.scaledTime(day)
	row := []float64{1, t}
	for _, c := range m.changepoints {
		row = append(row, math.Max(0, t-c))
	}
	row = fourier(row, day, 7, m.cfg.WeeklyOrder)
	if m.yearly {
		row = fourier(row, day, 365.25, m.cfg.YearlyOrder)
	}
	if m.daily {
		row = fourier(row, day, 1, m.cfg.DailyOrder)
	}
	return row
}

func fourier(row []float64, day, period float64, order int) []float64 {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * day / period
		row = append(row, math.Sin(x), math.Cos(x))
	}
	return row
}

// widenToHoldout raises sigma to the root mean squared error on rows the
// model was not fitted on, when that exceeds the in-sample residual.
func (m *decompositionModel) widenToHoldout(dates []time.Time, actual []float64) {
	point, _, _ := m.PredictDates(dates)
	sse := 0.0
	for i, p := range point {
		r := actual[i] - p
		sse += r * r
	}
	if rmse := math.Sqrt(sse / float64(len(point))); rmse > m.sigma {
		m.sigma = rmse
	}
}

// PredictDates returns point forecasts with intervals that widen with the
// distance past the end of training.
func (m *decompositionModel) PredictDates(dates []time.Time) (point, lower, upper []float64) {
	point = make([]float64, len(dates))
	lower = make([]float64, len(dates))
	upper = make([]float64, len(dates))
	for i, d := range dates {
		day := epochDays(d)
		row := m.design(day)
		yhat := 0.0
		for j, v := range row {
			yhat += v * m.beta[j]
		}
		yhat *= m.yScale

		ahead := math.Max(0, day-m.lastTrain)
		w := m.z * m.sigma * math.Sqrt(1+ahead/float64(m.trainN))
		point[i] = yhat
		lower[i] = yhat - w
		upper[i] = yhat + w
	}
	return point, lower, upper
}

var (
	_ Backend       = (*DecompositionBackend)(nil)
	_ DatePredictor = (*decompositionModel)(nil)
)
