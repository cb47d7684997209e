package learn

import (
	"context"
	"math"
	"math/rand"
	"sort"
)

type BoostingConfig struct {
	NEstimators    int
	MaxDepth       int
	LearningRate   float64
	Subsample      float64
	ColSample      float64
	Lambda         float64
	MinChildWeight float64
	Seed           int64
}

// DefaultBoostingConfig is the boosted backend's fixed configuration.
func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{
		NEstimators:    100,
		MaxDepth:       6,
		LearningRate:   0.1,
		Subsample:      0.8,
		ColSample:      0.8,
		Lambda:         1,
		MinChildWeight: 1,
		Seed:           42,
	}
}

// EvalSet is scored after every boosting round.
type EvalSet struct {
	X [][]float64
	Y []float64
}

// GradientBoosting is an additive ensemble of regression trees fitted to
// squared-error gradients.
type GradientBoosting struct {
	base  float64
	rate  float64
	trees []*RegressionTree

	// EvalMAE holds the evaluation-set MAE after each round.
	EvalMAE []float64
}

func FitBoosting(ctx context.Context, X [][]float64, y []float64, cfg BoostingConfig, eval *EvalSet) (*GradientBoosting, error) {
	if err := checkShape(X, y); err != nil {
		return nil, err
	}
	n, width := len(y), len(X[0])

	base := 0.0
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	model := &GradientBoosting{base: base, rate: cfg.LearningRate}
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	var evalPred []float64
	if eval != nil && len(eval.Y) > 0 {
		evalPred = make([]float64, len(eval.Y))
		for i := range evalPred {
			evalPred[i] = base
		}
	}

	rowCount := fraction(n, cfg.Subsample)
	colCount := fraction(width, cfg.ColSample)
	treeCfg := TreeConfig{
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MinChildWeight:  cfg.MinChildWeight,
		Lambda:          cfg.Lambda,
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	g := make([]float64, n)
	h := make([]float64, n)
	for round := 0; round < cfg.NEstimators; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range g {
			g[i] = pred[i] - y[i]
			h[i] = 1
		}

		rows := r.Perm(n)[:rowCount]
		sort.Ints(rows)
		cols := r.Perm(width)[:colCount]
		sort.Ints(cols)

		tree := growTree(X, g, h, rows, cols, treeCfg)
		model.trees = append(model.trees, tree)

		for i := range pred {
			pred[i] += cfg.LearningRate * tree.Predict(X[i])
		}
		if evalPred != nil {
			mae := 0.0
			for i := range evalPred {
				evalPred[i] += cfg.LearningRate * tree.Predict(eval.X[i])
				mae += math.Abs(evalPred[i] - eval.Y[i])
			}
			model.EvalMAE = append(model.EvalMAE, mae/float64(len(evalPred)))
		}
	}
	return model, nil
}

func (m *GradientBoosting) Predict(x []float64) float64 {
	out := m.base
	for _, t := range m.trees {
		out += m.rate * t.Predict(x)
	}
	return out
}

func (m *GradientBoosting) Rounds() int {
	return len(m.trees)
}

// fraction returns round(frac*n) clamped to [1, n].
func fraction(n int, frac float64) int {
	if frac <= 0 || frac >= 1 {
		return n
	}
	k := int(math.Round(frac * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}
