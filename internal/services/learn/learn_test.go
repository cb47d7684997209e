package learn

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepData is y = 10 when x0 <= 5 else 20, with a noise column.
func stepData(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		x0 := float64(i % 11)
		X[i] = []float64{x0, float64((i * 7) % 5)}
		if x0 <= 5 {
			y[i] = 10
		} else {
			y[i] = 20
		}
	}
	return X, y
}

func linearData(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		X[i] = []float64{float64(i), float64(i % 7)}
		y[i] = 3*float64(i) + 5
	}
	return X, y
}

func TestFitTreeLearnsStep(t *testing.T) {
	X, y := stepData(110)
	tree, err := FitTree(X, y, TreeConfig{MaxDepth: 3, MinSamplesSplit: 2, MinSamplesLeaf: 1})
	require.NoError(t, err)

	assert.Equal(t, 10.0, tree.Predict([]float64{2, 0}))
	assert.Equal(t, 20.0, tree.Predict([]float64{9, 4}))
	assert.LessOrEqual(t, tree.Depth(), 3)
	assert.Equal(t, 2, tree.Leaves())
}

func TestFitTreeRespectsLimits(t *testing.T) {
	X, y := linearData(200)

	stump, err := FitTree(X, y, TreeConfig{MaxDepth: 0, MinSamplesSplit: 2, MinSamplesLeaf: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, stump.Leaves())
	assert.InDelta(t, 3*99.5+5, stump.Predict(X[0]), 1e-9)

	deep, err := FitTree(X, y, TreeConfig{MaxDepth: 10, MinSamplesSplit: 5, MinSamplesLeaf: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, deep.Depth(), 10)
	assert.LessOrEqual(t, deep.Leaves(), 100)
}

func TestFitTreeShapeErrors(t *testing.T) {
	_, err := FitTree(nil, nil, TreeConfig{})
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = FitTree([][]float64{{1}, {2}}, []float64{1}, TreeConfig{})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = FitTree([][]float64{{1}, {2, 3}}, []float64{1, 2}, TreeConfig{})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestForestDeterministic(t *testing.T) {
	X, y := linearData(150)
	cfg := DefaultForestConfig()
	cfg.NEstimators = 20

	a, err := FitForest(context.Background(), X, y, cfg)
	require.NoError(t, err)
	cfg.Workers = 1
	b, err := FitForest(context.Background(), X, y, cfg)
	require.NoError(t, err)

	assert.Equal(t, 20, a.Size())
	for _, row := range X[:30] {
		assert.Equal(t, a.Predict(row), b.Predict(row))
	}
}

func TestForestFitsTrend(t *testing.T) {
	X, y := linearData(150)
	f, err := FitForest(context.Background(), X, y, DefaultForestConfig())
	require.NoError(t, err)

	mae := 0.0
	for i, row := range X {
		mae += math.Abs(f.Predict(row) - y[i])
	}
	mae /= float64(len(X))
	assert.Less(t, mae, 10.0)
}

func TestForestCancelled(t *testing.T) {
	X, y := linearData(50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FitForest(ctx, X, y, DefaultForestConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBoostingImprovesOverRounds(t *testing.T) {
	X, y := linearData(200)
	eval := &EvalSet{X: X[150:], Y: y[150:]}
	m, err := FitBoosting(context.Background(), X[:150], y[:150], DefaultBoostingConfig(), eval)
	require.NoError(t, err)

	assert.Equal(t, 100, m.Rounds())
	require.Len(t, m.EvalMAE, 100)

	trainMAE := 0.0
	for i, row := range X[:150] {
		trainMAE += math.Abs(m.Predict(row) - y[i])
	}
	trainMAE /= 150
	assert.Less(t, trainMAE, 5.0)
	assert.Less(t, m.EvalMAE[99], m.EvalMAE[0])
}

func TestBoostingDeterministic(t *testing.T) {
	X, y := stepData(120)
	a, err := FitBoosting(context.Background(), X, y, DefaultBoostingConfig(), nil)
	require.NoError(t, err)
	b, err := FitBoosting(context.Background(), X, y, DefaultBoostingConfig(), nil)
	require.NoError(t, err)

	for _, row := range X {
		assert.Equal(t, a.Predict(row), b.Predict(row))
	}
	assert.Empty(t, a.EvalMAE)
}

func TestFraction(t *testing.T) {
	assert.Equal(t, 80, fraction(100, 0.8))
	assert.Equal(t, 1, fraction(1, 0.8))
	assert.Equal(t, 2, fraction(2, 0.8))
	assert.Equal(t, 7, fraction(7, 1))
}

func TestScaler(t *testing.T) {
	X := [][]float64{{1, 5}, {3, 5}, {5, 5}}
	s, err := FitScaler(X)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 5}, s.Mean)
	assert.InDelta(t, math.Sqrt(8.0/3.0), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1])

	out, err := s.Transform(X)
	require.NoError(t, err)
	assert.InDelta(t, 0, out[1][0], 1e-12)
	assert.Equal(t, 0.0, out[2][1])

	_, err = s.Transform([][]float64{{1}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestGuardRecoversPanics(t *testing.T) {
	err := guard(func() error { panic("index out of range") })()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index out of range")

	assert.NoError(t, guard(func() error { return nil })())
	assert.ErrorIs(t, guard(func() error { return context.Canceled })(), context.Canceled)
}
