package learn

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type ForestConfig struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64
	// Workers bounds parallel tree construction; 0 means GOMAXPROCS.
	Workers int
}

// DefaultForestConfig is the fallback backend's fixed configuration.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NEstimators:     100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

// RandomForest averages bootstrap-trained regression trees.
type RandomForest struct {
	trees []*RegressionTree
}

// FitForest trains cfg.NEstimators trees on bootstrap samples. Each tree draws
// from its own source seeded from the master seed in tree order, so the result
// does not depend on scheduling.
func FitForest(ctx context.Context, X [][]float64, y []float64, cfg ForestConfig) (*RandomForest, error) {
	if err := checkShape(X, y); err != nil {
		return nil, err
	}
	if cfg.NEstimators <= 0 {
		cfg.NEstimators = 1
	}

	n := len(y)
	g := make([]float64, n)
	h := make([]float64, n)
	for i, v := range y {
		g[i] = -v
		h[i] = 1
	}
	features := make([]int, len(X[0]))
	for i := range features {
		features[i] = i
	}
	treeCfg := TreeConfig{
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: cfg.MinSamplesSplit,
		MinSamplesLeaf:  cfg.MinSamplesLeaf,
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.NEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]*RegressionTree, cfg.NEstimators)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range trees {
		i := i
		eg.Go(guard(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			r := rand.New(rand.NewSource(seeds[i]))
			rows := make([]int, n)
			for j := range rows {
				rows[j] = r.Intn(n)
			}
			trees[i] = growTree(X, g, h, rows, features, treeCfg)
			return nil
		}))
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &RandomForest{trees: trees}, nil
}

func (f *RandomForest) Predict(x []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.trees))
}

func (f *RandomForest) Size() int {
	return len(f.trees)
}

// guard turns a panic in fn into an error so errgroup.Wait reports it.
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("learn: panic: %v", r)
			}
		}()
		return fn()
	}
}
