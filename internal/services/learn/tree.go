// Package learn implements the tabular regressors used by the forecasting
// backends: CART regression trees, a bagged random forest and second-order
// gradient boosting. All randomness comes from explicitly seeded sources.
package learn

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNoSamples     = errors.New("no training samples")
	ErrShapeMismatch = errors.New("feature matrix and target differ in length")
)

// TreeConfig bounds tree growth.
type TreeConfig struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// MinChildWeight is the minimum hessian sum per child (1 per sample for squared error).
	MinChildWeight float64
	// Lambda is the L2 penalty on leaf weights.
	Lambda float64
}

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
	leaf      bool
}

// RegressionTree is a fitted binary regression tree stored as a flat node slice.
type RegressionTree struct {
	nodes []node
}

// Predict routes one row to a leaf. Rows go left when x[feature] <= threshold.
func (t *RegressionTree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.leaf {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// Depth returns the depth of the deepest leaf (a single leaf has depth 0).
func (t *RegressionTree) Depth() int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := t.nodes[i]
		if n.leaf {
			return d
		}
		l, r := walk(n.left, d+1), walk(n.right, d+1)
		if l > r {
			return l
		}
		return r
	}
	return walk(0, 0)
}

// Leaves counts terminal nodes.
func (t *RegressionTree) Leaves() int {
	c := 0
	for _, n := range t.nodes {
		if n.leaf {
			c++
		}
	}
	return c
}

// growTree fits a tree on gradient/hessian statistics. With g = -y, h = 1 and
// Lambda = 0 the split gain is the squared-error reduction and leaf values are
// sample means, which is plain CART.
func growTree(X [][]float64, g, h []float64, rows, features []int, cfg TreeConfig) *RegressionTree {
	b := &treeBuilder{X: X, g: g, h: h, features: features, cfg: cfg}
	b.grow(rows, 0)
	return &RegressionTree{nodes: b.nodes}
}

type treeBuilder struct {
	X        [][]float64
	g, h     []float64
	features []int
	cfg      TreeConfig
	nodes    []node
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	pos       int // rows[:pos] go left after sorting by feature
}

func (b *treeBuilder) leafValue(G, H float64) float64 {
	return -G / (H + b.cfg.Lambda)
}

func (b *treeBuilder) score(G, H float64) float64 {
	return G * G / (H + b.cfg.Lambda)
}

func (b *treeBuilder) grow(rows []int, depth int) int {
	var G, H float64
	for _, r := range rows {
		G += b.g[r]
		H += b.h[r]
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, node{leaf: true, value: b.leafValue(G, H)})

	if depth >= b.cfg.MaxDepth || len(rows) < b.cfg.MinSamplesSplit || len(rows) < 2*b.cfg.MinSamplesLeaf {
		return idx
	}

	best, ok := b.bestSplit(rows, G, H)
	if !ok {
		return idx
	}

	sorted := b.sortedBy(rows, best.feature)
	left := append([]int(nil), sorted[:best.pos]...)
	right := append([]int(nil), sorted[best.pos:]...)

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = node{feature: best.feature, threshold: best.threshold, left: l, right: r}
	return idx
}

func (b *treeBuilder) sortedBy(rows []int, feature int) []int {
	out := append([]int(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return b.X[out[i]][feature] < b.X[out[j]][feature]
	})
	return out
}

// bestSplit scans features from the last column to the first and thresholds in
// ascending order. Only a strictly better gain replaces the incumbent, so among
// equal splits the later column wins.
func (b *treeBuilder) bestSplit(rows []int, G, H float64) (split, bool) {
	parent := b.score(G, H)
	best := split{gain: 0}
	found := false
	minLeaf := b.cfg.MinSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	for k := len(b.features) - 1; k >= 0; k-- {
		f := b.features[k]
		sorted := b.sortedBy(rows, f)
		var gl, hl float64
		for i := 0; i < len(sorted)-1; i++ {
			r := sorted[i]
			gl += b.g[r]
			hl += b.h[r]
			cur, next := b.X[r][f], b.X[sorted[i+1]][f]
			if cur == next {
				continue
			}
			nl := i + 1
			if nl < minLeaf || len(sorted)-nl < minLeaf {
				continue
			}
			gr, hr := G-gl, H-hl
			if hl < b.cfg.MinChildWeight || hr < b.cfg.MinChildWeight {
				continue
			}
			gain := b.score(gl, hl) + b.score(gr, hr) - parent
			if gain > best.gain+1e-12 {
				threshold := cur + (next-cur)/2
				if threshold >= next {
					threshold = cur
				}
				best = split{feature: f, threshold: threshold, gain: gain, pos: nl}
				found = true
			}
		}
	}
	return best, found
}

func checkShape(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return ErrNoSamples
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return nil
}

// FitTree fits a single CART regression tree on all rows and features.
func FitTree(X [][]float64, y []float64, cfg TreeConfig) (*RegressionTree, error) {
	if err := checkShape(X, y); err != nil {
		return nil, err
	}
	g := make([]float64, len(y))
	h := make([]float64, len(y))
	rows := make([]int, len(y))
	for i, v := range y {
		g[i] = -v
		h[i] = 1
		rows[i] = i
	}
	features := make([]int, len(X[0]))
	for i := range features {
		features[i] = i
	}
	cfg.Lambda = 0
	return growTree(X, g, h, rows, features, cfg), nil
}
