package model

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
)

// Default forest hyperparameters.
const (
	DefaultNEstimators = 250
	DefaultMaxDepth    = 18
)

// ForestConfig configures a RandomForest.
type ForestConfig struct {
	NEstimators int
	MaxDepth    int
	// MinSamplesLeaf stops splitting nodes holding fewer than twice this many
	// distinct rows.
	MinSamplesLeaf int
	// BalancedClassWeights weights each class by n / (2 * count), compensating
	// for the minority delayed class.
	BalancedClassWeights bool
}

// DefaultForestConfig returns the production hyperparameters.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NEstimators:          DefaultNEstimators,
		MaxDepth:             DefaultMaxDepth,
		MinSamplesLeaf:       1,
		BalancedClassWeights: true,
	}
}

// EncodedRow is one encoded training or inference row. Hot holds the active
// indicator columns in ascending order; Num holds the scaled numeric values,
// which occupy the columns after the indicators.
type EncodedRow struct {
	Hot []int32
	Num []float64
}

// Node is a decision-tree node. Leaves have Feature -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64 // weighted share of class 1
}

// Tree is a binary CART classifier stored as a flat node slice.
type Tree struct {
	Nodes []Node
}

// RandomForest is a bagged ensemble of gini trees. Each tree sees a bootstrap
// sample and considers sqrt(d) random columns per split.
type RandomForest struct {
	Config      ForestConfig
	HotWidth    int
	NumWidth    int
	Trees       []Tree
	Importances []float64 // normalized impurity decrease per column
}

// NFeatures is the encoded width: indicator columns plus numeric columns.
func (f *RandomForest) NFeatures() int { return f.HotWidth + f.NumWidth }

// ClassWeights returns the per-class sample weights the forest trains with.
func ClassWeights(labels []int, balanced bool) [2]float64 {
	if !balanced {
		return [2]float64{1, 1}
	}
	var counts [2]float64
	for _, y := range labels {
		counts[y]++
	}
	n := float64(len(labels))
	var w [2]float64
	for c := range w {
		if counts[c] > 0 {
			w[c] = n / (2 * counts[c])
		}
	}
	return w
}

// FitForest trains a forest on encoded samples with binary labels.
func FitForest(x []EncodedRow, y []int, hotWidth, numWidth int, cfg ForestConfig, rng *rand.Rand) (*RandomForest, error) {
	if len(x) == 0 {
		return nil, errors.New("random forest: no training samples")
	}
	if len(x) != len(y) {
		return nil, errors.Newf("random forest: %d samples but %d labels", len(x), len(y))
	}
	if cfg.NEstimators <= 0 {
		return nil, errors.Newf("random forest: n_estimators must be positive, got %d", cfg.NEstimators)
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}

	f := &RandomForest{
		Config:      cfg,
		HotWidth:    hotWidth,
		NumWidth:    numWidth,
		Trees:       make([]Tree, cfg.NEstimators),
		Importances: make([]float64, hotWidth+numWidth),
	}
	classW := ClassWeights(y, cfg.BalancedClassWeights)

	d := f.NFeatures()
	mtry := max(1, int(math.Sqrt(float64(d))))

	for t := range f.Trees {
		// Bootstrap counts act as sample weights.
		w := make([]float64, len(x))
		for range len(x) {
			w[rng.IntN(len(x))]++
		}
		idx := make([]int, 0, len(x))
		for i, c := range w {
			if c > 0 {
				w[i] = c * classW[y[i]]
				idx = append(idx, i)
			}
		}

		b := &treeBuilder{
			forest: f,
			x:      x,
			y:      y,
			w:      w,
			rng:    rng,
			mtry:   mtry,
			cols:   identity(d),
			mark:   make([]int, d),
			imp:    make([]float64, d),
		}
		b.build(idx, 0)
		f.Trees[t] = Tree{Nodes: b.nodes}
		floats.Add(f.Importances, b.imp)
	}

	if total := floats.Sum(f.Importances); total > 0 {
		floats.Scale(1/total, f.Importances)
	}
	return f, nil
}

// PredictProba returns the mean class-1 probability across trees.
func (f *RandomForest) PredictProba(s EncodedRow) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].predict(f.HotWidth, s)
	}
	return sum / float64(len(f.Trees))
}

func (t *Tree) predict(hotWidth int, s EncodedRow) float64 {
	n := 0
	for {
		node := &t.Nodes[n]
		if node.Feature < 0 {
			return node.Value
		}
		if value(hotWidth, s, node.Feature) <= node.Threshold {
			n = node.Left
		} else {
			n = node.Right
		}
	}
}

// value reads encoded column j of a sample.
func value(hotWidth int, s EncodedRow, j int) float64 {
	if j >= hotWidth {
		return s.Num[j-hotWidth]
	}
	if _, ok := slices.BinarySearch(s.Hot, int32(j)); ok {
		return 1
	}
	return 0
}

type treeBuilder struct {
	forest *RandomForest
	x      []EncodedRow
	y      []int
	w      []float64
	rng    *rand.Rand
	mtry   int
	cols   []int
	mark   []int // candidate position+1 for indicator columns, 0 otherwise
	imp    []float64
	nodes  []Node
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *treeBuilder) build(idx []int, depth int) int {
	var tot [2]float64
	for _, i := range idx {
		tot[b.y[i]] += b.w[i]
	}
	weight := tot[0] + tot[1]

	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: share(tot)})

	if depth >= b.forest.Config.MaxDepth && b.forest.Config.MaxDepth > 0 {
		return id
	}
	if tot[0] == 0 || tot[1] == 0 || len(idx) < 2*b.forest.Config.MinSamplesLeaf {
		return id
	}

	best, ok := b.bestSplit(idx, tot)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if value(b.forest.HotWidth, b.x[i], best.feature) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}

	b.imp[best.feature] += weight * best.gain
	b.nodes[id].Feature = best.feature
	b.nodes[id].Threshold = best.threshold
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit evaluates mtry random columns and returns the split with the
// largest weighted gini decrease.
func (b *treeBuilder) bestSplit(idx []int, tot [2]float64) (split, bool) {
	d := len(b.cols)
	for i := 0; i < b.mtry && i < d; i++ {
		j := i + b.rng.IntN(d-i)
		b.cols[i], b.cols[j] = b.cols[j], b.cols[i]
	}
	candidates := b.cols[:min(b.mtry, d)]

	parent := gini(tot)
	best := split{gain: 1e-12}
	found := false

	var hot []int
	for _, c := range candidates {
		if c < b.forest.HotWidth {
			hot = append(hot, c)
			continue
		}
		if s, ok := b.numericSplit(idx, c, tot, parent); ok && s.gain > best.gain {
			best, found = s, true
		}
	}
	if s, ok := b.indicatorSplit(idx, hot, tot, parent); ok && s.gain > best.gain {
		best, found = s, true
	}
	return best, found
}

// indicatorSplit scores all candidate indicator columns in one pass over the
// node's rows. Rows with the category go right (value 1 > 0.5).
func (b *treeBuilder) indicatorSplit(idx []int, cols []int, tot [2]float64, parent float64) (split, bool) {
	if len(cols) == 0 {
		return split{}, false
	}
	for k, c := range cols {
		b.mark[c] = k + 1
	}
	defer func() {
		for _, c := range cols {
			b.mark[c] = 0
		}
	}()

	active := make([][2]float64, len(cols))
	for _, i := range idx {
		for _, h := range b.x[i].Hot {
			if k := b.mark[h]; k > 0 {
				active[k-1][b.y[i]] += b.w[i]
			}
		}
	}

	best := split{}
	found := false
	for k, c := range cols {
		right := active[k]
		left := [2]float64{tot[0] - right[0], tot[1] - right[1]}
		g, ok := b.gain(left, right, tot, parent)
		if ok && (!found || g > best.gain) {
			best = split{feature: c, threshold: 0.5, gain: g}
			found = true
		}
	}
	return best, found
}

type scored struct {
	v float64
	y int
	w float64
}

// numericSplit sorts the node's rows by column c and scans every boundary
// between distinct values.
func (b *treeBuilder) numericSplit(idx []int, c int, tot [2]float64, parent float64) (split, bool) {
	col := c - b.forest.HotWidth
	vals := make([]scored, len(idx))
	for k, i := range idx {
		vals[k] = scored{v: b.x[i].Num[col], y: b.y[i], w: b.w[i]}
	}
	slices.SortFunc(vals, func(p, q scored) int {
		switch {
		case p.v < q.v:
			return -1
		case p.v > q.v:
			return 1
		}
		return 0
	})

	best := split{}
	found := false
	var left [2]float64
	for k := 0; k < len(vals)-1; k++ {
		left[vals[k].y] += vals[k].w
		if vals[k].v == vals[k+1].v {
			continue
		}
		right := [2]float64{tot[0] - left[0], tot[1] - left[1]}
		g, ok := b.gain(left, right, tot, parent)
		if ok && (!found || g > best.gain) {
			best = split{feature: c, threshold: (vals[k].v + vals[k+1].v) / 2, gain: g}
			found = true
		}
	}
	return best, found
}

// gain is the weighted gini decrease of a split, or false when either side is
// empty.
func (b *treeBuilder) gain(left, right, tot [2]float64, parent float64) (float64, bool) {
	wl, wr := left[0]+left[1], right[0]+right[1]
	wt := tot[0] + tot[1]
	if wl <= 0 || wr <= 0 {
		return 0, false
	}
	return parent - (wl/wt)*gini(left) - (wr/wt)*gini(right), true
}

func gini(c [2]float64) float64 {
	t := c[0] + c[1]
	if t == 0 {
		return 0
	}
	p0, p1 := c[0]/t, c[1]/t
	return 1 - p0*p0 - p1*p1
}

func share(c [2]float64) float64 {
	t := c[0] + c[1]
	if t == 0 {
		return 0
	}
	return c[1] / t
}
