package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// TreeNode is one node of a tree stored as a flat slice; children are
// indices into the same slice. Value holds class fractions of the
// training samples that reached the node.
type TreeNode struct {
	FeatureIdx int        `json:"feature_idx"`
	Threshold  float64    `json:"threshold"`
	LeftChild  int        `json:"left_child"`
	RightChild int        `json:"right_child"`
	Value      [2]float64 `json:"value"`
	IsLeaf     bool       `json:"is_leaf"`
}

// TreeParams controls tree growth.
type TreeParams struct {
	// MaxDepth limits depth; 0 means unlimited.
	MaxDepth int `json:"max_depth"`
	// MinSamplesLeaf is the smallest allowed leaf; values below 1 mean 1.
	MinSamplesLeaf int `json:"min_samples_leaf"`
	// MaxFeatures is the number of features tried per split; 0 means all.
	MaxFeatures int `json:"max_features"`
	// Seed drives feature sampling.
	Seed int64 `json:"seed"`
}

// DecisionTree is a CART classifier using Gini impurity. It only exposes
// discrete predictions.
type DecisionTree struct {
	Nodes    []TreeNode `json:"nodes"`
	Features int        `json:"features"`
}

// NewDecisionTree returns an unfitted tree.
func NewDecisionTree() *DecisionTree {
	return &DecisionTree{}
}

// Kind implements Kinded.
func (dt *DecisionTree) Kind() string { return KindDecisionTree }

// Dim returns the number of features the tree was fitted on.
func (dt *DecisionTree) Dim() int { return dt.Features }

// Fit grows the tree on features/labels.
func (dt *DecisionTree) Fit(features [][]float64, labels []int, params TreeParams) error {
	idx := make([]int, len(features))
	for i := range idx {
		idx[i] = i
	}
	return dt.fitIndices(features, labels, idx, params)
}

// fitIndices grows the tree on the rows selected by idx. Duplicated
// indices act as sample weights, which is how bootstrap samples arrive.
func (dt *DecisionTree) fitIndices(features [][]float64, labels []int, idx []int, params TreeParams) error {
	if len(features) == 0 || len(labels) == 0 || len(idx) == 0 {
		return ErrEmptyData
	}
	if len(features) != len(labels) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrDimension, len(features), len(labels))
	}
	if err := validateLabels(labels); err != nil {
		return err
	}
	dim := len(features[0])
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrDimension, i, len(row), dim)
		}
	}

	if params.MinSamplesLeaf < 1 {
		params.MinSamplesLeaf = 1
	}
	if params.MaxFeatures <= 0 || params.MaxFeatures > dim {
		params.MaxFeatures = dim
	}

	b := &treeBuilder{
		x:      features,
		y:      labels,
		params: params,
		dim:    dim,
		rng:    rand.New(rand.NewSource(params.Seed)), //nolint:gosec // reproducible training, not security sensitive
	}
	b.build(append([]int(nil), idx...), 0)

	dt.Nodes = b.nodes
	dt.Features = dim
	return nil
}

// Predict returns the majority class of the leaf x falls into.
func (dt *DecisionTree) Predict(x []float64) (int, error) {
	leaf, err := dt.leaf(x)
	if err != nil {
		return 0, err
	}
	return argmax(leaf.Value[:]), nil
}

// Validate checks that the node graph is walkable, used after decoding.
func (dt *DecisionTree) Validate() error {
	if dt == nil || len(dt.Nodes) == 0 {
		return ErrNotFitted
	}
	for i, n := range dt.Nodes {
		if n.IsLeaf {
			continue
		}
		if n.FeatureIdx < 0 || n.FeatureIdx >= dt.Features {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrInvalidTree, i, n.FeatureIdx)
		}
		// children are always stored after their parent, which rules out cycles
		if n.LeftChild <= i || n.LeftChild >= len(dt.Nodes) || n.RightChild <= i || n.RightChild >= len(dt.Nodes) {
			return fmt.Errorf("%w: node %d has children %d/%d", ErrInvalidTree, i, n.LeftChild, n.RightChild)
		}
	}
	return nil
}

func (dt *DecisionTree) leaf(x []float64) (TreeNode, error) {
	if len(dt.Nodes) == 0 {
		return TreeNode{}, ErrNotFitted
	}
	if len(x) != dt.Features {
		return TreeNode{}, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), dt.Features)
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(x) {
			return TreeNode{}, fmt.Errorf("%w: feature index %d out of range", ErrInvalidTree, node.FeatureIdx)
		}
		if x[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(dt.Nodes) {
			return TreeNode{}, ErrInvalidTree
		}
	}
}

type treeBuilder struct {
	x      [][]float64
	y      []int
	params TreeParams
	dim    int
	rng    *rand.Rand
	nodes  []TreeNode
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

// build appends the subtree for idx and returns its root index.
func (b *treeBuilder) build(idx []int, depth int) int {
	positives := 0
	for _, i := range idx {
		positives += b.y[i]
	}
	n := float64(len(idx))
	p1 := float64(positives) / n

	id := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      [2]float64{1 - p1, p1},
		IsLeaf:     true,
	})

	if positives == 0 || positives == len(idx) {
		return id
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return id
	}
	if len(idx) < 2*b.params.MinSamplesLeaf {
		return id
	}

	best, ok := b.bestSplit(idx, gini(p1))
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	b.nodes[id].IsLeaf = false
	b.nodes[id].FeatureIdx = best.feature
	b.nodes[id].Threshold = best.threshold
	b.nodes[id].LeftChild = l
	b.nodes[id].RightChild = r
	return id
}

// bestSplit tries MaxFeatures randomly chosen features and keeps drawing
// more when none of them yields a valid split.
func (b *treeBuilder) bestSplit(idx []int, parentImpurity float64) (split, bool) {
	order := b.rng.Perm(b.dim)
	best := split{feature: -1, impurity: math.Inf(1)}
	tried := 0
	for _, f := range order {
		if tried >= b.params.MaxFeatures && best.feature >= 0 {
			break
		}
		tried++
		if s, ok := b.splitOn(idx, f); ok && s.impurity < best.impurity {
			best = s
		}
	}
	if best.feature < 0 || best.impurity >= parentImpurity-1e-12 {
		return split{}, false
	}
	return best, true
}

// splitOn scans the sorted values of feature f for the threshold with the
// lowest weighted Gini impurity. Thresholds are midpoints between
// consecutive distinct values.
func (b *treeBuilder) splitOn(idx []int, f int) (split, bool) {
	sorted := append([]int(nil), idx...)
	sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

	total := len(sorted)
	totalPos := 0
	for _, i := range sorted {
		totalPos += b.y[i]
	}

	minLeaf := b.params.MinSamplesLeaf
	best := split{feature: -1, impurity: math.Inf(1)}
	leftPos := 0
	for k := 0; k < total-1; k++ {
		leftPos += b.y[sorted[k]]
		leftN := k + 1
		rightN := total - leftN
		cur, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
		if cur == next || leftN < minLeaf || rightN < minLeaf {
			continue
		}
		lp := float64(leftPos) / float64(leftN)
		rp := float64(totalPos-leftPos) / float64(rightN)
		imp := (float64(leftN)*gini(lp) + float64(rightN)*gini(rp)) / float64(total)
		if imp < best.impurity {
			threshold := cur + (next-cur)/2
			if threshold == next {
				threshold = cur
			}
			best = split{feature: f, threshold: threshold, impurity: imp}
		}
	}
	return best, best.feature >= 0
}

// gini is the binary Gini impurity for a positive-class fraction p.
func gini(p float64) float64 {
	return 1 - p*p - (1-p)*(1-p)
}
