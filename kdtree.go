package dbscan

import (
	"math"
	"sort"
)

// boundSlack widens pruning thresholds so that a node bound computed with
// different rounding than Metric.Distance never prunes a point the
// brute-force index would report.
const boundSlack = 1e-9

// NodeData describes a single node in the KD-tree.
type NodeData struct {
	IdxStart, IdxEnd int
	IsLeaf           bool
	built            bool
}

// KDTree is a KD-tree spatial index for nearest-neighbor and radius
// queries. Points are stored in a flat row-major array and reordered
// internally via an index permutation array.
//
// The tree is stored as a binary tree in array form:
//   - node i has children at 2*i+1 and 2*i+2
//   - node bounds are stored as min/max per dimension per node
type KDTree struct {
	data     []float64 // flat row-major point data (n * dims), original order
	n        int       // number of points
	dims     int       // dimensionality
	leafSize int
	metric   DistanceMetric
	idxArray []int      // permutation: tree-order position → original index
	nodes    []NodeData // one entry per tree slot; unused slots have built == false
	// nodeBoundsMin[node*dims + j] = min value of feature j in node
	nodeBoundsMin []float64
	// nodeBoundsMax[node*dims + j] = max value of feature j in node
	nodeBoundsMax []float64
	numNodes      int
}

// NewKDTree builds a KD-tree from flat row-major data with n points of
// dimensionality dims. leafSize controls the max points per leaf node.
func NewKDTree(data []float64, n, dims int, metric DistanceMetric, leafSize int) *KDTree {
	if leafSize < 1 {
		leafSize = 1
	}

	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)
	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	t := &KDTree{
		data:     dataCopy,
		n:        n,
		dims:     dims,
		leafSize: leafSize,
		metric:   metric,
		idxArray: idxArray,
	}
	if n > 0 {
		t.buildNode(0, 0, n)
	}
	return t
}

// ensureNode grows the node arrays so that nodeID is addressable.
func (t *KDTree) ensureNode(nodeID int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.nodeBoundsMin = append(t.nodeBoundsMin, make([]float64, t.dims)...)
		t.nodeBoundsMax = append(t.nodeBoundsMax, make([]float64, t.dims)...)
	}
}

// buildNode recursively builds the tree for points in idxArray[start:end].
func (t *KDTree) buildNode(nodeID, start, end int) {
	t.ensureNode(nodeID)
	t.computeNodeBounds(nodeID, start, end)
	t.numNodes++

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true, built: true}
		return
	}

	// Split along the dimension with greatest spread.
	splitDim := 0
	maxSpread := -1.0
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		if spread := t.nodeBoundsMax[base+d] - t.nodeBoundsMin[base+d]; spread > maxSpread {
			maxSpread = spread
			splitDim = d
		}
	}

	t.sortByDimension(start, end, splitDim)
	mid := start + count/2

	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, built: true}
	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeNodeBounds sets the bounding box of the node from its points.
func (t *KDTree) computeNodeBounds(nodeID, start, end int) {
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		t.nodeBoundsMin[base+d] = math.Inf(1)
		t.nodeBoundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		ptIdx := t.idxArray[i]
		for d := 0; d < t.dims; d++ {
			v := t.data[ptIdx*t.dims+d]
			if v < t.nodeBoundsMin[base+d] {
				t.nodeBoundsMin[base+d] = v
			}
			if v > t.nodeBoundsMax[base+d] {
				t.nodeBoundsMax[base+d] = v
			}
		}
	}
}

// sortByDimension sorts idxArray[start:end] by the given dimension. Ties
// keep their current order so the tree shape is deterministic.
func (t *KDTree) sortByDimension(start, end, dim int) {
	sub := t.idxArray[start:end]
	dims := t.dims
	data := t.data
	sort.SliceStable(sub, func(i, j int) bool {
		return data[sub[i]*dims+dim] < data[sub[j]*dims+dim]
	})
}

func (t *KDTree) NumPoints() int   { return t.n }
func (t *KDTree) NumFeatures() int { return t.dims }
func (t *KDTree) NumNodes() int    { return t.numNodes }
func (t *KDTree) IdxArray() []int  { return t.idxArray }

// NodeDataArray returns the metadata of every built node in slot order.
func (t *KDTree) NodeDataArray() []NodeData {
	out := make([]NodeData, 0, t.numNodes)
	for _, nd := range t.nodes {
		if nd.built {
			out = append(out, nd)
		}
	}
	return out
}

func (t *KDTree) point(i int) []float64 {
	return t.data[i*t.dims : (i+1)*t.dims]
}

func (t *KDTree) valid(nodeID int) bool {
	return nodeID < len(t.nodes) && t.nodes[nodeID].built
}

// NearestDistance returns the distance from point i to its nearest other point.
func (t *KDTree) NearestDistance(i int) float64 {
	best := math.Inf(1)
	if t.n > 0 {
		t.nearestSearch(0, i, t.point(i), &best)
	}
	return best
}

func (t *KDTree) nearestSearch(nodeID, self int, query []float64, best *float64) {
	node := t.nodes[nodeID]

	if node.IsLeaf {
		for i := node.IdxStart; i < node.IdxEnd; i++ {
			ptIdx := t.idxArray[i]
			if ptIdx == self {
				continue
			}
			if d := t.metric.Distance(query, t.point(ptIdx)); d < *best {
				*best = d
			}
		}
		return
	}

	// Visit the nearer child first.
	left := 2*nodeID + 1
	right := 2*nodeID + 2
	leftBound := t.minDistPoint(left, query)
	rightBound := t.minDistPoint(right, query)

	nearChild, farChild := left, right
	nearBound, farBound := leftBound, rightBound
	if rightBound < leftBound {
		nearChild, farChild = right, left
		nearBound, farBound = rightBound, leftBound
	}

	if t.valid(nearChild) && !exceeds(nearBound, *best) {
		t.nearestSearch(nearChild, self, query, best)
	}
	if t.valid(farChild) && !exceeds(farBound, *best) {
		t.nearestSearch(farChild, self, query, best)
	}
}

// RadiusNeighbors returns the indices of all points within eps of point i,
// including i, sorted ascending.
func (t *KDTree) RadiusNeighbors(i int, eps float64) []int {
	var out []int
	if t.n > 0 {
		t.radiusSearch(0, t.point(i), eps, &out)
	}
	sort.Ints(out)
	return out
}

func (t *KDTree) radiusSearch(nodeID int, query []float64, eps float64, out *[]int) {
	if !t.valid(nodeID) || exceeds(t.minDistPoint(nodeID, query), eps) {
		return
	}
	node := t.nodes[nodeID]

	if node.IsLeaf {
		for i := node.IdxStart; i < node.IdxEnd; i++ {
			ptIdx := t.idxArray[i]
			if t.metric.Distance(query, t.point(ptIdx)) <= eps {
				*out = append(*out, ptIdx)
			}
		}
		return
	}

	t.radiusSearch(2*nodeID+1, query, eps, out)
	t.radiusSearch(2*nodeID+2, query, eps, out)
}

// minDistPoint returns a lower bound on the distance between a point and
// any point in the given node. Metrics that do not decompose along axes
// get a bound of 0, which disables pruning.
func (t *KDTree) minDistPoint(nodeID int, point []float64) float64 {
	if !t.valid(nodeID) {
		return math.Inf(1)
	}
	base := nodeID * t.dims

	var sum, maxGap float64
	for j := 0; j < t.dims; j++ {
		lo := t.nodeBoundsMin[base+j]
		hi := t.nodeBoundsMax[base+j]
		var d float64
		if point[j] < lo {
			d = lo - point[j]
		} else if point[j] > hi {
			d = point[j] - hi
		}
		switch t.metric.(type) {
		case EuclideanMetric:
			sum += d * d
		case ManhattanMetric:
			sum += d
		}
		if d > maxGap {
			maxGap = d
		}
	}

	switch t.metric.(type) {
	case EuclideanMetric:
		return math.Sqrt(sum)
	case ManhattanMetric:
		return sum
	case ChebyshevMetric:
		return maxGap
	default:
		return 0
	}
}

// exceeds reports whether bound lies beyond limit, allowing for rounding.
func exceeds(bound, limit float64) bool {
	return bound > limit+limit*boundSlack
}
