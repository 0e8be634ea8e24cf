package dbscan

import "math"

// NeighborIndex answers the two neighbor queries DBSCAN parameter selection
// needs. Implementations are read-only after construction and safe for
// concurrent queries.
type NeighborIndex interface {
	// NumPoints returns the number of indexed points.
	NumPoints() int

	// NearestDistance returns the distance from point i to its nearest
	// other point. Duplicated points have a nearest distance of 0.
	// Returns +Inf when the index holds a single point.
	NearestDistance(i int) float64

	// RadiusNeighbors returns the indices of all points within eps
	// (inclusive) of point i, including i itself, sorted ascending.
	RadiusNeighbors(i int, eps float64) []int
}

// BruteIndex answers neighbor queries by scanning a precomputed n×n
// distance matrix.
type BruteIndex struct {
	dist []float64
	n    int
}

// NewBruteIndex computes the pairwise distance matrix for flat row-major
// data using numWorkers goroutines.
func NewBruteIndex(data []float64, n, dims int, metric DistanceMetric, numWorkers int) *BruteIndex {
	return &BruteIndex{
		dist: ComputePairwiseDistancesParallel(data, n, dims, metric, numWorkers),
		n:    n,
	}
}

func (b *BruteIndex) NumPoints() int { return b.n }

func (b *BruteIndex) NearestDistance(i int) float64 {
	best := math.Inf(1)
	row := b.dist[i*b.n : (i+1)*b.n]
	for j, d := range row {
		if j != i && d < best {
			best = d
		}
	}
	return best
}

func (b *BruteIndex) RadiusNeighbors(i int, eps float64) []int {
	var out []int
	row := b.dist[i*b.n : (i+1)*b.n]
	for j, d := range row {
		if d <= eps {
			out = append(out, j)
		}
	}
	return out
}
