package dbscan

import "fmt"

// autoKDTreeMinPoints is the batch size from which AlgorithmAuto prefers the
// KD-tree. Below it the n*n matrix is small and faster to scan.
const autoKDTreeMinPoints = 2048

// autoKDTreeMaxDims caps the dimensionality for which AlgorithmAuto picks
// the KD-tree; bounding boxes stop pruning well in higher dimensions.
const autoKDTreeMaxDims = 20

// KDTreeValidMetric reports whether the metric supports KD-tree acceleration.
// KD-trees require metrics that decompose along coordinate axes:
// Euclidean, Manhattan, Chebyshev.
func KDTreeValidMetric(m DistanceMetric) bool {
	switch m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric:
		return true
	default:
		return false
	}
}

// selectAlgorithm resolves AlgorithmAuto into a concrete algorithm choice
// based on the metric, batch size and dimensionality, and validates that
// user-forced algorithm choices are compatible with the metric.
func selectAlgorithm(cfg Config, n, dims int) (Algorithm, error) {
	algo := cfg.Algorithm

	if algo == AlgorithmAuto {
		if KDTreeValidMetric(cfg.Metric) && n >= autoKDTreeMinPoints && dims <= autoKDTreeMaxDims {
			return AlgorithmKDTree, nil
		}
		return AlgorithmBrute, nil
	}

	if algo == AlgorithmKDTree && !KDTreeValidMetric(cfg.Metric) {
		return "", fmt.Errorf("dbscan: metric %T is not supported by the KD-tree", cfg.Metric)
	}

	return algo, nil
}

// newNeighborIndex builds the neighbor index selected by cfg over flat
// row-major data.
func newNeighborIndex(flat []float64, n, dims int, cfg Config) (NeighborIndex, error) {
	algo, err := selectAlgorithm(cfg, n, dims)
	if err != nil {
		return nil, err
	}
	if algo == AlgorithmKDTree {
		return NewKDTree(flat, n, dims, cfg.Metric, cfg.LeafSize), nil
	}
	return NewBruteIndex(flat, n, dims, cfg.Metric, cfg.Workers), nil
}
