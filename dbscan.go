package dbscan

import (
	"fmt"
	"math"
	"runtime"
)

// Noise is the label assigned to points that belong to no cluster.
const Noise = -1

// Bounds of the minPts grid search. Every minPts accepted or produced by
// this package lies in [MinPtsLower, MinPtsUpper].
const (
	MinPtsLower = 2
	MinPtsUpper = 10
)

// Algorithm selects the neighbor query strategy.
type Algorithm string

const (
	AlgorithmAuto   Algorithm = "auto"
	AlgorithmBrute  Algorithm = "brute"
	AlgorithmKDTree Algorithm = "kdtree"
)

// ZeroVariancePolicy decides how [Standardize] treats a feature column
// whose values are all equal.
type ZeroVariancePolicy string

const (
	// ZeroVarianceCenter centers the column and leaves it at zero, so it
	// contributes nothing to distances.
	ZeroVarianceCenter ZeroVariancePolicy = "center"
	// ZeroVarianceReject fails with a ZeroVarianceFeatureError.
	ZeroVarianceReject ZeroVariancePolicy = "reject"
)

// Config controls neighbor queries and parameter selection.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Metric is the distance function used to measure point similarity.
	// Built-in: EuclideanMetric, ManhattanMetric, ChebyshevMetric. Use
	// DistanceFunc to wrap a custom function. Default: EuclideanMetric.
	Metric DistanceMetric

	// Algorithm selects the neighbor query strategy.
	// "auto" uses a KD-tree for large low-dimensional batches and the
	// full distance matrix otherwise. Default: "auto".
	Algorithm Algorithm

	// LeafSize controls the maximum number of points in a KD-tree leaf.
	// Only used with the KD-tree. Default: 40.
	LeafSize int

	// Workers controls the number of goroutines for parallelizable stages
	// (pairwise distances, nearest-neighbor distances, eps-neighborhoods,
	// minPts candidates). 0 means use runtime.NumCPU(). Default: 0 (auto).
	Workers int

	// ZeroVariance decides how Run standardizes constant feature columns.
	// Default: "center".
	ZeroVariance ZeroVariancePolicy

	// KneeSensitivity scales the threshold a knee must clear to count as
	// distinguishable: the peak of the normalized difference curve must be
	// at least KneeSensitivity/(n-1). Larger values reject shallower knees.
	// Must be >= 0. Default: 1.0.
	KneeSensitivity float64

	// OnStage, if set, is called by RunContext as each stage begins.
	OnStage func(Stage)
}

// Result contains the output of a single DBSCAN run.
type Result struct {
	// Labels assigns each point to a cluster (0-indexed cluster ID) or -1 for
	// noise. Cluster IDs are numbered in order of each cluster's
	// lowest-index core point.
	Labels []int

	// Core reports whether each point is a core point.
	Core []bool

	// NumClusters is the number of distinct non-noise labels.
	NumClusters int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Metric:          EuclideanMetric{},
		Algorithm:       AlgorithmAuto,
		LeafSize:        40,
		ZeroVariance:    ZeroVarianceCenter,
		KneeSensitivity: 1.0,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	switch cfg.Algorithm {
	case AlgorithmAuto, AlgorithmBrute, AlgorithmKDTree:
		// valid
	default:
		return fmt.Errorf("dbscan: invalid Algorithm %q", cfg.Algorithm)
	}
	if cfg.LeafSize < 1 {
		return fmt.Errorf("dbscan: LeafSize must be >= 1, got %d", cfg.LeafSize)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("dbscan: Workers must be >= 0, got %d", cfg.Workers)
	}
	if cfg.ZeroVariance != ZeroVarianceCenter && cfg.ZeroVariance != ZeroVarianceReject {
		return fmt.Errorf("dbscan: ZeroVariance must be %q or %q, got %q",
			ZeroVarianceCenter, ZeroVarianceReject, cfg.ZeroVariance)
	}
	if cfg.KneeSensitivity < 0 || math.IsNaN(cfg.KneeSensitivity) {
		return fmt.Errorf("dbscan: KneeSensitivity must be >= 0, got %f", cfg.KneeSensitivity)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmAuto
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 40
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ZeroVariance == "" {
		cfg.ZeroVariance = ZeroVarianceCenter
	}
}

// prepareConfig applies defaults and validates.
func prepareConfig(cfg Config) (Config, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ValidateConfig reports whether cfg is usable once zero fields are
// replaced by their defaults.
func ValidateConfig(cfg Config) error {
	_, err := prepareConfig(cfg)
	return err
}

// validateParams checks the DBSCAN parameters for a run.
func validateParams(eps float64, minPts int) error {
	if !(eps > 0) || math.IsInf(eps, 0) {
		return fmt.Errorf("dbscan: eps must be a positive finite number, got %v", eps)
	}
	if minPts < MinPtsLower || minPts > MinPtsUpper {
		return fmt.Errorf("dbscan: minPts must be in [%d, %d], got %d", MinPtsLower, MinPtsUpper, minPts)
	}
	return nil
}

// flatten copies data into a flat row-major slice, checking that every row
// has the same dimensionality and only finite values.
func flatten(data [][]float64, stage Stage) (flat []float64, n, dims int, err error) {
	n = len(data)
	if n == 0 {
		return nil, 0, 0, nil
	}
	dims = len(data[0])
	flat = make([]float64, n*dims)
	for i, row := range data {
		if len(row) != dims {
			return nil, n, dims, &DataError{Stage: stage, N: n,
				Reason: fmt.Sprintf("row %d has %d features, expected %d", i, len(row), dims)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, n, dims, &DataError{Stage: stage, N: n,
					Reason: fmt.Sprintf("non-finite value at row %d, column %d", i, j)}
			}
		}
		copy(flat[i*dims:], row)
	}
	return flat, n, dims, nil
}

// Cluster runs DBSCAN on data with fixed parameters.
// Each element is a point (float64 slice); all points must have the same
// dimensionality. A point is a core point when at least minPts points,
// itself included, lie within eps. eps must be positive and minPts must be
// in [MinPtsLower, MinPtsUpper].
func Cluster(data [][]float64, eps float64, minPts int, cfg Config) (*Result, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := validateParams(eps, minPts); err != nil {
		return nil, err
	}

	flat, n, dims, err := flatten(data, StageCluster)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return &Result{Labels: []int{}, Core: []bool{}}, nil
	}

	index, err := newNeighborIndex(flat, n, dims, cfg)
	if err != nil {
		return nil, err
	}
	neighborhoods := ComputeNeighborhoodsParallel(index, eps, cfg.Workers)
	return labelNeighborhoods(neighborhoods, minPts), nil
}
