// Package dbscan implements Density-Based Spatial Clustering of Applications
// with Noise (DBSCAN) with automatic parameter selection.
//
// DBSCAN needs two parameters: the neighborhood radius eps and the minimum
// neighborhood size minPts. This package derives both from the data:
//
//   - eps is the distance at the knee of the sorted 1-nearest-neighbor
//     distance curve (see [SelectEps] and [FindKnee]).
//   - minPts is the value in [MinPtsLower, MinPtsUpper] that maximizes
//     coverage (the fraction of non-noise points) among candidates producing
//     more than one cluster (see [SelectMinPts]). When no candidate qualifies
//     the selection falls back to MinPtsLower.
//
// Basic usage:
//
//	cfg := dbscan.DefaultConfig()
//	out, err := dbscan.Run(data, cfg)
//	// out.Eps, out.MinPts are the selected parameters
//	// out.Labels[i] is the cluster ID for point i (-1 = noise)
//	// out.Summary.NoiseIndices lists the outliers
//
// The individual stages are exported for callers that already hold
// standardized data or fixed parameters:
//
//	std, err := dbscan.Standardize(data, dbscan.ZeroVarianceCenter)
//	radius, err := dbscan.SelectEps(std.Data, cfg)
//	density, err := dbscan.SelectMinPts(std.Data, radius.Eps, cfg)
//	result, err := dbscan.Cluster(std.Data, radius.Eps, density.MinPts, cfg)
//
// # Neighbor queries
//
// By default (Algorithm: "auto"), neighbor queries use a full pairwise
// distance matrix for small batches and a KD-tree for large, low-dimensional
// ones. Both produce identical neighborhoods, so labels do not depend on the
// choice:
//
//	cfg.Algorithm = dbscan.AlgorithmBrute   // full distance matrix
//	cfg.Algorithm = dbscan.AlgorithmKDTree  // KD-tree range queries
package dbscan
