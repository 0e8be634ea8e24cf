package dbscan

import "sort"

// RadiusSelection is the outcome of choosing eps from the data.
type RadiusSelection struct {
	// Eps is the distance at the knee of the nearest-neighbor curve.
	Eps float64

	// Knee describes where on Curve eps was taken.
	Knee Knee

	// Curve holds every point's nearest-neighbor distance, sorted ascending.
	Curve []float64
}

// NearestNeighborCurve returns the distance from every point to its nearest
// other point, sorted ascending. data needs at least 3 points.
func NearestNeighborCurve(data [][]float64, cfg Config) ([]float64, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}
	flat, n, dims, err := flatten(data, StageRadius)
	if err != nil {
		return nil, err
	}
	if n < 3 {
		return nil, &DataError{Stage: StageRadius, N: n, Reason: "need at least 3 points to build a neighbor-distance curve"}
	}
	index, err := newNeighborIndex(flat, n, dims, cfg)
	if err != nil {
		return nil, err
	}
	return nearestNeighborCurve(index, cfg.Workers), nil
}

func nearestNeighborCurve(index NeighborIndex, workers int) []float64 {
	curve := NearestDistancesParallel(index, workers)
	sort.Float64s(curve)
	return curve
}

// SelectEps derives eps as the knee of the nearest-neighbor distance curve
// of data. The result depends on the whole batch and is recomputed on
// every call.
func SelectEps(data [][]float64, cfg Config) (RadiusSelection, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return RadiusSelection{}, err
	}
	curve, err := NearestNeighborCurve(data, cfg)
	if err != nil {
		return RadiusSelection{}, err
	}
	return selectEpsFromCurve(curve, cfg.KneeSensitivity)
}

func selectEpsFromCurve(curve []float64, sensitivity float64) (RadiusSelection, error) {
	knee, err := FindKnee(curve, sensitivity)
	if err != nil {
		return RadiusSelection{}, err
	}
	return RadiusSelection{Eps: knee.Value, Knee: knee, Curve: curve}, nil
}
