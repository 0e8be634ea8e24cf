package dbscan

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// flatCurveTol is the relative range below which a curve counts as flat.
const flatCurveTol = 1e-9

// Knee is the point of maximum curvature found on a sorted curve.
type Knee struct {
	// Index is the position of the knee on the curve.
	Index int

	// Value is the curve value at Index.
	Value float64

	// Score is the height of the normalized difference curve at the knee,
	// in [0, 1]. Zero for flat curves.
	Score float64

	// Flat is set when every curve value is (numerically) equal. The knee
	// then sits at the last index so Value is the curve maximum.
	Flat bool
}

// FindKnee locates the knee of a convex, increasing curve.
//
// Both axes are normalized to [0, 1]; the knee is the first index where
// the normalized curve lies furthest below the chord joining its endpoints
// (x - y is maximal). The knee must be distinguishable: the peak x - y has
// to reach sensitivity/(n-1), the mean step of the normalized x axis.
//
// A flat curve yields its last index. Curves shorter than 3 points return
// a *DataError; unsorted curves, curves without a distinguishable knee and
// knees at zero distance return a *DegenerateCurveError.
func FindKnee(curve []float64, sensitivity float64) (Knee, error) {
	n := len(curve)
	if n < 3 {
		return Knee{}, &DataError{Stage: StageRadius, N: n, Reason: "need at least 3 points to locate a knee"}
	}
	if !sort.Float64sAreSorted(curve) {
		return Knee{}, &DegenerateCurveError{N: n, Reason: "curve is not increasing"}
	}

	lo, hi := curve[0], curve[n-1]
	if hi-lo <= flatCurveTol*math.Abs(hi) {
		if hi <= 0 {
			return Knee{}, &DegenerateCurveError{N: n, Reason: "all nearest-neighbor distances are zero"}
		}
		return Knee{Index: n - 1, Value: hi, Flat: true}, nil
	}

	x := floats.Span(make([]float64, n), 0, 1)
	y := make([]float64, n)
	copy(y, curve)
	floats.AddConst(-lo, y)
	floats.Scale(1/(hi-lo), y)

	diff := floats.SubTo(make([]float64, n), x, y)
	idx := floats.MaxIdx(diff)
	score := diff[idx]

	if score < sensitivity/float64(n-1) {
		return Knee{}, &DegenerateCurveError{N: n, Reason: "no distinguishable knee"}
	}
	if curve[idx] <= 0 {
		return Knee{}, &DegenerateCurveError{N: n, Reason: "knee at zero distance"}
	}

	return Knee{Index: idx, Value: curve[idx], Score: score}, nil
}
