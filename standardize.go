package dbscan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// zeroVarianceTol is the spread, relative to max(1, |mean|), below which a
// column counts as constant. Summation rounding leaves a constant column
// with a standard deviation of a few ulps of its mean rather than zero.
const zeroVarianceTol = 1e-12

// Standardized holds a batch rescaled to zero mean and unit variance per
// feature column.
type Standardized struct {
	// Data is the rescaled batch, one row per input row.
	Data [][]float64

	// Means and StdDevs are the per-column population statistics used for
	// the transform.
	Means   []float64
	StdDevs []float64

	// ZeroVarianceColumns lists columns without spread. Under
	// ZeroVarianceCenter they are all zeros in Data.
	ZeroVarianceColumns []int
}

// Standardize rescales each feature column to (x - mean) / std using the
// population standard deviation over the whole batch. data is not modified.
//
// A batch needs at least two rows. Constant columns are handled by policy:
// ZeroVarianceCenter leaves them at zero, ZeroVarianceReject returns a
// *ZeroVarianceFeatureError for the first one found.
func Standardize(data [][]float64, policy ZeroVariancePolicy) (*Standardized, error) {
	if policy == "" {
		policy = ZeroVarianceCenter
	}
	if policy != ZeroVarianceCenter && policy != ZeroVarianceReject {
		return nil, fmt.Errorf("dbscan: ZeroVariance must be %q or %q, got %q",
			ZeroVarianceCenter, ZeroVarianceReject, policy)
	}

	flat, n, dims, err := flatten(data, StageStandardize)
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, &DataError{Stage: StageStandardize, N: n, Reason: "need at least 2 points to standardize"}
	}
	if dims == 0 {
		return nil, &DataError{Stage: StageStandardize, N: n, Reason: "points have no features"}
	}

	out := &Standardized{
		Data:    make([][]float64, n),
		Means:   make([]float64, dims),
		StdDevs: make([]float64, dims),
	}
	for i := range out.Data {
		out.Data[i] = make([]float64, dims)
	}

	col := make([]float64, n)
	for j := 0; j < dims; j++ {
		for i := 0; i < n; i++ {
			col[i] = flat[i*dims+j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		out.Means[j] = mean

		if std <= zeroVarianceTol*math.Max(1, math.Abs(mean)) {
			if policy == ZeroVarianceReject {
				return nil, &ZeroVarianceFeatureError{Column: j}
			}
			out.ZeroVarianceColumns = append(out.ZeroVarianceColumns, j)
			continue
		}

		out.StdDevs[j] = std
		for i := 0; i < n; i++ {
			out.Data[i][j] = (col[i] - mean) / std
		}
	}

	return out, nil
}
