package dbscan

import (
	"errors"
	"fmt"
)

// Stage names a step of the clustering pipeline. Errors returned by [Run]
// are wrapped in a [StageError] carrying the stage that failed.
type Stage string

const (
	StageFetch       Stage = "fetch"
	StageStandardize Stage = "standardize"
	StageRadius      Stage = "radius"
	StageDensity     Stage = "density"
	StageCluster     Stage = "cluster"
)

// DataError reports a batch that cannot be processed: too few points,
// ragged rows, non-finite values, or an invalid radius.
type DataError struct {
	Stage  Stage
	N      int
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("dbscan: %s: %s (n=%d)", e.Stage, e.Reason, e.N)
}

// DegenerateCurveError reports a nearest-neighbor distance curve without a
// distinguishable knee.
type DegenerateCurveError struct {
	N      int
	Reason string
}

func (e *DegenerateCurveError) Error() string {
	return fmt.Sprintf("dbscan: degenerate neighbor-distance curve: %s (n=%d)", e.Reason, e.N)
}

// ZeroVarianceFeatureError reports a feature column with no spread under
// [ZeroVarianceReject].
type ZeroVarianceFeatureError struct {
	Column int
}

func (e *ZeroVarianceFeatureError) Error() string {
	return fmt.Sprintf("dbscan: feature column %d has zero variance", e.Column)
}

// StageError wraps a pipeline failure with the stage that produced it.
//
// The original error can be accessed via errors.Unwrap.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the stage recorded on err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	var de *DataError
	if errors.As(err, &de) {
		return de.Stage, true
	}
	return "", false
}

func wrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
