package dbscan

import "context"

// Outcome is the full result of automatic parameter selection and
// clustering over one batch.
type Outcome struct {
	// Eps and MinPts are the parameters used for the final labeling.
	Eps    float64
	MinPts int

	// MinPtsFallback is set when no minPts candidate produced more than one
	// cluster and MinPts defaulted to MinPtsLower.
	MinPtsFallback bool

	// Labels assigns each input row a cluster ID or Noise.
	Labels []int

	// Core reports whether each row is a core point.
	Core []bool

	Summary      Summary
	Radius       RadiusSelection
	Density      MinPtsSelection
	Standardized *Standardized
}

// Run standardizes data, selects eps and minPts, clusters and summarizes.
// Every call recomputes from scratch; nothing is cached between calls.
//
// Failures are returned as a *StageError naming the stage that failed;
// use errors.As to reach the underlying *DataError, *DegenerateCurveError
// or *ZeroVarianceFeatureError.
func Run(data [][]float64, cfg Config) (*Outcome, error) {
	return RunContext(context.Background(), data, cfg)
}

// RunContext is Run with cancellation. ctx is checked as each stage starts;
// a canceled run returns a *StageError wrapping ctx.Err() for the stage
// that was about to begin. Work inside a stage is not interrupted.
func RunContext(ctx context.Context, data [][]float64, cfg Config) (*Outcome, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}
	enter := func(stage Stage) error {
		if err := ctx.Err(); err != nil {
			return wrapStage(stage, err)
		}
		if cfg.OnStage != nil {
			cfg.OnStage(stage)
		}
		return nil
	}

	if err := enter(StageStandardize); err != nil {
		return nil, err
	}
	std, err := Standardize(data, cfg.ZeroVariance)
	if err != nil {
		return nil, wrapStage(StageStandardize, err)
	}

	if err := enter(StageRadius); err != nil {
		return nil, err
	}
	flat, n, dims, err := flatten(std.Data, StageRadius)
	if err != nil {
		return nil, wrapStage(StageRadius, err)
	}
	if n < 3 {
		return nil, wrapStage(StageRadius, &DataError{Stage: StageRadius, N: n,
			Reason: "need at least 3 points to build a neighbor-distance curve"})
	}

	// One index serves every neighbor query of the run.
	index, err := newNeighborIndex(flat, n, dims, cfg)
	if err != nil {
		return nil, wrapStage(StageRadius, err)
	}

	radius, err := selectEpsFromCurve(nearestNeighborCurve(index, cfg.Workers), cfg.KneeSensitivity)
	if err != nil {
		return nil, wrapStage(StageRadius, err)
	}

	if err := enter(StageDensity); err != nil {
		return nil, err
	}
	neighborhoods := ComputeNeighborhoodsParallel(index, radius.Eps, cfg.Workers)
	density := selectMinPts(neighborhoods, cfg.Workers)

	if err := enter(StageCluster); err != nil {
		return nil, err
	}
	// The final labeling re-runs the chosen minPts, including the fallback
	// value whose candidate run was excluded from scoring.
	if err := validateParams(radius.Eps, density.MinPts); err != nil {
		return nil, wrapStage(StageCluster, err)
	}
	result := labelNeighborhoods(neighborhoods, density.MinPts)

	return &Outcome{
		Eps:            radius.Eps,
		MinPts:         density.MinPts,
		MinPtsFallback: density.Fallback,
		Labels:         result.Labels,
		Core:           result.Core,
		Summary:        Summarize(result.Labels),
		Radius:         radius,
		Density:        density,
		Standardized:   std,
	}, nil
}
