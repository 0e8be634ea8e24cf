package dbscan

import (
	"math"

	"golang.org/x/sync/errgroup"
)

// Candidate records how one minPts value scored during the grid search.
type Candidate struct {
	MinPts      int
	NumClusters int
	NumNoise    int

	// Coverage is the fraction of points assigned to some cluster.
	Coverage float64

	// Admissible is set when the candidate produced more than one cluster.
	Admissible bool
}

// MinPtsSelection is the outcome of the minPts grid search.
type MinPtsSelection struct {
	// MinPts is the selected value, always in [MinPtsLower, MinPtsUpper].
	MinPts int

	// Coverage is the coverage of the selected value.
	Coverage float64

	// Fallback is set when no candidate was admissible and MinPts was set
	// to MinPtsLower by default rather than found.
	Fallback bool

	// Candidates lists every evaluated value in ascending minPts order.
	Candidates []Candidate
}

// SelectMinPts grid-searches minPts over [MinPtsLower, MinPtsUpper] with
// eps fixed.
//
// Each candidate is clustered and scored by coverage. Candidates yielding
// at most one cluster are not admissible. The admissible candidate with the
// strictly greatest coverage wins; ties go to the smaller minPts. Without
// any admissible candidate the selection falls back to MinPtsLower and sets
// Fallback.
func SelectMinPts(data [][]float64, eps float64, cfg Config) (MinPtsSelection, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return MinPtsSelection{}, err
	}
	flat, n, dims, err := flatten(data, StageDensity)
	if err != nil {
		return MinPtsSelection{}, err
	}
	if n == 0 {
		return MinPtsSelection{}, &DataError{Stage: StageDensity, N: 0, Reason: "empty batch"}
	}
	if !(eps > 0) || math.IsInf(eps, 0) {
		return MinPtsSelection{}, &DataError{Stage: StageDensity, N: n, Reason: "eps must be a positive finite number"}
	}

	index, err := newNeighborIndex(flat, n, dims, cfg)
	if err != nil {
		return MinPtsSelection{}, err
	}
	neighborhoods := ComputeNeighborhoodsParallel(index, eps, cfg.Workers)
	return selectMinPts(neighborhoods, cfg.Workers), nil
}

// selectMinPts scores every candidate from shared eps-neighborhoods. The
// neighborhoods do not depend on minPts, so each candidate only relabels.
// Candidates run concurrently; the reduction walks them in ascending order
// so the outcome equals a sequential scan.
func selectMinPts(neighborhoods [][]int, workers int) MinPtsSelection {
	n := len(neighborhoods)
	candidates := make([]Candidate, MinPtsUpper-MinPtsLower+1)

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for k := range candidates {
		minPts := MinPtsLower + k
		g.Go(func() error {
			res := labelNeighborhoods(neighborhoods, minPts)
			noise := countNoise(res.Labels)
			candidates[k] = Candidate{
				MinPts:      minPts,
				NumClusters: res.NumClusters,
				NumNoise:    noise,
				Coverage:    float64(n-noise) / float64(n),
				Admissible:  res.NumClusters > 1,
			}
			return nil
		})
	}
	_ = g.Wait()

	sel := MinPtsSelection{
		MinPts:     MinPtsLower,
		Coverage:   candidates[0].Coverage,
		Fallback:   true,
		Candidates: candidates,
	}
	best := math.Inf(-1)
	for _, c := range candidates {
		if c.Admissible && c.Coverage > best {
			best = c.Coverage
			sel.MinPts = c.MinPts
			sel.Coverage = c.Coverage
			sel.Fallback = false
		}
	}
	return sel
}

func countNoise(labels []int) int {
	noise := 0
	for _, l := range labels {
		if l == Noise {
			noise++
		}
	}
	return noise
}
