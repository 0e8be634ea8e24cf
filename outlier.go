package dbscan

// Summary partitions a labeling into clusters and noise.
type Summary struct {
	// NumClusters is the number of distinct non-noise labels.
	NumClusters int

	// NumNoise is the number of points labeled Noise.
	NumNoise int

	// NoiseIndices lists the noise points (outliers) in ascending order.
	NoiseIndices []int

	// ClusterSizes maps each cluster ID to its number of points.
	ClusterSizes map[int]int
}

// Coverage returns the fraction of points assigned to some cluster.
// An empty labeling has coverage 0.
func (s Summary) Coverage() float64 {
	total := s.NumNoise
	for _, size := range s.ClusterSizes {
		total += size
	}
	if total == 0 {
		return 0
	}
	return float64(total-s.NumNoise) / float64(total)
}

// Summarize splits labels into noise and clustered points and counts both.
func Summarize(labels []int) Summary {
	s := Summary{
		NoiseIndices: []int{},
		ClusterSizes: map[int]int{},
	}
	for i, l := range labels {
		if l == Noise {
			s.NumNoise++
			s.NoiseIndices = append(s.NoiseIndices, i)
			continue
		}
		s.ClusterSizes[l]++
	}
	s.NumClusters = len(s.ClusterSizes)
	return s
}
