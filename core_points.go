package dbscan

// CorePoints reports, for each point, whether its eps-neighborhood (which
// includes the point itself) holds at least minPts points.
func CorePoints(neighborhoods [][]int, minPts int) []bool {
	core := make([]bool, len(neighborhoods))
	for i, nb := range neighborhoods {
		core[i] = len(nb) >= minPts
	}
	return core
}
