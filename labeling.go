package dbscan

// labelNeighborhoods assigns DBSCAN labels from precomputed
// eps-neighborhoods.
//
// Core points within eps of each other are merged into one cluster. Cluster
// IDs are dense and ordered by each cluster's lowest-index core point. A
// border point adjacent to several clusters joins the one with the lowest
// ID, the cluster a sequential expansion in index order reaches first.
// Everything else is Noise.
func labelNeighborhoods(neighborhoods [][]int, minPts int) *Result {
	n := len(neighborhoods)
	core := CorePoints(neighborhoods, minPts)

	uf := NewUnionFind(n)
	for i, nb := range neighborhoods {
		if !core[i] {
			continue
		}
		for _, j := range nb {
			if j > i && core[j] {
				uf.Union(i, j)
			}
		}
	}

	labels := make([]int, n)
	rootLabel := make(map[int]int)
	for i := range labels {
		labels[i] = Noise
		if !core[i] {
			continue
		}
		root := uf.Find(i)
		l, ok := rootLabel[root]
		if !ok {
			l = len(rootLabel)
			rootLabel[root] = l
		}
		labels[i] = l
	}

	for i, nb := range neighborhoods {
		if core[i] {
			continue
		}
		for _, j := range nb {
			if core[j] && (labels[i] == Noise || labels[j] < labels[i]) {
				labels[i] = labels[j]
			}
		}
	}

	return &Result{
		Labels:      labels,
		Core:        core,
		NumClusters: len(rootLabel),
	}
}
