package dbscan

import "sync"

// forEachRowRange splits rows [0, n) into numWorkers contiguous ranges and
// calls fn for each range on its own goroutine. Ranges never overlap, so fn
// may write to per-row output slots without synchronization. With
// numWorkers <= 1 fn runs once on the caller's goroutine.
func forEachRowRange(n, numWorkers int, fn func(start, end int)) {
	if numWorkers <= 1 || n <= 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > n {
			endRow = n
		}
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(startRow, endRow)
	}

	wg.Wait()
}

// ComputePairwiseDistancesParallel computes the full n×n distance matrix using
// multiple goroutines. data is flat row-major with n rows and dims columns.
// numWorkers controls the degree of parallelism; if <= 1, it falls back to
// single-threaded ComputePairwiseDistances.
//
// The result is bitwise identical to ComputePairwiseDistances: a flat []float64
// of length n×n in row-major order.
func ComputePairwiseDistancesParallel(data []float64, n, dims int, metric DistanceMetric, numWorkers int) []float64 {
	if numWorkers <= 1 || n <= 1 {
		return ComputePairwiseDistances(data, n, dims, metric)
	}

	result := make([]float64, n*n)

	// Each worker handles a contiguous range of "source" rows and computes
	// dist(i,j) for all j > i. Cell (i,j) and its mirror (j,i) are written
	// only by the worker owning row i.
	forEachRowRange(n, numWorkers, func(start, end int) {
		for i := start; i < end; i++ {
			for j := i + 1; j < n; j++ {
				d := metric.Distance(data[i*dims:(i+1)*dims], data[j*dims:(j+1)*dims])
				result[i*n+j] = d
				result[j*n+i] = d
			}
		}
	})

	return result
}

// NearestDistancesParallel returns, for every point in the index, the
// distance to its nearest other point. Element i belongs to point i.
func NearestDistancesParallel(index NeighborIndex, numWorkers int) []float64 {
	n := index.NumPoints()
	out := make([]float64, n)
	forEachRowRange(n, numWorkers, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = index.NearestDistance(i)
		}
	})
	return out
}

// ComputeNeighborhoodsParallel returns the eps-neighborhood of every point,
// each sorted ascending and including the point itself.
func ComputeNeighborhoodsParallel(index NeighborIndex, eps float64, numWorkers int) [][]int {
	n := index.NumPoints()
	out := make([][]int, n)
	forEachRowRange(n, numWorkers, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = index.RadiusNeighbors(i, eps)
		}
	})
	return out
}
