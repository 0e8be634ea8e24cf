// Package metrics collects operational counters for clustering runs.
package metrics

import (
	"sync/atomic"
	"time"
)

// Collector receives run events. Implement it to forward counters to an
// external monitoring system.
type Collector interface {
	// RecordRun is called after each clustering request with the number of
	// points clustered, the total time taken, and the error (nil on success).
	RecordRun(domain string, points int, duration time.Duration, err error)

	// RecordFallback is called when minPts selection fell back to the default.
	RecordFallback(domain string)

	// RecordVisualization is called after each visualization hook.
	RecordVisualization(err error)

	// RecordRejected is called when a request is turned away by rate limiting.
	RecordRejected()
}

// Noop discards every event.
type Noop struct{}

func (Noop) RecordRun(string, int, time.Duration, error) {}
func (Noop) RecordFallback(string)                       {}
func (Noop) RecordVisualization(error)                   {}
func (Noop) RecordRejected()                             {}

// Basic keeps in-memory counters.
type Basic struct {
	RunCount            atomic.Int64
	RunErrors           atomic.Int64
	RunTotalNanos       atomic.Int64
	PointsClustered     atomic.Int64
	Fallbacks           atomic.Int64
	Visualizations      atomic.Int64
	VisualizationErrors atomic.Int64
	Rejected            atomic.Int64
}

// RecordRun implements Collector.
func (b *Basic) RecordRun(domain string, points int, duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
		return
	}
	b.PointsClustered.Add(int64(points))
}

// RecordFallback implements Collector.
func (b *Basic) RecordFallback(string) {
	b.Fallbacks.Add(1)
}

// RecordVisualization implements Collector.
func (b *Basic) RecordVisualization(err error) {
	b.Visualizations.Add(1)
	if err != nil {
		b.VisualizationErrors.Add(1)
	}
}

// RecordRejected implements Collector.
func (b *Basic) RecordRejected() {
	b.Rejected.Add(1)
}

// Stats is a point-in-time copy of Basic's counters.
type Stats struct {
	RunCount            int64 `json:"run_count"`
	RunErrors           int64 `json:"run_errors"`
	RunAvgNanos         int64 `json:"run_avg_nanos"`
	PointsClustered     int64 `json:"points_clustered"`
	Fallbacks           int64 `json:"min_samples_fallbacks"`
	Visualizations      int64 `json:"visualizations"`
	VisualizationErrors int64 `json:"visualization_errors"`
	Rejected            int64 `json:"rejected"`
}

// Stats returns a snapshot of the current counters.
func (b *Basic) Stats() Stats {
	return Stats{
		RunCount:            b.RunCount.Load(),
		RunErrors:           b.RunErrors.Load(),
		RunAvgNanos:         b.avgRunNanos(),
		PointsClustered:     b.PointsClustered.Load(),
		Fallbacks:           b.Fallbacks.Load(),
		Visualizations:      b.Visualizations.Load(),
		VisualizationErrors: b.VisualizationErrors.Load(),
		Rejected:            b.Rejected.Load(),
	}
}

func (b *Basic) avgRunNanos() int64 {
	count := b.RunCount.Load()
	if count == 0 {
		return 0
	}
	return b.RunTotalNanos.Load() / count
}
