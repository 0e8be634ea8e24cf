// Package visual receives fully labeled batches after each clustering run,
// for plotting or export.
package visual

import (
	"context"
	"time"
)

// LabeledBatch is a clustered batch in its original feature units.
type LabeledBatch struct {
	RequestID string
	Domain    string
	CreatedAt time.Time

	Eps    float64
	MinPts int

	IDs      []string
	Features []string
	Rows     [][]float64
	Labels   []int

	// Views lists feature pairs to plot against each other.
	Views [][2]string
}

// Visualizer consumes labeled batches. Implementations must not modify
// the batch.
type Visualizer interface {
	Render(ctx context.Context, b LabeledBatch) error
}

// Noop ignores every batch.
type Noop struct{}

// Render implements Visualizer.
func (Noop) Render(context.Context, LabeledBatch) error { return nil }
